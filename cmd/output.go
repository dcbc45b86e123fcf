package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sells-group/cellscan-cli/internal/batterycode"
	"github.com/sells-group/cellscan-cli/internal/export"
)

const formatTable = "table"

// writeResults prints results in a CLI format: table or any export format.
func writeResults(w io.Writer, format string, results []batterycode.Result) error {
	if format == formatTable {
		writeTable(w, results)
		return nil
	}
	return export.Write(w, format, results)
}

func writeTable(w io.Writer, results []batterycode.Result) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "Code:\t%s\n", r.Code)
		fmt.Fprintf(tw, "Valid:\t%t\n", r.Valid)
		fmt.Fprintf(tw, "Kind:\t%s\n", r.Kind)
		if !r.Decoded() {
			fmt.Fprintf(tw, "Fields:\t(none)\n")
			continue
		}
		for _, f := range r.Fields {
			fmt.Fprintf(tw, "%s:\t%s\n", f.Name, f.Value)
		}
	}
	tw.Flush() //nolint:errcheck
}
