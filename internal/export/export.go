// Package export writes decode results as JSON, YAML, CSV or XLSX.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"slices"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/cellscan-cli/internal/batterycode"
)

// Supported formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Formats lists every supported format.
var Formats = []string{FormatJSON, FormatYAML, FormatCSV, FormatXLSX}

// Columns is the tabular column order: Code, Valid, Kind, then every field.
var Columns = append([]string{"Code", "Valid", "Kind"}, batterycode.FieldNames...)

// Write dispatches on format.
func Write(w io.Writer, format string, results []batterycode.Result) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, results)
	case FormatYAML:
		return WriteYAML(w, results)
	case FormatCSV:
		return WriteCSV(w, results)
	case FormatXLSX:
		return WriteXLSX(w, results)
	default:
		return eris.Errorf("export: unknown format %q (want one of %v)", format, Formats)
	}
}

// IsFormat reports whether format is supported.
func IsFormat(format string) bool {
	return slices.Contains(Formats, format)
}

// WriteJSON writes results as an indented JSON array with fields in decode
// order.
func WriteJSON(w io.Writer, results []batterycode.Result) error {
	if results == nil {
		results = []batterycode.Result{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(results), "export: encode json")
}

// WriteYAML writes results as a YAML sequence. Fields are emitted as a
// mapping in decode order.
func WriteYAML(w io.Writer, results []batterycode.Result) error {
	doc := &yaml.Node{Kind: yaml.SequenceNode}
	for _, r := range results {
		doc.Content = append(doc.Content, resultNode(r))
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return eris.Wrap(err, "export: encode yaml")
	}
	return eris.Wrap(enc.Close(), "export: close yaml encoder")
}

func resultNode(r batterycode.Result) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode}
	n.Content = append(n.Content,
		scalar("code"), scalar(r.Code),
		scalar("valid"), &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(r.Valid)},
		scalar("kind"), scalar(string(r.Kind)),
	)

	fields := &yaml.Node{Kind: yaml.MappingNode}
	if r.Fields == nil {
		fields = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
	for _, f := range r.Fields {
		fields.Content = append(fields.Content, scalar(f.Name), scalar(f.Value))
	}
	n.Content = append(n.Content, scalar("fields"), fields)
	return n
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

// Row flattens r into Columns order. Absent fields are empty.
func Row(r batterycode.Result) []string {
	row := make([]string, 0, len(Columns))
	row = append(row, r.Code, strconv.FormatBool(r.Valid), string(r.Kind))
	values := r.Fields.Map()
	for _, name := range batterycode.FieldNames {
		row = append(row, values[name])
	}
	return row
}

// WriteCSV writes a header row then one row per result.
func WriteCSV(w io.Writer, results []batterycode.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, r := range results {
		if err := cw.Write(Row(r)); err != nil {
			return eris.Wrapf(err, "export: write csv row %s", r.Code)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// SheetName is the worksheet WriteXLSX creates.
const SheetName = "Decoded"

// WriteXLSX writes a single-sheet workbook in CSV column order.
func WriteXLSX(w io.Writer, results []batterycode.Result) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	addRow(sheet, Columns)
	for _, r := range results {
		addRow(sheet, Row(r))
	}

	return eris.Wrap(f.Write(w), "export: write xlsx")
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
