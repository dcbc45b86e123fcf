package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/cellscan-cli/internal/model"
	"github.com/sells-group/cellscan-cli/internal/scanlog"
	"github.com/sells-group/cellscan-cli/internal/source"
)

// importSource tags scans loaded from scan log files.
const importSource = "import"

var importCmd = &cobra.Command{
	Use:   "import <scan_log.csv>...",
	Short: "Load scan log files into the scan store",
	Long:  "Re-decodes every row of one or more scan_logs CSV files (local, ftp:// or s3://) and bulk-inserts them as scans with their original timestamps.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		srcOpts, err := sourceOptions(ctx, args...)
		if err != nil {
			return err
		}

		d := newDecoder()
		var total int64
		for _, location := range args {
			rc, err := source.Open(ctx, location, srcOpts...)
			if err != nil {
				return err
			}
			entries, err := scanlog.ReadEntries(rc, time.Local)
			rc.Close() //nolint:errcheck
			if err != nil {
				return eris.Wrapf(err, "import %s", location)
			}

			recs := make([]model.ScanRecord, 0, len(entries))
			for _, e := range entries {
				recs = append(recs, model.NewScanRecord(d.DecodeBatteryCode(e.Code), importSource, e.Timestamp))
			}

			n, err := st.ImportScans(ctx, recs)
			if err != nil {
				return eris.Wrapf(err, "import %s", location)
			}
			total += n
			zap.L().Info("import: loaded scan log", zap.String("location", location), zap.Int64("scans", n))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d scans.\n", total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
