package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/sells-group/cellscan-cli/internal/batterycode"
	"github.com/sells-group/cellscan-cli/internal/export"
	"github.com/sells-group/cellscan-cli/internal/tracker"
)

var (
	decodeFormat string
	decodeTrack  bool
)

var decodeCmd = &cobra.Command{
	Use:   "decode <code>...",
	Short: "Decode one or more battery codes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("decode"); err != nil {
			return err
		}
		if decodeFormat != formatTable && (!export.IsFormat(decodeFormat) || decodeFormat == export.FormatXLSX) {
			return fmt.Errorf("unsupported format %q", decodeFormat)
		}

		ctx := cmd.Context()
		d := newDecoder()

		var tr *tracker.Tracker
		if decodeTrack {
			t, closeFn, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer closeFn()
			tr = t
		}

		results := make([]batterycode.Result, 0, len(args))
		for _, code := range args {
			r := d.DecodeBatteryCode(code)
			results = append(results, r)
			if tr != nil {
				if _, err := tr.Track(ctx, r, "cli"); err != nil {
					return err
				}
			}
		}
		return writeResults(cmd.OutOrStdout(), decodeFormat, results)
	},
}

func init() {
	formats := append([]string{formatTable}, slices.DeleteFunc(slices.Clone(export.Formats), func(f string) bool {
		return f == export.FormatXLSX
	})...)
	decodeCmd.Flags().StringVar(&decodeFormat, "format", formatTable, fmt.Sprintf("output format %v", formats))
	decodeCmd.Flags().BoolVar(&decodeTrack, "track", false, "record scans in the store and scan log")
	rootCmd.AddCommand(decodeCmd)
}
