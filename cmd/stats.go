package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/cellscan-cli/internal/model"
	"github.com/sells-group/cellscan-cli/internal/store"
	"github.com/sells-group/cellscan-cli/internal/tracker"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show unique code count and the last scan",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		stats, err := tracker.New(st).Stats(ctx)
		if err != nil {
			return eris.Wrap(err, "stats")
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Unique codes:\t%d\n", stats.UniqueCodes)
		if stats.LastScan == nil {
			fmt.Fprintf(w, "Last scan:\t-\n")
		} else {
			fmt.Fprintf(w, "Last scan:\t%s %s (%s)\n",
				stats.LastScan.ScannedAt.Local().Format(time.DateTime), stats.LastScan.Code, stats.LastScan.Status)
		}
		return w.Flush()
	},
}

// -- scans --

var scansCmd = &cobra.Command{
	Use:   "scans",
	Short: "List recorded scans, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		code, _ := cmd.Flags().GetString("code")
		limit, _ := cmd.Flags().GetInt("limit")

		scans, err := st.ListScans(ctx, store.ScanFilter{
			Status: model.ScanStatus(strings.ToUpper(status)),
			Code:   code,
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "scans list")
		}
		if len(scans) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No scans found.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SCANNED AT\tCODE\tSTATUS\tKIND\tSOURCE")
		for _, s := range scans {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				s.ScannedAt.Local().Format(time.DateTime), s.Code, s.Status, s.Kind, s.Source)
		}
		return w.Flush()
	},
}

func init() {
	statsCmd.Flags().Bool("json", false, "print JSON")

	scansCmd.Flags().String("status", "", "filter by status (VALID, INVALID)")
	scansCmd.Flags().String("code", "", "filter by code")
	scansCmd.Flags().Int("limit", 20, "maximum scans to list")

	rootCmd.AddCommand(statsCmd, scansCmd)
}
