package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/cellscan-cli/internal/objstore"
	"github.com/sells-group/cellscan-cli/internal/scanlog"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Manage the daily scan log",
	Long:  "Export or archive today's scan_logs_YYYYMMDD.csv.",
}

// -- logs export --

var logsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Copy today's scan log to a directory or object storage",
	RunE: func(cmd *cobra.Command, _ []string) error {
		l, err := scanlog.New(cfg.ScanLog.Dir)
		if err != nil {
			return err
		}

		dest, _ := cmd.Flags().GetString("dest")
		if dest == "" {
			dest = cfg.ScanLog.ExportDir
		}

		local := dest
		if objstore.IsURL(dest) {
			dir, err := os.MkdirTemp("", "cellscan-export-*")
			if err != nil {
				return eris.Wrap(err, "logs export: create temp dir")
			}
			defer os.RemoveAll(dir) //nolint:errcheck
			local = dir
		}

		path, err := l.Export(local)
		if errors.Is(err, scanlog.ErrNoData) {
			fmt.Fprintln(cmd.ErrOrStderr(), "No scan log data to export.")
			return nil
		}
		if err != nil {
			return eris.Wrap(err, "logs export")
		}

		if objstore.IsURL(dest) {
			st, err := newObjectStore(cmd.Context())
			if err != nil {
				return err
			}
			if path, err = st.UploadFile(cmd.Context(), path, dest); err != nil {
				return eris.Wrap(err, "logs export")
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported scan log to %s\n", path)
		return nil
	},
}

// -- logs archive --

var logsArchiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive today's scan log and start a fresh one",
	RunE: func(cmd *cobra.Command, _ []string) error {
		l, err := scanlog.New(cfg.ScanLog.Dir)
		if err != nil {
			return err
		}

		path, ok, err := l.Archive()
		if err != nil {
			return eris.Wrap(err, "logs archive")
		}
		if !ok {
			fmt.Fprintln(cmd.ErrOrStderr(), "Nothing to archive.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Archived scan log to %s\n", path)
		return nil
	},
}

func init() {
	logsExportCmd.Flags().String("dest", "", "destination directory or s3://bucket/prefix/ (default scanlog.export_dir)")

	logsCmd.AddCommand(logsExportCmd, logsArchiveCmd)
	rootCmd.AddCommand(logsCmd)
}
