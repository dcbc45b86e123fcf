package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/cellscan-cli/internal/batch"
	"github.com/sells-group/cellscan-cli/internal/batterycode"
	"github.com/sells-group/cellscan-cli/internal/export"
	"github.com/sells-group/cellscan-cli/internal/objstore"
	"github.com/sells-group/cellscan-cli/internal/source"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Decode every code in a CSV or XLSX file",
	Long:  "Reads codes from one column of a local, ftp:// or s3:// CSV or XLSX file, decodes them concurrently and writes the results in input order.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("batch"); err != nil {
			return err
		}
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		input, _ := cmd.Flags().GetString("input")
		useXLSX, _ := cmd.Flags().GetBool("xlsx")
		column, _ := cmd.Flags().GetInt("column")
		header, _ := cmd.Flags().GetBool("header")
		charset, _ := cmd.Flags().GetString("charset")
		sheet, _ := cmd.Flags().GetString("sheet")
		output, _ := cmd.Flags().GetString("output")
		format, _ := cmd.Flags().GetString("format")
		track, _ := cmd.Flags().GetBool("track")
		concurrency, _ := cmd.Flags().GetInt("concurrency")

		if !export.IsFormat(format) {
			return fmt.Errorf("unsupported format %q", format)
		}
		if concurrency <= 0 {
			concurrency = cfg.Batch.Concurrency
		}
		if strings.EqualFold(filepath.Ext(input), ".xlsx") {
			useXLSX = true
		}

		opts := []batch.Option{batch.WithConcurrency(concurrency)}
		if track {
			tr, closeFn, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer closeFn()
			opts = append(opts, batch.WithTracker(tr))
		}
		runner := batch.NewRunner(newDecoder(), opts...)

		srcOpts, err := sourceOptions(ctx, input, output)
		if err != nil {
			return err
		}

		var (
			codes  <-chan string
			srcErr <-chan error
		)
		if useXLSX {
			path, cleanup, err := source.LocalPath(ctx, input, srcOpts...)
			if err != nil {
				return err
			}
			defer cleanup()

			list, err := source.ReadXLSXCodes(path, source.XLSXOptions{
				SheetName: sheet,
				Column:    column,
				HasHeader: header,
			})
			if err != nil {
				return err
			}
			codes = source.Codes(ctx, list)
		} else {
			rc, err := source.Open(ctx, input, srcOpts...)
			if err != nil {
				return err
			}
			defer rc.Close() //nolint:errcheck

			codes, srcErr = source.StreamCodes(ctx, rc, source.CSVOptions{
				Column:    column,
				HasHeader: header,
				Charset:   charset,
			})
		}

		results, sum, err := runner.Run(ctx, codes)
		if err != nil {
			return err
		}
		if srcErr != nil {
			if err := <-srcErr; err != nil {
				return err
			}
		}

		if objstore.IsURL(output) {
			loc, err := uploadBatchOutput(ctx, output, format, results)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Uploaded results to %s\n", loc)
		} else if err := writeBatchOutput(cmd.OutOrStdout(), output, format, results); err != nil {
			return err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "Decoded %d codes: %d valid, %d fallback, %d undecodable", sum.Total, sum.Valid, sum.Fallback, sum.Undecodable)
		if track {
			fmt.Fprintf(cmd.ErrOrStderr(), ", %d new", sum.NewCodes)
		}
		fmt.Fprintln(cmd.ErrOrStderr())
		return nil
	},
}

func writeBatchOutput(stdout io.Writer, output, format string, results []batterycode.Result) error {
	if output == "" || output == "-" {
		return export.Write(stdout, format, results)
	}

	f, err := os.Create(output)
	if err != nil {
		return eris.Wrapf(err, "batch: create %s", output)
	}
	if err := export.Write(f, format, results); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "batch: close %s", output)
	}
	zap.L().Info("batch: wrote results", zap.String("path", output), zap.Int("count", len(results)))
	return nil
}

// uploadBatchOutput writes results to a temp file named after the output
// key, then puts it to object storage.
func uploadBatchOutput(ctx context.Context, output, format string, results []batterycode.Result) (string, error) {
	_, key, err := objstore.ParseURL(output)
	if err != nil {
		return "", err
	}
	name := path.Base(key)
	if key == "" || strings.HasSuffix(key, "/") {
		name = "cellscan_batch." + format
	}

	dir, err := os.MkdirTemp("", "cellscan-out-*")
	if err != nil {
		return "", eris.Wrap(err, "batch: create temp dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	local := filepath.Join(dir, name)
	if err := writeBatchOutput(io.Discard, local, format, results); err != nil {
		return "", err
	}
	st, err := newObjectStore(ctx)
	if err != nil {
		return "", err
	}
	return st.UploadFile(ctx, local, output)
}

func init() {
	f := batchCmd.Flags()
	f.String("input", "", "CSV or XLSX file path, ftp:// URL or s3:// URL")
	f.Bool("xlsx", false, "read input as XLSX (implied by a .xlsx extension)")
	f.Int("column", 0, "zero-based column holding the codes")
	f.Bool("header", false, "skip the first row")
	f.String("charset", "", "CSV charset label, e.g. windows-1252 (default UTF-8)")
	f.String("sheet", "", "XLSX sheet name (default first sheet)")
	f.String("output", "", "output path or s3:// URL (default stdout)")
	f.String("format", export.FormatJSON, fmt.Sprintf("output format %v", export.Formats))
	f.Bool("track", false, "record scans in the store and scan log")
	f.Int("concurrency", 0, "concurrent decodes (default from config)")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}
