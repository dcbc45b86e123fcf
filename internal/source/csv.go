package source

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// CSVOptions configures code extraction from a CSV stream.
type CSVOptions struct {
	Column    int    // zero-based column holding the code
	HasHeader bool   // skip the first row
	Delimiter rune   // default ','
	Comment   rune   // comment character (0 = none)
	Charset   string // WHATWG label, e.g. "windows-1252"; empty means UTF-8
}

// charsetReader wraps r so it decodes from the named charset.
func charsetReader(r io.Reader, charset string) (io.Reader, error) {
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		return r, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "source: unsupported charset %q", charset)
	}
	return enc.NewDecoder().Reader(r), nil
}

// StreamCodes reads codes from one CSV column and sends them on a channel.
// Blank cells and short rows are skipped. Both channels are closed when
// reading completes; at most one error is sent.
func StreamCodes(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan string, <-chan error) {
	codeCh := make(chan string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(codeCh)
		defer close(errCh)

		if opts.Column < 0 {
			errCh <- eris.Errorf("source: negative column %d", opts.Column)
			return
		}

		in, err := charsetReader(r, opts.Charset)
		if err != nil {
			errCh <- err
			return
		}

		reader := csv.NewReader(in)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		if opts.Comment != 0 {
			reader.Comment = opts.Comment
		}
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		first := true
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "source: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "source: read csv row")
				return
			}

			if first {
				first = false
				if opts.HasHeader {
					continue
				}
			}

			if opts.Column >= len(record) {
				continue
			}
			code := strings.TrimSpace(strings.TrimPrefix(record[opts.Column], "\ufeff"))
			if code == "" {
				continue
			}

			select {
			case codeCh <- code:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "source: context cancelled")
				return
			}
		}
	}()

	return codeCh, errCh
}
