// Package source reads battery codes for batch decoding from local files,
// FTP drops or object storage, as CSV or XLSX.
package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/cellscan-cli/internal/resilience"
)

// ObjectStore fetches s3:// locations.
type ObjectStore interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
	DownloadToFile(ctx context.Context, location, dst string) (int64, error)
}

// Option configures Open and LocalPath.
type Option func(*options)

type options struct {
	objects ObjectStore
}

// WithObjectStore enables s3:// locations.
func WithObjectStore(st ObjectStore) Option {
	return func(o *options) { o.objects = st }
}

func buildOptions(opts []Option) options {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// IsRemote reports whether location names an FTP resource.
func IsRemote(location string) bool {
	return strings.HasPrefix(strings.ToLower(location), "ftp://")
}

// IsObject reports whether location names an s3:// object.
func IsObject(location string) bool {
	return strings.HasPrefix(strings.ToLower(location), "s3://")
}

func (o options) objectStore(location string) (ObjectStore, error) {
	if o.objects == nil {
		return nil, eris.Errorf("source: %s needs object storage configured", location)
	}
	return o.objects, nil
}

// Open returns a reader for a local path, an ftp:// URL or an s3:// URL. The
// caller must close it.
func Open(ctx context.Context, location string, opts ...Option) (io.ReadCloser, error) {
	if IsObject(location) {
		st, err := buildOptions(opts).objectStore(location)
		if err != nil {
			return nil, err
		}
		return resilience.DoVal(ctx, resilience.DownloadRetryConfig(), func(ctx context.Context) (io.ReadCloser, error) {
			return st.Open(ctx, location)
		})
	}
	if IsRemote(location) {
		f := NewFTPFetcher(FTPOptions{})
		return resilience.DoVal(ctx, resilience.DownloadRetryConfig(), func(ctx context.Context) (io.ReadCloser, error) {
			return f.Download(ctx, location)
		})
	}

	file, err := os.Open(location)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open %s", location)
	}
	return file, nil
}

// LocalPath returns a path on disk holding location's content. Remote files
// are downloaded into a temp dir that cleanup removes.
func LocalPath(ctx context.Context, location string, opts ...Option) (path string, cleanup func(), err error) {
	isObject := IsObject(location)
	if !IsRemote(location) && !isObject {
		return location, func() {}, nil
	}

	var st ObjectStore
	if isObject {
		if st, err = buildOptions(opts).objectStore(location); err != nil {
			return "", nil, err
		}
	}

	dir, err := os.MkdirTemp("", "cellscan-*")
	if err != nil {
		return "", nil, eris.Wrap(err, "source: create temp dir")
	}
	cleanup = func() { os.RemoveAll(dir) } //nolint:errcheck

	var (
		remotePath string
		download   func(ctx context.Context) (int64, error)
	)
	if isObject {
		remotePath = location
		download = func(ctx context.Context) (int64, error) {
			return st.DownloadToFile(ctx, location, path)
		}
	} else {
		t, perr := parseFTPURL(location)
		if perr != nil {
			cleanup()
			return "", nil, perr
		}
		remotePath = t.path
		f := NewFTPFetcher(FTPOptions{})
		download = func(ctx context.Context) (int64, error) {
			return f.DownloadToFile(ctx, location, path)
		}
	}
	path = filepath.Join(dir, filepath.Base(remotePath))

	n, err := resilience.DoVal(ctx, resilience.DownloadRetryConfig(), download)
	if err != nil {
		cleanup()
		return "", nil, err
	}

	zap.L().Debug("source: downloaded", zap.String("location", location), zap.Int64("bytes", n))
	return path, cleanup, nil
}

// Codes sends each non-blank code on the returned channel, then closes it.
func Codes(ctx context.Context, codes []string) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		for _, c := range codes {
			c = strings.TrimSpace(c)
			if c == "" {
				continue
			}
			select {
			case ch <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
