// Package scanlog keeps a daily CSV log of every scan, with export and
// archive operations for handing the day's log to someone else.
package scanlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	filePrefix    = "scan_logs"
	exportPrefix  = "cellscanner_logs"
	archivePrefix = "archive_"

	dayLayout       = "20060102"
	timestampLayout = "2006-01-02 15:04:05"
)

// ErrNoData is returned by Export when today's log is missing or empty.
var ErrNoData = eris.New("scanlog: no data to export")

// Header is the first row of every log file.
var Header = []string{"Timestamp", "Code", "Status"}

const (
	StatusValid   = "VALID"
	StatusInvalid = "INVALID"
)

// Entry is one logged scan.
type Entry struct {
	Timestamp time.Time
	Code      string
	Status    string
}

// Option configures a Logger.
type Option func(*Logger)

// WithClock sets the clock used to pick the current day.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) { l.now = now }
}

// Logger appends scans to scan_logs_YYYYMMDD.csv in its directory. Safe for
// concurrent use.
type Logger struct {
	dir string
	now func() time.Time

	mu sync.Mutex
}

// New creates the log directory if needed and returns a Logger writing to it.
func New(dir string, opts ...Option) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "scanlog: create dir %s", dir)
	}
	l := &Logger{dir: dir, now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l, nil
}

// Dir returns the directory holding the log files.
func (l *Logger) Dir() string {
	return l.dir
}

// FileName returns the log file name for the day containing t.
func FileName(t time.Time) string {
	return fmt.Sprintf("%s_%s.csv", filePrefix, t.Format(dayLayout))
}

// CurrentPath returns today's log file path.
func (l *Logger) CurrentPath() string {
	return filepath.Join(l.dir, FileName(l.now()))
}

// LogScan appends one row to the log for the day of at. Only codes that
// passed validation are VALID; fallback decodes are INVALID. The header is
// written whenever the file is empty.
func (l *Logger) LogScan(code string, valid bool, at time.Time) error {
	status := StatusInvalid
	if valid {
		status = StatusValid
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	path := filepath.Join(l.dir, FileName(at))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return eris.Wrapf(err, "scanlog: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	info, err := f.Stat()
	if err != nil {
		return eris.Wrap(err, "scanlog: stat")
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return eris.Wrap(err, "scanlog: write header")
		}
	}
	if err := w.Write([]string{at.Format(timestampLayout), code, status}); err != nil {
		return eris.Wrap(err, "scanlog: write row")
	}
	w.Flush()
	return eris.Wrap(w.Error(), "scanlog: flush")
}

// Export copies today's log to dstDir as cellscanner_logs_YYYYMMDD.csv,
// overwriting any earlier export. Returns ErrNoData when there is nothing
// to export.
func (l *Logger) Export(dstDir string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	src := filepath.Join(l.dir, FileName(now))
	if empty, err := isEmpty(src); err != nil {
		return "", err
	} else if empty {
		return "", ErrNoData
	}

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "scanlog: create export dir %s", dstDir)
	}
	dst := filepath.Join(dstDir, fmt.Sprintf("%s_%s.csv", exportPrefix, now.Format(dayLayout)))
	if err := copyFile(src, dst); err != nil {
		return "", err
	}

	zap.L().Info("scanlog: exported", zap.String("path", dst))
	return dst, nil
}

// Archive renames today's log to archive_scan_logs_YYYYMMDD.csv and leaves an
// empty current log behind. It reports false when there was nothing to
// archive. An existing archive for the day is never overwritten; later
// archives get a numeric suffix.
func (l *Logger) Archive() (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	name := FileName(l.now())
	src := filepath.Join(l.dir, name)
	if empty, err := isEmpty(src); err != nil || empty {
		return "", false, err
	}

	dst := filepath.Join(l.dir, archivePrefix+name)
	for n := 2; fileExists(dst); n++ {
		dst = filepath.Join(l.dir, fmt.Sprintf("%s%s_%d.csv", archivePrefix, name[:len(name)-len(".csv")], n))
	}

	if err := os.Rename(src, dst); err != nil {
		return "", false, eris.Wrap(err, "scanlog: rename")
	}
	f, err := os.Create(src)
	if err != nil {
		return dst, true, eris.Wrap(err, "scanlog: recreate current log")
	}
	if err := f.Close(); err != nil {
		return dst, true, eris.Wrap(err, "scanlog: close current log")
	}

	zap.L().Info("scanlog: archived", zap.String("path", dst))
	return dst, true, nil
}

// Entries reads back the log for the day containing day. A missing file
// yields no entries.
func (l *Logger) Entries(day time.Time) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(filepath.Join(l.dir, FileName(day)))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "scanlog: open")
	}
	defer f.Close() //nolint:errcheck

	return ReadEntries(f, day.Location())
}

// ReadEntries parses a scan log. Timestamps are read in loc. Header rows
// and short rows are skipped.
func ReadEntries(r io.Reader, loc *time.Location) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var entries []Entry
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "scanlog: read row")
		}
		if len(rec) < 3 || rec[0] == Header[0] {
			continue
		}
		ts, err := time.ParseInLocation(timestampLayout, rec[0], loc)
		if err != nil {
			return nil, eris.Wrapf(err, "scanlog: parse timestamp %q", rec[0])
		}
		entries = append(entries, Entry{Timestamp: ts, Code: rec[1], Status: rec[2]})
	}
}

func isEmpty(path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "scanlog: stat %s", path)
	}
	return info.Size() == 0, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return eris.Wrapf(err, "scanlog: open %s", src)
	}
	defer in.Close() //nolint:errcheck

	out, err := os.Create(dst)
	if err != nil {
		return eris.Wrapf(err, "scanlog: create %s", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close() //nolint:errcheck
		return eris.Wrap(err, "scanlog: copy")
	}
	return eris.Wrap(out.Close(), "scanlog: close export")
}
