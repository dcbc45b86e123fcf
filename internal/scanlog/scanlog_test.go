package scanlog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, 3, 14, 9, 30, 5, 0, time.UTC)

func newTestLogger(t *testing.T) *Logger {
	t.Helper()
	l, err := New(filepath.Join(t.TempDir(), "logs"), WithClock(func() time.Time { return day }))
	require.NoError(t, err)
	return l
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "scan_logs_20260314.csv", FileName(day))
}

func TestLogScan_WritesHeaderOnce(t *testing.T) {
	l := newTestLogger(t)

	require.NoError(t, l.LogScan("ABCCB01234567JA118901234", true, day))
	require.NoError(t, l.LogScan("bad", false, day.Add(time.Second)))

	want := "Timestamp,Code,Status\n" +
		"2026-03-14 09:30:05,ABCCB01234567JA118901234,VALID\n" +
		"2026-03-14 09:30:06,bad,INVALID\n"
	assert.Equal(t, want, readFile(t, l.CurrentPath()))
}

func TestLogScan_QuotesCommas(t *testing.T) {
	l := newTestLogger(t)
	require.NoError(t, l.LogScan("A,B", false, day))

	entries, err := l.Entries(day)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "A,B", entries[0].Code)
	assert.Equal(t, StatusInvalid, entries[0].Status)
	assert.True(t, day.Equal(entries[0].Timestamp))
}

func TestLogScan_SplitsByDay(t *testing.T) {
	l := newTestLogger(t)
	next := day.AddDate(0, 0, 1)

	require.NoError(t, l.LogScan("one", true, day))
	require.NoError(t, l.LogScan("two", true, next))

	assert.FileExists(t, filepath.Join(l.Dir(), "scan_logs_20260314.csv"))
	assert.FileExists(t, filepath.Join(l.Dir(), "scan_logs_20260315.csv"))
}

func TestLogScan_Concurrent(t *testing.T) {
	l := newTestLogger(t)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.LogScan("CODE", i%2 == 0, day))
		}()
	}
	wg.Wait()

	entries, err := l.Entries(day)
	require.NoError(t, err)
	assert.Len(t, entries, 50)
	assert.Equal(t, 1, strings.Count(readFile(t, l.CurrentPath()), "Timestamp,Code,Status"))
}

func TestExport(t *testing.T) {
	l := newTestLogger(t)
	require.NoError(t, l.LogScan("ABC", true, day))

	dst := filepath.Join(t.TempDir(), "downloads")
	path, err := l.Export(dst)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dst, "cellscanner_logs_20260314.csv"), path)
	assert.Equal(t, readFile(t, l.CurrentPath()), readFile(t, path))

	// Second export overwrites.
	require.NoError(t, l.LogScan("DEF", true, day))
	_, err = l.Export(dst)
	require.NoError(t, err)
	assert.Contains(t, readFile(t, path), "DEF")
}

func TestExport_NoData(t *testing.T) {
	l := newTestLogger(t)

	_, err := l.Export(t.TempDir())
	assert.True(t, errors.Is(err, ErrNoData))

	require.NoError(t, os.WriteFile(l.CurrentPath(), nil, 0o644))
	_, err = l.Export(t.TempDir())
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestArchive(t *testing.T) {
	l := newTestLogger(t)
	require.NoError(t, l.LogScan("ABC", true, day))

	path, ok, err := l.Archive()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(l.Dir(), "archive_scan_logs_20260314.csv"), path)
	assert.Contains(t, readFile(t, path), "ABC")

	// Current log is recreated empty, so export has nothing.
	assert.Empty(t, readFile(t, l.CurrentPath()))
	_, err = l.Export(t.TempDir())
	assert.True(t, errors.Is(err, ErrNoData))

	// Nothing left to archive.
	_, ok, err = l.Archive()
	require.NoError(t, err)
	assert.False(t, ok)

	// New scans after archive get a fresh header.
	require.NoError(t, l.LogScan("DEF", false, day))
	assert.True(t, strings.HasPrefix(readFile(t, l.CurrentPath()), "Timestamp,Code,Status\n"))
}

func TestArchive_DoesNotOverwrite(t *testing.T) {
	l := newTestLogger(t)

	require.NoError(t, l.LogScan("first", true, day))
	first, ok, err := l.Archive()
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, l.LogScan("second", true, day))
	second, ok, err := l.Archive()
	require.NoError(t, err)
	require.True(t, ok)

	assert.NotEqual(t, first, second)
	assert.Equal(t, filepath.Join(l.Dir(), "archive_scan_logs_20260314_2.csv"), second)
	assert.Contains(t, readFile(t, first), "first")
	assert.Contains(t, readFile(t, second), "second")
}

func TestArchive_NothingToArchive(t *testing.T) {
	l := newTestLogger(t)
	_, ok, err := l.Archive()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEntries_MissingFile(t *testing.T) {
	l := newTestLogger(t)
	entries, err := l.Entries(day)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadEntries(t *testing.T) {
	input := "Timestamp,Code,Status\n" +
		"2026-03-14 09:30:05,ABC,VALID\n" +
		"short\n" +
		"Timestamp,Code,Status\n" +
		"2026-03-14 10:00:00,DEF,INVALID\n"

	entries, err := ReadEntries(strings.NewReader(input), time.UTC)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ABC", entries[0].Code)
	assert.Equal(t, day, entries[0].Timestamp)
	assert.Equal(t, StatusInvalid, entries[1].Status)
}

func TestReadEntries_BadTimestamp(t *testing.T) {
	_, err := ReadEntries(strings.NewReader("yesterday,ABC,VALID\n"), time.UTC)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse timestamp")
}
