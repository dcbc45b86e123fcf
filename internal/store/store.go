// Package store persists scan history and the set of codes seen so far.
package store

import (
	"context"

	"github.com/sells-group/cellscan-cli/internal/model"
)

// ScanFilter specifies criteria for listing scans.
type ScanFilter struct {
	Status model.ScanStatus `json:"status,omitempty"`
	Code   string           `json:"code,omitempty"`
	Limit  int              `json:"limit,omitempty"`
	Offset int              `json:"offset,omitempty"`
}

// defaultListLimit caps ListScans when the filter sets no limit.
const defaultListLimit = 100

func (f ScanFilter) limit() int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

// Store defines the persistence interface for scan tracking. The decoding
// core never touches it; callers record results after decoding.
type Store interface {
	// RecordScan saves a scan, assigning its ID. The bool reports whether
	// this is the first scan of the code.
	RecordScan(ctx context.Context, rec model.ScanRecord) (*model.ScanRecord, bool, error)
	// ImportScans bulk-saves scans and returns the number written.
	ImportScans(ctx context.Context, recs []model.ScanRecord) (int64, error)

	IsKnownCode(ctx context.Context, code string) (bool, error)
	CountUniqueCodes(ctx context.Context) (int, error)
	// LastScan returns the most recent scan, or nil when none exist.
	LastScan(ctx context.Context) (*model.ScanRecord, error)
	ListScans(ctx context.Context, filter ScanFilter) ([]model.ScanRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
