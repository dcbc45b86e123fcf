package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/cellscan-cli/internal/model"
)

// MemoryStore implements Store in process memory. It backs the "memory"
// driver and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	scans []model.ScanRecord
	codes map[string]int
}

// NewMemory returns an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{codes: make(map[string]int)}
}

func (m *MemoryStore) Migrate(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) RecordScan(_ context.Context, rec model.ScanRecord) (*model.ScanRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	saved := m.insert(rec)
	return &saved, m.codes[saved.Code] == 1, nil
}

func (m *MemoryStore) ImportScans(_ context.Context, recs []model.ScanRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range recs {
		m.insert(rec)
	}
	return int64(len(recs)), nil
}

// insert requires m.mu held.
func (m *MemoryStore) insert(rec model.ScanRecord) model.ScanRecord {
	rec.ID = uuid.New().String()
	if rec.ScannedAt.IsZero() {
		rec.ScannedAt = time.Now().UTC()
	}
	m.scans = append(m.scans, rec)
	m.codes[rec.Code]++
	return rec
}

func (m *MemoryStore) IsKnownCode(_ context.Context, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.codes[code] > 0, nil
}

func (m *MemoryStore) CountUniqueCodes(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.codes), nil
}

func (m *MemoryStore) LastScan(context.Context) (*model.ScanRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sorted := m.newestFirst()
	if len(sorted) == 0 {
		return nil, nil
	}
	return &sorted[0], nil
}

func (m *MemoryStore) ListScans(_ context.Context, filter ScanFilter) ([]model.ScanRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.ScanRecord
	skipped := 0
	for _, rec := range m.newestFirst() {
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		if filter.Code != "" && rec.Code != filter.Code {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		out = append(out, rec)
		if len(out) == filter.limit() {
			break
		}
	}
	return out, nil
}

// newestFirst requires m.mu held. Ties keep the later insert first.
func (m *MemoryStore) newestFirst() []model.ScanRecord {
	sorted := make([]model.ScanRecord, len(m.scans))
	for i, rec := range m.scans {
		sorted[len(m.scans)-1-i] = rec
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ScannedAt.After(sorted[j].ScannedAt)
	})
	return sorted
}
