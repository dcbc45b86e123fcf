// Package tracker records each decoded scan: it persists the scan, appends
// it to the daily scan log, and derives analytics events (first sighting of
// a code, time since the previous scan, invalid scans) exposed as zap logs
// and Prometheus metrics.
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/cellscan-cli/internal/batterycode"
	"github.com/sells-group/cellscan-cli/internal/model"
	"github.com/sells-group/cellscan-cli/internal/resilience"
	"github.com/sells-group/cellscan-cli/internal/store"
)

// Event names.
const (
	EventUniqueCode   = "unique_code_scanned"
	EventBetweenScans = "time_between_scans"
	EventInvalidCode  = "invalid_code_scanned"
	EventCellScanned  = "cell_code_scanned"
	EventCellInvalid  = "cell_code_invalid"
)

// Event is one analytics event derived from a scan.
type Event struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

// Outcome is what tracking one scan produced.
type Outcome struct {
	Record    *model.ScanRecord `json:"record"`
	FirstSeen bool              `json:"first_seen"`
	Events    []Event           `json:"events"`
}

// Event returns the named event, or nil.
func (o *Outcome) Event(name string) *Event {
	for i := range o.Events {
		if o.Events[i].Name == name {
			return &o.Events[i]
		}
	}
	return nil
}

// ScanLogger receives every tracked scan. *scanlog.Logger implements it.
type ScanLogger interface {
	LogScan(code string, valid bool, at time.Time) error
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock sets the clock used to timestamp scans.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithScanLog appends every scan to l.
func WithScanLog(l ScanLogger) Option {
	return func(t *Tracker) { t.scanLog = l }
}

// WithRetry overrides the retry policy for store writes.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(t *Tracker) { t.retry = cfg }
}

// Tracker is safe for concurrent use. Scans are tracked one at a time so
// the time between scans is measured in the order they were recorded.
type Tracker struct {
	store   store.Store
	scanLog ScanLogger
	metrics *Metrics
	now     func() time.Time
	retry   resilience.RetryConfig

	mu         sync.Mutex
	lastScan   time.Time
	lastLoaded bool
}

// New creates a Tracker over st.
func New(st store.Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:   st,
		metrics: newMetrics(),
		now:     time.Now,
		retry:   resilience.StoreRetryConfig(),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Metrics returns the tracker's collectors.
func (t *Tracker) Metrics() *Metrics {
	return t.metrics
}

// Store returns the underlying store.
func (t *Tracker) Store() store.Store {
	return t.store
}

type recorded struct {
	rec   *model.ScanRecord
	first bool
}

// Track persists r and returns the events it produced. source names the
// entry point (cli, api, batch).
func (t *Tracker) Track(ctx context.Context, r batterycode.Result, source string) (*Outcome, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if err := t.loadLastScan(ctx); err != nil {
		return nil, err
	}

	saved, err := resilience.DoVal(ctx, t.retry, func(ctx context.Context) (recorded, error) {
		rec, first, err := t.store.RecordScan(ctx, model.NewScanRecord(r, source, now))
		return recorded{rec: rec, first: first}, err
	})
	if err != nil {
		t.metrics.storeFailures.Inc()
		return nil, eris.Wrapf(err, "tracker: record scan %s", r.Code)
	}

	out := &Outcome{Record: saved.rec, FirstSeen: saved.first}

	if t.scanLog != nil {
		if err := t.scanLog.LogScan(r.Code, r.Valid, now); err != nil {
			zap.L().Warn("tracker: scan log write failed", zap.String("code", r.Code), zap.Error(err))
		}
	}

	if saved.first {
		n, err := t.store.CountUniqueCodes(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "tracker: count unique codes")
		}
		t.metrics.uniqueCodes.Set(float64(n))
		out.Events = append(out.Events, Event{
			Name:   EventUniqueCode,
			Params: map[string]any{"unique_codes_count": n},
		})
	}

	if !t.lastScan.IsZero() {
		secs := int64(now.Sub(t.lastScan) / time.Second)
		if secs < 0 {
			secs = 0
		}
		t.metrics.betweenScans.Observe(float64(secs))
		out.Events = append(out.Events, Event{
			Name:   EventBetweenScans,
			Params: map[string]any{"seconds_between_scans": secs},
		})
	}
	t.lastScan = now

	if !r.Valid {
		out.Events = append(out.Events, Event{Name: EventInvalidCode})
	}

	if r.Decoded() {
		out.Events = append(out.Events, Event{
			Name: EventCellScanned,
			Params: map[string]any{
				"vendor_code":     r.Fields.Value(batterycode.FieldVendorCode),
				"product_type":    r.Fields.Value(batterycode.FieldProductType),
				"cell_chemistry":  r.Fields.Value(batterycode.FieldCellChemistry),
				"production_date": r.Fields.Value(batterycode.FieldProductionDate),
				"code_type":       r.Symbology(),
			},
		})
	} else {
		out.Events = append(out.Events, Event{
			Name: EventCellInvalid,
			Params: map[string]any{
				"reason":    "validation_failed",
				"code_type": r.Symbology(),
			},
		})
	}

	t.metrics.scans.WithLabelValues(string(out.Record.Status), string(r.Kind)).Inc()
	for _, ev := range out.Events {
		t.metrics.events.WithLabelValues(ev.Name).Inc()
		zap.L().Info(ev.Name,
			zap.String("code", r.Code),
			zap.String("source", source),
			zap.Any("params", ev.Params),
		)
	}
	return out, nil
}

// loadLastScan seeds the previous-scan time from the store once, so the
// interval survives restarts.
func (t *Tracker) loadLastScan(ctx context.Context) error {
	if t.lastLoaded {
		return nil
	}
	last, err := t.store.LastScan(ctx)
	if err != nil {
		return eris.Wrap(err, "tracker: load last scan")
	}
	if last != nil {
		t.lastScan = last.ScannedAt
	}
	t.lastLoaded = true
	return nil
}

// Stats summarizes the store for reporting.
type Stats struct {
	UniqueCodes int               `json:"unique_codes" yaml:"unique_codes"`
	LastScan    *model.ScanRecord `json:"last_scan,omitempty" yaml:"last_scan,omitempty"`
}

// Stats reads the current totals from the store.
func (t *Tracker) Stats(ctx context.Context) (*Stats, error) {
	n, err := t.store.CountUniqueCodes(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "tracker: count unique codes")
	}
	t.metrics.uniqueCodes.Set(float64(n))

	last, err := t.store.LastScan(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "tracker: last scan")
	}
	return &Stats{UniqueCodes: n, LastScan: last}, nil
}
