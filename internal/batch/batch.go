// Package batch decodes many codes concurrently, keeping results in input
// order and optionally tracking every scan.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/cellscan-cli/internal/batterycode"
	"github.com/sells-group/cellscan-cli/internal/tracker"
)

// DefaultConcurrency is the number of codes decoded at once.
const DefaultConcurrency = 8

// Source tags tracked scans coming from batch runs.
const Source = "batch"

// Tracker records decoded scans. *tracker.Tracker implements it.
type Tracker interface {
	Track(ctx context.Context, r batterycode.Result, source string) (*tracker.Outcome, error)
}

// Summary counts a run's results.
type Summary struct {
	Total       int           `json:"total" yaml:"total"`
	Valid       int           `json:"valid" yaml:"valid"`
	Fallback    int           `json:"fallback" yaml:"fallback"`
	Undecodable int           `json:"undecodable" yaml:"undecodable"`
	NewCodes    int           `json:"new_codes" yaml:"new_codes"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
}

func (s *Summary) add(r batterycode.Result) {
	s.Total++
	switch r.Kind {
	case batterycode.KindStructured:
		s.Valid++
	case batterycode.KindFallback:
		s.Fallback++
	default:
		s.Undecodable++
	}
}

// Option configures a Runner.
type Option func(*Runner)

// WithConcurrency bounds concurrent decodes. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithTracker tracks every decoded code.
func WithTracker(t Tracker) Option {
	return func(r *Runner) { r.tracker = t }
}

// Runner decodes streams of codes.
type Runner struct {
	decoder     *batterycode.Decoder
	concurrency int
	tracker     Tracker
}

// NewRunner returns a Runner using d, or the default decoder when d is nil.
func NewRunner(d *batterycode.Decoder, opts ...Option) *Runner {
	if d == nil {
		d = batterycode.NewDecoder()
	}
	r := &Runner{decoder: d, concurrency: DefaultConcurrency}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run decodes every code from codes until the channel closes. Results are in
// the order codes arrived. A tracking failure cancels the run; only the codes
// that finished are returned and counted alongside the error.
func (r *Runner) Run(ctx context.Context, codes <-chan string) ([]batterycode.Result, Summary, error) {
	start := time.Now()

	var (
		mu       sync.Mutex
		results  []batterycode.Result
		done     []bool
		newCodes int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

loop:
	for {
		var code string
		var ok bool
		select {
		case code, ok = <-codes:
			if !ok {
				break loop
			}
		case <-gctx.Done():
			break loop
		}

		mu.Lock()
		idx := len(results)
		results = append(results, batterycode.Result{Code: code})
		done = append(done, false)
		mu.Unlock()

		g.Go(func() error {
			res := r.decoder.DecodeBatteryCode(code)

			if r.tracker != nil {
				out, err := r.tracker.Track(gctx, res, Source)
				if err != nil {
					return eris.Wrapf(err, "batch: track %s", code)
				}
				if out.FirstSeen {
					mu.Lock()
					newCodes++
					mu.Unlock()
				}
			}

			mu.Lock()
			results[idx] = res
			done[idx] = true
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	if err == nil && ctx.Err() != nil {
		err = eris.Wrap(ctx.Err(), "batch: cancelled")
	}

	finished := results[:0]
	for i, res := range results {
		if done[i] {
			finished = append(finished, res)
		}
	}
	results = finished

	var sum Summary
	for _, res := range results {
		sum.add(res)
	}
	sum.NewCodes = newCodes
	sum.Duration = time.Since(start)

	zap.L().Info("batch: run complete",
		zap.Int("total", sum.Total),
		zap.Int("valid", sum.Valid),
		zap.Int("fallback", sum.Fallback),
		zap.Int("undecodable", sum.Undecodable),
		zap.Int("new_codes", sum.NewCodes),
		zap.Duration("duration", sum.Duration),
	)
	return results, sum, err
}

// DecodeAll is Run over a slice.
func (r *Runner) DecodeAll(ctx context.Context, codes []string) ([]batterycode.Result, Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan string)
	go func() {
		defer close(ch)
		for _, c := range codes {
			select {
			case ch <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return r.Run(ctx, ch)
}
