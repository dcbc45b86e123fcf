// Package api serves battery code decoding over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/cellscan-cli/internal/batch"
	"github.com/sells-group/cellscan-cli/internal/batterycode"
	"github.com/sells-group/cellscan-cli/internal/tracker"
)

// Source tags scans tracked through the API.
const Source = "api"

// DefaultMaxBatch caps codes per batch request.
const DefaultMaxBatch = 1000

// Config configures the HTTP server.
type Config struct {
	RateLimit   float64 // requests per second per client; 0 disables
	Burst       int
	CORSOrigins []string
	MaxBatch    int
}

// Server holds the API's dependencies. Tracker may be nil, in which case
// scans are not recorded and stats endpoints answer 503.
type Server struct {
	decoder *batterycode.Decoder
	tracker *tracker.Tracker
	runner  *batch.Runner
	limiter *clientLimiter
	cfg     Config
}

// New creates a Server.
func New(d *batterycode.Decoder, tr *tracker.Tracker, cfg Config) *Server {
	if d == nil {
		d = batterycode.NewDecoder()
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = DefaultMaxBatch
	}
	opts := []batch.Option{}
	if tr != nil {
		opts = append(opts, batch.WithTracker(tr))
	}
	return &Server{
		decoder: d,
		tracker: tr,
		runner:  batch.NewRunner(d, opts...),
		limiter: newClientLimiter(cfg.RateLimit, cfg.Burst),
		cfg:     cfg,
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	if s.tracker != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.tracker.Metrics().Registry(), promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.middleware)
		}
		r.Get("/validate/{code}", s.handleValidate)
		r.Post("/decode", s.handleDecode)
		r.Post("/decode/batch", s.handleDecodeBatch)
		r.Get("/lookup/{code}", s.handleLookup)
		r.Get("/stats", s.handleStats)
		r.Get("/scans", s.handleListScans)
	})
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("api: shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	zap.L().Info("api: starting server", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "api: listen")
	}
	return nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func errorf(w http.ResponseWriter, status int, format string, args ...any) {
	writeError(w, status, fmt.Sprintf(format, args...))
}
