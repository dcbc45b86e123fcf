package main

import (
	"context"

	"github.com/sells-group/cellscan-cli/internal/batterycode"
	"github.com/sells-group/cellscan-cli/internal/objstore"
	"github.com/sells-group/cellscan-cli/internal/scanlog"
	"github.com/sells-group/cellscan-cli/internal/source"
	"github.com/sells-group/cellscan-cli/internal/store"
	"github.com/sells-group/cellscan-cli/internal/tracker"
)

// newDecoder builds a decoder from the decoder config section.
func newDecoder() *batterycode.Decoder {
	return batterycode.NewDecoder(
		batterycode.WithValidLengths(cfg.Decoder.ValidLengths...),
		batterycode.WithFallbackMinLength(cfg.Decoder.FallbackMinLength),
	)
}

// initStore opens and migrates the configured store.
func initStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}
	return store.Open(ctx, store.Config{
		Driver:      cfg.Store.Driver,
		DatabaseURL: cfg.Store.DatabaseURL,
		Pool: store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		},
	})
}

// initScanLog returns nil when the scan log is disabled.
func initScanLog() (*scanlog.Logger, error) {
	if !cfg.ScanLog.Enabled {
		return nil, nil
	}
	return scanlog.New(cfg.ScanLog.Dir)
}

// initTracker opens the store and scan log behind a Tracker. The returned
// func closes the store.
func initTracker(ctx context.Context) (*tracker.Tracker, func(), error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	var opts []tracker.Option
	logger, err := initScanLog()
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, nil, err
	}
	if logger != nil {
		opts = append(opts, tracker.WithScanLog(logger))
	}

	closeFn := func() {
		st.Close() //nolint:errcheck
	}
	return tracker.New(st, opts...), closeFn, nil
}

// newObjectStore builds an S3 client from the s3 config section.
func newObjectStore(ctx context.Context) (*objstore.Store, error) {
	return objstore.New(ctx, objstore.Config{
		Region:          cfg.S3.Region,
		Endpoint:        cfg.S3.Endpoint,
		PathStyle:       cfg.S3.PathStyle,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
	})
}

// sourceOptions connects object storage only when a location needs it.
func sourceOptions(ctx context.Context, locations ...string) ([]source.Option, error) {
	for _, loc := range locations {
		if !source.IsObject(loc) {
			continue
		}
		st, err := newObjectStore(ctx)
		if err != nil {
			return nil, err
		}
		return []source.Option{source.WithObjectStore(st)}, nil
	}
	return nil, nil
}
