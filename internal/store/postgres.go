package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/cellscan-cli/internal/batterycode"
	"github.com/sells-group/cellscan-cli/internal/db"
	"github.com/sells-group/cellscan-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS scans (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	code       TEXT NOT NULL,
	status     TEXT NOT NULL,
	kind       TEXT NOT NULL,
	symbology  TEXT NOT NULL,
	fields     JSONB,
	source     TEXT NOT NULL DEFAULT '',
	scanned_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS codes (
	code       TEXT PRIMARY KEY,
	first_seen TIMESTAMPTZ NOT NULL,
	last_seen  TIMESTAMPTZ NOT NULL,
	scan_count INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_scans_code ON scans(code);
CREATE INDEX IF NOT EXISTS idx_scans_status ON scans(status);
CREATE INDEX IF NOT EXISTS idx_scans_scanned_at ON scans(scanned_at DESC);
`

const (
	pgInsertScan = `INSERT INTO scans (id, code, status, kind, symbology, fields, source, scanned_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	pgUpsertCode = `INSERT INTO codes (code, first_seen, last_seen, scan_count) VALUES ($1, $2, $2, 1)
ON CONFLICT (code) DO UPDATE SET
	last_seen = GREATEST(codes.last_seen, excluded.last_seen),
	scan_count = codes.scan_count + 1
RETURNING scan_count`

	pgUpsertImportedCodes = `INSERT INTO codes (code, first_seen, last_seen, scan_count)
SELECT code, MIN(scanned_at), MAX(scanned_at), COUNT(*) FROM scans WHERE id = ANY($1) GROUP BY code
ON CONFLICT (code) DO UPDATE SET
	first_seen = LEAST(codes.first_seen, excluded.first_seen),
	last_seen = GREATEST(codes.last_seen, excluded.last_seen),
	scan_count = codes.scan_count + excluded.scan_count`

	pgSelectScan = `SELECT id, code, status, kind, symbology, fields, source, scanned_at FROM scans`
)

var scanColumns = []string{"id", "code", "status", "kind", "symbology", "fields", "source", "scanned_at"}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) RecordScan(ctx context.Context, rec model.ScanRecord) (*model.ScanRecord, bool, error) {
	rec.ID = uuid.New().String()
	if rec.ScannedAt.IsZero() {
		rec.ScannedAt = time.Now().UTC()
	}
	fieldsJSON, err := pgFieldsJSON(rec)
	if err != nil {
		return nil, false, eris.Wrap(err, "postgres: marshal fields")
	}

	var count int
	err = db.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, pgInsertScan,
			rec.ID, rec.Code, string(rec.Status), string(rec.Kind), rec.Symbology, fieldsJSON, rec.Source, rec.ScannedAt,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert scan %s", rec.Code)
		}
		return eris.Wrapf(tx.QueryRow(ctx, pgUpsertCode, rec.Code, rec.ScannedAt).Scan(&count),
			"postgres: upsert code %s", rec.Code)
	})
	if err != nil {
		return nil, false, err
	}
	return &rec, count == 1, nil
}

// ImportScans copies scans in with COPY, then folds them into the codes
// table with one aggregate upsert.
func (s *PostgresStore) ImportScans(ctx context.Context, recs []model.ScanRecord) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	ids := make([]string, len(recs))
	rows := make([][]any, len(recs))
	for i, rec := range recs {
		rec.ID = uuid.New().String()
		if rec.ScannedAt.IsZero() {
			rec.ScannedAt = now
		}
		fieldsJSON, err := pgFieldsJSON(rec)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal fields")
		}
		ids[i] = rec.ID
		rows[i] = []any{rec.ID, rec.Code, string(rec.Status), string(rec.Kind), rec.Symbology, fieldsJSON, rec.Source, rec.ScannedAt}
	}

	n, err := db.CopyFrom(ctx, s.pool, "scans", scanColumns, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: import scans")
	}
	if _, err := s.pool.Exec(ctx, pgUpsertImportedCodes, ids); err != nil {
		return n, eris.Wrap(err, "postgres: upsert imported codes")
	}
	return n, nil
}

func (s *PostgresStore) IsKnownCode(ctx context.Context, code string) (bool, error) {
	var known bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM codes WHERE code = $1)`, code).Scan(&known)
	if err != nil {
		return false, eris.Wrap(err, "postgres: is known code")
	}
	return known, nil
}

func (s *PostgresStore) CountUniqueCodes(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM codes`).Scan(&n)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: count unique codes")
	}
	return n, nil
}

func (s *PostgresStore) LastScan(ctx context.Context) (*model.ScanRecord, error) {
	row := s.pool.QueryRow(ctx, pgSelectScan+` ORDER BY scanned_at DESC LIMIT 1`)
	rec, err := pgScanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: last scan")
	}
	return rec, nil
}

func (s *PostgresStore) ListScans(ctx context.Context, filter ScanFilter) ([]model.ScanRecord, error) {
	query := pgSelectScan + ` WHERE ($1 = '' OR status = $1) AND ($2 = '' OR code = $2) ORDER BY scanned_at DESC LIMIT $3 OFFSET $4`

	rows, err := s.pool.Query(ctx, query, string(filter.Status), filter.Code, filter.limit(), max(filter.Offset, 0))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list scans")
	}
	defer rows.Close()

	var recs []model.ScanRecord
	for rows.Next() {
		rec, err := pgScanRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan row")
		}
		recs = append(recs, *rec)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: list scans iterate")
}

func pgScanRecord(row pgx.Row) (*model.ScanRecord, error) {
	var rec model.ScanRecord
	var status, kind string
	var fieldsJSON []byte

	if err := row.Scan(&rec.ID, &rec.Code, &status, &kind, &rec.Symbology, &fieldsJSON, &rec.Source, &rec.ScannedAt); err != nil {
		return nil, err
	}
	rec.Status = model.ScanStatus(status)
	rec.Kind = batterycode.CodeKind(kind)
	if len(fieldsJSON) > 0 {
		if err := json.Unmarshal(fieldsJSON, &rec.Fields); err != nil {
			return nil, eris.Wrap(err, "unmarshal fields")
		}
	}
	rec.ScannedAt = rec.ScannedAt.UTC()
	return &rec, nil
}

func pgFieldsJSON(rec model.ScanRecord) ([]byte, error) {
	if rec.Fields == nil {
		return nil, nil
	}
	return json.Marshal(rec.Fields)
}
