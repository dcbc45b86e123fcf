package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/cellscan-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS scans (
	id         TEXT PRIMARY KEY,
	code       TEXT NOT NULL,
	status     TEXT NOT NULL,
	kind       TEXT NOT NULL,
	symbology  TEXT NOT NULL,
	fields     TEXT,
	source     TEXT NOT NULL DEFAULT '',
	scanned_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS codes (
	code       TEXT PRIMARY KEY,
	first_seen DATETIME NOT NULL,
	last_seen  DATETIME NOT NULL,
	scan_count INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_scans_code ON scans(code);
CREATE INDEX IF NOT EXISTS idx_scans_status ON scans(status);
CREATE INDEX IF NOT EXISTS idx_scans_scanned_at ON scans(scanned_at);
`

const sqliteUpsertCode = `
INSERT INTO codes (code, first_seen, last_seen, scan_count) VALUES (?, ?, ?, 1)
ON CONFLICT(code) DO UPDATE SET
	last_seen = MAX(codes.last_seen, excluded.last_seen),
	scan_count = codes.scan_count + 1
RETURNING scan_count`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) RecordScan(ctx context.Context, rec model.ScanRecord) (*model.ScanRecord, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, eris.Wrap(err, "sqlite: begin record scan")
	}
	defer tx.Rollback() //nolint:errcheck

	saved, count, err := sqliteInsertScan(ctx, tx, rec)
	if err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, eris.Wrap(err, "sqlite: commit record scan")
	}
	return saved, count == 1, nil
}

func (s *SQLiteStore) ImportScans(ctx context.Context, recs []model.ScanRecord) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin import")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, rec := range recs {
		if _, _, err := sqliteInsertScan(ctx, tx, rec); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit import")
	}
	return int64(len(recs)), nil
}

func sqliteInsertScan(ctx context.Context, tx *sql.Tx, rec model.ScanRecord) (*model.ScanRecord, int, error) {
	rec.ID = uuid.New().String()
	if rec.ScannedAt.IsZero() {
		rec.ScannedAt = time.Now().UTC()
	}

	fieldsJSON, err := marshalFields(rec)
	if err != nil {
		return nil, 0, eris.Wrap(err, "sqlite: marshal fields")
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO scans (id, code, status, kind, symbology, fields, source, scanned_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Code, string(rec.Status), string(rec.Kind), rec.Symbology, fieldsJSON, rec.Source, rec.ScannedAt,
	)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "sqlite: insert scan %s", rec.Code)
	}

	var count int
	if err := tx.QueryRowContext(ctx, sqliteUpsertCode, rec.Code, rec.ScannedAt, rec.ScannedAt).Scan(&count); err != nil {
		return nil, 0, eris.Wrapf(err, "sqlite: upsert code %s", rec.Code)
	}
	return &rec, count, nil
}

func (s *SQLiteStore) IsKnownCode(ctx context.Context, code string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM codes WHERE code = ?`, code).Scan(&n)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: is known code")
	}
	return n > 0, nil
}

func (s *SQLiteStore) CountUniqueCodes(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM codes`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count unique codes")
}

func (s *SQLiteStore) LastScan(ctx context.Context) (*model.ScanRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, code, status, kind, symbology, fields, source, scanned_at FROM scans
		 ORDER BY scanned_at DESC, rowid DESC LIMIT 1`,
	)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: last scan")
	}
	return rec, nil
}

func (s *SQLiteStore) ListScans(ctx context.Context, filter ScanFilter) ([]model.ScanRecord, error) {
	query := `SELECT id, code, status, kind, symbology, fields, source, scanned_at FROM scans WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Code != "" {
		query += ` AND code = ?`
		args = append(args, filter.Code)
	}
	query += ` ORDER BY scanned_at DESC, rowid DESC LIMIT ?`
	args = append(args, filter.limit())

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list scans")
	}
	defer rows.Close()

	var recs []model.ScanRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan row")
		}
		recs = append(recs, *rec)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: list scans iterate")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*model.ScanRecord, error) {
	var rec model.ScanRecord
	var fieldsJSON sql.NullString

	err := row.Scan(&rec.ID, &rec.Code, &rec.Status, &rec.Kind, &rec.Symbology, &fieldsJSON, &rec.Source, &rec.ScannedAt)
	if err != nil {
		return nil, err
	}
	if fieldsJSON.Valid {
		if err := json.Unmarshal([]byte(fieldsJSON.String), &rec.Fields); err != nil {
			return nil, eris.Wrap(err, "unmarshal fields")
		}
	}
	rec.ScannedAt = rec.ScannedAt.UTC()
	return &rec, nil
}

// marshalFields returns nil for undecodable scans so the column stays NULL.
func marshalFields(rec model.ScanRecord) (any, error) {
	if rec.Fields == nil {
		return nil, nil
	}
	data, err := json.Marshal(rec.Fields)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
