package internal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the sqlite-backed analysis cache. One row per analyzed imaging
// log, invalidated by the log file's modification time, so listing previously
// analyzed nights does not re-run the parsers.
type Store struct {
	db   *sql.DB
	path string
}

// SessionRecord is one cached analysis result.
type SessionRecord struct {
	ImagingPath        string
	ImagingModTime     time.Time
	GuidingPath        string
	Target             string
	Night              string // YYYY-MM-DD
	Exposures          int
	IntegrationSeconds float64
	RMSRA              *float64
	RMSDec             *float64
	RMSTotal           *float64
	Report             []byte // AnalysisReport JSON
	UpdatedAt          time.Time
}

const storeSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	imaging_path        TEXT PRIMARY KEY,
	imaging_mtime       INTEGER NOT NULL,
	guiding_path        TEXT NOT NULL DEFAULT '',
	target              TEXT NOT NULL DEFAULT '',
	night               TEXT NOT NULL DEFAULT '',
	exposures           INTEGER NOT NULL DEFAULT 0,
	integration_seconds REAL NOT NULL DEFAULT 0,
	rms_ra              REAL,
	rms_dec             REAL,
	rms_total           REAL,
	report              TEXT NOT NULL DEFAULT '',
	updated_at          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_night ON sessions(night);
`

// OpenStore opens (creating if needed) the analysis cache at path.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &StoreError{Path: path, Op: "open", Err: err}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &StoreError{Path: path, Op: "open", Err: err}
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &StoreError{Path: path, Op: "open", Err: err}
	}
	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, &StoreError{Path: path, Op: "open", Err: err}
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Upsert inserts or replaces the cached record for one imaging log.
func (s *Store) Upsert(rec SessionRecord) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
INSERT INTO sessions(imaging_path, imaging_mtime, guiding_path, target, night,
	exposures, integration_seconds, rms_ra, rms_dec, rms_total, report, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(imaging_path) DO UPDATE SET
	imaging_mtime=excluded.imaging_mtime,
	guiding_path=excluded.guiding_path,
	target=excluded.target,
	night=excluded.night,
	exposures=excluded.exposures,
	integration_seconds=excluded.integration_seconds,
	rms_ra=excluded.rms_ra,
	rms_dec=excluded.rms_dec,
	rms_total=excluded.rms_total,
	report=excluded.report,
	updated_at=excluded.updated_at`,
		rec.ImagingPath, rec.ImagingModTime.UnixNano(), rec.GuidingPath, rec.Target,
		rec.Night, rec.Exposures, rec.IntegrationSeconds,
		nullableFloat(rec.RMSRA), nullableFloat(rec.RMSDec), nullableFloat(rec.RMSTotal),
		string(rec.Report), rec.UpdatedAt.UnixNano())
	if err != nil {
		return &StoreError{Path: s.path, Op: "write", Err: err}
	}
	return nil
}

// Lookup returns the cached record for an imaging log, but only when the
// cached modification time still matches; a changed file means a stale cache.
func (s *Store) Lookup(imagingPath string, modTime time.Time) (*SessionRecord, bool, error) {
	row := s.db.QueryRow(`
SELECT imaging_path, imaging_mtime, guiding_path, target, night, exposures,
	integration_seconds, rms_ra, rms_dec, rms_total, report, updated_at
FROM sessions WHERE imaging_path = ?`, imagingPath)
	rec, err := scanSessionRecord(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &StoreError{Path: s.path, Op: "query", Err: err}
	}
	if !rec.ImagingModTime.Equal(modTime) {
		return nil, false, nil
	}
	return rec, true, nil
}

// List returns all cached records, newest night first.
func (s *Store) List() ([]SessionRecord, error) {
	rows, err := s.db.Query(`
SELECT imaging_path, imaging_mtime, guiding_path, target, night, exposures,
	integration_seconds, rms_ra, rms_dec, rms_total, report, updated_at
FROM sessions ORDER BY night DESC, imaging_path`)
	if err != nil {
		return nil, &StoreError{Path: s.path, Op: "query", Err: err}
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		rec, err := scanSessionRecord(rows)
		if err != nil {
			return nil, &StoreError{Path: s.path, Op: "query", Err: err}
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Path: s.path, Op: "query", Err: err}
	}
	return records, nil
}

// Clear drops every cached record.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM sessions`); err != nil {
		return &StoreError{Path: s.path, Op: "write", Err: err}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSessionRecord(row rowScanner) (*SessionRecord, error) {
	var (
		rec            SessionRecord
		mtime, updated int64
		ra, dec, total sql.NullFloat64
		report         string
	)
	err := row.Scan(&rec.ImagingPath, &mtime, &rec.GuidingPath, &rec.Target,
		&rec.Night, &rec.Exposures, &rec.IntegrationSeconds,
		&ra, &dec, &total, &report, &updated)
	if err != nil {
		return nil, err
	}
	rec.ImagingModTime = time.Unix(0, mtime).UTC()
	rec.UpdatedAt = time.Unix(0, updated).UTC()
	if ra.Valid {
		rec.RMSRA = &ra.Float64
	}
	if dec.Valid {
		rec.RMSDec = &dec.Float64
	}
	if total.Valid {
		rec.RMSTotal = &total.Float64
	}
	rec.Report = []byte(report)
	return &rec, nil
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
