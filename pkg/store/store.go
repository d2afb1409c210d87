// Package store keeps a local append-only index of emitted
// attestations in SQLite, under the project's .csf/ directory.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Record is one emitted attestation in the index.
type Record struct {
	ID          string
	Project     string
	Step        string // empty for pipeline-wide attestations
	Path        string
	Status      string
	AttesterDID string
	CreatedAt   time.Time
}

// ErrNotFound indicates no record matched the query.
type ErrNotFound struct {
	ID string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("attestation %q not found in index", e.ID)
}

// Store is the SQLite-backed attestation index.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the index at dbPath. The path can be
// ":memory:" for an in-memory database.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening attestation index: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating attestation index: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS attestations (
		id TEXT PRIMARY KEY,
		project TEXT,
		step TEXT,
		path TEXT NOT NULL,
		status TEXT NOT NULL,
		attester_did TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attestations_step ON attestations(step);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Put inserts a record. Re-inserting the same attestation ID is a
// no-op, matching the immutability of signed documents.
func (s *Store) Put(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("cannot index nil record")
	}

	query := `INSERT OR IGNORE INTO attestations
		(id, project, step, path, status, attester_did, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Project, rec.Step, rec.Path, rec.Status, rec.AttesterDID, rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("indexing attestation: %w", err)
	}

	return nil
}

// Get retrieves a record by attestation ID.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	query := `SELECT id, project, step, path, status, attester_did, created_at
		FROM attestations WHERE id = ?`

	rec := &Record{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.Project, &rec.Step, &rec.Path, &rec.Status, &rec.AttesterDID, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("querying attestation: %w", err)
	}

	return rec, nil
}

// List returns every record, newest first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	query := `SELECT id, project, step, path, status, attester_did, created_at
		FROM attestations ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing attestations: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Project, &rec.Step, &rec.Path, &rec.Status, &rec.AttesterDID, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning attestation: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Count returns the number of indexed attestations.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attestations`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting attestations: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
