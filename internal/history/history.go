// Package history persists scan results to SQLite. It is a thin shell around
// the engine: the engine never references it, callers decide what to keep.
package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mehrguard/mehrguard/internal/logging"
	"github.com/mehrguard/mehrguard/internal/model"

	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed schema.sql
var schemaFS embed.FS

// ErrScanNotFound is returned by Get for unknown scan IDs.
var ErrScanNotFound = errors.New("history: scan not found")

// Store holds the SQLite handle. Safe for concurrent use; SQLite serializes
// writers underneath.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// Open opens (or creates) the SQLite database at path and applies the schema.
// Use ":memory:" for an ephemeral store.
func Open(path string, logger logging.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history: empty database path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: opening database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}
	store, err := New(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an existing handle and applies the schema.
func New(db *sql.DB, logger logging.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("history: nil db")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("history: reading schema: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("history: applying schema: %w", err)
	}
	return &Store{
		db:     db,
		logger: logger.With(logging.Field{Key: "component", Value: "history"}),
	}, nil
}

// Save records one scan result.
func (s *Store) Save(ctx context.Context, res *model.ScanResult) error {
	if res == nil {
		return fmt.Errorf("history: nil result")
	}
	signals, err := json.Marshal(res.Signals)
	if err != nil {
		return fmt.Errorf("history: encoding signals: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scans (id, url, normalized_url, score, verdict, ml_probability, signals_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.URL, res.NormalizedURL, res.Score, string(res.Verdict),
		res.MLProbability, string(signals), res.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("history: inserting scan %s: %w", res.ID, err)
	}
	s.logger.Debug("saved scan",
		logging.Field{Key: "id", Value: res.ID},
		logging.Field{Key: "verdict", Value: string(res.Verdict)})
	return nil
}

// List returns the most recent scans, newest first. limit <= 0 defaults to 50.
func (s *Store) List(ctx context.Context, limit int) ([]*model.ScanResult, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, normalized_url, score, verdict, ml_probability, signals_json, created_at
		 FROM scans ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: listing scans: %w", err)
	}
	defer rows.Close()

	var out []*model.ScanResult
	for rows.Next() {
		res, err := scanRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// Get returns one scan by ID.
func (s *Store) Get(ctx context.Context, id string) (*model.ScanResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, url, normalized_url, score, verdict, ml_probability, signals_json, created_at
		 FROM scans WHERE id = ?`, id)
	res, err := scanRow(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScanNotFound
	}
	return res, err
}

// Close closes the underlying handle.
func (s *Store) Close() error { return s.db.Close() }

func scanRow(scan func(dest ...any) error) (*model.ScanResult, error) {
	var (
		res       model.ScanResult
		verdict   string
		signals   string
		createdAt string
	)
	if err := scan(&res.ID, &res.URL, &res.NormalizedURL, &res.Score, &verdict,
		&res.MLProbability, &signals, &createdAt); err != nil {
		return nil, err
	}
	res.Verdict = model.Verdict(verdict)
	if err := json.Unmarshal([]byte(signals), &res.Signals); err != nil {
		return nil, fmt.Errorf("history: decoding signals for %s: %w", res.ID, err)
	}
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		res.Timestamp = ts
	}
	return &res, nil
}
