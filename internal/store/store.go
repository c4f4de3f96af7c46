// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists harvested papers and tracker windows in a
// SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/harvest-engine/pkg/types"
)

const dateFormat = "2006-01-02"

// Store wraps the harvest SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the database at path, creating parent
// directories and the schema as needed.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS trackers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date_start TEXT NOT NULL,
			date_end TEXT NOT NULL,
			data_source TEXT NOT NULL,
			all_papers_for_period INTEGER NOT NULL DEFAULT 0,
			processed_papers_for_period INTEGER NOT NULL DEFAULT 0,
			UNIQUE(date_start, date_end, data_source)
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			oai_identifier TEXT NOT NULL UNIQUE,
			source_id TEXT NOT NULL,
			data_source TEXT NOT NULL,
			datestamp TEXT,
			comments TEXT,
			journal_ref TEXT,
			doi TEXT,
			license TEXT,
			language TEXT,
			categories TEXT,
			pdf_url TEXT,
			UNIQUE(source_id, data_source)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_source_datestamp
			ON records(data_source, datestamp)`,
		`CREATE TABLE IF NOT EXISTS authors (
			record_id INTEGER NOT NULL REFERENCES records(id) ON DELETE CASCADE,
			pos INTEGER NOT NULL,
			first_name TEXT,
			last_name TEXT,
			PRIMARY KEY (record_id, pos)
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			record_id INTEGER PRIMARY KEY REFERENCES records(id) ON DELETE CASCADE,
			title TEXT,
			abstract TEXT,
			tei_xml TEXT,
			raw_content TEXT,
			keywords TEXT,
			affiliations TEXT,
			class_codes TEXT,
			doc_type TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS sections (
			record_id INTEGER NOT NULL REFERENCES records(id) ON DELETE CASCADE,
			pos INTEGER NOT NULL,
			title TEXT NOT NULL,
			level INTEGER NOT NULL,
			content TEXT,
			PRIMARY KEY (record_id, pos)
		)`,
		`CREATE TABLE IF NOT EXISTS refs (
			record_id INTEGER NOT NULL REFERENCES records(id) ON DELETE CASCADE,
			idx INTEGER NOT NULL,
			analytic_title TEXT,
			monogr_title TEXT,
			doi TEXT,
			urls TEXT,
			authors TEXT,
			year TEXT,
			venue TEXT,
			idnos TEXT,
			PRIMARY KEY (record_id, idx)
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			record_id INTEGER NOT NULL REFERENCES records(id) ON DELETE CASCADE,
			idx INTEGER NOT NULL,
			model TEXT,
			dim INTEGER,
			chunk TEXT,
			span_start INTEGER,
			span_end INTEGER,
			PRIMARY KEY (record_id, idx)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// GetOrCreateWindow loads the tracker row matching the window, creating
// it with zero counts when absent. Returns nil when the stored window is
// already complete, which tells the caller to skip it.
func (s *Store) GetOrCreateWindow(ctx context.Context, window types.Tracker) (*types.Tracker, error) {
	start := window.DateStart.Format(dateFormat)
	end := window.DateEnd.Format(dateFormat)

	// Insert-if-absent first so concurrent runs converge on one row.
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO trackers (date_start, date_end, data_source)
		 VALUES (?, ?, ?)
		 ON CONFLICT(date_start, date_end, data_source) DO NOTHING`,
		start, end, string(window.DataSource),
	); err != nil {
		return nil, fmt.Errorf("creating tracker: %w", err)
	}

	t := types.Tracker{
		DateStart:  window.DateStart,
		DateEnd:    window.DateEnd,
		DataSource: window.DataSource,
	}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, all_papers_for_period, processed_papers_for_period
		 FROM trackers WHERE date_start = ? AND date_end = ? AND data_source = ?`,
		start, end, string(window.DataSource),
	).Scan(&t.ID, &t.AllPapersForPeriod, &t.ProcessedPapersForPeriod)
	if err != nil {
		return nil, fmt.Errorf("loading tracker: %w", err)
	}

	if t.Complete() {
		return nil, nil
	}
	return &t, nil
}

// SetDiscovered records how many papers the window's harvest found.
// Counts only move upward; a smaller re-discovery never shrinks a
// window below work already counted.
func (s *Store) SetDiscovered(ctx context.Context, trackerID int64, n int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE trackers SET all_papers_for_period = MAX(all_papers_for_period, ?) WHERE id = ?`,
		n, trackerID)
	if err != nil {
		return fmt.Errorf("updating discovered count: %w", err)
	}
	return nil
}

// AdvanceProcessed bumps the processed counter by one. The increment
// happens in SQL so concurrent workers never lose updates.
func (s *Store) AdvanceProcessed(ctx context.Context, trackerID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE trackers
		 SET processed_papers_for_period = processed_papers_for_period + 1
		 WHERE id = ?`,
		trackerID)
	if err != nil {
		return fmt.Errorf("advancing processed count: %w", err)
	}
	return nil
}

// ListTrackers returns all tracker windows for a source, newest first.
// An empty source lists every window.
func (s *Store) ListTrackers(ctx context.Context, source types.DataSource) ([]types.Tracker, error) {
	query := `SELECT id, date_start, date_end, data_source,
			all_papers_for_period, processed_papers_for_period
		FROM trackers`
	args := []any{}
	if source != "" {
		query += ` WHERE data_source = ?`
		args = append(args, string(source))
	}
	query += ` ORDER BY date_start DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing trackers: %w", err)
	}
	defer rows.Close()

	var out []types.Tracker
	for rows.Next() {
		var t types.Tracker
		var start, end, src string
		if err := rows.Scan(&t.ID, &start, &end, &src,
			&t.AllPapersForPeriod, &t.ProcessedPapersForPeriod); err != nil {
			return nil, fmt.Errorf("scanning tracker: %w", err)
		}
		if t.DateStart, err = parseDay(start); err != nil {
			return nil, err
		}
		if t.DateEnd, err = parseDay(end); err != nil {
			return nil, err
		}
		t.DataSource = types.DataSource(src)
		out = append(out, t)
	}
	return out, rows.Err()
}

// ProcessedSourceIDs returns the source ids already persisted for the
// window, keyed for O(1) membership checks. Permanently failed papers
// are not persisted and so remain eligible for retry on later scans.
func (s *Store) ProcessedSourceIDs(ctx context.Context, window types.Tracker) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_id FROM records
		 WHERE data_source = ?
		   AND substr(datestamp, 1, 10) >= ?
		   AND substr(datestamp, 1, 10) < ?`,
		string(window.DataSource),
		window.DateStart.Format(dateFormat),
		window.DateEnd.Format(dateFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("querying processed ids: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning source id: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

func parseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateFormat, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing tracker date %q: %w", s, err)
	}
	return t, nil
}
