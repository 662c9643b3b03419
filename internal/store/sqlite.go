// Package store archives analysis runs to a local SQLite database so past
// reports stay queryable after the HTML is gone.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fakeyudi/wakeblame/internal/report"
)

type Store struct {
	db *sql.DB
}

// Open creates the database file (and its directory) if needed and prepares
// the schema.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: creating DB dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening DB: %w", err)
	}
	if err := configure(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.init(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func configure(db *sql.DB) error {
	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		return fmt.Errorf("set journal_mode WAL: %w", err)
	}
	if _, err := db.Exec(`PRAGMA synchronous = NORMAL;`); err != nil {
		return fmt.Errorf("set synchronous NORMAL: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		return fmt.Errorf("set busy_timeout: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			generated_at TEXT NOT NULL,
			legacy INTEGER NOT NULL,
			start_time REAL NOT NULL,
			stop_time REAL NOT NULL,
			search_proc TEXT,
			total_mah REAL,
			samples INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS intervals (
			run_id TEXT NOT NULL,
			category TEXT NOT NULL,
			name TEXT NOT NULL,
			start_secs INTEGER NOT NULL,
			end_secs INTEGER NOT NULL,
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_intervals_run_cat ON intervals(run_id, category);`,
		`CREATE TABLE IF NOT EXISTS synopsis (
			run_id TEXT NOT NULL,
			name TEXT NOT NULL,
			mah REAL NOT NULL,
			pct REAL NOT NULL,
			event_count INTEGER NOT NULL,
			total_secs REAL NOT NULL,
			avg_secs REAL NOT NULL,
			median_secs REAL NOT NULL,
			first_seen TEXT,
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);`,
		`CREATE TABLE IF NOT EXISTS procs (
			run_id TEXT NOT NULL,
			proc_id TEXT NOT NULL,
			name TEXT NOT NULL,
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

// SaveReport archives one run in a single transaction.
func (s *Store) SaveReport(ctx context.Context, rep *report.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, source, generated_at, legacy, start_time,
			stop_time, search_proc, total_mah, samples)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.ID.String(), rep.Source, rep.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"),
		boolToInt(rep.Legacy), rep.StartTime, rep.StopTime,
		rep.SearchProc, rep.Bill.TotalMAh, rep.Bill.Samples)
	if err != nil {
		return fmt.Errorf("store: insert run: %w", err)
	}

	ivStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO intervals (run_id, category, name, start_secs, end_secs)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare intervals: %w", err)
	}
	defer ivStmt.Close()
	for _, cat := range rep.Timeline.Categories() {
		for _, iv := range rep.Timeline.Rows(cat) {
			if _, err := ivStmt.ExecContext(ctx,
				rep.ID.String(), cat, iv.Name, iv.Start, iv.End); err != nil {
				return fmt.Errorf("store: insert interval: %w", err)
			}
		}
	}

	synStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO synopsis (run_id, name, mah, pct, event_count,
			total_secs, avg_secs, median_secs, first_seen)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare synopsis: %w", err)
	}
	defer synStmt.Close()
	for _, row := range rep.Bill.Rows {
		if _, err := synStmt.ExecContext(ctx,
			rep.ID.String(), row.Name, row.MAh, row.Pct, row.Count,
			row.TotalSecs, row.AvgSecs, row.MedianSecs, row.FirstSeen); err != nil {
			return fmt.Errorf("store: insert synopsis: %w", err)
		}
	}

	for _, p := range rep.Procs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO procs (run_id, proc_id, name) VALUES (?, ?, ?)`,
			rep.ID.String(), p.ID, p.Name); err != nil {
			return fmt.Errorf("store: insert proc: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// RunMeta is one archived run as listed by Runs.
type RunMeta struct {
	ID        string
	Source    string
	StartTime float64
	StopTime  float64
	TotalMAh  float64
}

// Runs lists archived runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]RunMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, source, start_time, stop_time, total_mah
		 FROM runs ORDER BY generated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []RunMeta
	for rows.Next() {
		var m RunMeta
		if err := rows.Scan(&m.ID, &m.Source, &m.StartTime, &m.StopTime, &m.TotalMAh); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
