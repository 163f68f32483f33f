// Package store persists scan run history in a local SQLite database.
// Each pipeline run is recorded with its summary so past posture can be
// inspected without re-parsing the raw scanner output.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/postureio/sdk/pkg/ocsf"
)

// RunStatus tracks the lifecycle of a recorded run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is a single recorded pipeline run.
type Run struct {
	ID            string               `json:"id"`
	Provider      string               `json:"provider"`
	Product       string               `json:"product"`
	FindingsCount int                  `json:"findings_count"`
	Status        RunStatus            `json:"status"`
	Summary       *ocsf.FindingSummary `json:"summary,omitempty"`
	BundlePath    string               `json:"bundle_path,omitempty"`
	LastError     string               `json:"last_error,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
	CompletedAt   *time.Time           `json:"completed_at,omitempty"`
}

// Storage provides SQLite-based run history storage.
type Storage struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStorage opens (creating if needed) the run history database at the
// given path.
func NewStorage(databasePath string) (*Storage, error) {
	dir := filepath.Dir(databasePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	s := &Storage{db: db}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return s, nil
}

func (s *Storage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		provider TEXT NOT NULL,
		product TEXT NOT NULL,
		findings_count INTEGER NOT NULL DEFAULT 0,
		status TEXT DEFAULT 'running',
		summary TEXT,
		bundle_path TEXT DEFAULT '',
		last_error TEXT DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		completed_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
	CREATE INDEX IF NOT EXISTS idx_runs_provider ON runs(provider);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun inserts or updates a run record. A missing ID is assigned.
func (s *Storage) SaveRun(ctx context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.UpdatedAt = time.Now().UTC()

	summaryJSON := []byte("null")
	if run.Summary != nil {
		encoded, err := json.Marshal(run.Summary)
		if err != nil {
			return fmt.Errorf("encode summary: %w", err)
		}
		summaryJSON = encoded
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, provider, product, findings_count, status, summary,
			bundle_path, last_error, created_at, updated_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			findings_count = excluded.findings_count,
			status = excluded.status,
			summary = excluded.summary,
			bundle_path = excluded.bundle_path,
			last_error = excluded.last_error,
			updated_at = excluded.updated_at,
			completed_at = excluded.completed_at
	`,
		run.ID, run.Provider, run.Product, run.FindingsCount, run.Status,
		string(summaryJSON), run.BundlePath, run.LastError,
		run.CreatedAt, run.UpdatedAt, run.CompletedAt,
	)

	return err
}

// GetRun retrieves a run by ID. Returns nil when no run exists.
func (s *Storage) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, provider, product, findings_count, status, summary,
			bundle_path, last_error, created_at, updated_at, completed_at
		FROM runs WHERE id = ?
	`, id)

	run, err := scanRun(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first. A limit of 0
// means no limit.
func (s *Storage) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, provider, product, findings_count, status, summary,
			bundle_path, last_error, created_at, updated_at, completed_at
		FROM runs
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// UpdateRunStatus updates the status of a run, stamping completed_at
// for terminal statuses.
func (s *Storage) UpdateRunStatus(ctx context.Context, runID string, status RunStatus, lastError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var completedAt interface{}
	if status == RunStatusCompleted || status == RunStatusFailed {
		completedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE runs SET
			status = ?,
			last_error = ?,
			updated_at = CURRENT_TIMESTAMP,
			completed_at = ?
		WHERE id = ?
	`, status, lastError, completedAt, runID)

	return err
}

// Cleanup removes terminal runs older than maxAge. Returns the number
// of runs removed.
func (s *Storage) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-maxAge)

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM runs
		WHERE status IN ('completed', 'failed')
		AND completed_at < ?
	`, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// Stats contains run history statistics.
type Stats struct {
	TotalRuns     int `json:"total_runs"`
	RunningRuns   int `json:"running_runs"`
	CompletedRuns int `json:"completed_runs"`
	FailedRuns    int `json:"failed_runs"`
	TotalFindings int `json:"total_findings"`
}

// GetStats returns counts of runs by status plus the total findings
// recorded.
func (s *Storage) GetStats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats Stats

	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(findings_count), 0)
		FROM runs GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count, findings int
		if err := rows.Scan(&status, &count, &findings); err != nil {
			continue
		}
		switch RunStatus(status) {
		case RunStatusRunning:
			stats.RunningRuns = count
		case RunStatusCompleted:
			stats.CompletedRuns = count
		case RunStatusFailed:
			stats.FailedRuns = count
		}
		stats.TotalRuns += count
		stats.TotalFindings += findings
	}

	return &stats, rows.Err()
}

// Close closes the storage.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Close()
}

func scanRun(scan func(dest ...any) error) (*Run, error) {
	var run Run
	var summaryJSON string
	var completedAt sql.NullTime

	if err := scan(
		&run.ID, &run.Provider, &run.Product, &run.FindingsCount,
		&run.Status, &summaryJSON, &run.BundlePath, &run.LastError,
		&run.CreatedAt, &run.UpdatedAt, &completedAt,
	); err != nil {
		return nil, err
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}

	if summaryJSON != "" && summaryJSON != "null" {
		var summary ocsf.FindingSummary
		if err := json.Unmarshal([]byte(summaryJSON), &summary); err == nil {
			run.Summary = &summary
		}
	}

	return &run, nil
}
