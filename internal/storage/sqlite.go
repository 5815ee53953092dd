// Package storage provides SQLite-based persistence for finished chamber runs
// and the trajectories they produced.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/bubble-chamber/internal/core"
)

// Store manages the SQLite database connection for run history.
type Store struct {
	db *sql.DB
}

// Run is the summary of one finished simulation.
type Run struct {
	ID           int64
	Scenario     string
	Seed         int64
	Ticks        int
	TimeStep     float64
	Width        float64
	Height       float64
	Splits       int
	Trajectories int
	Survivors    int
	SVGLocation  string // empty when nothing was exported
	Duration     time.Duration
	CreatedAt    time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			scenario TEXT NOT NULL,
			seed INTEGER NOT NULL,
			ticks INTEGER NOT NULL,
			time_step REAL NOT NULL,
			width REAL NOT NULL,
			height REAL NOT NULL,
			splits INTEGER NOT NULL DEFAULT 0,
			trajectories INTEGER NOT NULL DEFAULT 0,
			survivors INTEGER NOT NULL DEFAULT 0,
			svg_location TEXT,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_scenario ON runs(scenario);

		CREATE TABLE IF NOT EXISTS trajectories (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			points TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun records a run and its trajectories in one transaction.
// Returns the ID of the inserted run.
func (s *Store) SaveRun(run Run, paths [][]core.Point2) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	result, err := tx.Exec(
		`INSERT INTO runs
		 (scenario, seed, ticks, time_step, width, height, splits, trajectories, survivors, svg_location, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Scenario,
		run.Seed,
		run.Ticks,
		run.TimeStep,
		run.Width,
		run.Height,
		run.Splits,
		len(paths),
		run.Survivors,
		nullString(run.SVGLocation),
		run.Duration.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO trajectories (run_id, seq, points) VALUES (?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("storage: cannot prepare trajectory insert: %w", err)
	}
	defer stmt.Close()

	for i, path := range paths {
		data, err := json.Marshal(encodePath(path))
		if err != nil {
			return 0, fmt.Errorf("storage: cannot encode trajectory %d: %w", i, err)
		}
		if _, err := stmt.Exec(id, i, string(data)); err != nil {
			return 0, fmt.Errorf("storage: cannot save trajectory %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage: cannot commit run: %w", err)
	}
	return id, nil
}

// SetSVGLocation updates where a run's picture was exported.
func (s *Store) SetSVGLocation(id int64, location string) error {
	_, err := s.db.Exec("UPDATE runs SET svg_location = ? WHERE id = ?", nullString(location), id)
	if err != nil {
		return fmt.Errorf("storage: cannot update run %d: %w", id, err)
	}
	return nil
}

const runColumns = `id, scenario, seed, ticks, time_step, width, height, splits,
	trajectories, survivors, svg_location, duration_ms, created_at`

// RecentRuns retrieves the most recent runs, newest first.
// An empty scenario matches every scenario.
func (s *Store) RecentRuns(scenario string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT `+runColumns+`
		 FROM runs
		 WHERE ? = '' OR scenario = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		scenario, scenario, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return runs, nil
}

// RunByID retrieves a run. Returns nil if it does not exist.
func (s *Store) RunByID(id int64) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Trajectories retrieves the stored trajectories of a run in harvest order.
func (s *Store) Trajectories(runID int64) ([][]core.Point2, error) {
	rows, err := s.db.Query(
		"SELECT points FROM trajectories WHERE run_id = ? ORDER BY seq",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query trajectories: %w", err)
	}
	defer rows.Close()

	var paths [][]core.Point2
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		var raw [][2]float64
		if err := json.Unmarshal([]byte(data), &raw); err != nil {
			return nil, fmt.Errorf("storage: cannot decode trajectory: %w", err)
		}
		paths = append(paths, decodePath(raw))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return paths, nil
}

// DeleteRun removes a run and its trajectories.
func (s *Store) DeleteRun(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	if _, err := tx.Exec("DELETE FROM trajectories WHERE run_id = ?", id); err != nil {
		return fmt.Errorf("storage: cannot delete trajectories: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM runs WHERE id = ?", id); err != nil {
		return fmt.Errorf("storage: cannot delete run: %w", err)
	}
	return tx.Commit()
}

// ScenarioStats contains aggregated statistics for a scenario.
type ScenarioStats struct {
	Scenario        string
	Runs            int
	MaxSplits       int
	AvgSplits       float64
	AvgTrajectories float64
	LastRun         time.Time
}

// AllScenarioStats retrieves statistics for every scenario that has been run.
func (s *Store) AllScenarioStats() (map[string]*ScenarioStats, error) {
	rows, err := s.db.Query(
		`SELECT scenario, COUNT(*), MAX(splits), AVG(splits), AVG(trajectories), MAX(created_at)
		 FROM runs
		 GROUP BY scenario`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get scenario stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]*ScenarioStats)
	for rows.Next() {
		var st ScenarioStats
		var lastRun any
		if err := rows.Scan(&st.Scenario, &st.Runs, &st.MaxSplits, &st.AvgSplits, &st.AvgTrajectories, &lastRun); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		st.LastRun = parseTime(lastRun)
		stats[st.Scenario] = &st
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return stats, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var r Run
	var svgLocation sql.NullString
	var durationMS int64
	var createdAt any

	err := row.Scan(
		&r.ID,
		&r.Scenario,
		&r.Seed,
		&r.Ticks,
		&r.TimeStep,
		&r.Width,
		&r.Height,
		&r.Splits,
		&r.Trajectories,
		&r.Survivors,
		&svgLocation,
		&durationMS,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return r, err
	}
	if err != nil {
		return r, fmt.Errorf("storage: cannot scan run: %w", err)
	}

	r.SVGLocation = svgLocation.String
	r.Duration = time.Duration(durationMS) * time.Millisecond
	r.CreatedAt = parseTime(createdAt)
	return r, nil
}

// parseTime handles both time.Time and string datetimes from the driver.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Trajectories are stored as JSON arrays of [x, y] pairs.
func encodePath(path []core.Point2) [][2]float64 {
	out := make([][2]float64, len(path))
	for i, p := range path {
		out[i] = [2]float64{p.X, p.Y}
	}
	return out
}

func decodePath(raw [][2]float64) []core.Point2 {
	out := make([]core.Point2, len(raw))
	for i, p := range raw {
		out[i] = core.Point2{X: p[0], Y: p[1]}
	}
	return out
}
