// Package sqlite persists completed analysis runs and their derived
// statistics and events. The analysis core does not depend on this
// package; the CLI wires it in when a database path is given.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/matchvision/pitchtrack/internal/pitch/analysis"
	"github.com/matchvision/pitchtrack/internal/pitch/metrics"
)

const busyRetries = 5

// retryOnBusy retries fn when the driver reports a locked or busy
// database, which modernc.org/sqlite surfaces under concurrent writers.
func retryOnBusy(fn func() error) error {
	var err error
	for i := 0; i < busyRetries; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		msg := err.Error()
		if !strings.Contains(msg, "database is locked") && !strings.Contains(msg, "SQLITE_BUSY") {
			return err
		}
		time.Sleep(time.Duration(i+1) * 50 * time.Millisecond)
	}
	return err
}

// Run is a persisted analysis run header.
type Run struct {
	RunID          string  `json:"run_id"`
	VideoPath      string  `json:"video_path"`
	Success        bool    `json:"success"`
	Error          string  `json:"error,omitempty"`
	ErrorType      string  `json:"error_type,omitempty"`
	Duration       float64 `json:"duration"`
	FPS            float64 `json:"fps"`
	Resolution     string  `json:"resolution"`
	ProcessingTime float64 `json:"processing_time"`
	CreatedAt      int64   `json:"created_at"`
}

// Store provides persistence for analysis results.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a result database at path and
// ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open result db: %w", err)
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an existing database handle and ensures the schema exists.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS analysis_runs (
			run_id          TEXT PRIMARY KEY,
			video_path      TEXT,
			success         INTEGER,
			error           TEXT,
			error_type      TEXT,
			duration        REAL,
			fps             REAL,
			resolution      TEXT,
			processing_time REAL,
			created_at      BIGINT
		);
		CREATE TABLE IF NOT EXISTS player_stats (
			run_id         TEXT,
			player_id      INTEGER,
			team           TEXT,
			total_distance REAL,
			max_speed      REAL,
			avg_speed      REAL,
			sprints        INTEGER,
			track_duration REAL,
			frames_tracked INTEGER,
			PRIMARY KEY (run_id, player_id),
			FOREIGN KEY (run_id) REFERENCES analysis_runs(run_id)
		);
		CREATE TABLE IF NOT EXISTS pass_events (
			run_id     TEXT,
			event_json TEXT,
			timestamp  REAL,
			FOREIGN KEY (run_id) REFERENCES analysis_runs(run_id)
		);
		CREATE TABLE IF NOT EXISTS pressing_events (
			run_id     TEXT,
			event_json TEXT,
			timestamp  REAL,
			FOREIGN KEY (run_id) REFERENCES analysis_runs(run_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("create result schema: %w", err)
	}
	return nil
}

// InsertResult persists a run header plus its per-player stats and
// detected events. If runID is empty a UUID is generated. Returns the
// run id used.
func (s *Store) InsertResult(runID string, res *analysis.Result) (string, error) {
	if runID == "" {
		runID = uuid.New().String()
	}
	createdAt := time.Now().UnixNano()

	err := retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO analysis_runs (
				run_id, video_path, success, error, error_type,
				duration, fps, resolution, processing_time, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, res.Metadata.VideoPath, boolToInt(res.Success), res.Error, res.ErrorType,
			res.Metadata.Duration, res.Metadata.FPS, res.Metadata.Resolution,
			res.Metadata.ProcessingTime, createdAt,
		)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for id, st := range res.Stats {
		err := retryOnBusy(func() error {
			_, err := s.db.Exec(`
				INSERT INTO player_stats (
					run_id, player_id, team, total_distance, max_speed,
					avg_speed, sprints, track_duration, frames_tracked
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				runID, id, string(st.Team), st.TotalDistance, st.MaxSpeed,
				st.AvgSpeed, st.Sprints, st.TrackDuration, st.FramesTracked,
			)
			return err
		})
		if err != nil {
			return "", fmt.Errorf("insert stats for player %d: %w", id, err)
		}
	}

	for _, p := range res.Passes {
		if err := s.insertEvent("pass_events", runID, p, p.Timestamp); err != nil {
			return "", err
		}
	}
	for _, p := range res.PressingEvents {
		if err := s.insertEvent("pressing_events", runID, p, p.Timestamp); err != nil {
			return "", err
		}
	}
	return runID, nil
}

func (s *Store) insertEvent(table, runID string, event interface{}, ts float64) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return retryOnBusy(func() error {
		_, err := s.db.Exec(
			fmt.Sprintf(`INSERT INTO %s (run_id, event_json, timestamp) VALUES (?, ?, ?)`, table),
			runID, string(raw), ts,
		)
		return err
	})
}

// GetRun returns a single run header by id.
func (s *Store) GetRun(runID string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT run_id, video_path, success, error, error_type,
		       duration, fps, resolution, processing_time, created_at
		FROM analysis_runs
		WHERE run_id = ?`, runID)

	var r Run
	var success int
	err := row.Scan(
		&r.RunID, &r.VideoPath, &success, &r.Error, &r.ErrorType,
		&r.Duration, &r.FPS, &r.Resolution, &r.ProcessingTime, &r.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run %s not found", runID)
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	r.Success = success != 0
	return &r, nil
}

// ListRuns returns run headers ordered by creation time descending.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`
		SELECT run_id, video_path, success, error, error_type,
		       duration, fps, resolution, processing_time, created_at
		FROM analysis_runs
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		var success int
		if err := rows.Scan(
			&r.RunID, &r.VideoPath, &success, &r.Error, &r.ErrorType,
			&r.Duration, &r.FPS, &r.Resolution, &r.ProcessingTime, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		r.Success = success != 0
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// PlayerStats returns the persisted per-player stats for a run.
func (s *Store) PlayerStats(runID string) (map[int]metrics.PlayerStats, error) {
	rows, err := s.db.Query(`
		SELECT player_id, team, total_distance, max_speed,
		       avg_speed, sprints, track_duration, frames_tracked
		FROM player_stats
		WHERE run_id = ?
		ORDER BY player_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query player stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[int]metrics.PlayerStats)
	for rows.Next() {
		var st metrics.PlayerStats
		var team string
		if err := rows.Scan(
			&st.PlayerID, &team, &st.TotalDistance, &st.MaxSpeed,
			&st.AvgSpeed, &st.Sprints, &st.TrackDuration, &st.FramesTracked,
		); err != nil {
			return nil, fmt.Errorf("scan player stats row: %w", err)
		}
		st.Team = metrics.Team(team)
		stats[st.PlayerID] = st
	}
	return stats, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
