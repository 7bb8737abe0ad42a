// Package store persists per-episode experiment results in a SQLite
// database so that results of many runs can be queried together.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// Episode is the summary of a single finished episode
type Episode struct {
	RunID    uuid.UUID
	Episode  int
	Return   float64
	Length   int
	Success  bool
	GoalDist float64
	Task     string
}

// Run summarises the episodes saved for a single run
type Run struct {
	ID          uuid.UUID
	Episodes    int
	MeanReturn  float64
	SuccessRate float64
	Created     time.Time
}

// Store is a SQLite backed store of Episodes
type Store struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// Open opens the database at path, creating its tables if needed
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("open: sqlite path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open: %v", err)
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open: could not create tables: %v", err)
	}

	return &Store{path: path, db: db}, nil
}

// Path returns the path of the database
func (s *Store) Path() string {
	return s.path
}

// SaveEpisode saves an episode, replacing any episode with the same
// run ID and episode number
func (s *Store) SaveEpisode(ctx context.Context, e Episode) error {
	db, err := s.getDB()
	if err != nil {
		return fmt.Errorf("saveEpisode: %v", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO episodes (run_id, episode, ep_return, length, success,
			goal_dist, task, created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, episode) DO UPDATE SET
			ep_return = excluded.ep_return,
			length = excluded.length,
			success = excluded.success,
			goal_dist = excluded.goal_dist,
			task = excluded.task
	`, e.RunID.String(), e.Episode, e.Return, e.Length, e.Success,
		e.GoalDist, e.Task, time.Now().UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("saveEpisode: %v", err)
	}
	return nil
}

// Episodes returns the episodes of a run ordered by episode number
func (s *Store) Episodes(ctx context.Context, runID uuid.UUID) ([]Episode,
	error) {
	db, err := s.getDB()
	if err != nil {
		return nil, fmt.Errorf("episodes: %v", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT episode, ep_return, length, success, goal_dist, task
		FROM episodes WHERE run_id = ? ORDER BY episode
	`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("episodes: %v", err)
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		e := Episode{RunID: runID}
		err := rows.Scan(&e.Episode, &e.Return, &e.Length, &e.Success,
			&e.GoalDist, &e.Task)
		if err != nil {
			return nil, fmt.Errorf("episodes: %v", err)
		}
		episodes = append(episodes, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("episodes: %v", err)
	}
	return episodes, nil
}

// Runs returns a summary of each run in the store, oldest first
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, fmt.Errorf("runs: %v", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT run_id, COUNT(*), AVG(ep_return), AVG(success), MIN(created)
		FROM episodes GROUP BY run_id ORDER BY MIN(created), run_id
	`)
	if err != nil {
		return nil, fmt.Errorf("runs: %v", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r       Run
			id      string
			created int64
		)
		err := rows.Scan(&id, &r.Episodes, &r.MeanReturn, &r.SuccessRate,
			&created)
		if err != nil {
			return nil, fmt.Errorf("runs: %v", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("runs: invalid run id %q: %v", id, err)
		}
		r.Created = time.Unix(0, created).UTC()
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("runs: %v", err)
	}
	return runs, nil
}

// Close closes the database
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is closed")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS episodes (
			run_id TEXT NOT NULL,
			episode INTEGER NOT NULL,
			ep_return REAL NOT NULL,
			length INTEGER NOT NULL,
			success INTEGER NOT NULL,
			goal_dist REAL NOT NULL,
			task TEXT NOT NULL,
			created INTEGER NOT NULL,
			PRIMARY KEY (run_id, episode)
		);
	`)
	return err
}
