// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/flowrite/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout is fixed width so that text order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for writing sessions.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS writing_sessions (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			word_count INTEGER NOT NULL,
			duration_seconds INTEGER NOT NULL,
			average_wpm INTEGER NOT NULL,
			peak_wpm INTEGER NOT NULL,
			word_goal INTEGER NOT NULL,
			time_goal_seconds INTEGER NOT NULL,
			minimum_wpm INTEGER NOT NULL,
			target_wpm INTEGER NOT NULL,
			alarms INTEGER NOT NULL,
			word_goal_achieved INTEGER NOT NULL,
			time_goal_achieved INTEGER NOT NULL,
			no_backspace_mode INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_writing_sessions_ended_at ON writing_sessions(ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores a finished session.
func (s *Store) InsertSession(ctx context.Context, ws model.WritingSession) error {
	if ws.ID == "" {
		return fmt.Errorf("session id is empty")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO writing_sessions (id, started_at, ended_at, word_count, duration_seconds, average_wpm, peak_wpm,
			word_goal, time_goal_seconds, minimum_wpm, target_wpm, alarms, word_goal_achieved, time_goal_achieved, no_backspace_mode)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ws.ID,
		ws.StartedAt.UTC().Format(timeLayout),
		ws.EndedAt.UTC().Format(timeLayout),
		ws.WordCount,
		ws.DurationSeconds,
		ws.AverageWPM,
		ws.PeakWPM,
		ws.WordGoal,
		ws.TimeGoalSeconds,
		ws.MinimumWPM,
		ws.TargetWPM,
		ws.Alarms,
		boolInt(ws.WordGoalAchieved),
		boolInt(ws.TimeGoalAchieved),
		boolInt(ws.NoBackspace),
	)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", ws.ID, err)
	}
	return nil
}

// ListSessions returns sessions matching the filter, oldest first. Last keeps
// only the most recent N.
func (s *Store) ListSessions(ctx context.Context, filter model.HistoryFilter) ([]model.WritingSession, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}
	query := fmt.Sprintf(`SELECT id, started_at, ended_at, word_count, duration_seconds, average_wpm, peak_wpm,
		word_goal, time_goal_seconds, minimum_wpm, target_wpm, alarms, word_goal_achieved, time_goal_achieved, no_backspace_mode
		FROM writing_sessions
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.WritingSession
	for rows.Next() {
		var ws model.WritingSession
		var startedAt, endedAt string
		var wordGoalAchieved, timeGoalAchieved, noBackspace int
		if err := rows.Scan(&ws.ID, &startedAt, &endedAt, &ws.WordCount, &ws.DurationSeconds, &ws.AverageWPM, &ws.PeakWPM,
			&ws.WordGoal, &ws.TimeGoalSeconds, &ws.MinimumWPM, &ws.TargetWPM, &ws.Alarms,
			&wordGoalAchieved, &timeGoalAchieved, &noBackspace); err != nil {
			return nil, err
		}
		if ws.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, err
		}
		if ws.EndedAt, err = time.Parse(timeLayout, endedAt); err != nil {
			return nil, err
		}
		ws.WordGoalAchieved = wordGoalAchieved != 0
		ws.TimeGoalAchieved = timeGoalAchieved != 0
		ws.NoBackspace = noBackspace != 0
		sessions = append(sessions, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if filter.Last > 0 && len(sessions) > filter.Last {
		sessions = sessions[len(sessions)-filter.Last:]
	}
	return sessions, nil
}

// LatestSession returns the most recently ended session, if any.
func (s *Store) LatestSession(ctx context.Context) (model.WritingSession, bool, error) {
	sessions, err := s.ListSessions(ctx, model.HistoryFilter{Last: 1})
	if err != nil {
		return model.WritingSession{}, false, err
	}
	if len(sessions) == 0 {
		return model.WritingSession{}, false, nil
	}
	return sessions[0], true, nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
