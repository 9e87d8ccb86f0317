package store

import (
	"database/sql"
	"fmt"
	"slices"
	"time"

	"pathtutor/internal/logging"
	"pathtutor/internal/memory"
	"pathtutor/internal/taxonomy"
)

// SessionInfo summarizes one stored session.
type SessionInfo struct {
	ID        string
	Provider  string
	Model     string
	StartedAt time.Time
	EndedAt   *time.Time
	Turns     int
}

// StartSession registers a session. Starting an existing session is a no-op.
func (s *LocalStore) StartSession(sessionID, provider, model string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO sessions (id, provider, model, started_at) VALUES (?, ?, ?, ?)`,
		sessionID, provider, model, at.UTC(),
	)
	if err != nil {
		logging.StoreError("Failed to start session %s: %v", sessionID, err)
		return fmt.Errorf("failed to start session: %w", err)
	}
	logging.StoreDebug("Session started: %s", sessionID)
	return nil
}

// EndSession stamps the session end time.
func (s *LocalStore) EndSession(sessionID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`UPDATE sessions SET ended_at = ? WHERE id = ?`, at.UTC(), sessionID); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

// RecordTurn stores a conversation turn.
// Uses INSERT OR IGNORE so replaying a turn is idempotent.
func (s *LocalStore) RecordTurn(sessionID string, turn memory.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logging.StoreDebug("Storing session turn: session=%s turn=%d question_len=%d answer_len=%d",
		sessionID, turn.Ordinal, len(turn.Question), len(turn.Answer))

	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO session_history (session_id, turn_number, question, category, answer, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, turn.Ordinal, turn.Question, string(turn.Category), turn.Answer, turn.At.UTC(),
	)
	if err != nil {
		logging.StoreError("Failed to store session turn: session=%s turn=%d: %v", sessionID, turn.Ordinal, err)
		return fmt.Errorf("failed to store turn: %w", err)
	}
	return nil
}

// SessionHistory returns the most recent limit turns of a session, oldest
// first.
func (s *LocalStore) SessionHistory(sessionID string, limit int) ([]memory.Turn, error) {
	timer := logging.StartTimer(logging.CategoryStore, "SessionHistory")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT turn_number, question, category, answer, created_at
		 FROM session_history
		 WHERE session_id = ?
		 ORDER BY turn_number DESC
		 LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query session history: %w", err)
	}
	defer rows.Close()

	var turns []memory.Turn
	for rows.Next() {
		var t memory.Turn
		var category string
		if err := rows.Scan(&t.Ordinal, &t.Question, &category, &t.Answer, &t.At); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		t.Category = taxonomy.Category(category)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(turns)
	return turns, nil
}

// LatestSessionID returns the most recently started session, or "" if none.
func (s *LocalStore) LatestSessionID() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var id string
	err := s.db.QueryRow(`SELECT id FROM sessions ORDER BY started_at DESC LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query latest session: %w", err)
	}
	return id, nil
}

// ListSessions returns the most recent sessions with their turn counts.
func (s *LocalStore) ListSessions(limit int) ([]SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT s.id, s.provider, s.model, s.started_at, s.ended_at, COUNT(h.id)
		 FROM sessions s
		 LEFT JOIN session_history h ON h.session_id = s.id
		 GROUP BY s.id
		 ORDER BY s.started_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionInfo
	for rows.Next() {
		var info SessionInfo
		var ended sql.NullTime
		if err := rows.Scan(&info.ID, &info.Provider, &info.Model, &info.StartedAt, &ended, &info.Turns); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if ended.Valid {
			t := ended.Time
			info.EndedAt = &t
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// CategoryCounts returns how many stored turns fall into each category.
func (s *LocalStore) CategoryCounts() (map[taxonomy.Category]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT category, COUNT(*) FROM session_history GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}
	defer rows.Close()

	counts := make(map[taxonomy.Category]int)
	for rows.Next() {
		var c string
		var n int
		if err := rows.Scan(&c, &n); err != nil {
			return nil, err
		}
		counts[taxonomy.Category(c)] = n
	}
	return counts, rows.Err()
}
