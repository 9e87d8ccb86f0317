package store

import (
	"fmt"

	"pathtutor/internal/logging"
	"pathtutor/internal/perception"
)

// StoreReasoningTrace implements perception.TraceStore.
func (s *LocalStore) StoreReasoningTrace(trace *perception.ReasoningTrace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO reasoning_traces
		 (id, session_id, operation, category, system_prompt, user_prompt, response,
		  provider, model, duration_ms, success, error_message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trace.ID, trace.SessionID, trace.Operation, trace.Category,
		trace.SystemPrompt, trace.UserPrompt, trace.Response,
		trace.Provider, trace.Model, trace.DurationMs, trace.Success, trace.ErrorMessage,
		trace.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to store trace: %w", err)
	}
	logging.StoreDebug("Stored trace %s (op=%s success=%v)", trace.ID, trace.Operation, trace.Success)
	return nil
}

// SessionTraces returns the traces recorded for a session, oldest first.
func (s *LocalStore) SessionTraces(sessionID string, limit int) ([]perception.ReasoningTrace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(
		`SELECT id, session_id, operation, category, system_prompt, user_prompt, response,
		        provider, model, duration_ms, success, error_message, created_at
		 FROM reasoning_traces
		 WHERE session_id = ?
		 ORDER BY created_at ASC
		 LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query traces: %w", err)
	}
	defer rows.Close()

	var traces []perception.ReasoningTrace
	for rows.Next() {
		var t perception.ReasoningTrace
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Operation, &t.Category,
			&t.SystemPrompt, &t.UserPrompt, &t.Response,
			&t.Provider, &t.Model, &t.DurationMs, &t.Success, &t.ErrorMessage, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan trace: %w", err)
		}
		traces = append(traces, t)
	}
	return traces, rows.Err()
}

var _ perception.TraceStore = (*LocalStore)(nil)
