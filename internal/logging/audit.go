package logging

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// AuditEventType names a structured audit event.
type AuditEventType string

const (
	AuditSessionStart AuditEventType = "session_start"
	AuditSessionEnd   AuditEventType = "session_end"
	AuditTurnStart    AuditEventType = "turn_start"
	AuditTurnEnd      AuditEventType = "turn_end"

	AuditClassified     AuditEventType = "classified"
	AuditUnhandled      AuditEventType = "unhandled_category"
	AuditDispatch       AuditEventType = "dispatch"
	AuditDispatchError  AuditEventType = "dispatch_error"
	AuditProviderError  AuditEventType = "provider_error"
	AuditInputInterrupt AuditEventType = "input_interrupted"
	AuditRecoveredFault AuditEventType = "recovered_fault"
	AuditLLMCall        AuditEventType = "llm_call"
	AuditLLMError       AuditEventType = "llm_error"
)

// AuditEvent is one structured audit record.
type AuditEvent struct {
	EventType  AuditEventType
	SessionID  string
	Target     string
	Success    bool
	DurationMs int64
	Error      string
	Message    string
	Fields     map[string]interface{}
}

// AuditLogger writes audit events under the "audit" logger name.
type AuditLogger struct {
	sessionID string
}

// Audit returns an unscoped audit logger.
func Audit() *AuditLogger {
	return &AuditLogger{}
}

// AuditWithSession creates an audit logger scoped to a session.
func AuditWithSession(sessionID string) *AuditLogger {
	return &AuditLogger{sessionID: sessionID}
}

// Log writes an audit event. No-op when logging is disabled.
func (a *AuditLogger) Log(event AuditEvent) {
	loggersMu.RLock()
	core, enabled := base, settings.Enabled
	loggersMu.RUnlock()
	if !enabled {
		return
	}

	if event.SessionID == "" {
		event.SessionID = a.sessionID
	}
	fields := []zap.Field{
		zap.String("event", string(event.EventType)),
		zap.Bool("success", event.Success),
	}
	if event.SessionID != "" {
		fields = append(fields, zap.String("session", event.SessionID))
	}
	if event.Target != "" {
		fields = append(fields, zap.String("target", event.Target))
	}
	if event.DurationMs > 0 {
		fields = append(fields, zap.Int64("dur_ms", event.DurationMs))
	}
	if event.Error != "" {
		fields = append(fields, zap.String("error", event.Error))
	}
	for k, v := range event.Fields {
		fields = append(fields, zap.Any(k, v))
	}
	core.Named("audit").Info(event.Message, fields...)
}

// SessionStart logs session start
func (a *AuditLogger) SessionStart() {
	a.Log(AuditEvent{
		EventType: AuditSessionStart,
		Success:   true,
		Message:   fmt.Sprintf("Session started: %s", a.sessionID),
	})
}

// SessionEnd logs session end
func (a *AuditLogger) SessionEnd(turnCount int, elapsed time.Duration) {
	a.Log(AuditEvent{
		EventType:  AuditSessionEnd,
		Success:    true,
		DurationMs: elapsed.Milliseconds(),
		Fields:     map[string]interface{}{"turn_count": turnCount},
		Message:    fmt.Sprintf("Session ended: %s (%d turns)", a.sessionID, turnCount),
	})
}

// TurnStart logs turn start
func (a *AuditLogger) TurnStart(turnNum int, inputLen int) {
	a.Log(AuditEvent{
		EventType: AuditTurnStart,
		Success:   true,
		Fields:    map[string]interface{}{"turn": turnNum, "input_len": inputLen},
		Message:   fmt.Sprintf("Turn %d started (%d chars)", turnNum, inputLen),
	})
}

// TurnEnd logs turn end
func (a *AuditLogger) TurnEnd(turnNum int, elapsed time.Duration, success bool) {
	a.Log(AuditEvent{
		EventType:  AuditTurnEnd,
		Success:    success,
		DurationMs: elapsed.Milliseconds(),
		Fields:     map[string]interface{}{"turn": turnNum},
		Message:    fmt.Sprintf("Turn %d ended (success=%v)", turnNum, success),
	})
}

// Classified logs a classifier outcome. Unknown labels are logged as
// unhandled with the raw label as target.
func (a *AuditLogger) Classified(category string, known bool, elapsed time.Duration) {
	eventType := AuditClassified
	if !known {
		eventType = AuditUnhandled
	}
	a.Log(AuditEvent{
		EventType:  eventType,
		Target:     category,
		Success:    known,
		DurationMs: elapsed.Milliseconds(),
		Message:    fmt.Sprintf("Question classified as %s", category),
	})
}

// Dispatched logs a specialist dispatch outcome.
func (a *AuditLogger) Dispatched(category string, elapsed time.Duration, success bool, errMsg string) {
	eventType := AuditDispatch
	if !success {
		eventType = AuditDispatchError
	}
	a.Log(AuditEvent{
		EventType:  eventType,
		Target:     category,
		Success:    success,
		DurationMs: elapsed.Milliseconds(),
		Error:      errMsg,
		Message:    fmt.Sprintf("Dispatch to %s (success=%v)", category, success),
	})
}

// ProviderFailure logs a completion provider failure seen by the loop.
func (a *AuditLogger) ProviderFailure(provider string, errMsg string) {
	a.Log(AuditEvent{
		EventType: AuditProviderError,
		Target:    provider,
		Error:     errMsg,
		Message:   "Completion provider failed",
	})
}

// Interrupted logs a user abort during a read.
func (a *AuditLogger) Interrupted(state string) {
	a.Log(AuditEvent{
		EventType: AuditInputInterrupt,
		Target:    state,
		Success:   true,
		Message:   fmt.Sprintf("Input interrupted in %s", state),
	})
}

// Recovered logs a panic recovered at the loop boundary.
func (a *AuditLogger) Recovered(value interface{}) {
	a.Log(AuditEvent{
		EventType: AuditRecoveredFault,
		Error:     fmt.Sprint(value),
		Message:   "Recovered from panic in conversation loop",
	})
}

// LLMCall logs a completion call with its outcome.
func (a *AuditLogger) LLMCall(model string, tokens int, elapsed time.Duration, success bool, errMsg string) {
	eventType := AuditLLMCall
	if !success {
		eventType = AuditLLMError
	}
	a.Log(AuditEvent{
		EventType:  eventType,
		Target:     model,
		Success:    success,
		DurationMs: elapsed.Milliseconds(),
		Error:      errMsg,
		Fields:     map[string]interface{}{"tokens": tokens},
		Message:    fmt.Sprintf("LLM call to %s (success=%v)", model, success),
	})
}
