package observability

import (
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuditEvent is a structured record of a kernel decision
type AuditEvent struct {
	EventID   string                 `json:"event_id"`
	Type      string                 `json:"event_type"`
	Timestamp time.Time              `json:"timestamp"`
	Agent     string                 `json:"agent,omitempty"`
	Action    string                 `json:"action"`
	Outcome   string                 `json:"outcome"` // "allow", "deny", "success", "failure"
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// AuditLogger records audit events as JSON lines
type AuditLogger struct {
	logger zerolog.Logger
	mu     sync.Mutex
	file   *os.File
}

var (
	auditOnce sync.Once
	auditInst *AuditLogger
)

// GetAuditLogger returns the global audit logger, defaulting to stderr
func GetAuditLogger() *AuditLogger {
	auditOnce.Do(func() {
		if auditInst == nil {
			auditInst = &AuditLogger{
				logger: zerolog.New(os.Stderr).With().Timestamp().Logger(),
			}
		}
	})
	return auditInst
}

// InitAuditLogger points the global audit logger at a file sink
func InitAuditLogger(path string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	auditInst = &AuditLogger{
		logger: zerolog.New(file).With().Timestamp().Logger(),
		file:   file,
	}
	return nil
}

// Record emits an audit event. It never returns an error: audit failures
// must not block the decision path being audited.
func (a *AuditLogger) Record(event AuditEvent) {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	entry := a.logger.Log().
		Str("event_id", event.EventID).
		Str("type", event.Type).
		Str("agent", event.Agent).
		Str("action", event.Action).
		Str("outcome", event.Outcome)

	if event.Metadata != nil {
		entry = entry.Interface("metadata", event.Metadata)
	}

	entry.Msg("")
}

// Close closes the audit logger's file handle
func (a *AuditLogger) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file != nil {
		return a.file.Close()
	}
	return nil
}

// RecordAccessAudit records an access-gate decision (grant, revoke, check)
func RecordAccessAudit(agent, capability, action, outcome string) {
	GetAuditLogger().Record(AuditEvent{
		Type:    "access",
		Agent:   agent,
		Action:  action + ":" + capability,
		Outcome: outcome,
	})
}

// RecordSyscallAudit records a dispatcher invocation outcome
func RecordSyscallAudit(agent, capability, outcome string, metadata map[string]interface{}) {
	GetAuditLogger().Record(AuditEvent{
		Type:     "syscall",
		Agent:    agent,
		Action:   "invoke:" + capability,
		Outcome:  outcome,
		Metadata: metadata,
	})
}
