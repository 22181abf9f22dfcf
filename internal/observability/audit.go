package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// AuditEventType categorizes audit events.
type AuditEventType string

const (
	AuditEventAssessmentStart AuditEventType = "assessment.start"
	AuditEventAssessmentEnd   AuditEventType = "assessment.complete"
	AuditEventAssessmentError AuditEventType = "assessment.error"
	AuditEventOntologyLoad    AuditEventType = "ontology.load"
	AuditEventReasoner        AuditEventType = "reasoner.check"
	AuditEventExternalCall    AuditEventType = "external.call"
)

// AuditEvent represents a single audit log entry.
type AuditEvent struct {
	Timestamp    time.Time              `json:"timestamp"`
	EventType    AuditEventType         `json:"event_type"`
	SessionID    string                 `json:"session_id"`
	AssessmentID string                 `json:"assessment_id,omitempty"`
	Source       string                 `json:"source,omitempty"`
	UserID       string                 `json:"user_id,omitempty"`
	Success      bool                   `json:"success"`
	Duration     time.Duration          `json:"duration_ms,omitempty"`
	Message      string                 `json:"message,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
	ErrorDetail  string                 `json:"error_detail,omitempty"`
}

// AuditLogger handles audit event logging.
type AuditLogger struct {
	mu        sync.Mutex
	writer    io.Writer
	sessionID string
	userID    string
	enabled   bool
}

// AuditConfig configures the audit logger.
type AuditConfig struct {
	Enabled    bool
	OutputPath string // File path or "stdout"/"stderr"
	SessionID  string
	UserID     string
}

// DefaultAuditConfig returns default audit configuration.
func DefaultAuditConfig() *AuditConfig {
	return &AuditConfig{
		Enabled:    true,
		OutputPath: "stdout",
	}
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(config *AuditConfig) (*AuditLogger, error) {
	if config == nil {
		config = DefaultAuditConfig()
	}

	var writer io.Writer
	switch config.OutputPath {
	case "stdout", "":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		f, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		writer = f
	}

	sessionID := config.SessionID
	if sessionID == "" {
		sessionID = fmt.Sprintf("session-%d", time.Now().UnixNano())
	}

	return &AuditLogger{
		writer:    writer,
		sessionID: sessionID,
		userID:    config.UserID,
		enabled:   config.Enabled,
	}, nil
}

// Log writes an audit event.
func (l *AuditLogger) Log(event *AuditEvent) error {
	if !l.enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Fill in defaults
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.SessionID == "" {
		event.SessionID = l.sessionID
	}
	if event.UserID == "" {
		event.UserID = l.userID
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	_, err = fmt.Fprintf(l.writer, "%s\n", data)
	return err
}

// LogAssessmentStart logs the start of an assessment.
func (l *AuditLogger) LogAssessmentStart(ctx context.Context, assessmentID, source, keyword string) {
	l.Log(&AuditEvent{
		EventType:    AuditEventAssessmentStart,
		AssessmentID: assessmentID,
		Source:       source,
		Success:      true,
		Message:      fmt.Sprintf("Assessment of %s started", source),
		Details: map[string]interface{}{
			"keyword": keyword,
		},
	})
}

// LogAssessmentComplete logs a finished assessment.
func (l *AuditLogger) LogAssessmentComplete(ctx context.Context, assessmentID, source string, duration time.Duration, consistency int, gateStatus string) {
	l.Log(&AuditEvent{
		EventType:    AuditEventAssessmentEnd,
		AssessmentID: assessmentID,
		Source:       source,
		Success:      gateStatus != "failed",
		Duration:     duration,
		Message:      fmt.Sprintf("Assessment of %s completed", source),
		Details: map[string]interface{}{
			"consistency": consistency,
			"gate_status": gateStatus,
		},
	})
}

// LogAssessmentError logs an assessment that could not complete.
func (l *AuditLogger) LogAssessmentError(ctx context.Context, assessmentID, source string, err error) {
	l.Log(&AuditEvent{
		EventType:    AuditEventAssessmentError,
		AssessmentID: assessmentID,
		Source:       source,
		Success:      false,
		Message:      fmt.Sprintf("Assessment of %s failed", source),
		ErrorDetail:  err.Error(),
	})
}

// LogOntologyLoad logs a loaded ontology.
func (l *AuditLogger) LogOntologyLoad(ctx context.Context, assessmentID, source string, triples int, duration time.Duration) {
	l.Log(&AuditEvent{
		EventType:    AuditEventOntologyLoad,
		AssessmentID: assessmentID,
		Source:       source,
		Success:      true,
		Duration:     duration,
		Message:      fmt.Sprintf("Loaded %d triples from %s", triples, source),
		Details: map[string]interface{}{
			"triples": triples,
		},
	})
}

// LogReasoner logs a consistency check.
func (l *AuditLogger) LogReasoner(ctx context.Context, assessmentID, reasoner, outcome string, duration time.Duration, err error) {
	event := &AuditEvent{
		EventType:    AuditEventReasoner,
		AssessmentID: assessmentID,
		Success:      outcome != "check_failed",
		Duration:     duration,
		Message:      fmt.Sprintf("Reasoner %s: %s", reasoner, outcome),
		Details: map[string]interface{}{
			"reasoner": reasoner,
			"outcome":  outcome,
		},
	}
	if err != nil {
		event.ErrorDetail = err.Error()
	}
	l.Log(event)
}

// LogExternalCall logs a call to an external assessment service.
func (l *AuditLogger) LogExternalCall(ctx context.Context, assessmentID, service, url string, err error) {
	event := &AuditEvent{
		EventType:    AuditEventExternalCall,
		AssessmentID: assessmentID,
		Success:      err == nil,
		Message:      fmt.Sprintf("Called %s", service),
		Details: map[string]interface{}{
			"service": service,
			"url":     url,
		},
	}
	if err != nil {
		event.ErrorDetail = err.Error()
	}
	l.Log(event)
}

// Close closes the audit logger (if using a file).
func (l *AuditLogger) Close() error {
	if closer, ok := l.writer.(io.Closer); ok {
		if closer != os.Stdout && closer != os.Stderr {
			return closer.Close()
		}
	}
	return nil
}

// Global audit logger instance
var globalAuditLogger *AuditLogger
var auditOnce sync.Once

// InitGlobalAuditLogger initializes the global audit logger.
func InitGlobalAuditLogger(config *AuditConfig) error {
	var err error
	auditOnce.Do(func() {
		globalAuditLogger, err = NewAuditLogger(config)
	})
	return err
}

// Audit returns the global audit logger.
func Audit() *AuditLogger {
	if globalAuditLogger == nil {
		// Return a disabled logger if not initialized
		return &AuditLogger{enabled: false}
	}
	return globalAuditLogger
}
