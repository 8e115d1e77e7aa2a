// Package audit provides security audit logging for SIEM consumption.
// It logs security-relevant events in structured JSON format for easy parsing
// and integration with security information and event management systems.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/bidzilla/bidzilla-web/pkg/auth"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventMarkupRejected is logged when libinjection flags a form value as XSS.
	EventMarkupRejected SecurityEventType = "markup_rejected"
	// EventLoginFailure is logged when the backend refuses a login.
	EventLoginFailure SecurityEventType = "login_failure"
	// EventSessionRejected is logged when the backend refuses a stored session token.
	EventSessionRejected SecurityEventType = "session_rejected"
)

// Severity levels.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
)

// SecurityEvent is one auditable event.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	UserID    int64             `json:"user_id,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"`
}

// MarkupDetails names the form whose input was rejected. The value itself is
// never logged.
type MarkupDetails struct {
	Form  string `json:"form"`
	Path  string `json:"path"`
	Field string `json:"field,omitempty"`
}

// SecurityAuditor logs security events for SIEM consumption.
type SecurityAuditor struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewSecurityAuditor creates an auditor logging under the "security_audit"
// namespace for easy filtering.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit"), now: time.Now}
}

// LogMarkupRejected records a form submission refused because a value looked
// like an XSS payload. Logged at WARN.
func (a *SecurityAuditor) LogMarkupRejected(ctx context.Context, details MarkupDetails, clientIP string) {
	event := a.event(ctx, EventMarkupRejected, SeverityWarning, details, clientIP)
	a.logger.Warn("Markup rejected in form input",
		zap.String("event_json", marshal(event)),
		zap.String("form", details.Form),
		zap.String("path", details.Path),
		zap.Int64("user_id", event.UserID),
		zap.String("client_ip", clientIP),
		zap.String("severity", event.Severity),
	)
}

// LogLoginFailure records a refused login. status is the backend's HTTP status,
// or 0 when the backend could not be reached.
func (a *SecurityAuditor) LogLoginFailure(ctx context.Context, email string, status int, clientIP string) {
	event := a.event(ctx, EventLoginFailure, SeverityInfo, map[string]any{
		"email":  email,
		"status": status,
	}, clientIP)
	a.logger.Info("Login refused",
		zap.String("event_json", marshal(event)),
		zap.String("email", email),
		zap.Int("status", status),
		zap.String("client_ip", clientIP),
		zap.String("severity", event.Severity),
	)
}

// LogSessionRejected records a stored token the backend no longer accepts.
func (a *SecurityAuditor) LogSessionRejected(ctx context.Context, path, clientIP string) {
	event := a.event(ctx, EventSessionRejected, SeverityInfo, map[string]string{"path": path}, clientIP)
	a.logger.Info("Session token rejected by backend",
		zap.String("event_json", marshal(event)),
		zap.String("path", path),
		zap.Int64("user_id", event.UserID),
		zap.String("client_ip", clientIP),
		zap.String("severity", event.Severity),
	)
}

func (a *SecurityAuditor) event(ctx context.Context, t SecurityEventType, severity string, details any, clientIP string) SecurityEvent {
	event := SecurityEvent{
		Timestamp: a.now().UTC(),
		EventType: t,
		ClientIP:  clientIP,
		Details:   details,
		Severity:  severity,
	}
	if user := auth.UserFromContext(ctx); user != nil {
		event.UserID = user.ID
	}
	return event
}

// Marshaling known types cannot fail.
func marshal(event SecurityEvent) string {
	b, _ := json.Marshal(event)
	return string(b)
}
