package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bidzilla/bidzilla-web/pkg/auth"
	"github.com/bidzilla/bidzilla-web/pkg/models"
	"github.com/bidzilla/bidzilla-web/pkg/session"
)

// setupTestLogger creates a test logger with an observer to capture log entries.
func setupTestLogger(t *testing.T) (*zap.Logger, *observer.ObservedLogs) {
	t.Helper()
	core, recorded := observer.New(zapcore.DebugLevel)
	return zap.New(core), recorded
}

func newTestAuditor(t *testing.T) (*SecurityAuditor, *observer.ObservedLogs) {
	t.Helper()
	logger, recorded := setupTestLogger(t)
	auditor := NewSecurityAuditor(logger)
	auditor.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return auditor, recorded
}

func signedIn(userID int64) context.Context {
	return auth.WithSession(context.Background(), &session.Session{
		Token: "tok",
		User:  &models.User{ID: userID, Role: models.RoleSeller},
	})
}

func decodeEvent(t *testing.T, entry observer.LoggedEntry) SecurityEvent {
	t.Helper()
	raw, ok := entry.ContextMap()["event_json"].(string)
	require.True(t, ok, "event_json field missing")

	var event SecurityEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &event))
	return event
}

func TestNewSecurityAuditor(t *testing.T) {
	logger, recorded := setupTestLogger(t)
	auditor := NewSecurityAuditor(logger)
	auditor.LogSessionRejected(context.Background(), "/projects", "10.0.0.1")

	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "security_audit", recorded.All()[0].LoggerName)
}

func TestLogMarkupRejected(t *testing.T) {
	tests := []struct {
		name     string
		ctx      context.Context
		wantUser int64
	}{
		{name: "signed in", ctx: signedIn(2), wantUser: 2},
		{name: "anonymous", ctx: context.Background(), wantUser: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auditor, recorded := newTestAuditor(t)
			auditor.LogMarkupRejected(tt.ctx, MarkupDetails{Form: "bid", Path: "/projects/5/bids"}, "192.168.1.100")

			require.Equal(t, 1, recorded.Len())
			entry := recorded.All()[0]
			assert.Equal(t, zapcore.WarnLevel, entry.Level)
			assert.Equal(t, "bid", entry.ContextMap()["form"])
			assert.Equal(t, tt.wantUser, entry.ContextMap()["user_id"])

			event := decodeEvent(t, entry)
			assert.Equal(t, EventMarkupRejected, event.EventType)
			assert.Equal(t, SeverityWarning, event.Severity)
			assert.Equal(t, tt.wantUser, event.UserID)
			assert.Equal(t, "192.168.1.100", event.ClientIP)
			assert.True(t, event.Timestamp.Equal(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)))
		})
	}
}

func TestLogLoginFailure(t *testing.T) {
	auditor, recorded := newTestAuditor(t)
	auditor.LogLoginFailure(context.Background(), "bea@example.com", 401, "10.0.0.1")

	require.Equal(t, 1, recorded.Len())
	entry := recorded.All()[0]
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	assert.Equal(t, "bea@example.com", entry.ContextMap()["email"])
	assert.Equal(t, int64(401), entry.ContextMap()["status"])

	event := decodeEvent(t, entry)
	assert.Equal(t, EventLoginFailure, event.EventType)
	details, ok := event.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(401), details["status"])
	assert.NotContains(t, details, "password")
}

func TestLogSessionRejected(t *testing.T) {
	auditor, recorded := newTestAuditor(t)
	auditor.LogSessionRejected(signedIn(7), "/buyer/dashboard", "10.0.0.1")

	require.Equal(t, 1, recorded.Len())
	event := decodeEvent(t, recorded.All()[0])
	assert.Equal(t, EventSessionRejected, event.EventType)
	assert.Equal(t, int64(7), event.UserID)
	assert.Equal(t, map[string]any{"path": "/buyer/dashboard"}, event.Details)
}
