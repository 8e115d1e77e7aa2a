package auth

import (
	"context"

	"github.com/bidzilla/bidzilla-web/pkg/api"
	"github.com/bidzilla/bidzilla-web/pkg/models"
	"github.com/bidzilla/bidzilla-web/pkg/session"
)

// WithSession returns a context carrying the authorized session. The session
// token is also attached for the API client's bearer request editor.
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	ctx = context.WithValue(ctx, SessionKey, sess)
	if sess != nil && sess.Token != "" {
		ctx = api.WithToken(ctx, sess.Token)
	}
	return ctx
}

// SessionFromContext returns the session attached by the guard.
// Returns nil and false outside guarded handlers.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(SessionKey).(*session.Session)
	return sess, ok && sess != nil
}

// UserFromContext returns the signed-in user, or nil outside guarded handlers.
func UserFromContext(ctx context.Context) *models.User {
	sess, ok := SessionFromContext(ctx)
	if !ok {
		return nil
	}
	return sess.User
}
