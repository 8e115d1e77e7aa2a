package api

import (
	"context"
	"net/http"
)

type contextKey string

const tokenKey contextKey = "backend_token"

// WithToken returns a context carrying the session token for outgoing calls.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext returns the session token carried by ctx, if any.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok && token != ""
}

// BearerToken is the default request editor. It attaches the session token
// from the context as a bearer credential and leaves the request untouched
// when there is none.
func BearerToken(ctx context.Context, req *http.Request) error {
	if token, ok := TokenFromContext(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}
