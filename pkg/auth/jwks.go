package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired is returned when a token's exp claim is in the past.
var ErrTokenExpired = errors.New("token expired")

// TokenInspector decides whether a stored backend token is still usable.
// This abstraction enables testing with mock implementations.
type TokenInspector interface {
	// Inspect returns the token's claims, or nil claims for an opaque token
	// that cannot be inspected. Returns an error if the token is expired or
	// fails signature verification.
	Inspect(ctx context.Context, token string) (*Claims, error)
	// Close releases any resources held by the inspector.
	Close()
}

// JWKSInspector inspects backend tokens. With a JWKS URL configured it
// verifies signatures against the published keys; without one it only reads
// the claims so an expired session can end before the backend rejects it.
type JWKSInspector struct {
	jwks   keyfunc.Keyfunc
	cancel context.CancelFunc
	now    func() time.Time
}

// NewTokenInspector creates an inspector. An empty jwksURL disables
// signature verification.
func NewTokenInspector(jwksURL string) (*JWKSInspector, error) {
	inspector := &JWKSInspector{now: time.Now}
	if jwksURL == "" {
		return inspector, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create JWKS client for %s: %w", jwksURL, err)
	}
	inspector.jwks = jwks
	inspector.cancel = cancel
	return inspector, nil
}

// Verifying reports whether signatures are checked.
func (i *JWKSInspector) Verifying() bool {
	return i.jwks != nil
}

// Inspect implements TokenInspector.
func (i *JWKSInspector) Inspect(ctx context.Context, tokenString string) (*Claims, error) {
	if i.jwks != nil {
		return i.verify(ctx, tokenString)
	}
	return i.parseUnverified(tokenString)
}

func (i *JWKSInspector) verify(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, i.jwks.KeyfuncCtx(ctx),
		jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}
	return claims, nil
}

// parseUnverified reads the claims without checking the signature.
// Tokens that are not JWTs are accepted as opaque.
func (i *JWKSInspector) parseUnverified(tokenString string) (*Claims, error) {
	if strings.Count(tokenString, ".") != 2 {
		return nil, nil
	}

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, _, err := parser.ParseUnverified(tokenString, &Claims{})
	if err != nil {
		return nil, nil
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}

	if claims.ExpiresAt != nil && !i.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

// Close stops the background JWKS refresh, if any.
func (i *JWKSInspector) Close() {
	if i.cancel != nil {
		i.cancel()
	}
}

// Ensure JWKSInspector implements TokenInspector at compile time.
var _ TokenInspector = (*JWKSInspector)(nil)
