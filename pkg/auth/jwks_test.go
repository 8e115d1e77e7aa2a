package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidzilla/bidzilla-web/pkg/models"
	"github.com/bidzilla/bidzilla-web/pkg/testhelpers"
)

func TestTokenInspector_Unverified(t *testing.T) {
	inspector, err := NewTokenInspector("")
	require.NoError(t, err)
	defer inspector.Close()
	assert.False(t, inspector.Verifying())

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	inspector.now = func() time.Time { return now }

	tests := []struct {
		name       string
		token      string
		wantErr    error
		wantClaims bool
	}{
		{
			name:       "valid token",
			token:      testhelpers.GenerateTestJWT(7, "BUYER", now.Add(time.Hour)),
			wantClaims: true,
		},
		{
			name:       "token without exp",
			token:      testhelpers.GenerateTestJWT(7, "SELLER", time.Time{}),
			wantClaims: true,
		},
		{
			name:    "expired token",
			token:   testhelpers.GenerateTestJWT(7, "BUYER", now.Add(-time.Minute)),
			wantErr: ErrTokenExpired,
		},
		{
			name:  "opaque token",
			token: "opaque-session-token",
		},
		{
			name:  "dotted but not a JWT",
			token: "a.b.c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := inspector.Inspect(context.Background(), tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.wantClaims {
				require.NotNil(t, claims)
				assert.Equal(t, int64(7), claims.UserID)
			} else {
				assert.Nil(t, claims)
			}
		})
	}
}

func TestTokenInspector_ParsesRoleClaim(t *testing.T) {
	inspector, err := NewTokenInspector("")
	require.NoError(t, err)

	claims, err := inspector.Inspect(context.Background(),
		testhelpers.GenerateTestJWT(3, "SELLER", time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, models.RoleSeller, claims.MarketplaceRole())
}

// jwksServer publishes a single RSA key under kid "test-key".
func jwksServer(t *testing.T, key *rsa.PublicKey) *httptest.Server {
	t.Helper()
	n := base64.RawURLEncoding.EncodeToString(key.N.Bytes())
	e := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes())
	body := fmt.Sprintf(`{"keys":[{"kty":"RSA","kid":"test-key","alg":"RS256","use":"sig","n":%q,"e":%q}]}`, n, e)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func signToken(t *testing.T, key *rsa.PrivateKey, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
		UserID:           11,
		Role:             "BUYER",
	})
	token.Header["kid"] = "test-key"
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestTokenInspector_Verified(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	srv := jwksServer(t, &key.PublicKey)
	inspector, err := NewTokenInspector(srv.URL)
	require.NoError(t, err)
	defer inspector.Close()
	assert.True(t, inspector.Verifying())

	t.Run("valid signature", func(t *testing.T) {
		claims, err := inspector.Inspect(context.Background(), signToken(t, key, time.Now().Add(time.Hour)))
		require.NoError(t, err)
		assert.Equal(t, int64(11), claims.UserID)
	})

	t.Run("expired", func(t *testing.T) {
		_, err := inspector.Inspect(context.Background(), signToken(t, key, time.Now().Add(-time.Hour)))
		assert.True(t, errors.Is(err, ErrTokenExpired), "got %v", err)
	})

	t.Run("wrong key", func(t *testing.T) {
		_, err := inspector.Inspect(context.Background(), signToken(t, otherKey, time.Now().Add(time.Hour)))
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("opaque token rejected", func(t *testing.T) {
		_, err := inspector.Inspect(context.Background(), "opaque-session-token")
		assert.Error(t, err)
	})
}

func TestNewTokenInspector_InvalidEndpoint(t *testing.T) {
	// keyfunc may accept a malformed URL and fail later during refresh.
	// Either way construction must not panic.
	inspector, err := NewTokenInspector("not-a-valid-url")
	if err != nil {
		assert.Contains(t, err.Error(), "failed to create JWKS client")
		return
	}
	inspector.Close()
}
