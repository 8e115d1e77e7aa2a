package crypto

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test key generated with: openssl rand -base64 32
const testKey = "dGVzdC1rZXktZm9yLXVuaXQtdGVzdHMtMzItYnl0ZXM="

func TestNewTokenSealer(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{name: "32-byte base64 key", key: testKey},
		{name: "passphrase", key: "my-simple-passphrase"},
		{name: "short base64 key is hashed", key: base64.StdEncoding.EncodeToString([]byte("sixteen-byte-key"))},
		{name: "empty key", key: "", wantErr: ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewTokenSealer(tt.key)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s)
		})
	}
}

func TestTokenSealer_RoundTrip(t *testing.T) {
	s, err := NewTokenSealer(testKey)
	require.NoError(t, err)

	token := "eyJhbGciOiJIUzI1NiJ9.eyJpZCI6MX0.sig"
	sealed, err := s.Seal(token)
	require.NoError(t, err)
	assert.NotContains(t, sealed, token)
	assert.NotContains(t, sealed, "+", "sealed tokens are URL safe")

	opened, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, token, opened)
}

func TestTokenSealer_FreshNonce(t *testing.T) {
	s, err := NewTokenSealer(testKey)
	require.NoError(t, err)

	a, err := s.Seal("same")
	require.NoError(t, err)
	b, err := s.Seal("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestTokenSealer_Empty(t *testing.T) {
	s, err := NewTokenSealer(testKey)
	require.NoError(t, err)

	sealed, err := s.Seal("")
	require.NoError(t, err)
	assert.Empty(t, sealed)

	opened, err := s.Open("")
	require.NoError(t, err)
	assert.Empty(t, opened)
}

func TestTokenSealer_OpenFailures(t *testing.T) {
	s, err := NewTokenSealer(testKey)
	require.NoError(t, err)
	other, err := NewTokenSealer("another-key")
	require.NoError(t, err)

	sealed, err := s.Seal("token")
	require.NoError(t, err)
	tampered := []byte(sealed)
	mid := len(tampered) / 2
	if tampered[mid] == 'A' {
		tampered[mid] = 'B'
	} else {
		tampered[mid] = 'A'
	}

	tests := []struct {
		name  string
		input string
		with  *TokenSealer
	}{
		{name: "not base64", input: "!!!", with: s},
		{name: "too short", input: base64.RawURLEncoding.EncodeToString([]byte("short")), with: s},
		{name: "tampered", input: string(tampered), with: s},
		{name: "wrong key", input: sealed, with: other},
		{name: "legacy padded base64", input: strings.Repeat("A", 40) + "==", with: s},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.with.Open(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrOpenFailed))
		})
	}
}
