// Package crypto seals the backend bearer token before it is written into a
// session, so neither the cookie nor a Redis entry exposes it in the clear.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	// ErrInvalidKey is returned when the sealing key is empty.
	ErrInvalidKey = errors.New("invalid sealing key: must not be empty")
	// ErrOpenFailed is returned for tampered tokens, or tokens sealed under another key.
	ErrOpenFailed = errors.New("open failed: invalid sealed token or wrong key")
)

// TokenSealer seals tokens with AES-256-GCM.
type TokenSealer struct {
	gcm cipher.AEAD
}

// NewTokenSealer creates a sealer from a key string: either a base64-encoded
// 32-byte key (openssl rand -base64 32) used as is, or any passphrase, which
// is hashed to 32 bytes with SHA-256.
func NewTokenSealer(keyInput string) (*TokenSealer, error) {
	if keyInput == "" {
		return nil, ErrInvalidKey
	}

	var key []byte
	decoded, err := base64.StdEncoding.DecodeString(keyInput)
	if err == nil && len(decoded) == 32 {
		key = decoded
	} else {
		hash := sha256.Sum256([]byte(keyInput))
		key = hash[:]
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &TokenSealer{gcm: gcm}, nil
}

// Seal returns base64url(nonce || ciphertext || tag). The empty token stays empty.
func (s *TokenSealer) Seal(token string) (string, error) {
	if token == "" {
		return "", nil
	}

	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := s.gcm.Seal(nonce, nonce, []byte(token), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal.
func (s *TokenSealer) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}

	data, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: base64 decode failed", ErrOpenFailed)
	}
	nonceSize := s.gcm.NonceSize()
	if len(data) < nonceSize+s.gcm.Overhead() {
		return "", fmt.Errorf("%w: sealed token too short", ErrOpenFailed)
	}

	token, err := s.gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrOpenFailed)
	}
	return string(token), nil
}
