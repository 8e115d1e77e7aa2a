package session

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
)

// RedisStore is a gorilla sessions.Store that keeps session values in Redis.
// The browser cookie only carries the signed session ID, so a session can be
// revoked server-side by deleting its key.
type RedisStore struct {
	client    redis.Cmdable
	codecs    []securecookie.Codec
	keyPrefix string
	Options   *sessions.Options
}

var _ sessions.Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed store. The secret is hashed to derive
// the key that signs both the cookie and the stored values.
func NewRedisStore(client redis.Cmdable, keyPrefix, secret string, settings CookieSettings, maxAge int) *RedisStore {
	key := sha256.Sum256([]byte(secret))
	codecs := securecookie.CodecsFromPairs(key[:])
	for _, c := range codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxAge(maxAge)
		}
	}

	return &RedisStore{
		client:    client,
		codecs:    codecs,
		keyPrefix: keyPrefix,
		Options:   settings.Options(maxAge),
	}
}

// NewRedisClient creates a Redis client and verifies connectivity.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// Get returns a cached session for the request, loading it on first use.
func (s *RedisStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New returns the session identified by the request cookie, or a fresh one.
// A cookie whose ID has no stored values (expired or revoked) yields a new session.
func (s *RedisStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, errCookie := r.Cookie(name)
	if errCookie != nil {
		return session, nil
	}

	if err := securecookie.DecodeMulti(name, c.Value, &session.ID, s.codecs...); err != nil {
		return session, err
	}

	found, err := s.load(r.Context(), session)
	if err != nil {
		return session, err
	}
	session.IsNew = !found
	return session, nil
}

// Save writes the session values to Redis and the signed ID to the cookie.
// A negative MaxAge deletes the stored values and expires the cookie.
func (s *RedisStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	ctx := r.Context()

	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.client.Del(ctx, s.key(session.ID)).Err(); err != nil {
				return fmt.Errorf("failed to delete session: %w", err)
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	encodedValues, err := securecookie.EncodeMulti(session.Name(), session.Values, s.codecs...)
	if err != nil {
		return fmt.Errorf("failed to encode session values: %w", err)
	}

	ttl := time.Duration(session.Options.MaxAge) * time.Second
	if err := s.client.Set(ctx, s.key(session.ID), encodedValues, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	encodedID, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return fmt.Errorf("failed to encode session id: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encodedID, session.Options))
	return nil
}

// load reads stored values into session. It reports false when none exist.
func (s *RedisStore) load(ctx context.Context, session *sessions.Session) (bool, error) {
	data, err := s.client.Get(ctx, s.key(session.ID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read session: %w", err)
	}

	if err := securecookie.DecodeMulti(session.Name(), data, &session.Values, s.codecs...); err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisStore) key(id string) string {
	return s.keyPrefix + id
}
