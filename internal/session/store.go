package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chatkeep/internal/models"
	"chatkeep/internal/redis"

	"go.uber.org/zap"
)

// DefaultTTL is how long a session survives without an explicit logout.
const DefaultTTL = 14 * 24 * time.Hour

// ErrNoSession is returned when a token is absent, expired, or destroyed.
var ErrNoSession = errors.New("no active session")

// Cache is the persistence behind the store; satisfied by redis.Client.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// Store maps opaque cookie tokens to persisted identity snapshots.
// The cache exclusively owns the server-side copy; expiry is its TTL.
type Store struct {
	cache      Cache
	ttl        time.Duration
	cookieName string
	log        *zap.Logger
}

// NewStore constructs a session store with the supplied lifetime.
func NewStore(cache Cache, ttl time.Duration, log *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		cache:      cache,
		ttl:        ttl,
		cookieName: "session_token",
		log:        log,
	}
}

// Create persists the snapshot and returns the token to hand to the client.
func (s *Store) Create(ctx context.Context, snap *models.Session) (string, error) {
	if snap == nil || snap.UserID.IsZero() {
		return "", errors.New("session user required")
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	if err := s.cache.Set(ctx, sessionKey(token), payload, s.ttl); err != nil {
		return "", fmt.Errorf("persist session: %w", err)
	}
	return token, nil
}

// Get resolves a token to its snapshot, or ErrNoSession. A successful
// lookup restarts the session lifetime, so expiry measures inactivity
// rather than age.
func (s *Store) Get(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	raw, err := s.cache.Get(ctx, sessionKey(token))
	if err != nil {
		if errors.Is(err, redis.ErrCacheMiss) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	var snap models.Session
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		s.log.Warn("discarding undecodable session", zap.Error(err))
		_ = s.cache.Del(ctx, sessionKey(token))
		return nil, ErrNoSession
	}
	if err := s.cache.Set(ctx, sessionKey(token), []byte(raw), s.ttl); err != nil {
		s.log.Warn("refresh session ttl failed", zap.Error(err))
	}
	return &snap, nil
}

// Destroy removes the server-side copy. Destroying an unknown token is a no-op.
func (s *Store) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.cache.Del(ctx, sessionKey(token)); err != nil && !errors.Is(err, redis.ErrCacheMiss) {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

// CookieName returns the cookie carrying the session token.
func (s *Store) CookieName() string {
	return s.cookieName
}

// TTL reports the configured session lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

func sessionKey(token string) string {
	return "session:" + token
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
