package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/shoplane/shoplane-backend/pkg/config"
	redisclient "github.com/shoplane/shoplane-backend/pkg/redis"
)

var ErrSessionNotFound = errors.New("session not found")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(userID, tokenID string) string
}

// Manager tracks which issued token IDs are still valid. Logging out deletes
// the entry, which makes the matching JWT unusable before its exp.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// Checker exposes the read-only surface needed by middleware.
type Checker interface {
	HasSession(ctx context.Context, userID int64, tokenID string) (bool, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.AccessTokenTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("access token ttl must be positive")
	}

	return &Manager{
		store: client,
		keyer: client,
		ttl:   ttl,
	}, nil
}

// Register records a freshly minted token ID for the user.
func (m *Manager) Register(ctx context.Context, userID int64, tokenID string) error {
	if userID <= 0 {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(tokenID) == "" {
		return fmt.Errorf("token id is required")
	}
	key := m.keyer.SessionKey(formatUserID(userID), tokenID)
	return m.store.Set(ctx, key, "1", m.ttl)
}

// Rotate revokes the old token ID and registers a new one atomically enough
// for refresh: the new session is written before the old one is deleted.
func (m *Manager) Rotate(ctx context.Context, userID int64, oldTokenID string) (string, error) {
	ok, err := m.HasSession(ctx, userID, oldTokenID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrSessionNotFound
	}

	newTokenID := NewTokenID()
	if err := m.Register(ctx, userID, newTokenID); err != nil {
		return "", err
	}
	if err := m.Revoke(ctx, userID, oldTokenID); err != nil {
		return "", err
	}
	return newTokenID, nil
}

// Revoke deletes the session tied to the token ID.
func (m *Manager) Revoke(ctx context.Context, userID int64, tokenID string) error {
	if userID <= 0 {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(tokenID) == "" {
		return fmt.Errorf("token id is required")
	}
	return m.store.Del(ctx, m.keyer.SessionKey(formatUserID(userID), tokenID))
}

// HasSession reports whether the token ID still maps to an active session.
func (m *Manager) HasSession(ctx context.Context, userID int64, tokenID string) (bool, error) {
	if userID <= 0 || strings.TrimSpace(tokenID) == "" {
		return false, nil
	}
	key := m.keyer.SessionKey(formatUserID(userID), tokenID)
	if _, err := m.store.Get(ctx, key); err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// NewTokenID produces a stable identifier used as the JWT jti/Redis key.
func NewTokenID() string {
	return uuid.NewString()
}

func formatUserID(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
