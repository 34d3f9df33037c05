// Package session keeps login sessions in Redis.
//
// A session is an opaque id mapped to a user id with a TTL. Clients hold a
// signed token naming that id; deleting the Redis key revokes the token even
// before it expires.
package session

import (
	"context" // Request scoped cancellation
	"errors"  // Error inspection
	"fmt"     // Error wrapping
	"strconv" // String conversion
	"time"    // Durations and timeouts

	"mock_trading/internal/domain" // Domain models
	"mock_trading/internal/utils"  // Utility functions

	"github.com/google/uuid"       // Session ids
	"github.com/redis/go-redis/v9" // Redis client
)

const keyPrefix = "session:"

// Manager creates, resolves and destroys sessions.
type Manager struct {
	rdb    redis.UniversalClient
	secret string
	ttl    time.Duration
}

// NewManager returns a Manager signing tokens with secret.
func NewManager(rdb redis.UniversalClient, secret string, ttl time.Duration) *Manager {
	return &Manager{rdb: rdb, secret: secret, ttl: ttl}
}

// TTL is the lifetime of new sessions.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Create starts a session for userID and returns its token.
func (m *Manager) Create(ctx context.Context, userID uint) (string, domain.Principal, error) {
	sid := uuid.NewString() // Random session id
	if err := m.rdb.Set(ctx, keyPrefix+sid, userID, m.ttl).Err(); err != nil {
		return "", domain.Principal{}, fmt.Errorf("failed to store session: %w", err)
	}
	token, err := utils.GenerateSessionToken(userID, sid, m.secret, m.ttl)
	if err != nil {
		m.rdb.Del(ctx, keyPrefix+sid) // Do not leave an unusable session behind
		return "", domain.Principal{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, domain.Principal{UserID: userID, SessionID: sid}, nil
}

// Resolve returns the principal for a live session token.
// Invalid, expired and revoked tokens yield domain.ErrUnauthenticated.
func (m *Manager) Resolve(ctx context.Context, token string) (domain.Principal, error) {
	claims, err := utils.ParseSessionToken(token, m.secret)
	if err != nil {
		return domain.Principal{}, domain.ErrUnauthenticated
	}
	val, err := m.rdb.Get(ctx, keyPrefix+claims.ID).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Principal{}, domain.ErrUnauthenticated
	}
	if err != nil {
		return domain.Principal{}, fmt.Errorf("failed to read session: %w", err)
	}
	id, err := strconv.ParseUint(val, 10, 64) // Stored user id
	if err != nil || uint(id) != claims.UserID {
		return domain.Principal{}, domain.ErrUnauthenticated
	}
	return domain.Principal{UserID: claims.UserID, SessionID: claims.ID}, nil
}

// Destroy revokes the session named by token. Unknown, expired or malformed
// tokens are not an error.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil // Nothing to revoke
	}
	claims, err := utils.ParseSessionToken(token, m.secret)
	if err != nil {
		return nil
	}
	return m.DestroyID(ctx, claims.ID)
}

// DestroyID revokes a session by id.
func (m *Manager) DestroyID(ctx context.Context, sid string) error {
	if err := m.rdb.Del(ctx, keyPrefix+sid).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
