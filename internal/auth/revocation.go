package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "invisireel:revoked:"

// Revocations remembers signed-out access tokens until they would have expired anyway.
type Revocations interface {
	Revoke(ctx context.Context, key string, until time.Time) error
	Revoked(ctx context.Context, key string) (bool, error)
}

// revocationKey identifies the session behind a token: its jti, else the hosted session id,
// else a digest of the raw token.
func revocationKey(c *Claims, raw string) string {
	switch {
	case c != nil && c.ID != "":
		return "jti:" + c.ID
	case c != nil && c.SessionID != "":
		return "sid:" + c.SessionID
	}
	sum := sha256.Sum256([]byte(raw))
	return "tok:" + hex.EncodeToString(sum[:])
}

// unverifiedClaims reads claims without checking the signature. Only used to look up or record
// revocations of tokens the provider has already accepted.
func unverifiedClaims(raw string) *Claims {
	var c Claims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &c); err != nil {
		return nil
	}
	return &c
}

// revokeUntil is the token expiry, or fallback from now when the token carries none.
func revokeUntil(c *Claims, now time.Time, fallback time.Duration) time.Time {
	if c != nil && c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return now.Add(fallback)
}

// MemoryRevocations keeps revoked keys in process.
type MemoryRevocations struct {
	mu   sync.Mutex
	keys map[string]time.Time
	now  func() time.Time
}

// NewMemoryRevocations creates an empty in-process list.
func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{keys: make(map[string]time.Time), now: time.Now}
}

// Revoke records key until the given time. Past times are ignored.
func (m *MemoryRevocations) Revoke(_ context.Context, key string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, exp := range m.keys {
		if !exp.After(now) {
			delete(m.keys, k)
		}
	}
	if until.After(now) {
		m.keys[key] = until
	}
	return nil
}

// Revoked reports whether key is still revoked.
func (m *MemoryRevocations) Revoked(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.keys[key]
	return ok && exp.After(m.now()), nil
}

// RedisRevocations shares revoked keys between instances; entries expire with the token.
type RedisRevocations struct {
	client *redis.Client
}

// NewRedisRevocations creates a Redis-backed list.
func NewRedisRevocations(client *redis.Client) *RedisRevocations {
	return &RedisRevocations{client: client}
}

// Revoke sets key with a TTL of the remaining token lifetime.
func (r *RedisRevocations) Revoke(ctx context.Context, key string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKeyPrefix+key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Revoked reports whether key is present.
func (r *RedisRevocations) Revoked(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKeyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return n > 0, nil
}
