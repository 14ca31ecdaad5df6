package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invisireel/backend/internal/models"
)

func TestMemoryRevocationsExpire(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRevocations()
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	require.NoError(t, m.Revoke(ctx, "jti:a", clock.Add(time.Hour)))
	require.NoError(t, m.Revoke(ctx, "jti:old", clock.Add(-time.Minute)))

	ok, err := m.Revoked(ctx, "jti:a")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = m.Revoked(ctx, "jti:old")
	assert.False(t, ok)
	ok, _ = m.Revoked(ctx, "jti:other")
	assert.False(t, ok)

	clock = clock.Add(2 * time.Hour)
	ok, _ = m.Revoked(ctx, "jti:a")
	assert.False(t, ok)
	require.NoError(t, m.Revoke(ctx, "jti:b", clock.Add(time.Minute)))
	assert.Len(t, m.keys, 1)
}

func TestRevocationKey(t *testing.T) {
	tests := []struct {
		name   string
		claims *Claims
		raw    string
		prefix string
	}{
		{"jti wins", &Claims{SessionID: "s1", RegisteredClaims: jwt.RegisteredClaims{ID: "j1"}}, "x", "jti:j1"},
		{"hosted session id", &Claims{SessionID: "s1"}, "x", "sid:s1"},
		{"opaque token", nil, "opaque", "tok:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, revocationKey(tt.claims, tt.raw), tt.prefix)
		})
	}
	assert.NotEqual(t, revocationKey(nil, "a"), revocationKey(nil, "b"))
}

func TestUnverifiedClaimsAndExpiry(t *testing.T) {
	svc := NewJWTService("secret", 2)
	tok, err := svc.Generate(&models.Identity{ID: uuid.New(), Email: "a@b.co"})
	require.NoError(t, err)

	c := unverifiedClaims(tok)
	require.NotNil(t, c)
	assert.NotEmpty(t, c.ID)
	now := time.Now()
	assert.WithinDuration(t, now.Add(2*time.Hour), revokeUntil(c, now, time.Minute), time.Minute)

	assert.Nil(t, unverifiedClaims("not-a-jwt"))
	assert.Equal(t, now.Add(time.Minute), revokeUntil(nil, now, time.Minute))
}
