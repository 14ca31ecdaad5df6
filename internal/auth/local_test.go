package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invisireel/backend/internal/models"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[uuid.UUID]*models.User)}
}

func (m *memoryUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *memoryUsers) Create(_ context.Context, email, hash string, meta map[string]interface{}) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &models.User{ID: uuid.New(), Email: email, PasswordHash: hash, Metadata: meta, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (m *memoryUsers) UpdateMetadata(_ context.Context, id uuid.UUID, meta map[string]interface{}) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	u.Metadata = meta
	cp := *u
	return &cp, nil
}

func newLocal() (*LocalProvider, *memoryUsers) {
	users := newMemoryUsers()
	return NewLocalProvider(users, NewJWTService("test-secret", 1), nil), users
}

func TestLocalSignUpSignInSession(t *testing.T) {
	p, _ := newLocal()
	ctx := context.Background()

	created, err := p.SignUp(ctx, Credentials{Email: "maker@example.com", Password: "hunter22", Metadata: map[string]interface{}{"full_name": "Maker"}})
	require.NoError(t, err)
	require.NotEmpty(t, created.AccessToken)
	assert.Equal(t, "Maker", created.Identity.DisplayName())

	_, err = p.SignUp(ctx, Credentials{Email: "MAKER@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = p.SignIn(ctx, Credentials{Email: "maker@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = p.SignIn(ctx, Credentials{Email: "nobody@example.com", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	sess, err := p.SignIn(ctx, Credentials{Email: "maker@example.com", Password: "hunter22"})
	require.NoError(t, err)
	identity, err := p.Session(ctx, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, created.Identity.ID, identity.ID)

	_, err = p.Session(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.NoError(t, p.SignOut(ctx, sess.AccessToken))

	_, err = p.Session(ctx, sess.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	again, err := p.Session(ctx, created.AccessToken)
	require.NoError(t, err, "other tokens of the same user stay valid")
	assert.Equal(t, created.Identity.ID, again.ID)
	assert.ErrorIs(t, p.SignOut(ctx, "garbage"), ErrInvalidToken)
}

func TestLocalUpdateMetadataMerges(t *testing.T) {
	p, _ := newLocal()
	ctx := context.Background()
	sess, err := p.SignUp(ctx, Credentials{Email: "m@example.com", Password: "hunter22", Metadata: map[string]interface{}{"full_name": "M"}})
	require.NoError(t, err)

	updated, err := p.UpdateMetadata(ctx, sess.AccessToken, map[string]interface{}{"bio": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "M", updated.Metadata["full_name"])
	assert.Equal(t, "hello", updated.Metadata["bio"])

	// the old token sees the new metadata because Session reloads the row
	identity, err := p.Session(ctx, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "hello", identity.Metadata["bio"])
}

func TestLocalSessionForDeletedUser(t *testing.T) {
	p, users := newLocal()
	sess, err := p.SignUp(context.Background(), Credentials{Email: "gone@example.com", Password: "hunter22"})
	require.NoError(t, err)
	users.mu.Lock()
	delete(users.users, sess.Identity.ID)
	users.mu.Unlock()

	_, err = p.Session(context.Background(), sess.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
