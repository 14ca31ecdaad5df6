package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/invisireel/backend/internal/models"
	"github.com/invisireel/backend/pkg/utils"
)

// LocalProvider authenticates against the service's own users table with bcrypt and HS256 tokens.
type LocalProvider struct {
	users   UserStore
	jwt     *JWTService
	revoked Revocations
	logger  *zap.Logger
}

// NewLocalProvider creates a provider over users.
func NewLocalProvider(users UserStore, jwt *JWTService, logger *zap.Logger) *LocalProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalProvider{users: users, jwt: jwt, revoked: NewMemoryRevocations(), logger: logger}
}

// WithRevocations replaces the in-process revocation list, e.g. with a shared Redis one.
func (p *LocalProvider) WithRevocations(r Revocations) *LocalProvider {
	if r != nil {
		p.revoked = r
	}
	return p
}

// Session validates token and loads the current row so metadata changes are visible.
func (p *LocalProvider) Session(ctx context.Context, token string) (*models.Identity, error) {
	claims, err := p.jwt.Validate(token)
	if err != nil {
		return nil, err
	}
	revoked, err := p.revoked.Revoked(ctx, revocationKey(claims, token))
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidToken
	}
	identity, err := claims.Identity()
	if err != nil {
		return nil, err
	}
	u, err := p.users.GetByID(ctx, identity.ID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u.Identity(), nil
}

// SignOut revokes token for the rest of its lifetime.
func (p *LocalProvider) SignOut(ctx context.Context, token string) error {
	claims, err := p.jwt.Validate(token)
	if err != nil {
		return err
	}
	until := revokeUntil(claims, time.Now(), time.Duration(p.jwt.ExpiresIn())*time.Second)
	return p.revoked.Revoke(ctx, revocationKey(claims, token), until)
}

// SignIn checks the password and issues a token.
func (p *LocalProvider) SignIn(ctx context.Context, cred Credentials) (*AuthSession, error) {
	u, err := p.users.GetByEmail(ctx, strings.TrimSpace(cred.Email))
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !utils.CheckPassword(cred.Password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return p.issue(u)
}

// SignUp creates the user and signs it in immediately.
func (p *LocalProvider) SignUp(ctx context.Context, cred Credentials) (*AuthSession, error) {
	email := strings.TrimSpace(cred.Email)
	if _, err := p.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("load user: %w", err)
	}
	hash, err := utils.HashPassword(cred.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := p.users.Create(ctx, email, hash, cred.Metadata)
	if err != nil {
		return nil, err
	}
	p.logger.Info("user registered", zap.String("user_id", u.ID.String()))
	return p.issue(u)
}

// UpdateMetadata merges data into the user's metadata.
func (p *LocalProvider) UpdateMetadata(ctx context.Context, token string, data map[string]interface{}) (*models.Identity, error) {
	current, err := p.Session(ctx, token)
	if err != nil {
		return nil, err
	}
	merged := current.Clone().Metadata
	if merged == nil {
		merged = map[string]interface{}{}
	}
	for k, v := range data {
		merged[k] = v
	}
	u, err := p.users.UpdateMetadata(ctx, current.ID, merged)
	if err != nil {
		return nil, fmt.Errorf("update metadata: %w", err)
	}
	return u.Identity(), nil
}

func (p *LocalProvider) issue(u *models.User) (*AuthSession, error) {
	identity := u.Identity()
	token, err := p.jwt.Generate(identity)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &AuthSession{AccessToken: token, ExpiresIn: p.jwt.ExpiresIn(), Identity: identity}, nil
}
