package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"github.com/invisireel/backend/internal/models"
)

// SupabaseProvider delegates to the hosted auth service. When the project JWT secret is known,
// access tokens are verified locally instead of calling /user on every request.
type SupabaseProvider struct {
	auth     gotrue.Client
	verifier *JWTService
	revoked  Revocations
	logger   *zap.Logger
}

// NewSupabaseProvider creates a provider for the project at url using its public anon key.
func NewSupabaseProvider(url, anonKey, jwtSecret string, logger *zap.Logger) (*SupabaseProvider, error) {
	client, err := supabase.NewClient(url, anonKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("supabase client: %w", err)
	}
	return newSupabaseProvider(client.Auth, jwtSecret, logger), nil
}

func newSupabaseProvider(auth gotrue.Client, jwtSecret string, logger *zap.Logger) *SupabaseProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &SupabaseProvider{auth: auth, revoked: NewMemoryRevocations(), logger: logger}
	if jwtSecret != "" {
		p.verifier = NewJWTService(jwtSecret, 0)
	}
	return p
}

// WithRevocations replaces the in-process revocation list, e.g. with a shared Redis one.
func (p *SupabaseProvider) WithRevocations(r Revocations) *SupabaseProvider {
	if r != nil {
		p.revoked = r
	}
	return p
}

// Session resolves token to the signed-in user. Tokens signed out through this service are
// refused even while the hosted service would still accept them.
func (p *SupabaseProvider) Session(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	if p.verifier != nil {
		claims, err := p.verifier.Validate(token)
		if err != nil {
			return nil, err
		}
		if err := p.checkRevoked(ctx, claims, token); err != nil {
			return nil, err
		}
		return claims.Identity()
	}
	if err := p.checkRevoked(ctx, unverifiedClaims(token), token); err != nil {
		return nil, err
	}
	resp, err := p.auth.WithToken(token).GetUser()
	if err != nil {
		if statusOf(err) == 401 || statusOf(err) == 403 {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return identityFromUser(resp.User), nil
}

// SignOut revokes the refresh tokens of the session behind token upstream, and the access token here.
func (p *SupabaseProvider) SignOut(ctx context.Context, token string) error {
	var claims *Claims
	if p.verifier != nil {
		c, err := p.verifier.Validate(token)
		if err != nil {
			return err
		}
		claims = c
	}
	if err := p.auth.WithToken(token).Logout(); err != nil {
		if claims == nil {
			return fmt.Errorf("logout: %w", err)
		}
		p.logger.Warn("upstream logout failed; token revoked locally", zap.Error(err))
	}
	if claims == nil {
		claims = unverifiedClaims(token)
	}
	until := revokeUntil(claims, time.Now(), time.Hour)
	return p.revoked.Revoke(ctx, revocationKey(claims, token), until)
}

func (p *SupabaseProvider) checkRevoked(ctx context.Context, claims *Claims, token string) error {
	revoked, err := p.revoked.Revoked(ctx, revocationKey(claims, token))
	if err != nil {
		return err
	}
	if revoked {
		return ErrInvalidToken
	}
	return nil
}

// SignIn uses the password grant.
func (p *SupabaseProvider) SignIn(_ context.Context, cred Credentials) (*AuthSession, error) {
	resp, err := p.auth.Token(types.TokenRequest{
		GrantType: "password",
		Email:     strings.TrimSpace(cred.Email),
		Password:  cred.Password,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Invalid login credentials") || strings.Contains(err.Error(), "invalid_grant") {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return sessionFrom(resp.Session), nil
}

// SignUp registers the user. With email confirmation enabled no session is returned.
func (p *SupabaseProvider) SignUp(_ context.Context, cred Credentials) (*AuthSession, error) {
	resp, err := p.auth.Signup(types.SignupRequest{
		Email:    strings.TrimSpace(cred.Email),
		Password: cred.Password,
		Data:     cred.Metadata,
	})
	if err != nil {
		if strings.Contains(err.Error(), "already registered") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("sign up: %w", err)
	}
	if resp.AccessToken != "" {
		return sessionFrom(resp.Session), nil
	}
	return &AuthSession{Identity: identityFromUser(resp.User)}, nil
}

// UpdateMetadata merges data into user_metadata.
func (p *SupabaseProvider) UpdateMetadata(_ context.Context, token string, data map[string]interface{}) (*models.Identity, error) {
	resp, err := p.auth.WithToken(token).UpdateUser(types.UpdateUserRequest{Data: data})
	if err != nil {
		if statusOf(err) == 401 || statusOf(err) == 403 {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return identityFromUser(resp.User), nil
}

func sessionFrom(s types.Session) *AuthSession {
	return &AuthSession{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    s.ExpiresIn,
		Identity:     identityFromUser(s.User),
	}
}

func identityFromUser(u types.User) *models.Identity {
	return (&models.Identity{ID: u.ID, Email: u.Email, Metadata: u.UserMetadata}).Clone()
}

// statusOf extracts the HTTP status from gotrue's "response status code N: body" errors.
func statusOf(err error) int {
	var code int
	if _, scanErr := fmt.Sscanf(err.Error(), "response status code %d", &code); scanErr != nil {
		return 0
	}
	return code
}
