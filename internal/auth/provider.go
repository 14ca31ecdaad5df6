// Package auth provides the identity providers behind the session store and the sign-in endpoints.
package auth

import (
	"context"
	"errors"

	"github.com/invisireel/backend/internal/models"
	"github.com/invisireel/backend/internal/session"
)

var (
	// ErrNotConfigured is returned by every operation when no identity provider is configured.
	ErrNotConfigured = errors.New("identity provider not configured")
	// ErrInvalidToken is returned for expired, malformed or revoked access tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidCredentials is returned when email and password do not match.
	ErrInvalidCredentials = errors.New("invalid login credentials")
	// ErrEmailTaken is returned by SignUp for an already registered email.
	ErrEmailTaken = errors.New("email already registered")
)

// Credentials is an email/password pair plus optional sign-up metadata.
type Credentials struct {
	Email    string
	Password string
	Metadata map[string]interface{}
}

// AuthSession is what a successful sign-in returns to the client.
// AccessToken is empty after a sign-up that still needs email confirmation.
type AuthSession struct {
	AccessToken  string           `json:"access_token,omitempty"`
	RefreshToken string           `json:"refresh_token,omitempty"`
	ExpiresIn    int              `json:"expires_in,omitempty"`
	Identity     *models.Identity `json:"user"`
}

// IdentityProvider is a full identity backend.
type IdentityProvider interface {
	session.Provider
	SignIn(ctx context.Context, cred Credentials) (*AuthSession, error)
	SignUp(ctx context.Context, cred Credentials) (*AuthSession, error)
	UpdateMetadata(ctx context.Context, token string, data map[string]interface{}) (*models.Identity, error)
}
