package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/invisireel/backend/internal/models"
)

// Claims mirrors the hosted provider's access token: the user id in sub, email and user_metadata.
type Claims struct {
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
	Role         string                 `json:"role,omitempty"`
	SessionID    string                 `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// Identity converts the claims to an identity.
func (c *Claims) Identity() (*models.Identity, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return (&models.Identity{ID: id, Email: c.Email, Metadata: c.UserMetadata}).Clone(), nil
}

// JWTService signs and verifies HS256 access tokens.
type JWTService struct {
	secret      []byte
	expireHours int
}

// NewJWTService creates a JWT service.
func NewJWTService(secret string, expireHours int) *JWTService {
	if expireHours <= 0 {
		expireHours = 24
	}
	return &JWTService{
		secret:      []byte(secret),
		expireHours: expireHours,
	}
}

// ExpiresIn returns the token lifetime in seconds.
func (s *JWTService) ExpiresIn() int { return s.expireHours * 3600 }

// Generate creates a token for identity.
func (s *JWTService) Generate(identity *models.Identity) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:        identity.Email,
		UserMetadata: identity.Metadata,
		Role:         "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.expireHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses and validates a token, returning claims or ErrInvalidToken.
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
