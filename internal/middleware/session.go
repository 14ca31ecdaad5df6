package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/invisireel/backend/internal/models"
	"github.com/invisireel/backend/internal/session"
	"github.com/invisireel/backend/pkg/response"
)

const (
	// ContextUserID is the key for the identity's uuid.UUID in gin context.
	ContextUserID = "user_id"
	// ContextUserEmail is the key for the identity's email in gin context.
	ContextUserEmail = "user_email"
	// ContextIdentity is the key for the *models.Identity in gin context.
	ContextIdentity = "identity"
	// ContextToken is the key for the raw bearer token in gin context.
	ContextToken = "access_token"
)

// Session resolves the bearer token to an identity when possible and stores it in context.
// Requests without a token, with an invalid token, or with no provider continue anonymously (demo mode).
func Session(provider session.Provider, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		c.Set(ContextToken, token)
		if provider == nil {
			c.Next()
			return
		}
		identity, err := provider.Session(c.Request.Context(), token)
		if err != nil {
			logger.Debug("session lookup failed", zap.Error(err))
			c.Next()
			return
		}
		if identity != nil {
			c.Set(ContextIdentity, identity)
			c.Set(ContextUserID, identity.ID)
			c.Set(ContextUserEmail, identity.Email)
		}
		c.Next()
	}
}

// RequireIdentity rejects requests that carry no resolved identity.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IdentityFrom(c) == nil {
			response.Unauthorized(c, "sign in required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the request identity, or nil in demo mode.
func IdentityFrom(c *gin.Context) *models.Identity {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return nil
	}
	identity, _ := v.(*models.Identity)
	return identity
}

// UserIDFrom returns the identity id, or uuid.Nil when anonymous.
func UserIDFrom(c *gin.Context) uuid.UUID {
	if identity := IdentityFrom(c); identity != nil {
		return identity.ID
	}
	return uuid.Nil
}

// TokenFrom returns the bearer token seen by Session.
func TokenFrom(c *gin.Context) string {
	return c.GetString(ContextToken)
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
