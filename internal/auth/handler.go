package auth

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/invisireel/backend/internal/middleware"
	"github.com/invisireel/backend/internal/session"
	"github.com/invisireel/backend/pkg/response"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Handler handles auth HTTP endpoints. A nil provider means demo mode.
type Handler struct {
	provider IdentityProvider
	notifier session.Notifier
	logger   *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(provider IdentityProvider, notifier session.Notifier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{provider: provider, notifier: notifier, logger: logger}
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	if h.provider == nil {
		h.fail(c, ErrNotConfigured)
		return
	}
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	var meta map[string]interface{}
	if req.FullName != "" {
		meta = map[string]interface{}{"full_name": req.FullName}
	}
	sess, err := h.provider.SignUp(c.Request.Context(), Credentials{Email: req.Email, Password: req.Password, Metadata: meta})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, sess)
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	if h.provider == nil {
		h.fail(c, ErrNotConfigured)
		return
	}
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	sess, err := h.provider.SignIn(c.Request.Context(), Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, sess)
}

// Logout handles POST /auth/logout. Other live sessions of the same user are told to drop their identity.
// The local session is considered ended even when the provider call fails.
func (h *Handler) Logout(c *gin.Context) {
	token := middleware.BearerToken(c)
	if h.provider == nil || token == "" {
		response.NoContent(c)
		return
	}
	store := session.NewStore(h.provider, h.notifier, token, h.logger)
	defer store.Close()
	store.Start(c.Request.Context())
	if err := store.SignOut(c.Request.Context()); err != nil {
		h.logger.Warn("sign out failed upstream", zap.Error(err))
	}
	response.NoContent(c)
}

// Me handles GET /auth/me.
func (h *Handler) Me(c *gin.Context) {
	response.OK(c, middleware.IdentityFrom(c))
}

func (h *Handler) fail(c *gin.Context, err error) {
	msg := LoginMessage(err)
	switch {
	case errors.Is(err, ErrNotConfigured):
		response.ServiceUnavailable(c, msg)
	case errors.Is(err, ErrInvalidCredentials):
		response.Unauthorized(c, msg)
	case errors.Is(err, ErrEmailTaken):
		response.Conflict(c, msg)
	default:
		h.logger.Error("identity provider call failed", zap.Error(err))
		response.BadGateway(c, msg)
	}
}
