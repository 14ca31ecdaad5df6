package analytics

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/invisireel/backend/internal/middleware"
	"github.com/invisireel/backend/internal/models"
	"github.com/invisireel/backend/pkg/response"
)

// VideoLister loads the caller's rows.
type VideoLister interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Video, error)
}

// Handler handles GET /api/analytics.
type Handler struct {
	videos VideoLister
	logger *zap.Logger
	now    func() time.Time
}

// NewHandler creates an analytics handler.
func NewHandler(videos VideoLister, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{videos: videos, logger: logger, now: time.Now}
}

// Get handles GET /api/analytics?range=7d|30d|90d|1y.
func (h *Handler) Get(c *gin.Context) {
	r, err := ParseRange(c.Query("range"))
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.videos.List(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("load analytics failed", zap.Error(err), zap.String("user_id", userID.String()))
		response.Internal(c, "failed to load analytics")
		return
	}
	response.OK(c, Build(list, r, h.now()))
}
