package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/invisireel/backend/internal/auth"
	"github.com/invisireel/backend/internal/middleware"
	"github.com/invisireel/backend/internal/models"
	"github.com/invisireel/backend/internal/session"
	"github.com/invisireel/backend/pkg/response"
)

// ExportFilename is the attachment name of the data export.
const ExportFilename = "invisireel-data.json"

// MetadataUpdater writes identity metadata. auth.IdentityProvider implements it.
type MetadataUpdater interface {
	UpdateMetadata(ctx context.Context, token string, data map[string]interface{}) (*models.Identity, error)
}

// VideoLister loads the caller's rows for usage counts.
type VideoLister interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Video, error)
}

// PlanLookup resolves a plan id. *catalog.Catalog implements it.
type PlanLookup interface {
	Plan(id string) (models.Plan, bool)
}

// Usage counts the current month's videos against the plan limit. Limit < 0 means unlimited.
type Usage struct {
	Videos int `json:"videos"`
	Limit  int `json:"limit"`
}

// Export is the downloaded data file.
type Export struct {
	Profile      Profile              `json:"profile"`
	Subscription *models.Subscription `json:"subscription"`
	Plan         *models.Plan         `json:"plan,omitempty"`
	Usage        *Usage               `json:"usage,omitempty"`
	ExportDate   time.Time            `json:"export_date"`
}

// Handler handles profile endpoints. A nil updater means demo mode.
type Handler struct {
	updater       MetadataUpdater
	notifier      session.Notifier
	subscriptions SubscriptionStore // optional
	plans         PlanLookup        // optional
	videos        VideoLister       // optional
	logger        *zap.Logger
	now           func() time.Time
}

// NewHandler creates a profile handler.
func NewHandler(updater MetadataUpdater, notifier session.Notifier, subscriptions SubscriptionStore, plans PlanLookup, videos VideoLister, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		updater:       updater,
		notifier:      notifier,
		subscriptions: subscriptions,
		plans:         plans,
		videos:        videos,
		logger:        logger,
		now:           time.Now,
	}
}

// Get handles GET /api/profile.
func (h *Handler) Get(c *gin.Context) {
	response.OK(c, FromIdentity(middleware.IdentityFrom(c)))
}

// Update handles PATCH /api/profile. Other live sessions of the user receive USER_UPDATED.
func (h *Handler) Update(c *gin.Context) {
	if h.updater == nil {
		response.ServiceUnavailable(c, auth.MessageNotConfigured)
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	data := req.Metadata()
	if data == nil {
		response.BadRequest(c, "no profile fields to update")
		return
	}

	identity, err := h.updater.UpdateMetadata(c.Request.Context(), middleware.TokenFrom(c), data)
	if err != nil {
		h.fail(c, err)
		return
	}

	if h.notifier != nil {
		ev := session.Event{Type: session.EventUserUpdated, UserKey: identity.Key(), Identity: identity}
		if err := h.notifier.Publish(c.Request.Context(), ev); err != nil {
			h.logger.Warn("publish profile update failed", zap.Error(err), zap.String("user_id", identity.Key()))
		}
	}
	h.logger.Info("profile updated", zap.String("user_id", identity.Key()))
	response.OK(c, FromIdentity(identity))
}

// Export handles GET /api/profile/export as a JSON attachment.
func (h *Handler) Export(c *gin.Context) {
	identity := middleware.IdentityFrom(c)
	ctx := c.Request.Context()

	sub := models.FreeSubscription(identity.ID)
	if h.subscriptions != nil {
		stored, err := h.subscriptions.Current(ctx, identity.ID)
		if err != nil {
			h.logger.Error("load subscription failed", zap.Error(err), zap.String("user_id", identity.Key()))
			response.Internal(c, "failed to load subscription")
			return
		}
		if stored != nil {
			sub = stored
		}
	}

	out := Export{Profile: FromIdentity(identity), Subscription: sub, ExportDate: h.now().UTC()}
	if h.plans != nil {
		if plan, ok := h.plans.Plan(sub.Plan); ok {
			out.Plan = &plan
			out.Usage = &Usage{Limit: plan.MonthlyVideos}
		}
	}
	if out.Usage != nil && h.videos != nil {
		list, err := h.videos.List(ctx, identity.ID)
		if err != nil {
			h.logger.Error("list videos failed", zap.Error(err), zap.String("user_id", identity.Key()))
			response.Internal(c, "failed to load usage")
			return
		}
		out.Usage.Videos = countThisMonth(list, out.ExportDate)
	}

	body, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		response.Internal(c, "failed to build export")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+ExportFilename+`"`)
	c.Data(http.StatusOK, "application/json", body)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrNotConfigured):
		response.ServiceUnavailable(c, auth.MessageNotConfigured)
	case errors.Is(err, auth.ErrInvalidToken):
		response.Unauthorized(c, "session expired")
	default:
		h.logger.Error("update profile failed", zap.Error(err))
		response.BadGateway(c, "Error updating profile. Please try again.")
	}
}

func countThisMonth(list []models.Video, now time.Time) int {
	n := 0
	for _, v := range list {
		created := v.CreatedAt.UTC()
		if created.Year() == now.Year() && created.Month() == now.Month() {
			n++
		}
	}
	return n
}
