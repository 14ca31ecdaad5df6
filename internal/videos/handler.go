package videos

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/invisireel/backend/internal/middleware"
	"github.com/invisireel/backend/internal/models"
	"github.com/invisireel/backend/pkg/response"
	"github.com/invisireel/backend/pkg/storage"
)

// Presigner serves stored video objects. *storage.S3 implements it.
type Presigner interface {
	Exists(ctx context.Context, key string) bool
	PresignedDownloadURL(ctx context.Context, key string) (string, error)
}

// Handler handles dashboard and editor endpoints.
type Handler struct {
	store  Store
	files  Presigner // optional
	logger *zap.Logger
}

// NewHandler creates a videos handler. files may be nil.
func NewHandler(store Store, files Presigner, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, files: files, logger: logger}
}

// List handles GET /api/videos (newest first).
func (h *Handler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.store.List(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list videos failed", zap.Error(err), zap.String("user_id", userID.String()))
		response.Internal(c, "failed to load videos")
		return
	}
	response.OK(c, list)
}

// Stats handles GET /api/videos/stats.
func (h *Handler) Stats(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.store.List(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list videos failed", zap.Error(err), zap.String("user_id", userID.String()))
		response.Internal(c, "failed to load stats")
		return
	}
	response.OK(c, ComputeStats(list))
}

// Get handles GET /api/videos/:id.
func (h *Handler) Get(c *gin.Context) {
	v, ok := h.load(c)
	if !ok {
		return
	}
	response.OK(c, v)
}

// EditRequest is the editor save body. Omitted fields are cleared.
type EditRequest struct {
	TrimStart       *float64             `json:"trim_start"`
	TrimEnd         *float64             `json:"trim_end"`
	TextOverlays    []models.TextOverlay `json:"text_overlays"`
	BackgroundMusic *string              `json:"background_music"`
	MusicVolume     *float64             `json:"music_volume"`
	Filters         *models.Filters      `json:"filters"`
}

// Params converts the request to stored editor fields.
func (r EditRequest) Params() models.EditParams {
	return models.EditParams{
		TrimStart:    r.TrimStart,
		TrimEnd:      r.TrimEnd,
		TextOverlays: r.TextOverlays,
		MusicVolume:  r.MusicVolume,
		Filters:      r.Filters,
	}
}

// Update handles PATCH /api/videos/:id (editor save).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid video id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var req EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	edit := req.Params()
	if err := ValidateEdit(edit); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	v, err := h.store.UpdateEdit(c.Request.Context(), userID, id, edit, req.BackgroundMusic)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("save video edit failed", zap.Error(err), zap.String("video_id", id.String()))
		response.Internal(c, "failed to save changes")
		return
	}
	response.OK(c, v)
}

// Delete handles DELETE /api/videos/:id?confirm=true.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid video id")
		return
	}
	if ok, _ := strconv.ParseBool(c.Query("confirm")); !ok {
		response.BadRequest(c, "deletion must be confirmed with confirm=true")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	err = h.store.Delete(c.Request.Context(), userID, id)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("delete video failed", zap.Error(err), zap.String("video_id", id.String()))
		response.Internal(c, "failed to delete video")
		return
	}
	response.NoContent(c)
}

// Download handles GET /api/videos/:id/download. A stored object is presigned; otherwise the
// generated URL is returned as is.
func (h *Handler) Download(c *gin.Context) {
	v, ok := h.load(c)
	if !ok {
		return
	}
	if v.Status != models.VideoStatusCompleted {
		response.Conflict(c, "video is not ready for download")
		return
	}

	key := storage.VideoKey(v.UserID.String(), v.ID.String())
	if h.files != nil && h.files.Exists(c.Request.Context(), key) {
		url, err := h.files.PresignedDownloadURL(c.Request.Context(), key)
		if err != nil {
			h.logger.Error("presign video download failed", zap.Error(err), zap.String("video_id", v.ID.String()))
			response.Internal(c, "failed to generate download URL")
			return
		}
		response.OK(c, gin.H{"download_url": url, "stored": true})
		return
	}
	if v.VideoURL == "" {
		response.Conflict(c, "video is not ready for download")
		return
	}
	response.OK(c, gin.H{"download_url": v.VideoURL, "stored": false})
}

func (h *Handler) load(c *gin.Context) (*models.Video, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid video id")
		return nil, false
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	v, err := h.store.Get(c.Request.Context(), userID, id)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, err.Error())
		return nil, false
	}
	if err != nil {
		h.logger.Error("get video failed", zap.Error(err), zap.String("video_id", id.String()))
		response.Internal(c, "failed to load video")
		return nil, false
	}
	return v, true
}
