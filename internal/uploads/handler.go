package uploads

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/invisireel/backend/internal/gateway"
	"github.com/invisireel/backend/internal/gateway/upload"
	"github.com/invisireel/backend/internal/middleware"
	"github.com/invisireel/backend/internal/models"
	"github.com/invisireel/backend/internal/videos"
	"github.com/invisireel/backend/pkg/queue"
	"github.com/invisireel/backend/pkg/response"
	"github.com/invisireel/backend/pkg/storage"
)

// Files stores and reads video binaries. *storage.S3 implements it.
type Files interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
	Exists(ctx context.Context, key string) bool
	Delete(ctx context.Context, key string) error
}

// Enqueuer hands stored uploads to the publish worker. *queue.Queue implements it.
type Enqueuer interface {
	Enabled() bool
	EnqueuePublish(ctx context.Context, payload queue.PublishPayload) (*queue.Job, error)
}

// Uploader forwards a video to the upload target. *upload.Client implements it.
type Uploader interface {
	Upload(ctx context.Context, in upload.Request) (*upload.Confirmation, error)
}

// VideoGetter loads one of the caller's video rows. videos.Store implements it.
type VideoGetter interface {
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Video, error)
}

// Handler serves the publish, receive and list endpoints.
type Handler struct {
	store       Store
	files       Files    // optional
	queue       Enqueuer // optional
	uploader    Uploader
	videos      VideoGetter
	receiverKey string
	logger      *zap.Logger
}

// Config wires the handler.
type Config struct {
	Store    Store
	Files    Files
	Queue    Enqueuer
	Uploader Uploader
	Videos   VideoGetter
	// ReceiverKey lets the upload gateway post to the receiver without a user session.
	ReceiverKey string
	Logger      *zap.Logger
}

// NewHandler creates an uploads handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:       cfg.Store,
		files:       cfg.Files,
		queue:       cfg.Queue,
		uploader:    cfg.Uploader,
		videos:      cfg.Videos,
		receiverKey: cfg.ReceiverKey,
		logger:      logger,
	}
}

// PublishRequest overrides the video row's metadata on publish.
type PublishRequest struct {
	Title       string   `form:"title" json:"title"`
	Description string   `form:"description" json:"description"`
	Tags        []string `form:"tags" json:"tags"`
}

// Publish handles POST /api/videos/:id/publish. The binary comes from the request's "video" part,
// or from object storage when the rendered video is stored there.
func (h *Handler) Publish(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid video id")
		return
	}
	ctx := c.Request.Context()
	v, err := h.videos.Get(ctx, userID, id)
	if errors.Is(err, videos.ErrNotFound) || (err == nil && v == nil) {
		response.NotFound(c, "video not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to load video for publish", zap.String("video_id", id.String()), zap.Error(err))
		response.Internal(c, "failed to load video")
		return
	}
	if v.Status != models.VideoStatusCompleted {
		response.Conflict(c, "video is not ready")
		return
	}

	meta, err := publishMeta(c, v)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	file, filename, err := h.publishFile(c, v)
	if err != nil {
		response.Conflict(c, err.Error())
		return
	}
	defer file.Close()

	conf, err := h.uploader.Upload(ctx, upload.Request{
		File:        file,
		Filename:    filename,
		Title:       meta.Title,
		Description: meta.Description,
		Tags:        meta.Tags,
	})
	if err != nil {
		h.logger.Error("publish video failed", zap.Error(err), zap.String("video_id", id.String()))
		switch {
		case errors.Is(err, gateway.ErrNotConfigured):
			response.ServiceUnavailable(c, "upload target not configured")
		case errors.Is(err, gateway.ErrInvalidRequest):
			response.BadRequest(c, err.Error())
		default:
			response.BadGateway(c, err.Error())
		}
		return
	}
	h.logger.Info("video published", zap.String("video_id", id.String()), zap.String("upload_id", conf.ID))
	response.OK(c, conf)
}

func publishMeta(c *gin.Context, v *models.Video) (PublishRequest, error) {
	meta := PublishRequest{Title: c.PostForm("title"), Description: c.PostForm("description")}
	if raw := c.PostForm("tags"); raw != "" {
		tags, err := parseTags(raw)
		if err != nil {
			return meta, err
		}
		meta.Tags = tags
	}
	if meta.Title == "" {
		meta.Title = v.Title
	}
	if meta.Description == "" {
		meta.Description = v.Description
	}
	if meta.Tags == nil && v.Category != "" {
		meta.Tags = []string{v.Category}
	}
	return meta, nil
}

func (h *Handler) publishFile(c *gin.Context, v *models.Video) (io.ReadCloser, string, error) {
	if fh, err := c.FormFile("video"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, "", errors.New("failed to read video")
		}
		return f, fh.Filename, nil
	}
	if h.files != nil {
		key := storage.VideoKey(v.UserID.String(), v.ID.String())
		if h.files.Exists(c.Request.Context(), key) {
			body, _, err := h.files.Open(c.Request.Context(), key)
			if err != nil {
				return nil, "", errors.New("failed to read stored video")
			}
			return body, v.ID.String() + ".mp4", nil
		}
	}
	return nil, "", errors.New("no video file to publish")
}

// Receive handles POST /api/youtube/upload (multipart: video, title, description, tags as JSON).
// The binary is stored and a publish job is queued.
func (h *Handler) Receive(c *gin.Context) {
	identity := middleware.IdentityFrom(c)
	if identity == nil && (h.receiverKey == "" || middleware.BearerToken(c) != h.receiverKey) {
		response.Unauthorized(c, "sign in required")
		return
	}
	if h.files == nil || h.queue == nil || !h.queue.Enabled() {
		response.ServiceUnavailable(c, "upload receiver not configured")
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		response.BadRequest(c, "title is required")
		return
	}
	tags, err := parseTags(c.PostForm("tags"))
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	file, err := c.FormFile("video")
	if err != nil {
		response.BadRequest(c, "missing file (form field: video)")
		return
	}
	if file.Size > storage.MaxUploadFileSize {
		response.BadRequest(c, "file size exceeds 256MB limit")
		return
	}
	if !storage.ValidateVideoFileType(file.Header.Get("Content-Type"), file.Filename) {
		response.BadRequest(c, "invalid file type: only mp4, mov and webm video allowed")
		return
	}
	contentType := storage.ContentTypeForFilename(file.Filename)
	if ct := file.Header.Get("Content-Type"); ct != "" {
		if _, ok := storage.AllowedVideoTypes[ct]; ok {
			contentType = ct
		}
	}

	ctx := c.Request.Context()
	id := uuid.New()
	key := storage.UploadKey(id.String(), file.Filename)
	rc, err := file.Open()
	if err != nil {
		h.logger.Error("open uploaded file failed", zap.Error(err))
		response.Internal(c, "failed to read file")
		return
	}
	defer rc.Close()

	if _, err := h.files.Put(ctx, key, contentType, rc, file.Size); err != nil {
		h.logger.Error("S3 upload failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to upload file to storage")
		return
	}

	row := models.Upload{
		ID:          id,
		Title:       title,
		Description: c.PostForm("description"),
		Tags:        tags,
		S3Key:       key,
		FileSize:    file.Size,
		Status:      models.UploadStatusQueued,
	}
	if identity != nil {
		uid := identity.ID
		row.UserID = &uid
	}
	created, err := h.store.Create(ctx, row)
	if err != nil {
		h.logger.Error("create upload failed", zap.Error(err), zap.String("key", key))
		if derr := h.files.Delete(ctx, key); derr != nil {
			h.logger.Warn("delete orphaned object failed", zap.Error(derr), zap.String("key", key))
		}
		response.Internal(c, "failed to record upload")
		return
	}

	if _, err := h.queue.EnqueuePublish(ctx, queue.PublishPayload{UploadID: created.ID, S3Key: key}); err != nil {
		h.logger.Error("enqueue publish failed", zap.Error(err), zap.String("upload_id", created.ID.String()))
		if merr := h.store.MarkFailed(ctx, created.ID, "enqueue failed"); merr != nil {
			h.logger.Warn("mark upload failed", zap.Error(merr))
		}
		response.ServiceUnavailable(c, "publish queue unavailable")
		return
	}

	h.logger.Info("upload received", zap.String("upload_id", created.ID.String()), zap.Int64("size", file.Size))
	response.Accepted(c, created)
}

// List handles GET /api/uploads.
func (h *Handler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.store.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list uploads failed", zap.Error(err), zap.String("user_id", userID.String()))
		response.Internal(c, "failed to load uploads")
		return
	}
	response.OK(c, list)
}

// parseTags accepts a JSON array, or a comma-separated list for hand-written forms.
func parseTags(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}, nil
	}
	if strings.HasPrefix(raw, "[") {
		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			return nil, errors.New("tags must be a JSON array of strings")
		}
		return tags, nil
	}
	out := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}
