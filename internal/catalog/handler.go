package catalog

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/invisireel/backend/internal/gateway"
	"github.com/invisireel/backend/internal/gateway/speech"
	"github.com/invisireel/backend/internal/gateway/stock"
	"github.com/invisireel/backend/internal/middleware"
	"github.com/invisireel/backend/internal/models"
	"github.com/invisireel/backend/pkg/response"
	"github.com/invisireel/backend/pkg/storage"
)

// Speech is the narration provider. *speech.Client implements it.
type Speech interface {
	Configured() bool
	Voices(ctx context.Context) ([]models.Voice, error)
	Synthesize(ctx context.Context, in speech.SynthesisRequest) ([]byte, error)
}

// Stock is the footage search provider. *stock.Client implements it.
type Stock interface {
	Search(ctx context.Context, in stock.SearchRequest) (*stock.Page, error)
	Popular(ctx context.Context, in stock.PageRequest) (*stock.Page, error)
}

// ObjectStore keeps narration previews. *storage.S3 implements it.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) (string, error)
	PresignedDownloadURL(ctx context.Context, key string) (string, error)
}

// Handler serves catalog, voice, stock footage and narration endpoints.
type Handler struct {
	catalog *Catalog
	speech  Speech
	stock   Stock
	files   ObjectStore // optional
	logger  *zap.Logger
}

// NewHandler creates a catalog handler. files may be nil.
func NewHandler(c *Catalog, sp Speech, st Stock, files ObjectStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{catalog: c, speech: sp, stock: st, files: files, logger: logger}
}

// TemplatesResponse is the gallery answer.
type TemplatesResponse struct {
	Templates  []models.Template `json:"templates"`
	Categories []models.Category `json:"categories"`
}

// Templates handles GET /api/templates?category=&search=.
func (h *Handler) Templates(c *gin.Context) {
	list := h.catalog.Templates(c.Request.Context(), c.Query("category"), c.Query("search"))
	response.OK(c, TemplatesResponse{Templates: list, Categories: h.catalog.Categories()})
}

// FlowTemplates handles GET /api/flow-templates.
func (h *Handler) FlowTemplates(c *gin.Context) {
	response.OK(c, h.catalog.FlowTemplates())
}

// Music handles GET /api/music.
func (h *Handler) Music(c *gin.Context) {
	response.OK(c, h.catalog.Music())
}

// Plans handles GET /api/plans.
func (h *Handler) Plans(c *gin.Context) {
	response.OK(c, h.catalog.Plans())
}

// Voices handles GET /api/voices: the provider's first voices, or the placeholder list without a key.
func (h *Handler) Voices(c *gin.Context) {
	if h.speech == nil || !h.speech.Configured() {
		response.OK(c, h.catalog.PlaceholderVoices())
		return
	}
	voices, err := h.speech.Voices(c.Request.Context())
	if err != nil {
		h.logger.Error("fetch voices failed", zap.Error(err))
		h.providerError(c, err)
		return
	}
	response.OK(c, LimitVoices(voices))
}

// StockSearch handles GET /api/stock/search?query=&per_page=&page=.
func (h *Handler) StockSearch(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		query = c.Query("q")
	}
	if query == "" {
		response.BadRequest(c, "query is required")
		return
	}
	page, err := h.stock.Search(c.Request.Context(), stock.SearchRequest{Query: query, PageRequest: pageRequest(c)})
	if err != nil {
		h.logger.Warn("stock search failed", zap.Error(err), zap.String("query", query))
		h.providerError(c, err)
		return
	}
	response.OK(c, page)
}

// StockPopular handles GET /api/stock/popular?per_page=&page=.
func (h *Handler) StockPopular(c *gin.Context) {
	page, err := h.stock.Popular(c.Request.Context(), pageRequest(c))
	if err != nil {
		h.logger.Warn("stock popular failed", zap.Error(err))
		h.providerError(c, err)
		return
	}
	response.OK(c, page)
}

// SynthesizeRequest is the narration preview body.
type SynthesizeRequest struct {
	Text       string   `json:"text" binding:"required"`
	VoiceID    string   `json:"voice_id" binding:"required"`
	Stability  *float64 `json:"stability"`
	Similarity *float64 `json:"similarity_boost"`
	Store      bool     `json:"store"`
}

// StoredAudio is returned when a preview is kept in object storage.
type StoredAudio struct {
	ID  string `json:"id"`
	Key string `json:"key"`
	URL string `json:"url"`
}

// Synthesize handles POST /api/speech/synthesize. It answers audio/mpeg, or JSON with a download
// URL when store is set and object storage is available.
func (h *Handler) Synthesize(c *gin.Context) {
	var req SynthesizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()
	audio, err := h.speech.Synthesize(ctx, speech.SynthesisRequest{
		Text:       req.Text,
		VoiceID:    req.VoiceID,
		Stability:  req.Stability,
		Similarity: req.Similarity,
	})
	if err != nil {
		h.logger.Error("synthesize failed", zap.Error(err), zap.String("voice_id", req.VoiceID))
		h.providerError(c, err)
		return
	}

	if !req.Store || h.files == nil {
		c.Data(http.StatusOK, "audio/mpeg", audio)
		return
	}

	id := uuid.New().String()
	key := storage.SpeechKey(ownerKey(c), id)
	if _, err := h.files.Put(ctx, key, "audio/mpeg", bytes.NewReader(audio), int64(len(audio))); err != nil {
		h.logger.Error("store narration failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to store audio")
		return
	}
	url, err := h.files.PresignedDownloadURL(ctx, key)
	if err != nil {
		h.logger.Error("presign narration failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to store audio")
		return
	}
	response.Created(c, StoredAudio{ID: id, Key: key, URL: url})
}

// providerError maps gateway failures: missing key 503, bad input 400, anything upstream 502.
func (h *Handler) providerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gateway.ErrNotConfigured):
		response.ServiceUnavailable(c, "provider not configured")
	case errors.Is(err, gateway.ErrInvalidRequest):
		response.BadRequest(c, err.Error())
	default:
		response.BadGateway(c, err.Error())
	}
}

func ownerKey(c *gin.Context) string {
	if identity := middleware.IdentityFrom(c); identity != nil {
		return identity.Key()
	}
	return ""
}

func pageRequest(c *gin.Context) stock.PageRequest {
	perPage, _ := strconv.Atoi(c.Query("per_page"))
	page, _ := strconv.Atoi(c.Query("page"))
	return stock.PageRequest{PerPage: perPage, Page: page}
}
