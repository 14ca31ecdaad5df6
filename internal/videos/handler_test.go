package videos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invisireel/backend/internal/middleware"
	"github.com/invisireel/backend/internal/models"
)

type fakeFiles struct {
	keys map[string]bool
	err  error
}

func (f *fakeFiles) Exists(_ context.Context, key string) bool { return f.keys[key] }

func (f *fakeFiles) PresignedDownloadURL(_ context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://bucket.example.com/" + key + "?sig=1", nil
}

func newTestRouter(store Store, files Presigner, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store, files, nil)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextIdentity, &models.Identity{ID: userID})
		c.Set(middleware.ContextUserID, userID)
		c.Next()
	})
	r.GET("/api/videos", h.List)
	r.GET("/api/videos/stats", h.Stats)
	r.GET("/api/videos/:id", h.Get)
	r.PATCH("/api/videos/:id", h.Update)
	r.DELETE("/api/videos/:id", h.Delete)
	r.GET("/api/videos/:id/download", h.Download)
	return r
}

func serve(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandlerListAndStats(t *testing.T) {
	store := NewMemoryStore()
	owner := uuid.New()
	vs := seed(t, store, owner, "one", "two")
	store.SetViews(vs[0].ID, 40)
	r := newTestRouter(store, nil, owner)

	w := serve(r, http.MethodGet, "/api/videos", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []models.Video `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Data, 2)

	w = serve(r, http.MethodGet, "/api/videos/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		Data models.VideoStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, models.VideoStats{Total: 2, Views: 40}, stats.Data)
}

func TestHandlerDelete(t *testing.T) {
	store := NewMemoryStore()
	owner := uuid.New()
	v := seed(t, store, owner, "doomed")[0]
	r := newTestRouter(store, nil, owner)
	path := "/api/videos/" + v.ID.String()

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodDelete, path+"?confirm=true", nil).Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodDelete, path+"?confirm=true", nil).Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, path, nil).Code)
}

func TestHandlerUpdate(t *testing.T) {
	store := NewMemoryStore()
	owner := uuid.New()
	v := seed(t, store, owner, "cut")[0]
	r := newTestRouter(store, nil, owner)
	path := "/api/videos/" + v.ID.String()

	w := serve(r, http.MethodPatch, path, gin.H{
		"trim_start":       2,
		"trim_end":         8,
		"background_music": "upbeat",
		"music_volume":     0.7,
		"filters":          gin.H{"brightness": 120, "contrast": 100, "saturation": 80},
		"text_overlays": []gin.H{{
			"id": "t1", "text": "Hi", "position": gin.H{"x": 50, "y": 50},
			"fontSize": 32, "color": "#fff", "startTime": 0, "endTime": 2,
		}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	got, err := store.Get(context.Background(), owner, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, *got.Edit.TrimStart)
	assert.Equal(t, "upbeat", got.BackgroundMusic)
	require.Len(t, got.Edit.TextOverlays, 1)
	assert.Equal(t, 32, got.Edit.TextOverlays[0].FontSize)

	w = serve(r, http.MethodPatch, path, gin.H{"music_volume": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = serve(r, http.MethodPatch, "/api/videos/"+uuid.NewString(), gin.H{})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlerDownload(t *testing.T) {
	store := NewMemoryStore()
	owner := uuid.New()
	vs := seed(t, store, owner, "pending", "placeholder", "stored")
	ctx := context.Background()
	_, _ = store.UpdateStatus(ctx, owner, vs[1].ID, StatusUpdate{Status: models.VideoStatusCompleted, VideoURL: "https://example.com/sample-video.mp4"})
	_, _ = store.UpdateStatus(ctx, owner, vs[2].ID, StatusUpdate{Status: models.VideoStatusCompleted, VideoURL: "https://example.com/sample-video.mp4"})

	files := &fakeFiles{keys: map[string]bool{"videos/" + owner.String() + "/" + vs[2].ID.String() + ".mp4": true}}
	r := newTestRouter(store, files, owner)

	assert.Equal(t, http.StatusConflict, serve(r, http.MethodGet, "/api/videos/"+vs[0].ID.String()+"/download", nil).Code)

	w := serve(r, http.MethodGet, "/api/videos/"+vs[1].ID.String()+"/download", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"stored":false`)
	assert.Contains(t, w.Body.String(), "sample-video.mp4")

	w = serve(r, http.MethodGet, "/api/videos/"+vs[2].ID.String()+"/download", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sig=1")

	files.err = errors.New("no credentials")
	w = serve(r, http.MethodGet, "/api/videos/"+vs[2].ID.String()+"/download", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
