package stock

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invisireel/backend/internal/gateway"
)

const samplePage = `{
	"page": 1, "per_page": 15, "total_results": 2,
	"videos": [
		{"id": 1, "width": 1920, "height": 1080, "duration": 12, "url": "https://pexels.com/v/1", "image": "https://img/1.jpg",
		 "user": {"id": 7, "name": "Jane", "url": "https://pexels.com/@jane"},
		 "video_files": [{"id": 11, "quality": "hd", "file_type": "video/mp4", "width": 1280, "height": 720, "link": "https://cdn/1.mp4"}]},
		{"id": 2, "width": 1080, "height": 1920, "duration": 8, "url": "https://pexels.com/v/2", "image": "https://img/2.jpg",
		 "user": {"id": 8, "name": "Sam", "url": "https://pexels.com/@sam"}, "video_files": []}
	]
}`

func newTestClient(server *httptest.Server) *Client {
	c := NewClient("px-key", server.URL)
	c.httpClient = server.Client()
	return c
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name        string
		req         SearchRequest
		wantPerPage string
		wantPage    string
	}{
		{"defaults", SearchRequest{Query: "ocean"}, "15", "1"},
		{"explicit", SearchRequest{Query: "ocean", PageRequest: PageRequest{PerPage: 5, Page: 3}}, "5", "3"},
		{"clamped", SearchRequest{Query: "ocean", PageRequest: PageRequest{PerPage: 500}}, "80", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/search", r.URL.Path)
				assert.Equal(t, "px-key", r.Header.Get("Authorization"))
				assert.Equal(t, "ocean", r.URL.Query().Get("query"))
				assert.Equal(t, tt.wantPerPage, r.URL.Query().Get("per_page"))
				assert.Equal(t, tt.wantPage, r.URL.Query().Get("page"))
				_, _ = w.Write([]byte(samplePage))
			}))
			defer server.Close()

			page, err := newTestClient(server).Search(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, 2, page.TotalResults)
			require.Len(t, page.Videos, 2)
			assert.Equal(t, "Jane", page.Videos[0].User.Name)
			assert.Equal(t, "https://cdn/1.mp4", page.Videos[0].VideoFiles[0].Link)
		})
	}
}

func TestPopular(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/popular", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("query"))
		_, _ = w.Write([]byte(`{"page":2,"per_page":10,"total_results":0}`))
	}))
	defer server.Close()

	page, err := newTestClient(server).Popular(context.Background(), PageRequest{PerPage: 10, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.NotNil(t, page.Videos)
	assert.Empty(t, page.Videos)
}

func TestSearchErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"Rate limit exceeded"}`))
	}))
	defer server.Close()
	c := newTestClient(server)

	_, err := c.Search(context.Background(), SearchRequest{Query: "ocean"})
	assert.Equal(t, http.StatusTooManyRequests, gateway.StatusCode(err))
	assert.Contains(t, err.Error(), "Rate limit exceeded")

	_, err = c.Search(context.Background(), SearchRequest{Query: " "})
	assert.ErrorIs(t, err, gateway.ErrInvalidRequest)

	_, err = NewClient("", "").Popular(context.Background(), PageRequest{})
	assert.ErrorIs(t, err, gateway.ErrNotConfigured)
}
