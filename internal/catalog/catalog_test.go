package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invisireel/backend/internal/models"
)

func ids(list []models.Template) []string {
	out := make([]string, 0, len(list))
	for _, t := range list {
		out = append(out, t.ID)
	}
	return out
}

func TestTemplatesFilter(t *testing.T) {
	c := Default()
	ctx := context.Background()

	tests := []struct {
		name     string
		category string
		search   string
		want     []string
	}{
		{"all", "all", "", ids(defaultTemplates())},
		{"emptyCategory", "", "", ids(defaultTemplates())},
		{"category", "motivation", "", []string{"motivation-1", "motivation-2"}},
		{"categoryCaseInsensitive", "Finance", "", []string{"finance-1"}},
		{"searchName", "all", "fun facts", []string{"entertainment-1"}},
		{"searchDescription", "all", "COMPLEX topics", []string{"education-1"}},
		{"searchTag", "all", "tips", []string{"business-1", "finance-1", "lifestyle-1"}},
		{"categoryAndSearch", "lifestyle", "tips", []string{"lifestyle-1"}},
		{"noMatch", "fitness", "money", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(c.Templates(ctx, tt.category, tt.search)))
		})
	}
}

func TestDefaultLists(t *testing.T) {
	c := Default()
	assert.Len(t, c.Categories(), 8)
	assert.Equal(t, CategoryAll, c.Categories()[0].ID)
	assert.Len(t, c.FlowTemplates(), 6)
	assert.Len(t, c.Music(), 5)
	assert.Equal(t, "none", c.Music()[4].ID)

	tpl := defaultTemplates()[0]
	assert.Equal(t, "https://via.placeholder.com/300x200/1f2937/ffffff?text=Daily+Motivation", tpl.Thumbnail)

	pro, ok := c.Plan("pro")
	require.True(t, ok)
	assert.True(t, pro.Unlimited())
	assert.Equal(t, 999, pro.MonthlyPrice)
	assert.Equal(t, 11990, pro.OriginalYearlyPrice)

	free, ok := c.Plan("FREE")
	require.True(t, ok)
	assert.True(t, free.Watermark)
	assert.Equal(t, 3, free.MonthlyVideos)

	_, ok = c.Plan("ENTERPRISE")
	assert.False(t, ok)
}

func TestLimitVoices(t *testing.T) {
	voices := make([]models.Voice, 14)
	for i := range voices {
		voices[i] = models.Voice{ID: fmt.Sprintf("v%d", i)}
	}
	got := LimitVoices(voices)
	require.Len(t, got, MaxVoices)
	assert.Equal(t, "v0", got[0].ID)
	assert.Equal(t, "v9", got[9].ID)

	assert.Len(t, LimitVoices(voices[:3]), 3)
	assert.NotEmpty(t, Default().PlaceholderVoices())
}

func TestLoadYAMLOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := `
music:
  - id: lofi
    name: Lo-fi
    description: Chill beats
templates:
  - id: tech-1
    name: Tech Reviews
    description: Gadget breakdowns
    category: tech
    tags: [tech, gadgets]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	c, err := Load(path)
	require.NoError(t, err)

	require.Len(t, c.Music(), 1)
	assert.Equal(t, "Chill beats", c.Music()[0].Description)
	assert.Equal(t, []string{"tech-1"}, ids(c.Templates(context.Background(), "", "gadgets")))
	assert.Len(t, c.Plans(), 3, "lists left out keep built-in values")
	assert.Len(t, c.FlowTemplates(), 6)
}

func TestLoadErrors(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Len(t, c.Plans(), 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("music: [unterminated"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

type stubSource struct {
	list []models.Template
	err  error
}

func (s stubSource) Templates(context.Context) ([]models.Template, error) { return s.list, s.err }

func TestTemplatesSourceFallback(t *testing.T) {
	ctx := context.Background()

	c := Default().WithSource(stubSource{list: []models.Template{{ID: "db-1", Name: "From DB", Category: "business"}}}, nil)
	assert.Equal(t, []string{"db-1"}, ids(c.Templates(ctx, "business", "")))

	c = Default().WithSource(stubSource{err: errors.New("down")}, nil)
	assert.Len(t, c.Templates(ctx, "all", ""), 8)

	c = Default().WithSource(stubSource{}, nil)
	assert.Len(t, c.Templates(ctx, "all", ""), 8)

	tpl, ok := Default().Template(ctx, "fitness-1")
	require.True(t, ok)
	assert.Equal(t, "Workout Motivation", tpl.Name)
}

func TestSupabaseTemplates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/templates", r.URL.Path)
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		assert.Equal(t, "usage.desc.nullslast", r.URL.Query().Get("order"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"db-1","name":"Quotes","description":"Daily quotes","category":"motivation","usage":10,"rating":4.1,"tags":["quotes"]}]`))
	}))
	defer srv.Close()

	src, err := NewSupabaseTemplates(srv.URL, "anon")
	require.NoError(t, err)

	list, err := src.Templates(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Quotes", list[0].Name)
	assert.Equal(t, []string{"quotes"}, list[0].Tags)
	assert.InDelta(t, 4.1, list[0].Rating, 0.001)
}

func TestSupabaseTemplatesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"42P01","message":"relation \"templates\" does not exist"}`))
	}))
	defer srv.Close()

	src, err := NewSupabaseTemplates(srv.URL, "anon")
	require.NoError(t, err)
	_, err = src.Templates(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "42P01")

	_, err = NewSupabaseTemplates("", "")
	assert.Error(t, err)
}
