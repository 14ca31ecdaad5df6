package worker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

const clientSecret = `{"installed":{"client_id":"id.apps.googleusercontent.com","client_secret":"s","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestNewYouTubePublisherCredentials(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	secret := writeFile(t, dir, "client_secret.json", clientSecret)
	token := writeFile(t, dir, "token.json", `{"access_token":"a","refresh_token":"r","token_type":"Bearer"}`)

	_, err := NewYouTubePublisher(ctx, YouTubeConfig{})
	assert.ErrorIs(t, err, ErrNoCredentials)

	_, err = NewYouTubePublisher(ctx, YouTubeConfig{ClientSecretFile: filepath.Join(dir, "nope.json"), TokenFile: token})
	assert.ErrorContains(t, err, "failed to read client secret")

	bad := writeFile(t, dir, "bad.json", "{")
	_, err = NewYouTubePublisher(ctx, YouTubeConfig{ClientSecretFile: bad, TokenFile: token})
	assert.ErrorContains(t, err, "failed to parse client secret")

	_, err = NewYouTubePublisher(ctx, YouTubeConfig{ClientSecretFile: secret, TokenFile: filepath.Join(dir, "missing.json")})
	assert.ErrorContains(t, err, "failed to read token file")

	_, err = NewYouTubePublisher(ctx, YouTubeConfig{ClientSecretFile: secret, TokenFile: bad})
	assert.ErrorContains(t, err, "failed to parse token")

	p, err := NewYouTubePublisher(ctx, YouTubeConfig{ClientSecretFile: secret, TokenFile: token})
	require.NoError(t, err)
	assert.Equal(t, "private", p.privacy)
	assert.Equal(t, "22", p.catID)
}

func TestYouTubePublish(t *testing.T) {
	var path, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "abc123"})
	}))
	defer srv.Close()

	p, err := newYouTubePublisher(context.Background(),
		YouTubeConfig{PrivacyStatus: "unlisted", CategoryID: "27"},
		option.WithHTTPClient(srv.Client()), option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)

	id, err := p.Publish(context.Background(), Metadata{Title: "Focus", Tags: []string{"education"}}, strings.NewReader("mp4-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)
	assert.True(t, strings.HasSuffix(path, "/youtube/v3/videos"), path)
	assert.Contains(t, body, `"title":"Focus"`)
	assert.Contains(t, body, `"privacyStatus":"unlisted"`)
	assert.Contains(t, body, `"categoryId":"27"`)
	assert.Contains(t, body, "mp4-bytes")
}
