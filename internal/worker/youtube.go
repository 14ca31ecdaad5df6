package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// ErrNoCredentials is returned when the OAuth client secret or token file is missing.
var ErrNoCredentials = errors.New("youtube credentials not configured")

// YouTubeConfig names the OAuth files and upload defaults.
type YouTubeConfig struct {
	ClientSecretFile string
	TokenFile        string
	PrivacyStatus    string
	CategoryID       string
}

// YouTubePublisher inserts videos through the YouTube Data API.
type YouTubePublisher struct {
	svc     *youtube.Service
	privacy string
	catID   string
}

// NewYouTubePublisher builds an authorised client from the client secret JSON and a saved token.
func NewYouTubePublisher(ctx context.Context, cfg YouTubeConfig) (*YouTubePublisher, error) {
	client, err := oauthClient(ctx, cfg.ClientSecretFile, cfg.TokenFile)
	if err != nil {
		return nil, err
	}
	return newYouTubePublisher(ctx, cfg, option.WithHTTPClient(client))
}

func newYouTubePublisher(ctx context.Context, cfg YouTubeConfig, opts ...option.ClientOption) (*YouTubePublisher, error) {
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}
	privacy := cfg.PrivacyStatus
	if privacy == "" {
		privacy = "private"
	}
	catID := cfg.CategoryID
	if catID == "" {
		catID = "22"
	}
	return &YouTubePublisher{svc: svc, privacy: privacy, catID: catID}, nil
}

// Publish uploads media with meta and returns the platform video id.
func (y *YouTubePublisher) Publish(ctx context.Context, meta Metadata, media io.Reader) (string, error) {
	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       meta.Title,
			Description: meta.Description,
			Tags:        meta.Tags,
			CategoryId:  y.catID,
		},
		Status: &youtube.VideoStatus{PrivacyStatus: y.privacy},
	}
	uploaded, err := y.svc.Videos.Insert([]string{"snippet", "status"}, video).Media(media).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("youtube upload: %w", err)
	}
	return uploaded.Id, nil
}

func oauthClient(ctx context.Context, secretFile, tokenFile string) (*http.Client, error) {
	if secretFile == "" || tokenFile == "" {
		return nil, ErrNoCredentials
	}
	secret, err := os.ReadFile(secretFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secret: %w", err)
	}
	conf, err := google.ConfigFromJSON(secret, youtube.YoutubeUploadScope, youtube.YoutubeScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secret: %w", err)
	}
	token, err := loadToken(tokenFile)
	if err != nil {
		return nil, err
	}
	return conf.Client(ctx, token), nil
}

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	return &token, nil
}
