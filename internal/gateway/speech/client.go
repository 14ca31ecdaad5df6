// Package speech wraps the ElevenLabs text-to-speech API.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/invisireel/backend/internal/gateway"
	"github.com/invisireel/backend/internal/models"
)

const (
	providerName   = "elevenlabs"
	defaultBaseURL = "https://api.elevenlabs.io/v1"
	defaultModel   = "eleven_monolingual_v1"

	// DefaultStability and DefaultSimilarity are used when a request leaves them unset.
	DefaultStability  = 0.5
	DefaultSimilarity = 0.5
)

// SynthesisRequest asks for narration of Text with a voice. Nil settings take the defaults.
type SynthesisRequest struct {
	Text       string
	VoiceID    string
	Stability  *float64
	Similarity *float64
}

type synthesisBody struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type voicesResponse struct {
	Voices []models.Voice `json:"voices"`
}

// Client calls the speech provider. The zero API key means not configured.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a speech client; empty baseURL or model take the provider defaults.
func NewClient(apiKey, baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: gateway.DefaultTimeout},
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return c != nil && c.apiKey != "" }

// Voices returns the provider's voice catalog in provider order.
func (c *Client) Voices(ctx context.Context) ([]models.Voice, error) {
	if !c.Configured() {
		return nil, gateway.ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var out voicesResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("unmarshal voices: %w", err)
	}
	return out.Voices, nil
}

// Synthesize returns the raw audio bytes for the request.
func (c *Client) Synthesize(ctx context.Context, in SynthesisRequest) ([]byte, error) {
	if !c.Configured() {
		return nil, gateway.ErrNotConfigured
	}
	if strings.TrimSpace(in.Text) == "" || in.VoiceID == "" {
		return nil, fmt.Errorf("%w: text and voice are required", gateway.ErrInvalidRequest)
	}

	payload := synthesisBody{
		Text:    in.Text,
		ModelID: c.model,
		VoiceSettings: voiceSettings{
			Stability:       valueOr(in.Stability, DefaultStability),
			SimilarityBoost: valueOr(in.Similarity, DefaultSimilarity),
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/text-to-speech/%s", c.baseURL, url.PathEscape(in.VoiceID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.apiKey)

	audio, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, &gateway.APIError{Provider: providerName, StatusCode: http.StatusOK, Message: "empty audio response"}
	}
	return audio, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, gateway.NewAPIError(providerName, resp.StatusCode, body)
	}
	return body, nil
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
