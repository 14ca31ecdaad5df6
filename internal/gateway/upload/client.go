// Package upload posts finished videos to the video upload target as multipart forms.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/invisireel/backend/internal/gateway"
)

const providerName = "upload"

// Request is one video to upload.
type Request struct {
	File        io.Reader
	Filename    string
	Title       string
	Description string
	Tags        []string
}

// Confirmation is the target's answer. Raw keeps the full body.
type Confirmation struct {
	ID     string          `json:"id,omitempty"`
	Status string          `json:"status,omitempty"`
	URL    string          `json:"url,omitempty"`
	Raw    json.RawMessage `json:"raw,omitempty"`
}

// Client posts multipart uploads to a fixed endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates an upload client for endpoint (full URL). apiKey is optional and sent as a bearer token.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint:   strings.TrimSpace(endpoint),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: gateway.DefaultTimeout},
	}
}

// Configured reports whether an endpoint is set.
func (c *Client) Configured() bool { return c != nil && c.endpoint != "" }

// Upload sends the file with title, description and JSON-encoded tags.
func (c *Client) Upload(ctx context.Context, in Request) (*Confirmation, error) {
	if !c.Configured() {
		return nil, gateway.ErrNotConfigured
	}
	if in.File == nil || strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: file and title are required", gateway.ErrInvalidRequest)
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	filename := in.Filename
	if filename == "" {
		filename = "video.mp4"
	}
	videoPart, err := writer.CreateFormFile("video", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("create video part: %w", err)
	}
	if _, err := io.Copy(videoPart, in.File); err != nil {
		return nil, fmt.Errorf("copy video: %w", err)
	}
	fields := [][2]string{
		{"title", in.Title},
		{"description", in.Description},
		{"tags", string(tagsJSON)},
	}
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("write %s: %w", f[0], err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, gateway.NewAPIError(providerName, resp.StatusCode, respBody)
	}
	return parseConfirmation(respBody), nil
}

// parseConfirmation reads id/status/url from a flat body or from a {"data": {...}} envelope.
func parseConfirmation(body []byte) *Confirmation {
	conf := &Confirmation{}
	if len(body) > 0 && json.Valid(body) {
		conf.Raw = json.RawMessage(body)
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	src := body
	if json.Unmarshal(body, &envelope) == nil && len(envelope.Data) > 0 && envelope.Data[0] == '{' {
		src = envelope.Data
	}
	var fields struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		URL    string `json:"url"`
	}
	if json.Unmarshal(src, &fields) == nil {
		conf.ID, conf.Status, conf.URL = fields.ID, fields.Status, fields.URL
	}
	return conf
}
