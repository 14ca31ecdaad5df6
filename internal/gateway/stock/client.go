// Package stock wraps the Pexels video search API.
package stock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/invisireel/backend/internal/gateway"
)

const (
	providerName   = "pexels"
	defaultBaseURL = "https://api.pexels.com/videos"

	// DefaultPerPage and DefaultPage are applied to unset paging fields.
	DefaultPerPage = 15
	DefaultPage    = 1
	maxPerPage     = 80
)

// PageRequest selects a page of results.
type PageRequest struct {
	PerPage int
	Page    int
}

// SearchRequest is a keyword search.
type SearchRequest struct {
	Query string
	PageRequest
}

// Page is the provider-shaped result page.
type Page struct {
	Page         int     `json:"page"`
	PerPage      int     `json:"per_page"`
	TotalResults int     `json:"total_results"`
	URL          string  `json:"url,omitempty"`
	NextPage     string  `json:"next_page,omitempty"`
	PrevPage     string  `json:"prev_page,omitempty"`
	Videos       []Video `json:"videos"`
}

// Video is one stock clip.
type Video struct {
	ID            int            `json:"id"`
	Width         int            `json:"width"`
	Height        int            `json:"height"`
	Duration      int            `json:"duration"`
	URL           string         `json:"url"`
	Image         string         `json:"image"`
	User          User           `json:"user"`
	VideoFiles    []VideoFile    `json:"video_files"`
	VideoPictures []VideoPicture `json:"video_pictures,omitempty"`
}

// User is the clip author.
type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// VideoFile is one rendition of a clip.
type VideoFile struct {
	ID       int    `json:"id"`
	Quality  string `json:"quality"`
	FileType string `json:"file_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Link     string `json:"link"`
}

// VideoPicture is a preview frame.
type VideoPicture struct {
	ID      int    `json:"id"`
	Picture string `json:"picture"`
	Nr      int    `json:"nr"`
}

// Normalize fills defaults and clamps the page size to the provider limit.
func (p PageRequest) Normalize() PageRequest {
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	if p.Page <= 0 {
		p.Page = DefaultPage
	}
	return p
}

// Client calls the stock footage provider.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a stock client; empty baseURL takes the provider default.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: gateway.DefaultTimeout},
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return c != nil && c.apiKey != "" }

// Search returns clips matching the query.
func (c *Client) Search(ctx context.Context, in SearchRequest) (*Page, error) {
	if !c.Configured() {
		return nil, gateway.ErrNotConfigured
	}
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", gateway.ErrInvalidRequest)
	}
	params := pageParams(in.PageRequest)
	params.Set("query", query)
	return c.get(ctx, "/search", params)
}

// Popular returns the provider's popular clips.
func (c *Client) Popular(ctx context.Context, in PageRequest) (*Page, error) {
	if !c.Configured() {
		return nil, gateway.ErrNotConfigured
	}
	return c.get(ctx, "/popular", pageParams(in))
}

func pageParams(p PageRequest) url.Values {
	p = p.Normalize()
	v := url.Values{}
	v.Set("per_page", strconv.Itoa(p.PerPage))
	v.Set("page", strconv.Itoa(p.Page))
	return v
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, gateway.NewAPIError(providerName, resp.StatusCode, body)
	}

	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("unmarshal page: %w", err)
	}
	if page.Videos == nil {
		page.Videos = []Video{}
	}
	return &page, nil
}
