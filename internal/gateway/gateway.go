// Package gateway holds the failure types shared by the single-shot provider clients in its subpackages.
package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// DefaultTimeout bounds every provider call.
const DefaultTimeout = 60 * time.Second

var (
	// ErrNotConfigured is returned when a client has no usable key or endpoint.
	ErrNotConfigured = errors.New("provider not configured")
	// ErrInvalidRequest is returned for requests rejected before any network call.
	ErrInvalidRequest = errors.New("invalid provider request")
)

// APIError is a non-2xx answer from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s error: status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s error: %s", e.Provider, e.Message)
}

// NewAPIError builds an APIError from a response body, picking the first message field providers use.
func NewAPIError(provider string, status int, body []byte) *APIError {
	var shaped struct {
		Detail json.RawMessage `json:"detail"`
		Error  json.RawMessage `json:"error"`
		Msg    string          `json:"message"`
	}
	msg := ""
	if json.Unmarshal(body, &shaped) == nil {
		msg = firstMessage(shaped.Detail, shaped.Error)
		if msg == "" {
			msg = shaped.Msg
		}
	}
	if msg == "" && len(body) > 0 && len(body) <= 200 && !json.Valid(body) {
		msg = string(body)
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Provider: provider, StatusCode: status, Message: msg}
}

// firstMessage accepts either a string or an object with a message field.
func firstMessage(raws ...json.RawMessage) string {
	for _, raw := range raws {
		if len(raw) == 0 {
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			return s
		}
		var obj struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &obj) == nil && obj.Message != "" {
			return obj.Message
		}
	}
	return ""
}

// StatusCode returns the provider status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
