package gateway

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAPIError(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"detailObject", `{"detail":{"status":"invalid_api_key","message":"Invalid API key"}}`, "Invalid API key"},
		{"detailString", `{"detail":"voice not found"}`, "voice not found"},
		{"errorString", `{"error":"Rate limit exceeded"}`, "Rate limit exceeded"},
		{"plainText", `Unauthorized`, "Unauthorized"},
		{"empty", ``, http.StatusText(http.StatusBadGateway)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAPIError("elevenlabs", http.StatusBadGateway, []byte(tt.body))
			assert.Equal(t, tt.want, err.Message)
			assert.Contains(t, err.Error(), "elevenlabs error")
		})
	}
}

func TestStatusCode(t *testing.T) {
	err := fmt.Errorf("voices: %w", &APIError{Provider: "pexels", StatusCode: 401})
	assert.Equal(t, 401, StatusCode(err))
	assert.Zero(t, StatusCode(ErrNotConfigured))
}
