package auth

import (
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoginMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"notConfigured", ErrNotConfigured, MessageNotConfigured},
		{"credentials", fmt.Errorf("sign in: %w", ErrInvalidCredentials), MessageInvalidCredentials},
		{"network", &url.Error{Op: "Post", URL: "https://x.supabase.co", Err: errors.New("dial tcp: refused")}, MessageNetwork},
		{"apiKey", errors.New(`response status code 401: {"message":"Invalid API key"}`), MessageInvalidConfig},
		{"rawCredentials", errors.New(`response status code 400: {"error_description":"Invalid login credentials"}`), MessageInvalidCredentials},
		{"emailTaken", ErrEmailTaken, MessageEmailTaken},
		{"other", errors.New("boom"), MessageLoginFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LoginMessage(tt.err))
		})
	}
}
