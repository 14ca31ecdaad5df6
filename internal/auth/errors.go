package auth

import (
	"errors"
	"net"
	"net/url"
	"strings"
)

// User-facing sign-in messages.
const (
	MessageNotConfigured      = "Supabase is not configured. Please check your environment variables."
	MessageNetwork            = "Network error. Please check your internet connection and try again."
	MessageInvalidConfig      = "Invalid Supabase configuration. Please check your environment variables."
	MessageInvalidCredentials = "Invalid email or password. Please try again."
	MessageEmailTaken         = "An account with this email already exists."
	MessageLoginFailed        = "Login failed. Please try again."
)

// LoginMessage maps a provider error to the message shown on the sign-in form.
func LoginMessage(err error) string {
	if err == nil {
		return ""
	}
	var urlErr *url.Error
	var netErr net.Error
	switch {
	case errors.Is(err, ErrNotConfigured):
		return MessageNotConfigured
	case errors.Is(err, ErrInvalidCredentials):
		return MessageInvalidCredentials
	case errors.Is(err, ErrEmailTaken):
		return MessageEmailTaken
	case errors.As(err, &urlErr), errors.As(err, &netErr):
		return MessageNetwork
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Invalid API key"), strings.Contains(msg, "No API key found"):
		return MessageInvalidConfig
	case strings.Contains(msg, "Invalid login credentials"):
		return MessageInvalidCredentials
	}
	return MessageLoginFailed
}
