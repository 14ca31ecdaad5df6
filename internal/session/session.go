// Package session keeps the current identity for one client and follows identity-change notifications.
package session

import (
	"context"

	"github.com/invisireel/backend/internal/models"
)

// EventType names an identity change, matching the hosted auth service's event names.
type EventType string

const (
	EventInitialSession EventType = "INITIAL_SESSION"
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventUserUpdated    EventType = "USER_UPDATED"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
)

// Event is one identity change for a user. A nil Identity means signed out.
type Event struct {
	Type     EventType        `json:"event"`
	UserKey  string           `json:"-"`
	Identity *models.Identity `json:"identity"`
}

// Provider resolves and invalidates access tokens.
type Provider interface {
	Session(ctx context.Context, token string) (*models.Identity, error)
	SignOut(ctx context.Context, token string) error
}

// Notifier fans identity changes out to every Store following the same user.
type Notifier interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(userKey string, handler func(Event)) (cancel func(), err error)
}
