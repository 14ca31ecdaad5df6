// Package profile serves the signed-in user's editable profile fields and the data export.
package profile

import (
	"strings"

	"github.com/invisireel/backend/internal/models"
)

// Metadata keys written to the identity.
const (
	keyFullName      = "full_name"
	keyUsername      = "username"
	keyBio           = "bio"
	keyWebsite       = "website"
	keyNotifications = "notifications"
)

// Notifications are the user's delivery preferences.
type Notifications struct {
	Email     bool `json:"email"`
	Push      bool `json:"push"`
	Marketing bool `json:"marketing"`
}

// DefaultNotifications applies to users who never saved preferences.
func DefaultNotifications() Notifications {
	return Notifications{Email: true, Push: true, Marketing: false}
}

// Profile is the editable view of identity metadata.
type Profile struct {
	ID            string        `json:"id"`
	Email         string        `json:"email"`
	FullName      string        `json:"full_name"`
	Username      string        `json:"username"`
	Bio           string        `json:"bio"`
	Website       string        `json:"website"`
	Notifications Notifications `json:"notifications"`
}

// FromIdentity reads the profile fields out of identity metadata.
func FromIdentity(identity *models.Identity) Profile {
	if identity == nil {
		return Profile{Notifications: DefaultNotifications()}
	}
	p := Profile{
		ID:            identity.Key(),
		Email:         identity.Email,
		FullName:      stringField(identity.Metadata, keyFullName),
		Username:      stringField(identity.Metadata, keyUsername),
		Bio:           stringField(identity.Metadata, keyBio),
		Website:       stringField(identity.Metadata, keyWebsite),
		Notifications: DefaultNotifications(),
	}
	if raw, ok := identity.Metadata[keyNotifications].(map[string]interface{}); ok {
		p.Notifications.Email = boolField(raw, "email", p.Notifications.Email)
		p.Notifications.Push = boolField(raw, "push", p.Notifications.Push)
		p.Notifications.Marketing = boolField(raw, "marketing", p.Notifications.Marketing)
	}
	return p
}

// UpdateRequest is the PATCH /api/profile body. Omitted fields are left unchanged.
type UpdateRequest struct {
	FullName      *string        `json:"full_name" binding:"omitempty,max=120"`
	Username      *string        `json:"username" binding:"omitempty,max=60"`
	Bio           *string        `json:"bio" binding:"omitempty,max=500"`
	Website       *string        `json:"website" binding:"omitempty,max=255"`
	Notifications *Notifications `json:"notifications"`
}

// Metadata returns the metadata fields to merge; nil when nothing was sent.
func (r UpdateRequest) Metadata() map[string]interface{} {
	out := map[string]interface{}{}
	set := func(key string, v *string) {
		if v != nil {
			out[key] = strings.TrimSpace(*v)
		}
	}
	set(keyFullName, r.FullName)
	set(keyUsername, r.Username)
	set(keyBio, r.Bio)
	set(keyWebsite, r.Website)
	if r.Notifications != nil {
		out[keyNotifications] = map[string]interface{}{
			"email":     r.Notifications.Email,
			"push":      r.Notifications.Push,
			"marketing": r.Notifications.Marketing,
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func boolField(m map[string]interface{}, key string, fallback bool) bool {
	if b, ok := m[key].(bool); ok {
		return b
	}
	return fallback
}
