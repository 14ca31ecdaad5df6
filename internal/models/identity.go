package models

import "github.com/google/uuid"

// Identity is the cached, read-only copy of the signed-in user issued by the identity provider.
type Identity struct {
	ID       uuid.UUID              `json:"id"`
	Email    string                 `json:"email"`
	Metadata map[string]interface{} `json:"user_metadata,omitempty"`
}

// Key returns the identifier used for per-user channels and row ownership.
func (i *Identity) Key() string {
	if i == nil {
		return ""
	}
	return i.ID.String()
}

// DisplayName returns full_name from metadata, falling back to the email.
func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}
	if name, ok := i.Metadata["full_name"].(string); ok && name != "" {
		return name
	}
	return i.Email
}

// Clone returns a copy whose metadata map can be mutated independently.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	out := *i
	if i.Metadata != nil {
		out.Metadata = make(map[string]interface{}, len(i.Metadata))
		for k, v := range i.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}
