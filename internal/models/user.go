package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a row of the local identity provider's users table.
type User struct {
	ID           uuid.UUID              `json:"id"`
	Email        string                 `json:"email"`
	PasswordHash string                 `json:"-"`
	Metadata     map[string]interface{} `json:"user_metadata"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// Identity returns the public identity of u.
func (u *User) Identity() *Identity {
	if u == nil {
		return nil
	}
	return (&Identity{ID: u.ID, Email: u.Email, Metadata: u.Metadata}).Clone()
}
