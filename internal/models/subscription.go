package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is a user's current plan. Users without a row are on FREE.
type Subscription struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Plan        string    `json:"plan"`
	Status      string    `json:"status"`
	NextBilling *string   `json:"next_billing,omitempty"` // YYYY-MM-DD
	CreatedAt   time.Time `json:"created_at"`
}

// FreeSubscription is reported for users with no stored subscription.
func FreeSubscription(userID uuid.UUID) *Subscription {
	return &Subscription{UserID: userID, Plan: "FREE", Status: "active"}
}
