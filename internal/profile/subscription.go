package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/supabase-community/supabase-go"

	"github.com/invisireel/backend/internal/models"
)

// SubscriptionStore returns a user's current subscription, or nil when there is none.
type SubscriptionStore interface {
	Current(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
}

// Repository reads subscriptions from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a subscription repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Current returns the newest subscription row for userID.
func (r *Repository) Current(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	const q = `SELECT id, user_id, plan, status, to_char(next_billing, 'YYYY-MM-DD'), created_at
		FROM subscriptions WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`
	var s models.Subscription
	err := r.pool.QueryRow(ctx, q, userID).Scan(&s.ID, &s.UserID, &s.Plan, &s.Status, &s.NextBilling, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return &s, nil
}

// SupabaseSubscriptions reads the hosted subscriptions table.
type SupabaseSubscriptions struct {
	client *supabase.Client
}

// NewSupabaseSubscriptions creates a subscription source on the project at url.
func NewSupabaseSubscriptions(url, key string) (*SupabaseSubscriptions, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return &SupabaseSubscriptions{client: client}, nil
}

// Current returns the newest subscription row for userID.
func (s *SupabaseSubscriptions) Current(_ context.Context, userID uuid.UUID) (*models.Subscription, error) {
	data, _, err := s.client.From("subscriptions").
		Select("*", "exact", false).
		Eq("user_id", userID.String()).
		Order("created_at", nil).
		Limit(1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}

	var rows []models.Subscription
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse subscriptions: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
