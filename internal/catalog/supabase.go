package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/supabase-community/supabase-go"

	"github.com/invisireel/backend/internal/models"
)

const templatesTable = "templates"

// SupabaseTemplates reads the gallery from the hosted templates table.
type SupabaseTemplates struct {
	client *supabase.Client
}

// NewSupabaseTemplates creates a template source on the project at url.
func NewSupabaseTemplates(url, key string) (*SupabaseTemplates, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return &SupabaseTemplates{client: client}, nil
}

// Templates returns every row of the templates table ordered by usage.
func (s *SupabaseTemplates) Templates(_ context.Context) ([]models.Template, error) {
	data, _, err := s.client.From(templatesTable).
		Select("*", "exact", false).
		Order("usage", nil).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}

	var rows []models.Template
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return rows, nil
}
