package uploads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invisireel/backend/internal/models"
)

const uploadColumns = `id, user_id, title, COALESCE(description,''), tags, s3_key, file_size, status,
	COALESCE(external_id,''), COALESCE(error,''), created_at, updated_at`

// Repository handles upload persistence in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an upload repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts an upload row.
func (r *Repository) Create(ctx context.Context, u models.Upload) (*models.Upload, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Status == "" {
		u.Status = models.UploadStatusQueued
	}
	tags, err := json.Marshal(nonNil(u.Tags))
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}
	const q = `INSERT INTO uploads (id, user_id, title, description, tags, s3_key, file_size, status)
		VALUES ($1, $2, $3, NULLIF($4,''), $5, $6, $7, $8)
		RETURNING ` + uploadColumns
	row := r.pool.QueryRow(ctx, q, u.ID, u.UserID, u.Title, u.Description, tags, u.S3Key, u.FileSize, u.Status)
	return scanUpload(row)
}

// Get returns the upload with id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.Upload, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+uploadColumns+` FROM uploads WHERE id = $1`, id)
	return scanUpload(row)
}

// ListByUser returns the user's uploads newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Upload, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+uploadColumns+` FROM uploads WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()
	list := []models.Upload{}
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *u)
	}
	return list, rows.Err()
}

// MarkPublished records the platform id.
func (r *Repository) MarkPublished(ctx context.Context, id uuid.UUID, externalID string) error {
	const q = `UPDATE uploads SET status = $2, external_id = $3, error = NULL, updated_at = NOW() WHERE id = $1`
	return r.exec(ctx, q, id, models.UploadStatusPublished, externalID)
}

// MarkFailed records why publishing stopped.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	const q = `UPDATE uploads SET status = $2, error = $3, updated_at = NOW() WHERE id = $1`
	return r.exec(ctx, q, id, models.UploadStatusFailed, reason)
}

func (r *Repository) exec(ctx context.Context, q string, args ...interface{}) error {
	tag, err := r.pool.Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update upload: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUpload(row pgx.Row) (*models.Upload, error) {
	var u models.Upload
	var tags []byte
	err := row.Scan(&u.ID, &u.UserID, &u.Title, &u.Description, &tags, &u.S3Key, &u.FileSize, &u.Status,
		&u.ExternalID, &u.Error, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan upload: %w", err)
	}
	u.Tags = []string{}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &u.Tags); err != nil {
			return nil, fmt.Errorf("unmarshal tags: %w", err)
		}
	}
	return &u, nil
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
