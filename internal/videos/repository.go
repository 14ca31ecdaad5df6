package videos

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

const videoColumns = `id, user_id, title, COALESCE(description,''), script, COALESCE(category,''),
	COALESCE(voice_id,''), COALESCE(template,''), COALESCE(background_music,''), status, views,
	COALESCE(video_url,''), COALESCE(thumbnail_url,''), trim_start, trim_end, text_overlays,
	music_volume, filters, created_at, updated_at`

// Repository handles video job persistence in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a video repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns the owner's videos newest-first.
func (r *Repository) List(ctx context.Context, userID uuid.UUID) ([]models.Video, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+videoColumns+` FROM videos WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()
	list := []models.Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *v)
	}
	return list, rows.Err()
}

// Get returns one video owned by userID.
func (r *Repository) Get(ctx context.Context, userID, id uuid.UUID) (*models.Video, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1 AND user_id = $2`, id, userID)
	return scanVideo(row)
}

// Create inserts a new video job.
func (r *Repository) Create(ctx context.Context, in models.NewVideo) (*models.Video, error) {
	status := in.Status
	if status == "" {
		status = models.VideoStatusPending
	}
	const q = `INSERT INTO videos (user_id, title, description, script, category, voice_id, template, background_music, status)
		VALUES ($1, $2, NULLIF($3,''), $4, NULLIF($5,''), NULLIF($6,''), NULLIF($7,''), NULLIF($8,''), $9)
		RETURNING ` + videoColumns
	row := r.pool.QueryRow(ctx, q, in.UserID, in.Title, in.Description, in.Script, in.Category,
		in.VoiceID, in.Template, in.BackgroundMusic, string(status))
	v, err := scanVideo(row)
	if err != nil {
		return nil, fmt.Errorf("insert video: %w", err)
	}
	return v, nil
}

// UpdateEdit replaces the editor fields; music is only written when non-nil.
func (r *Repository) UpdateEdit(ctx context.Context, userID, id uuid.UUID, edit models.EditParams, music *string) (*models.Video, error) {
	overlays, err := marshalNullable(edit.TextOverlays, edit.TextOverlays == nil)
	if err != nil {
		return nil, fmt.Errorf("marshal overlays: %w", err)
	}
	filters, err := marshalNullable(edit.Filters, edit.Filters == nil)
	if err != nil {
		return nil, fmt.Errorf("marshal filters: %w", err)
	}
	const q = `UPDATE videos SET trim_start = $3, trim_end = $4, text_overlays = $5, music_volume = $6, filters = $7,
		background_music = COALESCE($8, background_music), updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + videoColumns
	row := r.pool.QueryRow(ctx, q, id, userID, edit.TrimStart, edit.TrimEnd, overlays, edit.MusicVolume, filters, music)
	return scanVideo(row)
}

// UpdateStatus sets the status and any non-empty output URL.
func (r *Repository) UpdateStatus(ctx context.Context, userID, id uuid.UUID, upd StatusUpdate) (*models.Video, error) {
	const q = `UPDATE videos SET status = $3,
		video_url = COALESCE(NULLIF($4,''), video_url),
		thumbnail_url = COALESCE(NULLIF($5,''), thumbnail_url),
		updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + videoColumns
	row := r.pool.QueryRow(ctx, q, id, userID, string(upd.Status), upd.VideoURL, upd.ThumbnailURL)
	return scanVideo(row)
}

// Delete removes one video; a missing id yields ErrNotFound.
func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM videos WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanVideo(row pgx.Row) (*models.Video, error) {
	var (
		v        models.Video
		status   string
		overlays []byte
		filters  []byte
	)
	err := row.Scan(&v.ID, &v.UserID, &v.Title, &v.Description, &v.Script, &v.Category,
		&v.VoiceID, &v.Template, &v.BackgroundMusic, &status, &v.Views,
		&v.VideoURL, &v.ThumbnailURL, &v.Edit.TrimStart, &v.Edit.TrimEnd, &overlays,
		&v.Edit.MusicVolume, &filters, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	v.Status = models.VideoStatus(status)
	if len(overlays) > 0 {
		if err := json.Unmarshal(overlays, &v.Edit.TextOverlays); err != nil {
			return nil, fmt.Errorf("decode text_overlays: %w", err)
		}
	}
	if len(filters) > 0 {
		var f models.Filters
		if err := json.Unmarshal(filters, &f); err != nil {
			return nil, fmt.Errorf("decode filters: %w", err)
		}
		v.Edit.Filters = &f
	}
	return &v, nil
}

// marshalNullable encodes v as JSON, or returns nil (SQL NULL) when isNil.
func marshalNullable(v interface{}, isNil bool) ([]byte, error) {
	if isNil {
		return nil, nil
	}
	return json.Marshal(v)
}
