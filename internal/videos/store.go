package videos

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/invisireel/backend/internal/models"
)

var (
	// ErrNotFound is returned when no video with the id exists for the owner.
	ErrNotFound = errors.New("video not found")
	// ErrInvalidEdit is returned for editor values outside their ranges.
	ErrInvalidEdit = errors.New("invalid edit parameters")
)

// StatusUpdate changes a job's status and, when non-empty, its output URLs.
type StatusUpdate struct {
	Status       models.VideoStatus
	VideoURL     string
	ThumbnailURL string
}

// Store is the video job row store, always scoped to an owner.
type Store interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Video, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Video, error)
	Create(ctx context.Context, in models.NewVideo) (*models.Video, error)
	UpdateEdit(ctx context.Context, userID, id uuid.UUID, edit models.EditParams, music *string) (*models.Video, error)
	UpdateStatus(ctx context.Context, userID, id uuid.UUID, upd StatusUpdate) (*models.Video, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// ComputeStats aggregates dashboard counters from listed rows.
func ComputeStats(list []models.Video) models.VideoStats {
	stats := models.VideoStats{Total: len(list)}
	for _, v := range list {
		switch v.Status {
		case models.VideoStatusCompleted:
			stats.Completed++
		case models.VideoStatusProcessing:
			stats.Processing++
		}
		stats.Views += v.Views
	}
	return stats
}

// ValidateEdit checks editor values: trims are non-negative and ordered, volume in [0,1], filters in [0,200].
func ValidateEdit(e models.EditParams) error {
	if e.TrimStart != nil && *e.TrimStart < 0 {
		return fmt.Errorf("%w: trim_start must be >= 0", ErrInvalidEdit)
	}
	if e.TrimEnd != nil && *e.TrimEnd < 0 {
		return fmt.Errorf("%w: trim_end must be >= 0", ErrInvalidEdit)
	}
	if e.TrimStart != nil && e.TrimEnd != nil && *e.TrimEnd < *e.TrimStart {
		return fmt.Errorf("%w: trim_end must not be before trim_start", ErrInvalidEdit)
	}
	if e.MusicVolume != nil && (*e.MusicVolume < 0 || *e.MusicVolume > 1) {
		return fmt.Errorf("%w: music_volume must be between 0 and 1", ErrInvalidEdit)
	}
	if f := e.Filters; f != nil {
		for name, v := range map[string]int{"brightness": f.Brightness, "contrast": f.Contrast, "saturation": f.Saturation} {
			if v < 0 || v > 200 {
				return fmt.Errorf("%w: %s must be between 0 and 200", ErrInvalidEdit, name)
			}
		}
	}
	for _, o := range e.TextOverlays {
		if o.EndTime < o.StartTime {
			return fmt.Errorf("%w: overlay %q ends before it starts", ErrInvalidEdit, o.ID)
		}
	}
	return nil
}

func cloneVideo(v *models.Video) *models.Video {
	out := *v
	out.Edit = cloneEdit(v.Edit)
	return &out
}

func cloneEdit(e models.EditParams) models.EditParams {
	out := models.EditParams{
		TrimStart:   cloneFloat(e.TrimStart),
		TrimEnd:     cloneFloat(e.TrimEnd),
		MusicVolume: cloneFloat(e.MusicVolume),
	}
	if e.TextOverlays != nil {
		out.TextOverlays = make([]models.TextOverlay, len(e.TextOverlays))
		copy(out.TextOverlays, e.TextOverlays)
	}
	if e.Filters != nil {
		f := *e.Filters
		out.Filters = &f
	}
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
