package creation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/invisireel/backend/internal/models"
	"github.com/invisireel/backend/internal/task"
)

// Default placeholder output of the simulated processor.
const (
	DefaultProcessingDelay = 5 * time.Second
	PlaceholderVideoURL    = "https://example.com/sample-video.mp4"
	PlaceholderThumbnail   = "https://via.placeholder.com/400x225/1f2937/ffffff?text=Generated+Video"
)

// Job is what a processor is asked to render.
type Job struct {
	JobID *uuid.UUID
	Title string
	Form  Form
}

// Processor turns a submitted form into a finished video. It must honour ctx cancellation.
type Processor interface {
	Process(ctx context.Context, job Job) (*GeneratedVideo, error)
}

// SimulatedProcessor waits a fixed delay and returns a placeholder video.
type SimulatedProcessor struct {
	Delay        time.Duration
	VideoURL     string
	ThumbnailURL string
}

// NewSimulatedProcessor fills unset fields with the defaults.
func NewSimulatedProcessor(delay time.Duration, videoURL, thumbnailURL string) *SimulatedProcessor {
	if delay < 0 {
		delay = DefaultProcessingDelay
	}
	if videoURL == "" {
		videoURL = PlaceholderVideoURL
	}
	if thumbnailURL == "" {
		thumbnailURL = PlaceholderThumbnail
	}
	return &SimulatedProcessor{Delay: delay, VideoURL: videoURL, ThumbnailURL: thumbnailURL}
}

// Process sleeps for Delay, then reports a completed placeholder video.
func (p *SimulatedProcessor) Process(ctx context.Context, job Job) (*GeneratedVideo, error) {
	if err := task.Sleep(ctx, p.Delay); err != nil {
		return nil, err
	}
	return &GeneratedVideo{
		ID:           job.JobID,
		Title:        job.Title,
		Status:       models.VideoStatusCompleted,
		VideoURL:     p.VideoURL,
		ThumbnailURL: p.ThumbnailURL,
	}, nil
}
