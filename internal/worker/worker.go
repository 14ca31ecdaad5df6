// Package worker publishes received uploads to the social video platform.
package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/invisireel/backend/internal/models"
	"github.com/invisireel/backend/pkg/queue"
)

// Uploads is the upload row store. uploads.Store implements it.
type Uploads interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Upload, error)
	MarkPublished(ctx context.Context, id uuid.UUID, externalID string) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// Objects opens stored binaries. *storage.S3 implements it.
type Objects interface {
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// Jobs is the publish queue. *queue.Queue implements it.
type Jobs interface {
	Dequeue(ctx context.Context) (*queue.Job, string, error)
	Retry(ctx context.Context, job *queue.Job) (bool, error)
}

// Metadata describes a video to publish.
type Metadata struct {
	Title       string
	Description string
	Tags        []string
}

// Publisher inserts a video on the platform and returns its id.
type Publisher interface {
	Publish(ctx context.Context, meta Metadata, media io.Reader) (string, error)
}

// PublishProcessor processes publish jobs: open the stored upload, insert it on the platform, update the row.
type PublishProcessor struct {
	uploads   Uploads
	objects   Objects
	publisher Publisher
	queue     Jobs
	backoff   time.Duration
	logger    *zap.Logger
}

// NewPublishProcessor creates a publish processor.
func NewPublishProcessor(uploads Uploads, objects Objects, publisher Publisher, q Jobs, logger *zap.Logger) *PublishProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublishProcessor{
		uploads:   uploads,
		objects:   objects,
		publisher: publisher,
		queue:     q,
		backoff:   queue.RetryBackoff,
		logger:    logger,
	}
}

// Process executes one publish job.
func (p *PublishProcessor) Process(ctx context.Context, job *queue.Job) error {
	payload, err := job.DecodePublish()
	if err != nil {
		return err
	}

	u, err := p.uploads.Get(ctx, payload.UploadID)
	if err != nil {
		return fmt.Errorf("load upload %s: %w", payload.UploadID, err)
	}
	if u.Status == models.UploadStatusPublished {
		p.logger.Info("upload already published", zap.String("upload_id", u.ID.String()))
		return nil
	}

	key := payload.S3Key
	if key == "" {
		key = u.S3Key
	}
	body, _, err := p.objects.Open(ctx, key)
	if err != nil {
		return fmt.Errorf("open object: %w", err)
	}
	defer body.Close()

	externalID, err := p.publisher.Publish(ctx, Metadata{Title: u.Title, Description: u.Description, Tags: u.Tags}, body)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	if err := p.uploads.MarkPublished(ctx, u.ID, externalID); err != nil {
		p.logger.Error("mark upload published failed", zap.Error(err), zap.String("upload_id", u.ID.String()))
		return fmt.Errorf("update db: %w", err)
	}

	p.logger.Info("upload published", zap.String("upload_id", u.ID.String()), zap.String("external_id", externalID))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error. Jobs out of retries mark their upload failed.
func (p *PublishProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("publish worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			p.retry(ctx, job, err)
			p.sleep(ctx)
		}
	}
}

func (p *PublishProcessor) retry(ctx context.Context, job *queue.Job, cause error) {
	dead, err := p.queue.Retry(ctx, job)
	if err != nil {
		p.logger.Error("retry enqueue failed", zap.Error(err))
		return
	}
	if !dead {
		return
	}
	payload, err := job.DecodePublish()
	if err != nil {
		return
	}
	if err := p.uploads.MarkFailed(ctx, payload.UploadID, cause.Error()); err != nil {
		p.logger.Error("mark upload failed", zap.Error(err), zap.String("upload_id", payload.UploadID.String()))
	}
}

func (p *PublishProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
