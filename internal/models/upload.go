package models

import (
	"time"

	"github.com/google/uuid"
)

// UploadStatus tracks a received upload through publishing.
type UploadStatus string

const (
	UploadStatusQueued    UploadStatus = "queued"
	UploadStatusPublished UploadStatus = "published"
	UploadStatusFailed    UploadStatus = "failed"
)

// Upload is a video binary received for publishing to the social video platform.
type Upload struct {
	ID          uuid.UUID    `json:"id"`
	UserID      *uuid.UUID   `json:"user_id,omitempty"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Tags        []string     `json:"tags"`
	S3Key       string       `json:"s3_key"`
	FileSize    int64        `json:"file_size"`
	Status      UploadStatus `json:"status"`
	ExternalID  string       `json:"external_id,omitempty"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// ExternalURL returns the watch URL once published.
func (u *Upload) ExternalURL() string {
	if u.ExternalID == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + u.ExternalID
}
