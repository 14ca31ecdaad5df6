// Package uploads receives video binaries for publishing and tracks them until the worker is done.
package uploads

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/invisireel/backend/internal/models"
)

// ErrNotFound is returned for an unknown upload id.
var ErrNotFound = errors.New("upload not found")

// Store persists uploads.
type Store interface {
	Create(ctx context.Context, u models.Upload) (*models.Upload, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Upload, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Upload, error)
	MarkPublished(ctx context.Context, id uuid.UUID, externalID string) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// MemoryStore keeps uploads in process; used when no database is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]models.Upload
	now  func() time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[uuid.UUID]models.Upload), now: time.Now}
}

// Create stores u. A zero ID is assigned; status defaults to queued.
func (m *MemoryStore) Create(_ context.Context, u models.Upload) (*models.Upload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Status == "" {
		u.Status = models.UploadStatusQueued
	}
	if u.Tags == nil {
		u.Tags = []string{}
	}
	now := m.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	m.rows[u.ID] = cloneUpload(u)
	out := cloneUpload(u)
	return &out, nil
}

// Get returns the upload with id.
func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*models.Upload, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneUpload(u)
	return &out, nil
}

// ListByUser returns the user's uploads newest first.
func (m *MemoryStore) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Upload, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Upload{}
	for _, u := range m.rows {
		if u.UserID != nil && *u.UserID == userID {
			out = append(out, cloneUpload(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// MarkPublished records the platform id.
func (m *MemoryStore) MarkPublished(_ context.Context, id uuid.UUID, externalID string) error {
	return m.update(id, func(u *models.Upload) {
		u.Status = models.UploadStatusPublished
		u.ExternalID = externalID
		u.Error = ""
	})
}

// MarkFailed records why publishing stopped.
func (m *MemoryStore) MarkFailed(_ context.Context, id uuid.UUID, reason string) error {
	return m.update(id, func(u *models.Upload) {
		u.Status = models.UploadStatusFailed
		u.Error = reason
	})
}

func (m *MemoryStore) update(id uuid.UUID, fn func(*models.Upload)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = m.now().UTC()
	m.rows[id] = u
	return nil
}

func cloneUpload(u models.Upload) models.Upload {
	u.Tags = append([]string{}, u.Tags...)
	if u.UserID != nil {
		id := *u.UserID
		u.UserID = &id
	}
	return u
}
