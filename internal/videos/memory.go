package videos

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/invisireel/backend/internal/models"
)

// MemoryStore keeps rows in process. Used when no database is configured and in tests.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]*memoryRow
	seq  int64
	now  func() time.Time
}

type memoryRow struct {
	video models.Video
	seq   int64
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[uuid.UUID]*memoryRow), now: time.Now}
}

func (s *MemoryStore) List(_ context.Context, userID uuid.UUID) ([]models.Video, error) {
	s.mu.RLock()
	rows := make([]*memoryRow, 0, len(s.rows))
	for _, r := range s.rows {
		if r.video.UserID == userID {
			rows = append(rows, r)
		}
	}
	s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.video.CreatedAt.Equal(b.video.CreatedAt) {
			return a.video.CreatedAt.After(b.video.CreatedAt)
		}
		return a.seq > b.seq
	})
	list := make([]models.Video, 0, len(rows))
	for _, r := range rows {
		list = append(list, *cloneVideo(&r.video))
	}
	return list, nil
}

func (s *MemoryStore) Get(_ context.Context, userID, id uuid.UUID) (*models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rows[id]
	if !ok || r.video.UserID != userID {
		return nil, ErrNotFound
	}
	return cloneVideo(&r.video), nil
}

func (s *MemoryStore) Create(_ context.Context, in models.NewVideo) (*models.Video, error) {
	now := s.now().UTC()
	status := in.Status
	if status == "" {
		status = models.VideoStatusPending
	}
	v := models.Video{
		ID:              uuid.New(),
		UserID:          in.UserID,
		Title:           in.Title,
		Description:     in.Description,
		Script:          in.Script,
		Category:        in.Category,
		VoiceID:         in.VoiceID,
		Template:        in.Template,
		BackgroundMusic: in.BackgroundMusic,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.mu.Lock()
	s.seq++
	s.rows[v.ID] = &memoryRow{video: v, seq: s.seq}
	s.mu.Unlock()
	return cloneVideo(&v), nil
}

func (s *MemoryStore) UpdateEdit(_ context.Context, userID, id uuid.UUID, edit models.EditParams, music *string) (*models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok || r.video.UserID != userID {
		return nil, ErrNotFound
	}
	r.video.Edit = cloneEdit(edit)
	if music != nil {
		r.video.BackgroundMusic = *music
	}
	r.video.UpdatedAt = s.now().UTC()
	return cloneVideo(&r.video), nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, userID, id uuid.UUID, upd StatusUpdate) (*models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok || r.video.UserID != userID {
		return nil, ErrNotFound
	}
	r.video.Status = upd.Status
	if upd.VideoURL != "" {
		r.video.VideoURL = upd.VideoURL
	}
	if upd.ThumbnailURL != "" {
		r.video.ThumbnailURL = upd.ThumbnailURL
	}
	r.video.UpdatedAt = s.now().UTC()
	return cloneVideo(&r.video), nil
}

func (s *MemoryStore) Delete(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok || r.video.UserID != userID {
		return ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

// SetViews overwrites a row's view counter. Views are maintained by the hosting platform, not by this service.
func (s *MemoryStore) SetViews(id uuid.UUID, views int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rows[id]; ok {
		r.video.Views = views
	}
}
