package creation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/invisireel/backend/internal/models"
	"github.com/invisireel/backend/internal/task"
	"github.com/invisireel/backend/internal/videos"
)

// ErrSubmit is returned when the job row could not be written; the flow stays on its step.
var ErrSubmit = errors.New("could not submit video")

// ErrClosed is returned by Dispatch after Close.
var ErrClosed = errors.New("flow closed")

// RecordWriter is the subset of the video store a flow writes to.
type RecordWriter interface {
	Create(ctx context.Context, in models.NewVideo) (*models.Video, error)
	UpdateStatus(ctx context.Context, userID, id uuid.UUID, upd videos.StatusUpdate) (*models.Video, error)
}

// Flow is one user's wizard session. A nil identity runs the demo path: nothing is written.
type Flow struct {
	id        uuid.UUID
	identity  *models.Identity
	writer    RecordWriter
	processor Processor
	logger    *zap.Logger

	mu       sync.Mutex
	state    State
	pending  *task.Task
	gen      uint64
	closed   bool
	touched  time.Time
	onChange func(*Flow, State)
}

// NewFlow creates a flow on the script step.
func NewFlow(identity *models.Identity, writer RecordWriter, processor Processor, logger *zap.Logger) *Flow {
	if logger == nil {
		logger = zap.NewNop()
	}
	if processor == nil {
		processor = NewSimulatedProcessor(DefaultProcessingDelay, "", "")
	}
	return &Flow{
		id:        uuid.New(),
		identity:  identity.Clone(),
		writer:    writer,
		processor: processor,
		logger:    logger,
		state:     NewState(),
		touched:   time.Now(),
	}
}

// ID returns the flow id.
func (f *Flow) ID() uuid.UUID { return f.id }

// Owner returns the owning identity id, uuid.Nil for demo flows.
func (f *Flow) Owner() uuid.UUID {
	if f.identity == nil {
		return uuid.Nil
	}
	return f.identity.ID
}

// Demo reports whether the flow runs without an identity.
func (f *Flow) Demo() bool { return f.identity == nil }

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// OnChange registers a callback run after every state change, including asynchronous completion.
func (f *Flow) OnChange(fn func(*Flow, State)) {
	f.mu.Lock()
	f.onChange = fn
	f.mu.Unlock()
}

// Dispatch applies a client action. Generate additionally writes the job row (when signed in)
// and starts the cancellable processing task; Reset cancels any pending task.
func (f *Flow) Dispatch(ctx context.Context, a Action) (State, error) {
	f.mu.Lock()
	if f.closed {
		s := f.state
		f.mu.Unlock()
		return s, ErrClosed
	}
	f.touched = time.Now()
	f.mu.Unlock()

	switch a.Type {
	case ActionGenerate:
		return f.generate(ctx)
	case ActionReset:
		f.cancelPending()
	}

	f.mu.Lock()
	next, err := Reduce(f.state, a)
	if err != nil {
		s := f.state
		f.mu.Unlock()
		return s, err
	}
	f.state = next
	f.mu.Unlock()
	f.emit(next)
	return next, nil
}

func (f *Flow) generate(ctx context.Context) (State, error) {
	f.mu.Lock()
	next, err := Reduce(f.state, Action{Type: ActionGenerate})
	if err != nil {
		s := f.state
		f.mu.Unlock()
		return s, err
	}
	// Generating blocks concurrent edits while the row is written.
	f.state = next
	f.gen++
	gen := f.gen
	f.mu.Unlock()
	f.emit(next)

	job := Job{Title: next.Form.TitleOrDefault(), Form: next.Form}
	if f.identity != nil && f.writer != nil {
		row, err := f.writer.Create(ctx, models.NewVideo{
			UserID:          f.identity.ID,
			Title:           job.Title,
			Description:     Summary(next.Form.Script),
			Script:          next.Form.Script,
			Category:        next.Form.Category,
			VoiceID:         next.Form.VoiceID,
			Template:        next.Form.TemplateID,
			BackgroundMusic: next.Form.MusicID,
			Status:          models.VideoStatusProcessing,
		})
		if err != nil {
			f.logger.Error("create video row failed", zap.String("flow_id", f.id.String()), zap.Error(err))
			failed := f.finish(gen, Action{Type: ActionGenerateFailed, Message: MessageGenerateFailed})
			return failed, fmt.Errorf("%w: %v", ErrSubmit, err)
		}
		id := row.ID
		job.JobID = &id
	}

	f.mu.Lock()
	if f.closed || f.gen != gen {
		s := f.state
		f.mu.Unlock()
		// Reset or closed while the row was being written.
		f.updateRow(context.Background(), job, videos.StatusUpdate{Status: models.VideoStatusFailed})
		return s, nil
	}
	f.state.JobID = job.JobID
	next = f.state
	f.pending = task.Start(context.Background(), func(tctx context.Context) error {
		video, err := f.processor.Process(tctx, job)
		if tctx.Err() != nil {
			// Reset or closed: the row will never complete.
			f.updateRow(context.Background(), job, videos.StatusUpdate{Status: models.VideoStatusFailed})
			return tctx.Err()
		}
		f.complete(gen, job, video, err)
		return err
	})
	f.mu.Unlock()

	f.emit(next)
	return next, nil
}

// complete runs on the task goroutine after processing returns without cancellation.
func (f *Flow) complete(gen uint64, job Job, video *GeneratedVideo, procErr error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if !f.current(gen) {
		// Superseded after processing returned: the outcome is dropped.
		f.updateRow(ctx, job, videos.StatusUpdate{Status: models.VideoStatusFailed})
		return
	}

	if procErr != nil || video == nil {
		f.logger.Warn("video processing failed", zap.String("flow_id", f.id.String()), zap.Error(procErr))
		f.updateRow(ctx, job, videos.StatusUpdate{Status: models.VideoStatusFailed})
		f.finish(gen, Action{Type: ActionGenerateFailed, Message: MessageGenerateFailed})
		return
	}
	f.updateRow(ctx, job, videos.StatusUpdate{
		Status:       models.VideoStatusCompleted,
		VideoURL:     video.VideoURL,
		ThumbnailURL: video.ThumbnailURL,
	})
	f.finish(gen, Action{Type: ActionGenerateSucceeded, Video: video})
}

func (f *Flow) updateRow(ctx context.Context, job Job, upd videos.StatusUpdate) {
	if job.JobID == nil || f.writer == nil || f.identity == nil {
		return
	}
	if _, err := f.writer.UpdateStatus(ctx, f.identity.ID, *job.JobID, upd); err != nil {
		f.logger.Warn("update video status failed", zap.String("video_id", job.JobID.String()), zap.Error(err))
	}
}

func (f *Flow) current(gen uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed && f.gen == gen
}

// finish applies a generate outcome if gen is still the live submission and returns the resulting state.
func (f *Flow) finish(gen uint64, a Action) State {
	f.mu.Lock()
	if f.closed || f.gen != gen {
		s := f.state
		f.mu.Unlock()
		return s
	}
	f.pending = nil
	next, err := Reduce(f.state, a)
	if err != nil {
		s := f.state
		f.mu.Unlock()
		return s
	}
	f.state = next
	f.mu.Unlock()
	f.emit(next)
	return next
}

func (f *Flow) cancelPending() {
	f.mu.Lock()
	t := f.pending
	f.pending = nil
	f.gen++
	f.mu.Unlock()
	t.Cancel()
}

// Close cancels pending processing; completion callbacks never run afterwards.
func (f *Flow) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	t := f.pending
	f.pending = nil
	f.gen++
	f.mu.Unlock()
	t.Cancel()
}

// IdleSince returns the time of the last dispatched action.
func (f *Flow) IdleSince() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touched
}

func (f *Flow) emit(s State) {
	f.mu.Lock()
	fn := f.onChange
	f.mu.Unlock()
	if fn != nil {
		fn(f, s)
	}
}
