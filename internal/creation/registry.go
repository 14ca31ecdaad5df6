package creation

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/invisireel/backend/internal/models"
)

// ErrFlowNotFound is returned for unknown ids and for flows owned by someone else.
var ErrFlowNotFound = errors.New("flow not found")

// Registry holds live flows by id (thread-safe).
type Registry struct {
	writer    RecordWriter
	processor Processor
	logger    *zap.Logger
	onChange  func(*Flow, State)

	mu    sync.RWMutex
	flows map[uuid.UUID]*Flow
}

// NewRegistry creates a registry whose flows share writer and processor.
func NewRegistry(writer RecordWriter, processor Processor, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		writer:    writer,
		processor: processor,
		logger:    logger,
		flows:     make(map[uuid.UUID]*Flow),
	}
}

// OnChange sets a callback attached to every flow created afterwards.
func (r *Registry) OnChange(fn func(*Flow, State)) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// Create starts a new flow for identity (nil for demo mode).
func (r *Registry) Create(identity *models.Identity) *Flow {
	f := NewFlow(identity, r.writer, r.processor, r.logger)
	r.mu.Lock()
	if r.onChange != nil {
		f.OnChange(r.onChange)
	}
	r.flows[f.ID()] = f
	r.mu.Unlock()
	r.logger.Debug("creation flow started", zap.String("flow_id", f.ID().String()), zap.Bool("demo", f.Demo()))
	return f
}

// Get returns the flow if owner matches its owner (uuid.Nil for demo flows).
func (r *Registry) Get(id, owner uuid.UUID) (*Flow, error) {
	r.mu.RLock()
	f := r.flows[id]
	r.mu.RUnlock()
	if f == nil || f.Owner() != owner {
		return nil, ErrFlowNotFound
	}
	return f, nil
}

// Close cancels and removes one flow.
func (r *Registry) Close(id, owner uuid.UUID) error {
	r.mu.Lock()
	f := r.flows[id]
	if f == nil || f.Owner() != owner {
		r.mu.Unlock()
		return ErrFlowNotFound
	}
	delete(r.flows, id)
	r.mu.Unlock()
	f.Close()
	return nil
}

// CloseAll cancels every flow; used at shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	flows := r.flows
	r.flows = make(map[uuid.UUID]*Flow)
	r.mu.Unlock()
	for _, f := range flows {
		f.Close()
	}
	if len(flows) > 0 {
		r.logger.Info("creation flows closed", zap.Int("count", len(flows)))
	}
}

// Sweep closes flows idle for longer than maxAge and returns how many were removed.
func (r *Registry) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	var stale []*Flow
	r.mu.Lock()
	for id, f := range r.flows {
		if f.IdleSince().Before(cutoff) && !f.State().Generating {
			stale = append(stale, f)
			delete(r.flows, id)
		}
	}
	r.mu.Unlock()
	for _, f := range stale {
		f.Close()
	}
	return len(stale)
}

// Len returns the number of live flows.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.flows)
}
