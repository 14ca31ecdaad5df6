package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/invisireel/backend/internal/models"
)

// Store caches the identity behind one access token and follows changes pushed for that user.
// A nil provider or an empty token means demo mode: the store simply has no identity.
type Store struct {
	provider Provider
	notifier Notifier
	logger   *zap.Logger

	mu       sync.RWMutex
	token    string
	identity *models.Identity
	userKey  string
	onChange func(Event)
	cancel   func()
	started  bool
	closed   bool
}

// NewStore creates a store for token. Call Start to load the session and Close to unsubscribe.
func NewStore(provider Provider, notifier Notifier, token string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{provider: provider, notifier: notifier, token: token, logger: logger}
}

// OnChange sets the callback invoked after every identity change, including the initial load.
func (s *Store) OnChange(fn func(Event)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Start fetches the session once and subscribes to changes for the resolved user.
// Provider failures leave the store without identity; they are logged, never returned.
func (s *Store) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	token := s.token
	s.mu.Unlock()

	var identity *models.Identity
	if s.provider != nil && token != "" {
		id, err := s.provider.Session(ctx, token)
		if err != nil {
			s.logger.Warn("initial session unavailable; continuing without identity", zap.Error(err))
		} else {
			identity = id
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.identity = identity.Clone()
	s.userKey = identity.Key()
	key := s.userKey
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(Event{Type: EventInitialSession, UserKey: key, Identity: identity.Clone()})
	}

	if s.notifier == nil || key == "" {
		return
	}
	cancel, err := s.notifier.Subscribe(key, s.handle)
	if err != nil {
		s.logger.Warn("session change subscription failed", zap.String("user", key), zap.Error(err))
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return
	}
	s.cancel = cancel
	s.mu.Unlock()
}

// Identity returns a copy of the cached identity, nil when signed out or in demo mode.
func (s *Store) Identity() *models.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity.Clone()
}

// SignOut asks the provider to invalidate the token, then clears the cached identity and
// notifies other stores of the same user. The cache is cleared even when the provider call fails.
func (s *Store) SignOut(ctx context.Context) error {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	var err error
	if s.provider != nil && token != "" {
		if perr := s.provider.SignOut(ctx, token); perr != nil {
			err = fmt.Errorf("provider sign out: %w", perr)
		}
	}

	s.mu.Lock()
	had := s.identity != nil
	s.identity = nil
	s.token = ""
	key := s.userKey
	fn := s.onChange
	s.mu.Unlock()

	if !had {
		return err
	}
	ev := Event{Type: EventSignedOut, UserKey: key}
	if fn != nil {
		fn(ev)
	}
	if s.notifier != nil {
		if perr := s.notifier.Publish(ctx, ev); perr != nil {
			s.logger.Warn("publish sign out failed", zap.String("user", key), zap.Error(perr))
		}
	}
	return err
}

// Close unsubscribes from notifications. Safe to call more than once.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Store) handle(ev Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if ev.Identity == nil && s.identity == nil {
		s.mu.Unlock()
		return
	}
	s.identity = ev.Identity.Clone()
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(ev)
	}
}
