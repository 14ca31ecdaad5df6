package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invisireel/backend/internal/models"
)

type fakeProvider struct {
	mu         sync.Mutex
	identities map[string]*models.Identity
	signedOut  []string
	signOutErr error
	sessionErr error
}

func (f *fakeProvider) Session(_ context.Context, token string) (*models.Identity, error) {
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.identities[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return id, nil
}

func (f *fakeProvider) SignOut(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signedOut = append(f.signedOut, token)
	return f.signOutErr
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) add(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func newIdentity() *models.Identity {
	return &models.Identity{ID: uuid.New(), Email: "creator@example.com", Metadata: map[string]interface{}{"full_name": "Creator"}}
}

func TestStartWithoutProviderIsDemoMode(t *testing.T) {
	rec := &recorder{}
	s := NewStore(nil, NewLocalNotifier(), "anything", nil)
	s.OnChange(rec.add)
	s.Start(context.Background())
	defer s.Close()

	assert.Nil(t, s.Identity())
	assert.Equal(t, []EventType{EventInitialSession}, rec.types())
}

func TestStartWithUnreachableProviderIsNotAFailure(t *testing.T) {
	p := &fakeProvider{sessionErr: errors.New("dial tcp: connection refused")}
	s := NewStore(p, NewLocalNotifier(), "tok", nil)
	s.Start(context.Background())
	defer s.Close()

	assert.Nil(t, s.Identity())
}

func TestStartLoadsIdentityAndSubscribes(t *testing.T) {
	id := newIdentity()
	p := &fakeProvider{identities: map[string]*models.Identity{"tok": id}}
	n := NewLocalNotifier()

	s := NewStore(p, n, "tok", nil)
	s.Start(context.Background())

	got := s.Identity()
	require.NotNil(t, got)
	assert.Equal(t, id.ID, got.ID)
	assert.Equal(t, 1, n.Subscribers(id.Key()))

	s.Close()
	assert.Equal(t, 0, n.Subscribers(id.Key()))
}

func TestNotificationsReplaceIdentity(t *testing.T) {
	id := newIdentity()
	p := &fakeProvider{identities: map[string]*models.Identity{"tok": id}}
	n := NewLocalNotifier()
	rec := &recorder{}

	s := NewStore(p, n, "tok", nil)
	s.OnChange(rec.add)
	s.Start(context.Background())
	defer s.Close()

	updated := id.Clone()
	updated.Metadata["full_name"] = "Renamed"
	require.NoError(t, n.Publish(context.Background(), Event{Type: EventUserUpdated, UserKey: id.Key(), Identity: updated}))
	assert.Equal(t, "Renamed", s.Identity().DisplayName())

	require.NoError(t, n.Publish(context.Background(), Event{Type: EventSignedOut, UserKey: id.Key()}))
	assert.Nil(t, s.Identity())
	assert.Equal(t, []EventType{EventInitialSession, EventUserUpdated, EventSignedOut}, rec.types())
}

func TestSignOutClearsIdentityAndNotifiesOtherStores(t *testing.T) {
	id := newIdentity()
	p := &fakeProvider{identities: map[string]*models.Identity{"tab1": id, "tab2": id}}
	n := NewLocalNotifier()
	rec1, rec2 := &recorder{}, &recorder{}

	s1 := NewStore(p, n, "tab1", nil)
	s1.OnChange(rec1.add)
	s1.Start(context.Background())
	defer s1.Close()
	s2 := NewStore(p, n, "tab2", nil)
	s2.OnChange(rec2.add)
	s2.Start(context.Background())
	defer s2.Close()

	require.NoError(t, s1.SignOut(context.Background()))

	assert.Equal(t, []string{"tab1"}, p.signedOut)
	assert.Nil(t, s1.Identity())
	assert.Nil(t, s2.Identity())
	assert.Equal(t, []EventType{EventInitialSession, EventSignedOut}, rec1.types())
	assert.Equal(t, []EventType{EventInitialSession, EventSignedOut}, rec2.types())
}

func TestSignOutProviderErrorStillClears(t *testing.T) {
	id := newIdentity()
	p := &fakeProvider{identities: map[string]*models.Identity{"tok": id}, signOutErr: errors.New("network")}
	s := NewStore(p, nil, "tok", nil)
	s.Start(context.Background())

	err := s.SignOut(context.Background())
	assert.Error(t, err)
	assert.Nil(t, s.Identity())
}

func TestClosedStoreIgnoresEvents(t *testing.T) {
	id := newIdentity()
	p := &fakeProvider{identities: map[string]*models.Identity{"tok": id}}
	n := NewLocalNotifier()
	rec := &recorder{}

	s := NewStore(p, n, "tok", nil)
	s.OnChange(rec.add)
	s.Start(context.Background())
	s.Close()
	s.Close()

	require.NoError(t, n.Publish(context.Background(), Event{Type: EventSignedOut, UserKey: id.Key()}))
	assert.NotNil(t, s.Identity())
	assert.Equal(t, []EventType{EventInitialSession}, rec.types())
}

func TestLocalNotifierCancelIsIdempotent(t *testing.T) {
	n := NewLocalNotifier()
	calls := 0
	cancel, err := n.Subscribe("u", func(Event) { calls++ })
	require.NoError(t, err)
	other, _ := n.Subscribe("u", func(Event) {})

	require.NoError(t, n.Publish(context.Background(), Event{UserKey: "u"}))
	cancel()
	cancel()
	require.NoError(t, n.Publish(context.Background(), Event{UserKey: "u"}))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, n.Subscribers("u"))
	other()
	assert.Equal(t, 0, n.Subscribers("u"))
}
