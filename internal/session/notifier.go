package session

import (
	"context"
	"sync"
)

// LocalNotifier delivers events to subscribers in this process, synchronously and in subscription order.
type LocalNotifier struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]func(Event)
	order  map[string][]int
}

// NewLocalNotifier creates an in-process notifier.
func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{
		subs:  make(map[string]map[int]func(Event)),
		order: make(map[string][]int),
	}
}

// Publish calls every handler subscribed to ev.UserKey.
func (n *LocalNotifier) Publish(_ context.Context, ev Event) error {
	n.mu.RLock()
	ids := append([]int(nil), n.order[ev.UserKey]...)
	handlers := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		if h, ok := n.subs[ev.UserKey][id]; ok {
			handlers = append(handlers, h)
		}
	}
	n.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
	return nil
}

// Subscribe registers handler for userKey. The returned cancel is idempotent.
func (n *LocalNotifier) Subscribe(userKey string, handler func(Event)) (func(), error) {
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	if n.subs[userKey] == nil {
		n.subs[userKey] = make(map[int]func(Event))
	}
	n.subs[userKey][id] = handler
	n.order[userKey] = append(n.order[userKey], id)
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { n.remove(userKey, id) })
	}, nil
}

// Subscribers returns how many handlers follow userKey.
func (n *LocalNotifier) Subscribers(userKey string) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs[userKey])
}

func (n *LocalNotifier) remove(userKey string, id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subs[userKey], id)
	ids := n.order[userKey]
	for i, v := range ids {
		if v == id {
			n.order[userKey] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(n.subs[userKey]) == 0 {
		delete(n.subs, userKey)
		delete(n.order, userKey)
	}
}
