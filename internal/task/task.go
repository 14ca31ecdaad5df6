// Package task runs one cancellable background function, such as the artificial processing delay of a creation flow.
package task

import (
	"context"
	"sync"
	"time"
)

// Task is a single goroutine bound to a cancellable context.
type Task struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Start runs fn in a new goroutine with a context derived from parent.
// fn must return promptly once its context is cancelled.
func Start(parent context.Context, fn func(ctx context.Context) error) *Task {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	t := &Task{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(t.done)
		err := fn(ctx)
		t.mu.Lock()
		t.err = err
		t.mu.Unlock()
		cancel()
	}()
	return t
}

// Cancel stops the task and waits for its goroutine to return. Safe to call more than once.
func (t *Task) Cancel() {
	if t == nil {
		return
	}
	t.cancel()
	<-t.done
}

// Done is closed when the task's function has returned.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the function's result once Done is closed, nil before.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Sleep waits for d or until ctx is done, returning ctx.Err() in the latter case.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
