package task

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskCompletes(t *testing.T) {
	want := errors.New("boom")
	tk := Start(context.Background(), func(ctx context.Context) error { return want })

	select {
	case <-tk.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not finish")
	}
	assert.Equal(t, want, tk.Err())
}

func TestCancelStopsSleepBeforeCompletion(t *testing.T) {
	var completed atomic.Bool
	tk := Start(context.Background(), func(ctx context.Context) error {
		if err := Sleep(ctx, time.Hour); err != nil {
			return err
		}
		completed.Store(true)
		return nil
	})

	tk.Cancel()
	tk.Cancel()

	assert.False(t, completed.Load())
	assert.ErrorIs(t, tk.Err(), context.Canceled)
}

func TestParentCancellationPropagates(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	tk := Start(parent, func(ctx context.Context) error { return Sleep(ctx, time.Hour) })
	cancel()

	select {
	case <-tk.Done():
	case <-time.After(time.Second):
		t.Fatal("task ignored parent cancellation")
	}
	require.ErrorIs(t, tk.Err(), context.Canceled)
}

func TestSleepZeroDuration(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, 0), context.Canceled)
}

func TestNilTaskCancel(t *testing.T) {
	var tk *Task
	assert.NotPanics(t, tk.Cancel)
}
