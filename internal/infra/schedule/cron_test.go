package schedule

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestAddRejectsBadSpec(t *testing.T) {
	r := NewRunner(nil, quiet())
	err := r.Add("backup", "every now and then", func(context.Context) error { return nil })
	assert.Error(t, err)
	assert.Zero(t, r.Len())
}

func TestRunExecutesJobsUntilCancelled(t *testing.T) {
	r := NewRunner(time.UTC, quiet())
	var runs atomic.Int32
	var jobCtx atomic.Value
	require.NoError(t, r.Add("tick", "@every 1s", func(ctx context.Context) error {
		runs.Add(1)
		jobCtx.Store(ctx)
		return nil
	}))
	assert.Equal(t, 1, r.Len())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 20*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	stored, ok := jobCtx.Load().(context.Context)
	require.True(t, ok)
	assert.Error(t, stored.Err(), "job context is cancelled on shutdown")
}
