package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendalia/opcenter/internal/model"
	"github.com/vendalia/opcenter/pkg/logger"
)

type countingDrainer struct {
	passes atomic.Int64
}

func (d *countingDrainer) Drain(context.Context) (*model.DrainResult, error) {
	d.passes.Add(1)
	return &model.DrainResult{}, nil
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestStartRunsImmediatePass(t *testing.T) {
	d := &countingDrainer{}
	s := New(d, time.Hour, time.Second, logger.NewNop())
	defer s.Stop()

	require.True(t, s.Start())
	waitFor(t, time.Second, func() bool { return d.passes.Load() == 1 })
	assert.True(t, s.Running())
}

func TestStartIsIdempotent(t *testing.T) {
	d := &countingDrainer{}
	s := New(d, 20*time.Millisecond, time.Second, logger.NewNop())
	defer s.Stop()

	require.True(t, s.Start())
	assert.False(t, s.Start())
	assert.False(t, s.Start())

	// A single loop is ticking: pass count grows steadily, not in multiples.
	waitFor(t, time.Second, func() bool { return d.passes.Load() >= 3 })
}

func TestStopHaltsFuturePasses(t *testing.T) {
	d := &countingDrainer{}
	s := New(d, 10*time.Millisecond, time.Second, logger.NewNop())

	require.True(t, s.Start())
	waitFor(t, time.Second, func() bool { return d.passes.Load() >= 2 })
	s.Stop()
	assert.False(t, s.Running())

	after := d.passes.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, d.passes.Load(), "no pass after Stop returns")

	// Stop on a stopped scheduler is a no-op.
	s.Stop()

	// The scheduler can be started again after a stop.
	require.True(t, s.Start())
	waitFor(t, time.Second, func() bool { return d.passes.Load() > after })
	s.Stop()
}

func TestTriggerOnceWorksWithoutLoop(t *testing.T) {
	d := &countingDrainer{}
	s := New(d, time.Hour, time.Second, logger.NewNop())

	result, err := s.TriggerOnce(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.EqualValues(t, 1, d.passes.Load())
	assert.False(t, s.Running(), "manual trigger does not start the loop")
}

func TestTriggerOnceWhileLoopRunning(t *testing.T) {
	d := &countingDrainer{}
	s := New(d, 10*time.Millisecond, time.Second, logger.NewNop())
	defer s.Stop()

	require.True(t, s.Start())
	for i := 0; i < 5; i++ {
		_, err := s.TriggerOnce(context.Background())
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, d.passes.Load(), int64(5))
}

func TestDefaultsApplied(t *testing.T) {
	s := New(&countingDrainer{}, 0, 0, logger.NewNop())
	assert.Equal(t, DefaultInterval, s.interval)
	assert.Equal(t, DefaultPassTimeout, s.passTimeout)
}
