// Package scheduler drives the queue drain cadence. One Scheduler owns one
// periodic loop; the handle is explicit so independent instances can run in
// tests without cross-test interference.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vendalia/opcenter/internal/model"
	"github.com/vendalia/opcenter/pkg/logger"
)

const (
	// DefaultInterval is the cadence between drain passes.
	DefaultInterval = 15 * time.Second

	// DefaultPassTimeout bounds a single pass so a hung processing step
	// cannot wedge the loop.
	DefaultPassTimeout = 60 * time.Second
)

// Drainer performs one drain pass.
type Drainer interface {
	Drain(ctx context.Context) (*model.DrainResult, error)
}

// Scheduler repeatedly invokes the drainer at a fixed interval. A pass
// failure is logged and the ticker continues undisturbed; there is no
// backoff and the loop never crashes on a failed pass.
type Scheduler struct {
	drainer     Drainer
	interval    time.Duration
	passTimeout time.Duration
	logger      *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a scheduler. Non-positive durations select the defaults.
func New(drainer Drainer, interval, passTimeout time.Duration, log *logger.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if passTimeout <= 0 {
		passTimeout = DefaultPassTimeout
	}
	return &Scheduler{
		drainer:     drainer,
		interval:    interval,
		passTimeout: passTimeout,
		logger:      log.Component("scheduler"),
	}
}

// Start launches the periodic loop, performing one pass immediately. It is
// idempotent: calling Start while the loop is running returns false and does
// not spawn a second loop.
func (s *Scheduler) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, s.done)

	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))
	return true
}

// Stop cancels future passes and waits for the loop goroutine to exit. An
// in-flight pass is not interrupted; it runs under its own timeout context.
// After Stop returns, no further pass occurs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("scheduler stopped")
}

// Running reports whether the periodic loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// TriggerOnce performs exactly one drain pass synchronously and returns its
// outcome. Safe to call while the periodic loop is running: the store-level
// claim keeps concurrent passes from double-processing an entry.
func (s *Scheduler) TriggerOnce(ctx context.Context) (*model.DrainResult, error) {
	return s.drainer.Drain(ctx)
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	s.pass()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pass()
		}
	}
}

// pass runs one drain under its own timeout, detached from the loop context
// so Stop never cancels work already in flight.
func (s *Scheduler) pass() {
	ctx, cancel := context.WithTimeout(context.Background(), s.passTimeout)
	defer cancel()

	result, err := s.drainer.Drain(ctx)
	if err != nil {
		s.logger.Error("scheduled drain pass failed", zap.Error(err))
		return
	}
	if result.Processed > 0 || result.Failed > 0 {
		s.logger.Info("scheduled drain pass completed",
			zap.Int("processed", result.Processed),
			zap.Int("failed", result.Failed),
		)
	}
}
