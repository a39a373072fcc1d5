// Package processor defines the processing-step contract invoked once per
// drain pass, plus the built-in step implementations. The queue core treats
// a Step as an opaque, idempotent, retryable black box.
package processor

import (
	"context"
	"encoding/json"

	"github.com/vendalia/opcenter/internal/model"
)

// Result is what a step reports back to the drain pass. Detail carries the
// step's own response shape through to the caller unmodified.
type Result struct {
	Processed int             `json:"processed"`
	Failed    int             `json:"failed"`
	Detail    json.RawMessage `json:"detail,omitempty"`
}

// Step is the per-pass delivery/response logic. Process is handed the claimed
// batch in FIFO order and is invoked exactly once per drain pass.
type Step interface {
	Process(ctx context.Context, batch []model.QueueEntry) (*Result, error)
	Name() string
}

// Func adapts a function to the Step interface, for tests and simple wiring.
type Func func(ctx context.Context, batch []model.QueueEntry) (*Result, error)

// Process implements Step.
func (f Func) Process(ctx context.Context, batch []model.QueueEntry) (*Result, error) {
	return f(ctx, batch)
}

// Name implements Step.
func (f Func) Name() string { return "func" }
