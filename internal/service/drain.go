package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/vendalia/opcenter/internal/model"
	"github.com/vendalia/opcenter/internal/processor"
	"github.com/vendalia/opcenter/internal/store"
	"github.com/vendalia/opcenter/pkg/logger"
	"github.com/vendalia/opcenter/pkg/metrics"
)

const defaultBatchSize = 50

// Drainer performs one drain pass: claim the FIFO batch of eligible queue
// entries, hand it to the processing step, and consume the batch on success.
//
// Claiming is an atomic mark inside one transaction, so a manual drain and a
// scheduled drain running concurrently never hand the same entry to the step
// twice. A failed pass releases its claim so the next tick retries.
type Drainer struct {
	store     *store.Store
	step      processor.Step
	batchSize int
	logger    *logger.Logger
}

// NewDrainer creates a drainer. batchSize <= 0 selects the default.
func NewDrainer(st *store.Store, step processor.Step, batchSize int, log *logger.Logger) *Drainer {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Drainer{
		store:     st,
		step:      step,
		batchSize: batchSize,
		logger:    log.Component("drainer"),
	}
}

// Drain executes exactly one drain pass and returns its outcome.
func (d *Drainer) Drain(ctx context.Context) (*model.DrainResult, error) {
	ctx, span := otel.Tracer("opcenter").Start(ctx, "queue.drain")
	defer span.End()
	start := time.Now()

	token := uuid.NewString()
	batch, err := d.store.ClaimEligible(ctx, token, d.batchSize)
	if err != nil {
		metrics.RecordDrainPass("failure", time.Since(start).Seconds(), 0, 0)
		return nil, err
	}
	span.SetAttributes(attribute.Int("queue.batch_size", len(batch)))

	if len(batch) == 0 {
		metrics.RecordDrainPass("success", time.Since(start).Seconds(), 0, 0)
		return &model.DrainResult{}, nil
	}

	stepResult, err := d.step.Process(ctx, batch)
	if err != nil {
		if rerr := d.store.ReleaseClaim(ctx, token); rerr != nil {
			d.logger.Error("failed to release claim after step failure",
				zap.String("claim_token", token),
				zap.Error(rerr),
			)
		}
		metrics.RecordDrainPass("failure", time.Since(start).Seconds(), 0, len(batch))
		return nil, &model.UpstreamError{Err: err}
	}

	if _, err := d.store.DeleteClaimed(ctx, token); err != nil {
		if rerr := d.store.ReleaseClaim(ctx, token); rerr != nil {
			d.logger.Error("failed to release claim after delete failure",
				zap.String("claim_token", token),
				zap.Error(rerr),
			)
		}
		metrics.RecordDrainPass("failure", time.Since(start).Seconds(), 0, 0)
		return nil, err
	}

	result := &model.DrainResult{Processed: len(batch)}
	if stepResult != nil {
		result.Detail = stepResult.Detail
		if stepResult.Processed+stepResult.Failed > 0 {
			result.Processed = stepResult.Processed
			result.Failed = stepResult.Failed
		}
	}

	metrics.RecordDrainPass("success", time.Since(start).Seconds(), result.Processed, result.Failed)
	d.logger.Info("drain pass completed",
		zap.Int("claimed", len(batch)),
		zap.Int("processed", result.Processed),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}
