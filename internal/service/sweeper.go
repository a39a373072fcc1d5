package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/vendalia/opcenter/internal/model"
	"github.com/vendalia/opcenter/internal/store"
	"github.com/vendalia/opcenter/pkg/logger"
	"github.com/vendalia/opcenter/pkg/metrics"
)

// Sweeper deletes queue entries whose owning conversation has left an
// actionable state: fallback mode enabled or already handed to a seller.
// Eligibility depends only on conversation state at sweep time; entry age is
// never inspected.
type Sweeper struct {
	store  *store.Store
	logger *logger.Logger
}

// NewSweeper creates the cleanup sweeper.
func NewSweeper(st *store.Store, log *logger.Logger) *Sweeper {
	return &Sweeper{
		store:  st,
		logger: log.Component("sweeper"),
	}
}

// Sweep removes every ineligible queue entry. The delete runs as a single
// statement: it completes fully or fails with nothing removed. Running it
// again immediately is safe and finds nothing further to delete.
func (s *Sweeper) Sweep(ctx context.Context) (*model.SweepResult, error) {
	ctx, span := otel.Tracer("opcenter").Start(ctx, "queue.sweep")
	defer span.End()

	deleted, err := s.store.SweepIneligible(ctx)
	if err != nil {
		metrics.RecordSweep("failure", 0)
		s.audit(ctx, false, err.Error())
		return nil, err
	}

	metrics.RecordSweep("success", deleted)
	span.SetAttributes(attribute.Int("queue.swept", deleted))
	s.audit(ctx, true, fmt.Sprintf("deleted %d ineligible queue entries", deleted))

	s.logger.Info("cleanup sweep completed", zap.Int("deleted", deleted))
	return &model.SweepResult{DeletedCount: deleted}, nil
}

// audit records what ran and whether it succeeded. Best-effort: its own
// failure is logged and discarded.
func (s *Sweeper) audit(ctx context.Context, success bool, detail string) {
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.store.RecordAudit(auditCtx, "queue_cleanup", success, detail); err != nil {
		s.logger.Warn("failed to record cleanup audit entry", zap.Error(err))
	}
}
