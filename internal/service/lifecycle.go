// Package service provides the operation center's core business logic: the
// conversation lifecycle state machine, message intake, queue draining, and
// queue cleanup.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vendalia/opcenter/internal/model"
	"github.com/vendalia/opcenter/internal/store"
	"github.com/vendalia/opcenter/pkg/logger"
	"github.com/vendalia/opcenter/pkg/metrics"
)

// EventPublisher publishes lifecycle events to the event stream. Publishing
// is best-effort: failures are logged, never surfaced to the caller.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *model.ConversationEvent) (uint64, error)
}

// Lifecycle validates and applies conversation status transitions.
//
// The status graph is deliberately open: any status may follow any other.
// The only enforced constraints are structural: the target must be a legal
// status value, and seller-bound statuses require a prior seller assignment.
type Lifecycle struct {
	store  *store.Store
	events EventPublisher
	logger *logger.Logger
}

// NewLifecycle creates the lifecycle service. events may be nil.
func NewLifecycle(st *store.Store, events EventPublisher, log *logger.Logger) *Lifecycle {
	return &Lifecycle{
		store:  st,
		events: events,
		logger: log.Component("lifecycle"),
	}
}

// Transition moves a conversation to the target status.
//
// Fails with model.ErrPrecondition when target is not a legal status value
// or when a seller-bound target is requested without an assigned seller, and
// with model.ErrNotFound when the conversation does not exist. Any failure
// leaves the stored conversation unchanged.
//
// A transition into a status outside the seller-bound set clears the seller
// assignment, so the assignment is non-null exactly when the status requires
// it.
func (l *Lifecycle) Transition(ctx context.Context, conversationID string, target model.Status) (*model.Conversation, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", model.ErrPrecondition, target)
	}

	conv, err := l.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if target.RequiresSeller() && conv.AssignedSeller == nil {
		return nil, fmt.Errorf("%w: status %q requires an assigned seller", model.ErrPrecondition, target)
	}

	patch := model.ConversationPatch{Status: &target}
	if !target.RequiresSeller() {
		patch.ClearSeller = true
	}

	updated, err := l.store.UpdateConversation(ctx, conversationID, patch)
	if err != nil {
		return nil, err
	}
	metrics.TransitionsTotal.WithLabelValues(string(target)).Inc()

	l.publish(ctx, &model.ConversationEvent{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		Type:           model.EventTypeStatusChanged,
		Metadata: map[string]any{
			"from": string(conv.Status),
			"to":   string(target),
		},
		CreatedAt: time.Now(),
	})

	l.logger.Info("conversation transitioned",
		zap.String("conversation_id", conversationID),
		zap.String("from", string(conv.Status)),
		zap.String("to", string(target)),
	)
	return updated, nil
}

// AssignSeller records the seller hand-off target. This is the separate
// prior operation required before a transition into a seller-bound status.
func (l *Lifecycle) AssignSeller(ctx context.Context, conversationID, sellerID string) (*model.Conversation, error) {
	if sellerID == "" {
		return nil, fmt.Errorf("%w: seller id must not be empty", model.ErrPrecondition)
	}

	updated, err := l.store.UpdateConversation(ctx, conversationID, model.ConversationPatch{
		AssignedSeller: &sellerID,
	})
	if err != nil {
		return nil, err
	}

	l.publish(ctx, &model.ConversationEvent{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		Type:           model.EventTypeSellerAssigned,
		Metadata:       map[string]any{"seller_id": sellerID},
		CreatedAt:      time.Now(),
	})
	return updated, nil
}

// SetFallbackMode flips the per-conversation bypass of automated handling.
// Entries already queued become ineligible immediately; the sweeper removes
// them on its next run.
func (l *Lifecycle) SetFallbackMode(ctx context.Context, conversationID string, enabled bool) (*model.Conversation, error) {
	return l.store.UpdateConversation(ctx, conversationID, model.ConversationPatch{
		FallbackMode: &enabled,
	})
}

func (l *Lifecycle) publish(ctx context.Context, event *model.ConversationEvent) {
	if l.events == nil {
		return
	}
	if _, err := l.events.PublishEvent(ctx, event); err != nil {
		l.logger.Warn("failed to publish lifecycle event",
			zap.String("conversation_id", event.ConversationID),
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}
