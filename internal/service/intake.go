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

// Intake handles conversation creation and inbound message recording. Every
// inbound message is appended to history and mirrored into the processing
// queue.
type Intake struct {
	store  *store.Store
	logger *logger.Logger
}

// NewIntake creates the intake service.
func NewIntake(st *store.Store, log *logger.Logger) *Intake {
	return &Intake{
		store:  st,
		logger: log.Component("intake"),
	}
}

// OpenConversation returns the conversation for a channel address, creating
// it in bot_attending on first contact.
func (i *Intake) OpenConversation(ctx context.Context, req *model.CreateConversationRequest) (*model.Conversation, error) {
	if req.ChannelAddress == "" {
		return nil, fmt.Errorf("%w: channel address must not be empty", model.ErrPrecondition)
	}

	existing, err := i.store.GetConversationByChannelAddress(ctx, req.ChannelAddress)
	if err == nil {
		return existing, nil
	}
	if !model.IsNotFound(err) {
		return nil, err
	}

	now := time.Now()
	conv := &model.Conversation{
		ID:             uuid.Must(uuid.NewV7()).String(),
		CustomerName:   req.CustomerName,
		ChannelAddress: req.ChannelAddress,
		Status:         model.StatusBotAttending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := i.store.InsertConversation(ctx, conv); err != nil {
		return nil, err
	}
	metrics.ConversationsTotal.Inc()

	i.logger.Info("conversation opened",
		zap.String("conversation_id", conv.ID),
		zap.String("channel_address", conv.ChannelAddress),
	)
	return conv, nil
}

// RecordInbound appends a message to history and enqueues a matching queue
// entry for automated processing. The owning conversation must exist.
func (i *Intake) RecordInbound(ctx context.Context, conversationID string, req *model.SendMessageRequest) (*model.Message, *model.QueueEntry, error) {
	if _, err := i.store.GetConversation(ctx, conversationID); err != nil {
		return nil, nil, err
	}

	role := req.SenderRole
	if role == "" {
		role = model.RoleCustomer
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = model.ContentText
	}

	now := time.Now()
	msg := &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		SenderRole:     role,
		ContentType:    contentType,
		Content:        req.Content,
		DeliveryStatus: model.DeliveryStatusSent,
		CreatedAt:      now,
	}
	if err := i.store.AppendMessage(ctx, msg); err != nil {
		return nil, nil, err
	}
	metrics.MessagesTotal.WithLabelValues(string(role)).Inc()

	entry := &model.QueueEntry{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		Content:        req.Content,
		EnqueuedAt:     now,
	}
	if err := i.store.Enqueue(ctx, entry); err != nil {
		return msg, nil, err
	}
	return msg, entry, nil
}

// History returns a conversation's message history in creation order.
func (i *Intake) History(ctx context.Context, conversationID string) ([]model.Message, error) {
	if _, err := i.store.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	return i.store.ListMessages(ctx, conversationID)
}
