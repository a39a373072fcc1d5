package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vendalia/opcenter/internal/llm"
	"github.com/vendalia/opcenter/internal/model"
	"github.com/vendalia/opcenter/internal/store"
	"github.com/vendalia/opcenter/pkg/logger"
	"github.com/vendalia/opcenter/pkg/metrics"
)

const defaultSystemPrompt = "You are a helpful sales assistant for an online store. " +
	"Answer the customer's latest message briefly and courteously. " +
	"If the customer asks to speak with a person, say a seller will follow up shortly."

// MessagePublisher publishes processed message records to the event stream.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, msg *model.Message) (uint64, error)
}

// Responder is the built-in processing step: it drafts a bot reply for each
// queue entry using conversation history and appends the reply to message
// history. Per-entry failures are counted without aborting the batch.
type Responder struct {
	store     *store.Store
	client    llm.Client
	publisher MessagePublisher
	system    string
	logger    *logger.Logger
}

// NewResponder creates a bot-responder step. publisher may be nil when no
// event stream is configured.
func NewResponder(st *store.Store, client llm.Client, publisher MessagePublisher, systemPrompt string, log *logger.Logger) *Responder {
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	return &Responder{
		store:     st,
		client:    client,
		publisher: publisher,
		system:    systemPrompt,
		logger:    log.Component("responder"),
	}
}

// Name implements Step.
func (r *Responder) Name() string { return "responder" }

// Process implements Step.
func (r *Responder) Process(ctx context.Context, batch []model.QueueEntry) (*Result, error) {
	result := &Result{}
	for _, entry := range batch {
		if err := r.respond(ctx, entry); err != nil {
			result.Failed++
			r.logger.Warn("failed to respond to queue entry",
				zap.String("entry_id", entry.ID),
				zap.String("conversation_id", entry.ConversationID),
				zap.Error(err),
			)
			continue
		}
		result.Processed++
	}

	detail, err := json.Marshal(map[string]any{
		"step":      r.Name(),
		"provider":  r.client.Name(),
		"processed": result.Processed,
		"failed":    result.Failed,
	})
	if err == nil {
		result.Detail = detail
	}
	return result, nil
}

func (r *Responder) respond(ctx context.Context, entry model.QueueEntry) error {
	history, err := r.store.ListMessages(ctx, entry.ConversationID)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	chat := make([]llm.ChatMessage, 0, len(history)+1)
	for _, msg := range history {
		role := "assistant"
		if msg.SenderRole == model.RoleCustomer {
			role = "user"
		}
		chat = append(chat, llm.ChatMessage{Role: role, Content: msg.Content})
	}
	if entry.Content != "" && (len(chat) == 0 || chat[len(chat)-1].Content != entry.Content) {
		chat = append(chat, llm.ChatMessage{Role: "user", Content: entry.Content})
	}

	resp, err := r.client.Draft(ctx, &llm.DraftRequest{
		System:   r.system,
		Messages: chat,
	})
	if err != nil {
		return fmt.Errorf("draft reply: %w", err)
	}

	reply := &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: entry.ConversationID,
		SenderRole:     model.RoleBot,
		ContentType:    model.ContentText,
		Content:        resp.Content,
		DeliveryStatus: model.DeliveryStatusSent,
		CreatedAt:      time.Now(),
	}
	if err := r.store.AppendMessage(ctx, reply); err != nil {
		return fmt.Errorf("append reply: %w", err)
	}
	metrics.MessagesTotal.WithLabelValues(string(model.RoleBot)).Inc()

	if r.publisher != nil {
		if _, err := r.publisher.PublishMessage(ctx, reply); err != nil {
			r.logger.Warn("failed to publish bot reply",
				zap.String("message_id", reply.ID),
				zap.Error(err),
			)
		}
	}
	return nil
}
