package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/vendalia/opcenter/internal/model"
)

const (
	// StreamName is the name of the operation-center event stream.
	StreamName = "OPCENTER"

	// SubjectPrefix is the prefix for all operation-center subjects.
	SubjectPrefix = "opcenter"
)

// StreamManager handles JetStream stream operations. Downstream projections
// (dashboards, metrics feeds, seller-performance views) consume this stream;
// the core only publishes to it.
type StreamManager struct {
	client *Client
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client}
}

// EnsureStream ensures the event stream exists with proper configuration.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	js := m.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Conversation messages and lifecycle events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// MessageSubject returns the subject for a message record.
func MessageSubject(conversationID string, role model.SenderRole) string {
	return fmt.Sprintf("%s.conv.%s.msg.%s", SubjectPrefix, conversationID, role)
}

// EventSubject returns the subject for a lifecycle event.
func EventSubject(conversationID string, eventType model.EventType) string {
	return fmt.Sprintf("%s.conv.%s.event.%s", SubjectPrefix, conversationID, eventType)
}

// PublishMessage publishes a message record to JetStream.
func (m *StreamManager) PublishMessage(ctx context.Context, msg *model.Message) (uint64, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal message: %w", err)
	}

	ack, err := m.client.JetStream().Publish(ctx, MessageSubject(msg.ConversationID, msg.SenderRole), data)
	if err != nil {
		return 0, fmt.Errorf("failed to publish message: %w", err)
	}
	return ack.Sequence, nil
}

// PublishEvent publishes a lifecycle event to JetStream.
func (m *StreamManager) PublishEvent(ctx context.Context, event *model.ConversationEvent) (uint64, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal event: %w", err)
	}

	ack, err := m.client.JetStream().Publish(ctx, EventSubject(event.ConversationID, event.Type), data)
	if err != nil {
		return 0, fmt.Errorf("failed to publish event: %w", err)
	}
	return ack.Sequence, nil
}
