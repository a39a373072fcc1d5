package model

import (
	"time"
)

// EventType classifies conversation events published to the event stream.
type EventType string

const (
	EventTypeStatusChanged  EventType = "status_changed"
	EventTypeSellerAssigned EventType = "seller_assigned"
	EventTypeQueueSwept     EventType = "queue_swept"
	EventTypeError          EventType = "error"
)

// ConversationEvent is an event in a conversation's lifecycle.
type ConversationEvent struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	Type           EventType      `json:"type"`
	Reason         string         `json:"reason,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	Sequence       uint64         `json:"sequence,omitempty"`
}
