package model

import (
	"time"
)

// SenderRole identifies who authored a message.
type SenderRole string

const (
	RoleCustomer SenderRole = "customer"
	RoleBot      SenderRole = "bot"
	RoleSeller   SenderRole = "seller"
	RoleSystem   SenderRole = "system"
)

// ContentType is the media type of a message.
type ContentType string

const (
	ContentText     ContentType = "text"
	ContentImage    ContentType = "image"
	ContentAudio    ContentType = "audio"
	ContentVideo    ContentType = "video"
	ContentDocument ContentType = "document"
	ContentLocation ContentType = "location"
	ContentReaction ContentType = "reaction"
)

// DeliveryStatusSent is the default delivery status for new messages. The
// field itself is free-form so channel transports can write their own values.
const DeliveryStatusSent = "sent"

// Message is the delivered/historical record of a conversation message,
// distinct from a queue entry. Append-only; after creation only the delivery
// status may change.
type Message struct {
	ID             string      `json:"id" db:"id"`
	ConversationID string      `json:"conversation_id" db:"conversation_id"`
	SenderRole     SenderRole  `json:"sender_role" db:"sender_role"`
	ContentType    ContentType `json:"content_type" db:"content_type"`
	Content        string      `json:"content" db:"content"`
	DeliveryStatus string      `json:"delivery_status" db:"delivery_status"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
}

// SendMessageRequest is the request to record an inbound message. The message
// is appended to history and a queue entry is enqueued for processing.
type SendMessageRequest struct {
	Content     string      `json:"content"`
	ContentType ContentType `json:"content_type,omitempty"`
	SenderRole  SenderRole  `json:"sender_role,omitempty"`
}

// ListMessagesResponse is the response for listing conversation history.
type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
	Total    int       `json:"total"`
}
