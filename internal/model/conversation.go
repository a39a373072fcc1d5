// Package model defines data structures for the operation center core.
package model

import (
	"time"
)

// Status is the lifecycle state of a conversation. The set is closed; no
// other values are legal.
type Status string

const (
	StatusBotAttending      Status = "bot_attending"
	StatusWaitingEvaluation Status = "waiting_evaluation"
	StatusAttending         Status = "attending"
	StatusSentToSeller      Status = "sent_to_seller"
	StatusFinished          Status = "finished"
	StatusSold              Status = "sold"
	StatusLost              Status = "lost"
)

// Valid reports whether s is one of the seven legal status values.
func (s Status) Valid() bool {
	switch s {
	case StatusBotAttending, StatusWaitingEvaluation, StatusAttending,
		StatusSentToSeller, StatusFinished, StatusSold, StatusLost:
		return true
	}
	return false
}

// RequiresSeller reports whether a conversation in status s must carry a
// seller assignment. The invariant is an iff: every other status must have
// the assignment cleared.
func (s Status) RequiresSeller() bool {
	switch s {
	case StatusSentToSeller, StatusFinished, StatusSold, StatusLost:
		return true
	}
	return false
}

// Conversation is the unit of ongoing interaction with one external party.
// Rows are never physically deleted; all status changes go through the
// lifecycle service.
type Conversation struct {
	ID             string    `json:"id" db:"id"`
	CustomerName   *string   `json:"customer_name,omitempty" db:"customer_name"`
	ChannelAddress string    `json:"channel_address" db:"channel_address"`
	Status         Status    `json:"status" db:"status"`
	AssignedSeller *string   `json:"assigned_seller,omitempty" db:"assigned_seller"`
	FallbackMode   bool      `json:"fallback_mode" db:"fallback_mode"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// QueueEligible reports whether queue entries owned by this conversation may
// be handed to the processing step. Display-only statuses such as
// "attending" do not affect eligibility.
func (c *Conversation) QueueEligible() bool {
	return !c.FallbackMode && c.Status != StatusSentToSeller
}

// CreateConversationRequest is the request to open a conversation.
type CreateConversationRequest struct {
	ChannelAddress string  `json:"channel_address"`
	CustomerName   *string `json:"customer_name,omitempty"`
}

// ConversationPatch is a partial update applied atomically to a conversation.
// Nil fields are left untouched.
type ConversationPatch struct {
	CustomerName   *string
	Status         *Status
	AssignedSeller *string
	ClearSeller    bool
	FallbackMode   *bool
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
}
