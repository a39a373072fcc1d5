package model

import (
	"encoding/json"
	"time"
)

// QueueEntry is a unit of pending work linked to a conversation. Disposition
// is represented by row presence: an entry exists while pending, is removed
// by the processing step on successful drain, and is removed without
// processing by the cleanup sweeper once its conversation becomes ineligible.
type QueueEntry struct {
	ID             string    `json:"id" db:"id"`
	ConversationID string    `json:"conversation_id" db:"conversation_id"`
	Content        string    `json:"content" db:"content"`
	EnqueuedAt     time.Time `json:"enqueued_at" db:"enqueued_at"`

	// ClaimToken marks an entry as taken by an in-flight drain pass. Empty
	// for unclaimed entries. Never exposed to API callers.
	ClaimToken string `json:"-" db:"claim_token"`
}

// DrainResult is the outcome of a single drain pass.
type DrainResult struct {
	Processed int             `json:"processed"`
	Failed    int             `json:"failed"`
	Detail    json.RawMessage `json:"detail,omitempty"`
}

// SweepResult is the outcome of a cleanup sweep.
type SweepResult struct {
	DeletedCount int `json:"deleted_count"`
}
