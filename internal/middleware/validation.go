package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidateMessageContent validates message content.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.New("content cannot be empty")
	}
	if len(content) > 100000 {
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidateConversationID validates a conversation ID.
func ValidateConversationID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid conversation ID format")
	}
	return nil
}

// ValidateChannelAddress validates a channel address (e.g. a phone number).
func ValidateChannelAddress(addr string) error {
	if len(addr) == 0 {
		return errors.New("channel address cannot be empty")
	}
	if len(addr) > 64 {
		return errors.New("channel address exceeds maximum length")
	}
	if !utf8.ValidString(addr) {
		return errors.New("channel address must be valid UTF-8")
	}
	return nil
}

// ValidateSellerID validates a seller reference.
func ValidateSellerID(id string) error {
	if len(id) == 0 {
		return errors.New("seller ID cannot be empty")
	}
	if len(id) > 64 {
		return errors.New("seller ID exceeds maximum length")
	}
	return nil
}
