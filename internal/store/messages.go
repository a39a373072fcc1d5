package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vendalia/opcenter/internal/model"
)

type messageRow struct {
	ID             string `db:"id"`
	ConversationID string `db:"conversation_id"`
	SenderRole     string `db:"sender_role"`
	ContentType    string `db:"content_type"`
	Content        string `db:"content"`
	DeliveryStatus string `db:"delivery_status"`
	CreatedAt      string `db:"created_at"`
}

func (r messageRow) toModel() model.Message {
	return model.Message{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		SenderRole:     model.SenderRole(r.SenderRole),
		ContentType:    model.ContentType(r.ContentType),
		Content:        r.Content,
		DeliveryStatus: r.DeliveryStatus,
		CreatedAt:      parseTime(r.CreatedAt),
	}
}

// AppendMessage persists a message record. History is append-only.
func (s *Store) AppendMessage(ctx context.Context, msg *model.Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender_role, content_type, content, delivery_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, string(msg.SenderRole), string(msg.ContentType),
		msg.Content, msg.DeliveryStatus, formatTime(msg.CreatedAt),
	)
	if err != nil {
		return storageErr("append message", err)
	}
	return nil
}

// ListMessages returns a conversation's history ordered by creation time.
func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	var rows []messageRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM messages WHERE conversation_id = ? ORDER BY created_at, id`, conversationID)
	if err != nil {
		return nil, storageErr("list messages", err)
	}
	out := make([]model.Message, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// UpdateDeliveryStatus is the only mutation allowed on a stored message.
func (s *Store) UpdateDeliveryStatus(ctx context.Context, messageID, status string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE messages SET delivery_status = ? WHERE id = ?`, status, messageID)
	if err != nil {
		return storageErr("update delivery status", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// GetMessage returns a single message record.
func (s *Store) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	var row messageRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM messages WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get message", err)
	}
	m := row.toModel()
	return &m, nil
}
