package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/vendalia/opcenter/internal/model"
)

type conversationRow struct {
	ID             string         `db:"id"`
	CustomerName   sql.NullString `db:"customer_name"`
	ChannelAddress string         `db:"channel_address"`
	Status         string         `db:"status"`
	AssignedSeller sql.NullString `db:"assigned_seller"`
	FallbackMode   bool           `db:"fallback_mode"`
	CreatedAt      string         `db:"created_at"`
	UpdatedAt      string         `db:"updated_at"`
}

func (r conversationRow) toModel() *model.Conversation {
	return &model.Conversation{
		ID:             r.ID,
		CustomerName:   fromNullString(r.CustomerName),
		ChannelAddress: r.ChannelAddress,
		Status:         model.Status(r.Status),
		AssignedSeller: fromNullString(r.AssignedSeller),
		FallbackMode:   r.FallbackMode,
		CreatedAt:      parseTime(r.CreatedAt),
		UpdatedAt:      parseTime(r.UpdatedAt),
	}
}

// InsertConversation persists a new conversation row.
func (s *Store) InsertConversation(ctx context.Context, conv *model.Conversation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, customer_name, channel_address, status, assigned_seller, fallback_mode, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		conv.ID,
		nullString(conv.CustomerName),
		conv.ChannelAddress,
		string(conv.Status),
		nullString(conv.AssignedSeller),
		conv.FallbackMode,
		formatTime(conv.CreatedAt),
		formatTime(conv.UpdatedAt),
	)
	if err != nil {
		return storageErr("insert conversation", err)
	}
	return nil
}

// GetConversation returns the conversation with the given id, or
// model.ErrNotFound.
func (s *Store) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	var row conversationRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM conversations WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get conversation", err)
	}
	return row.toModel(), nil
}

// GetConversationByChannelAddress looks a conversation up by its stable
// external identity.
func (s *Store) GetConversationByChannelAddress(ctx context.Context, addr string) (*model.Conversation, error) {
	var row conversationRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM conversations WHERE channel_address = ?`, addr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get conversation by channel address", err)
	}
	return row.toModel(), nil
}

// ListConversations returns all conversations, most recently updated first.
func (s *Store) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	var rows []conversationRow
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM conversations ORDER BY updated_at DESC`)
	if err != nil {
		return nil, storageErr("list conversations", err)
	}
	out := make([]model.Conversation, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r.toModel())
	}
	return out, nil
}

// UpdateConversation applies a partial patch atomically and returns the
// updated row. Nil patch fields are left untouched; updated_at always moves.
func (s *Store) UpdateConversation(ctx context.Context, id string, patch model.ConversationPatch) (*model.Conversation, error) {
	var updated *model.Conversation
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var row conversationRow
		if err := tx.GetContext(ctx, &row, `SELECT * FROM conversations WHERE id = ?`, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ErrNotFound
			}
			return err
		}

		sets := []string{"updated_at = ?"}
		args := []any{formatTime(s.now())}
		if patch.CustomerName != nil {
			sets = append(sets, "customer_name = ?")
			args = append(args, *patch.CustomerName)
		}
		if patch.Status != nil {
			sets = append(sets, "status = ?")
			args = append(args, string(*patch.Status))
		}
		if patch.AssignedSeller != nil {
			sets = append(sets, "assigned_seller = ?")
			args = append(args, *patch.AssignedSeller)
		} else if patch.ClearSeller {
			sets = append(sets, "assigned_seller = NULL")
		}
		if patch.FallbackMode != nil {
			sets = append(sets, "fallback_mode = ?")
			args = append(args, *patch.FallbackMode)
		}
		args = append(args, id)

		if _, err := tx.ExecContext(ctx, `UPDATE conversations SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
			return err
		}

		if err := tx.GetContext(ctx, &row, `SELECT * FROM conversations WHERE id = ?`, id); err != nil {
			return err
		}
		updated = row.toModel()
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, storageErr("update conversation", err)
	}
	return updated, nil
}
