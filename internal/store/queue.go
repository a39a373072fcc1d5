package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/vendalia/opcenter/internal/model"
)

type queueRow struct {
	ID             string `db:"id"`
	ConversationID string `db:"conversation_id"`
	Content        string `db:"content"`
	EnqueuedAt     string `db:"enqueued_at"`
	ClaimToken     string `db:"claim_token"`
}

func (r queueRow) toModel() model.QueueEntry {
	return model.QueueEntry{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		Content:        r.Content,
		EnqueuedAt:     parseTime(r.EnqueuedAt),
		ClaimToken:     r.ClaimToken,
	}
}

// eligibleCondition selects queue entries whose owning conversation may still
// receive automated processing.
const eligibleCondition = `
	conversation_id IN (
		SELECT id FROM conversations
		WHERE fallback_mode = 0 AND status <> 'sent_to_seller'
	)`

// ineligibleCondition is the sweeper's coarse invalidation predicate.
const ineligibleCondition = `
	conversation_id IN (
		SELECT id FROM conversations
		WHERE fallback_mode = 1 OR status = 'sent_to_seller'
	)`

// QueueFilter narrows ListQueueEntries.
type QueueFilter struct {
	ConversationID string
	OnlyEligible   bool
	OnlyUnclaimed  bool
}

// Enqueue appends a queue entry.
func (s *Store) Enqueue(ctx context.Context, entry *model.QueueEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO queue_entries (id, conversation_id, content, enqueued_at, claim_token)
		VALUES (?, ?, ?, ?, '')`,
		entry.ID, entry.ConversationID, entry.Content, formatTime(entry.EnqueuedAt),
	)
	if err != nil {
		return storageErr("enqueue", err)
	}
	return nil
}

// ListQueueEntries returns entries matching the filter in FIFO order.
func (s *Store) ListQueueEntries(ctx context.Context, filter QueueFilter) ([]model.QueueEntry, error) {
	query := `SELECT * FROM queue_entries WHERE 1=1`
	var args []any
	if filter.ConversationID != "" {
		query += ` AND conversation_id = ?`
		args = append(args, filter.ConversationID)
	}
	if filter.OnlyEligible {
		query += ` AND ` + eligibleCondition
	}
	if filter.OnlyUnclaimed {
		query += ` AND claim_token = ''`
	}
	query += ` ORDER BY enqueued_at, id`

	var rows []queueRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storageErr("list queue entries", err)
	}
	out := make([]model.QueueEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// ClaimEligible atomically marks up to limit unclaimed eligible entries with
// the given token and returns them in FIFO order. Two concurrent drain
// passes can never claim the same entry: the mark happens in one transaction
// and only ever touches rows whose token is still empty.
func (s *Store) ClaimEligible(ctx context.Context, token string, limit int) ([]model.QueueEntry, error) {
	var claimed []model.QueueEntry
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE queue_entries SET claim_token = ?
			WHERE claim_token = '' AND `+eligibleCondition+`
			AND id IN (
				SELECT id FROM queue_entries
				WHERE claim_token = '' AND `+eligibleCondition+`
				ORDER BY enqueued_at, id
				LIMIT ?
			)`,
			token, limit,
		)
		if err != nil {
			return err
		}

		var rows []queueRow
		if err := tx.SelectContext(ctx, &rows, `
			SELECT * FROM queue_entries WHERE claim_token = ? ORDER BY enqueued_at, id`, token); err != nil {
			return err
		}
		claimed = make([]model.QueueEntry, 0, len(rows))
		for _, r := range rows {
			claimed = append(claimed, r.toModel())
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("claim eligible entries", err)
	}
	return claimed, nil
}

// DeleteClaimed removes every entry carrying the token and returns the count.
func (s *Store) DeleteClaimed(ctx context.Context, token string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queue_entries WHERE claim_token = ?`, token)
	if err != nil {
		return 0, storageErr("delete claimed entries", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ReleaseClaim returns claimed entries to the unclaimed pool after a failed
// pass so the next tick can retry them.
func (s *Store) ReleaseClaim(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE queue_entries SET claim_token = '' WHERE claim_token = ?`, token)
	if err != nil {
		return storageErr("release claim", err)
	}
	return nil
}

// DeleteQueueEntries removes the given entries. The delete is all-or-nothing
// per invocation.
func (s *Store) DeleteQueueEntries(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM queue_entries WHERE id IN (?)`, ids)
	if err != nil {
		return storageErr("delete queue entries", err)
	}
	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, s.db.Rebind(query), args...)
		return err
	})
	if err != nil {
		return storageErr("delete queue entries", err)
	}
	return nil
}

// SweepIneligible deletes every entry whose owning conversation is in
// fallback mode or has been handed to a seller. Runs as a single statement:
// it either completes or fails with nothing deleted.
func (s *Store) SweepIneligible(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queue_entries WHERE `+ineligibleCondition)
	if err != nil {
		return 0, storageErr("sweep ineligible entries", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// CountQueueEntries returns the total number of queue entries.
func (s *Store) CountQueueEntries(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM queue_entries`); err != nil {
		return 0, storageErr("count queue entries", err)
	}
	return n, nil
}
