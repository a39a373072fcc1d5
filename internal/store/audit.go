package store

import (
	"context"
	"time"
)

// AuditRecord is one row of the maintenance audit log.
type AuditRecord struct {
	ID        int64     `db:"id"`
	Action    string    `db:"action"`
	Success   bool      `db:"success"`
	Detail    string    `db:"detail"`
	CreatedAt time.Time `db:"-"`
}

// RecordAudit writes a structured note about a maintenance action. Callers
// treat this as best-effort: a failure here must never fail the operation
// being audited.
func (s *Store) RecordAudit(ctx context.Context, action string, success bool, detail string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (action, success, detail, created_at)
		VALUES (?, ?, ?, ?)`,
		action, success, detail, formatTime(s.now()),
	)
	if err != nil {
		return storageErr("record audit", err)
	}
	return nil
}

// ListAudit returns the most recent audit rows, newest first.
func (s *Store) ListAudit(ctx context.Context, limit int) ([]AuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, success, detail, created_at FROM audit_log
		ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, storageErr("list audit", err)
	}
	defer rows.Close()

	var out []AuditRecord
	for rows.Next() {
		var rec AuditRecord
		var created string
		if err := rows.Scan(&rec.ID, &rec.Action, &rec.Success, &rec.Detail, &created); err != nil {
			return nil, storageErr("list audit", err)
		}
		rec.CreatedAt = parseTime(created)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list audit", err)
	}
	return out, nil
}
