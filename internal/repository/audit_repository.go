package repository

import (
	"context"
	"database/sql"
	"time"
	"unicode/utf8"
)

// Outcomes recorded on an audit row.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// AuditEntry is one console mutation as persisted in console_audit.
type AuditEntry struct {
	ID        uint64
	ActorID   string    // backend user id of the operator
	ActorName string    // display name at the time of the action
	Kind      string    // entity kind, e.g. "company"
	Action    string    // created, updated, deleted or completed
	EntityID  string    // empty for failed creates
	Outcome   string    // OutcomeOK or OutcomeFailed
	Message   string    // failure message shown to the operator
	CreatedAt time.Time // UTC
}

// AuditRepo reads and writes the audit trail.  A nil *AuditRepo is valid
// and behaves as a disabled trail.
type AuditRepo struct {
	db *sql.DB
}

// NewAuditRepo constructs an AuditRepo with the provided DB handle.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

const auditSchema = `CREATE TABLE IF NOT EXISTS console_audit (
  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
  actor_id VARCHAR(64) NOT NULL,
  actor_name VARCHAR(255) NOT NULL,
  kind VARCHAR(32) NOT NULL,
  action VARCHAR(32) NOT NULL,
  entity_id VARCHAR(64) NOT NULL DEFAULT '',
  outcome VARCHAR(16) NOT NULL,
  message VARCHAR(1024) NOT NULL DEFAULT '',
  created_at DATETIME NOT NULL,
  KEY idx_console_audit_created (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// EnsureSchema creates the audit table when it does not exist yet.
func (r *AuditRepo) EnsureSchema(ctx context.Context) error {
	if r == nil || r.db == nil {
		return nil
	}
	_, err := r.db.ExecContext(ctx, auditSchema)
	return err
}

// Record appends e.  CreatedAt defaults to now; on success e.ID is set.
// Recording on a disabled trail is a no-op.
func (r *AuditRepo) Record(ctx context.Context, e *AuditEntry) error {
	if r == nil || r.db == nil {
		return nil
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	e.ActorID = clip(e.ActorID, 64)
	e.ActorName = clip(e.ActorName, 255)
	e.EntityID = clip(e.EntityID, 64)
	e.Message = clip(e.Message, 1024)
	const q = `INSERT INTO console_audit
		(actor_id, actor_name, kind, action, entity_id, outcome, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		e.ActorID, e.ActorName, e.Kind, e.Action, e.EntityID, e.Outcome, e.Message, e.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// clip cuts s to at most n characters, matching VARCHAR(n) under utf8mb4.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// ListRecent returns up to limit entries, newest first.
func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]AuditEntry, error) {
	if r == nil || r.db == nil {
		return nil, ErrAuditDisabled
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const q = `SELECT id, actor_id, actor_name, kind, action, entity_id, outcome, message, created_at
		FROM console_audit ORDER BY id DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActorName, &e.Kind, &e.Action, &e.EntityID, &e.Outcome, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
