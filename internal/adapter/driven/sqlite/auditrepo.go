package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/creditwatch/creditwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AuditSink = (*AuditRepo)(nil)

// AuditRepo is the SQLite implementation of the AuditSink port, an
// append-only log of who pulled what and when.
type AuditRepo struct {
	db *DB
}

// NewAuditRepo creates an AuditRepo backed by the given DB.
func NewAuditRepo(db *DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Record appends one audit entry.
func (r *AuditRepo) Record(ctx context.Context, actor, action, entityID, description string) error {
	_, err := r.db.Writer.ExecContext(ctx, `
		INSERT INTO audit_log (actor, action, entity_id, description, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		actor, action, entityID, description, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}
