package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/creditwatch/creditwatch/internal/domain/model"
	"github.com/creditwatch/creditwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ItemTracker = (*ItemRepo)(nil)

// ItemRepo is the SQLite implementation of the ItemTracker port. Items are
// upserted keyed by (subject, bureau, creditor, account number); items that
// drop off a report are marked resolved rather than deleted so the history
// survives.
type ItemRepo struct {
	db *DB
}

// NewItemRepo creates an ItemRepo backed by the given DB.
func NewItemRepo(db *DB) *ItemRepo {
	return &ItemRepo{db: db}
}

// SyncItems upserts the current negative items for (subject, bureau) and
// resolves tracked items absent from the report. The whole sync runs in one
// transaction so a partially applied report is never visible.
func (r *ItemRepo) SyncItems(ctx context.Context, subjectID string, bureau model.Bureau, items []model.NegativeItem) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin item sync: %w", err)
	}
	defer tx.Rollback()

	now := formatTime(time.Now())

	for _, item := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tracked_items (subject_id, bureau, creditor, account_number, item_type, balance, status, first_seen_at, last_seen_at, resolved_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
			ON CONFLICT (subject_id, bureau, creditor, account_number) DO UPDATE SET
				item_type = excluded.item_type,
				balance = excluded.balance,
				status = excluded.status,
				last_seen_at = excluded.last_seen_at,
				resolved_at = NULL`,
			subjectID, string(bureau), item.Creditor, item.AccountNumber,
			string(item.Type), item.Balance, item.Status, now, now,
		)
		if err != nil {
			return fmt.Errorf("upsert tracked item %s: %w", item.Creditor, err)
		}
	}

	// Resolve anything previously tracked that the current report no longer
	// carries. last_seen_at keeps the timestamp of the report it vanished from.
	_, err = tx.ExecContext(ctx, `
		UPDATE tracked_items
		SET resolved_at = ?
		WHERE subject_id = ? AND bureau = ? AND resolved_at IS NULL AND last_seen_at < ?`,
		now, subjectID, string(bureau), now,
	)
	if err != nil {
		return fmt.Errorf("resolve stale tracked items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit item sync: %w", err)
	}
	return nil
}
