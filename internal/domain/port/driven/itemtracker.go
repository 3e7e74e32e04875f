package driven

import (
	"context"

	"github.com/creditwatch/creditwatch/internal/domain/model"
)

// ItemTracker defines the driven port for syncing normalized negative
// items into the downstream item tracker. The core does not own that
// table; it only performs idempotent upserts keyed by
// (subject, bureau, creditor, account number).
type ItemTracker interface {
	// SyncItems upserts every item and marks previously tracked items that
	// no longer appear on the report as resolved.
	SyncItems(ctx context.Context, subjectID string, bureau model.Bureau, items []model.NegativeItem) error
}
