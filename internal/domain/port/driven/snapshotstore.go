package driven

import (
	"context"

	"github.com/creditwatch/creditwatch/internal/domain/model"
)

// SnapshotStore defines the driven port for snapshot persistence. Save is
// the serialized read-latest-then-insert described in the snapshot chain
// invariant: within one transaction it reads the current latest snapshot
// for (subject, bureau), inserts the new snapshot referencing it, runs
// change detection against it, and persists the resulting changes.
type SnapshotStore interface {
	Save(ctx context.Context, subjectID string, bureau model.Bureau, report model.Report, pullID string) (model.Snapshot, []model.Change, error)
	Latest(ctx context.Context, subjectID string, bureau model.Bureau) (*model.Snapshot, error)
	// LatestAll returns the latest snapshot per bureau for a subject.
	// Bureaus with no snapshots are absent from the result.
	LatestAll(ctx context.Context, subjectID string) (map[model.Bureau]model.Snapshot, error)
	ChangeHistory(ctx context.Context, subjectID string, filter model.ChangeFilter) ([]model.Change, error)
}
