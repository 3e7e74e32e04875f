package driven

import (
	"context"

	"github.com/creditwatch/creditwatch/internal/domain/model"
)

// PullStore defines the driven port for the append-only pull audit trail.
// A record is created in_progress and finalized exactly once via Complete
// or Fail.
type PullStore interface {
	Create(ctx context.Context, rec model.PullRecord) error
	Complete(ctx context.Context, pullID string, reportID string) error
	Fail(ctx context.Context, pullID string, errorMessage string) error
	GetBySubject(ctx context.Context, subjectID string) ([]model.PullRecord, error)
}
