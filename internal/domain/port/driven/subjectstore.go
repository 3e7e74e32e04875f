package driven

import (
	"context"

	"github.com/creditwatch/creditwatch/internal/domain/model"
)

// SubjectStore defines the driven port for subject profile lookup. The
// profile data is owned by the surrounding application; this core only
// needs registration glue and read access to identity fields.
type SubjectStore interface {
	Add(ctx context.Context, subject model.Subject) error
	// Get returns *model.NotFoundError for unknown subjects.
	Get(ctx context.Context, subjectID string) (model.Subject, error)
}
