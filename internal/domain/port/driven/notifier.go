package driven

import "context"

// Notifier is the fire-and-forget notification sink for high-severity
// change batches. Delivery failure must never fail the snapshot write.
type Notifier interface {
	Notify(ctx context.Context, subjectID, subject, body string) error
}

// AuditSink is the append-only audit sink recording each completed pull.
type AuditSink interface {
	Record(ctx context.Context, actor, action, entityID, description string) error
}
