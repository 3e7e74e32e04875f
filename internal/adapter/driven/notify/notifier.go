// Package notify implements the Notifier port. The default sink writes
// structured log records; a delivery integration can replace it without
// touching the application layer.
package notify

import (
	"context"
	"log/slog"

	"github.com/creditwatch/creditwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Notifier = (*LogNotifier)(nil)

// LogNotifier emits notifications as structured log records.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier writing through the given logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notifier")}
}

// Notify records the notification. Never fails.
func (n *LogNotifier) Notify(ctx context.Context, subjectID, subject, body string) error {
	n.logger.InfoContext(ctx, "notification",
		"subject_id", subjectID,
		"subject", subject,
		"body", body,
	)
	return nil
}
