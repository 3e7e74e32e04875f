package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/creditwatch/creditwatch/internal/domain/model"
	"github.com/creditwatch/creditwatch/internal/domain/port/driven"
)

// permissiblePurposeCode is recorded on every pull. The surrounding
// application collects written consumer instructions before a subject is
// registered, which is FCRA purpose 3F.
const permissiblePurposeCode = "3F"

// PullService orchestrates the full pull pipeline: adapter fetch,
// normalization, snapshot persistence, change detection, item sync, and
// the pull audit trail.
type PullService struct {
	bureaus     driven.BureauProvider
	subjects    driven.SubjectStore
	snapshots   driven.SnapshotStore
	pulls       driven.PullStore
	items       driven.ItemTracker
	notifier    driven.Notifier
	audit       driven.AuditSink
	analysis    *AnalysisService
	pullTimeout time.Duration
	logger      *slog.Logger
}

// NewPullService creates a PullService with all required dependencies.
func NewPullService(
	bureaus driven.BureauProvider,
	subjects driven.SubjectStore,
	snapshots driven.SnapshotStore,
	pulls driven.PullStore,
	items driven.ItemTracker,
	notifier driven.Notifier,
	audit driven.AuditSink,
	analysis *AnalysisService,
	pullTimeout time.Duration,
) *PullService {
	return &PullService{
		bureaus:     bureaus,
		subjects:    subjects,
		snapshots:   snapshots,
		pulls:       pulls,
		items:       items,
		notifier:    notifier,
		audit:       audit,
		analysis:    analysis,
		pullTimeout: pullTimeout,
		logger:      slog.Default(),
	}
}

// PullOne runs the strict pipeline for a single (subject, bureau) pull.
// Any stage failure is recorded once on the PullRecord and returned to the
// caller; it is never swallowed.
func (s *PullService) PullOne(ctx context.Context, subjectID string, bureau model.Bureau, requestedBy string) (model.PullOutcome, error) {
	subject, err := s.subjects.Get(ctx, subjectID)
	if err != nil {
		return model.PullOutcome{Bureau: bureau, Status: model.PullFailed, Error: err.Error()}, err
	}

	client := s.bureaus.For(bureau)
	rec := model.PullRecord{
		ID:                 uuid.NewString(),
		SubjectID:          subjectID,
		Bureau:             bureau,
		Status:             model.PullInProgress,
		RequestedBy:        requestedBy,
		PermissiblePurpose: permissiblePurposeCode,
		StartedAt:          time.Now().UTC(),
	}
	if err := s.pulls.Create(ctx, rec); err != nil {
		return model.PullOutcome{Bureau: bureau, Status: model.PullFailed, PullID: rec.ID, Error: err.Error()},
			fmt.Errorf("create pull record: %w", err)
	}

	outcome := model.PullOutcome{
		Bureau:  bureau,
		PullID:  rec.ID,
		Sandbox: !client.Live(),
	}

	snapshot, changes, err := s.runPipeline(ctx, subject, client, rec.ID)
	if err != nil {
		if failErr := s.pulls.Fail(ctx, rec.ID, err.Error()); failErr != nil {
			s.logger.Error("mark pull failed", "pull_id", rec.ID, "error", failErr)
		}
		outcome.Status = model.PullFailed
		outcome.Error = err.Error()
		return outcome, err
	}

	if err := s.pulls.Complete(ctx, rec.ID, snapshot.Report.ReportID); err != nil {
		s.logger.Error("mark pull completed", "pull_id", rec.ID, "error", err)
	}

	outcome.Status = model.PullCompleted
	outcome.ReportID = snapshot.Report.ReportID
	outcome.SnapshotID = snapshot.ID
	outcome.ChangeCount = len(changes)

	s.notifyHighSeverity(subjectID, bureau, changes)
	s.recordAudit(ctx, requestedBy, subjectID, bureau, snapshot.Report.ReportID, len(changes))

	s.logger.Info("pull completed",
		"subject_id", subjectID,
		"bureau", bureau,
		"report_id", snapshot.Report.ReportID,
		"snapshot_id", snapshot.ID,
		"changes", len(changes),
		"sandbox", outcome.Sandbox,
	)

	return outcome, nil
}

// runPipeline performs adapter fetch, normalization, snapshot save, and
// item sync for one bureau under the configured pull timeout.
func (s *PullService) runPipeline(ctx context.Context, subject model.Subject, client driven.BureauClient, pullID string) (model.Snapshot, []model.Change, error) {
	pullCtx, cancel := context.WithTimeout(ctx, s.pullTimeout)
	defer cancel()

	raw, err := client.Pull(pullCtx, subject.Identity)
	if err != nil {
		return model.Snapshot{}, nil, err
	}

	report, err := Normalize(raw)
	if err != nil {
		return model.Snapshot{}, nil, err
	}

	snapshot, changes, err := s.snapshots.Save(ctx, subject.ID, client.Bureau(), report, pullID)
	if err != nil {
		return model.Snapshot{}, nil, fmt.Errorf("save snapshot: %w", err)
	}

	if err := s.items.SyncItems(ctx, subject.ID, client.Bureau(), report.NegativeItems); err != nil {
		return model.Snapshot{}, nil, fmt.Errorf("sync negative items: %w", err)
	}

	return snapshot, changes, nil
}

// PullAll issues the three bureau pulls concurrently. One bureau failing
// never aborts the others; there is no cross-bureau cancellation. The
// cross-bureau analyzer runs once all three settle, provided at least two
// succeeded.
func (s *PullService) PullAll(ctx context.Context, subjectID string, requestedBy string) (map[model.Bureau]model.PullOutcome, error) {
	if _, err := s.subjects.Get(ctx, subjectID); err != nil {
		return nil, err
	}

	var (
		mu       sync.Mutex
		outcomes = make(map[model.Bureau]model.PullOutcome, 3)
	)

	// Zero-value errgroup: no shared cancellation across bureaus.
	var g errgroup.Group
	for _, bureau := range model.AllBureaus() {
		g.Go(func() error {
			outcome, err := s.PullOne(ctx, subjectID, bureau, requestedBy)
			if err != nil {
				s.logger.Error("bureau pull failed", "subject_id", subjectID, "bureau", bureau, "error", err)
			}
			mu.Lock()
			outcomes[bureau] = outcome
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	succeeded := 0
	for _, outcome := range outcomes {
		if outcome.Status == model.PullCompleted {
			succeeded++
		}
	}

	if succeeded >= 2 {
		result, err := s.analysis.Analyze(ctx, subjectID)
		if err != nil {
			s.logger.Error("cross-bureau analysis failed", "subject_id", subjectID, "error", err)
		} else {
			s.logger.Info("cross-bureau analysis complete",
				"subject_id", subjectID,
				"bureaus", len(result.Bureaus),
				"flags", len(result.Flags),
			)
		}
	}

	s.logger.Info("multi-bureau pull complete",
		"subject_id", subjectID,
		"succeeded", succeeded,
		"failed", len(outcomes)-succeeded,
	)

	return outcomes, nil
}

// Availability reports which bureaus have live credentials versus sandbox mode.
func (s *PullService) Availability() []model.BureauAvailability {
	return s.bureaus.Availability()
}

// notifyHighSeverity sends a fire-and-forget notification for high-severity
// changes. Delivery failure is logged, never propagated; the snapshot write
// has already committed.
func (s *PullService) notifyHighSeverity(subjectID string, bureau model.Bureau, changes []model.Change) {
	high := make([]model.Change, 0, len(changes))
	for _, c := range changes {
		if c.Severity == model.SeverityHigh {
			high = append(high, c)
		}
	}
	if len(high) == 0 {
		return
	}

	// Background context: the notification must outlive the request.
	go func() {
		body := ""
		for _, c := range high {
			body += "- " + c.Description + "\n"
		}
		subjectLine := fmt.Sprintf("%d important change(s) on your %s report", len(high), bureau)
		if err := s.notifier.Notify(context.Background(), subjectID, subjectLine, body); err != nil {
			s.logger.Error("notify high severity changes", "subject_id", subjectID, "bureau", bureau, "error", err)
		}
	}()
}

// recordAudit appends the completed pull to the audit sink. Failures are
// logged only; auditing never fails a pull.
func (s *PullService) recordAudit(ctx context.Context, actor, subjectID string, bureau model.Bureau, reportID string, changeCount int) {
	description := fmt.Sprintf("pulled %s report %s (%d changes)", bureau, reportID, changeCount)
	if err := s.audit.Record(ctx, actor, "credit_report.pull", subjectID, description); err != nil {
		s.logger.Error("record audit entry", "subject_id", subjectID, "bureau", bureau, "error", err)
	}
}
