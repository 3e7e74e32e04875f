package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/creditwatch/creditwatch/internal/domain/model"
	"github.com/creditwatch/creditwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SnapshotStore = (*SnapshotRepo)(nil)

// DetectFunc is the change detection function run inside the Save
// transaction. Injected so the repo stays free of threshold wiring and the
// detector stays pure.
type DetectFunc func(previous *model.Report, current model.Report) []model.Change

// SnapshotRepo is the SQLite implementation of the SnapshotStore port.
type SnapshotRepo struct {
	db     *DB
	detect DetectFunc
}

// NewSnapshotRepo creates a SnapshotRepo backed by the given DB, running
// the given detector on every save.
func NewSnapshotRepo(db *DB, detect DetectFunc) *SnapshotRepo {
	return &SnapshotRepo{db: db, detect: detect}
}

// Save persists a report as a new immutable snapshot within a single
// immediate transaction: it reads the current latest snapshot for
// (subject, bureau) as the detector's previous, inserts the new snapshot
// referencing it, runs change detection, and persists the resulting
// changes. The single-connection writer pool plus the immediate
// transaction serialize this read-then-write per database, so two
// concurrent pulls can never both claim the same predecessor.
func (r *SnapshotRepo) Save(ctx context.Context, subjectID string, bureau model.Bureau, report model.Report, pullID string) (model.Snapshot, []model.Change, error) {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return model.Snapshot{}, nil, fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	previous, err := latestTx(ctx, tx, subjectID, bureau)
	if err != nil {
		return model.Snapshot{}, nil, err
	}

	var prevReport *model.Report
	var prevID *int64
	if previous != nil {
		prevReport = &previous.Report
		prevID = &previous.ID
	}

	changes := r.detect(prevReport, report)

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return model.Snapshot{}, nil, fmt.Errorf("marshal report: %w", err)
	}

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (subject_id, bureau, previous_id, pull_id, report_id, report_json, change_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		subjectID, string(bureau), prevID, pullID, report.ReportID, string(reportJSON), len(changes), formatTime(now),
	)
	if err != nil {
		return model.Snapshot{}, nil, fmt.Errorf("insert snapshot: %w", err)
	}

	snapshotID, err := result.LastInsertId()
	if err != nil {
		return model.Snapshot{}, nil, fmt.Errorf("snapshot id: %w", err)
	}

	var prevSnapshotID int64
	if prevID != nil {
		prevSnapshotID = *prevID
	}
	for i := range changes {
		changes[i].SubjectID = subjectID
		changes[i].Bureau = bureau
		changes[i].SnapshotID = snapshotID
		changes[i].PreviousSnapshotID = prevSnapshotID
		changes[i].CreatedAt = now

		res, err := tx.ExecContext(ctx, `
			INSERT INTO changes (subject_id, bureau, snapshot_id, previous_snapshot_id, change_type, category,
			                     severity, description, previous_value, current_value, delta, is_positive, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			subjectID, string(bureau), snapshotID, prevSnapshotID,
			string(changes[i].Type), string(changes[i].Category), string(changes[i].Severity),
			changes[i].Description, changes[i].PreviousValue, changes[i].CurrentValue,
			changes[i].Delta, boolToInt(changes[i].IsPositive), formatTime(now),
		)
		if err != nil {
			return model.Snapshot{}, nil, fmt.Errorf("insert change: %w", err)
		}
		changes[i].ID, _ = res.LastInsertId()
	}

	if err := tx.Commit(); err != nil {
		return model.Snapshot{}, nil, fmt.Errorf("commit snapshot tx: %w", err)
	}

	return model.Snapshot{
		ID:          snapshotID,
		SubjectID:   subjectID,
		Bureau:      bureau,
		PreviousID:  prevID,
		PullID:      pullID,
		Report:      report,
		ChangeCount: len(changes),
		CreatedAt:   now,
	}, changes, nil
}

const snapshotColumns = `id, subject_id, bureau, previous_id, pull_id, report_json, change_count, created_at`

// Latest returns the most recent snapshot for (subject, bureau), or nil
// when the subject has never been pulled from that bureau.
func (r *SnapshotRepo) Latest(ctx context.Context, subjectID string, bureau model.Bureau) (*model.Snapshot, error) {
	row := r.db.Reader.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM snapshots
		WHERE subject_id = ? AND bureau = ?
		ORDER BY id DESC
		LIMIT 1`,
		subjectID, string(bureau),
	)

	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest snapshot %s/%s: %w", subjectID, bureau, err)
	}
	return snap, nil
}

// latestTx is Latest inside the save transaction, on the writer connection.
func latestTx(ctx context.Context, tx *sql.Tx, subjectID string, bureau model.Bureau) (*model.Snapshot, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM snapshots
		WHERE subject_id = ? AND bureau = ?
		ORDER BY id DESC
		LIMIT 1`,
		subjectID, string(bureau),
	)

	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest snapshot in tx %s/%s: %w", subjectID, bureau, err)
	}
	return snap, nil
}

// LatestAll returns the latest snapshot per bureau for a subject. Bureaus
// with no snapshots are absent from the map.
func (r *SnapshotRepo) LatestAll(ctx context.Context, subjectID string) (map[model.Bureau]model.Snapshot, error) {
	out := make(map[model.Bureau]model.Snapshot, 3)
	for _, bureau := range model.AllBureaus() {
		snap, err := r.Latest(ctx, subjectID, bureau)
		if err != nil {
			return nil, err
		}
		if snap != nil {
			out[bureau] = *snap
		}
	}
	return out, nil
}

// ChangeHistory returns changes for a subject, newest first, narrowed by
// the filter's zero-value-means-all fields.
func (r *SnapshotRepo) ChangeHistory(ctx context.Context, subjectID string, filter model.ChangeFilter) ([]model.Change, error) {
	query := `
		SELECT id, subject_id, bureau, snapshot_id, previous_snapshot_id, change_type, category,
		       severity, description, previous_value, current_value, delta, is_positive, created_at
		FROM changes
		WHERE subject_id = ?`
	args := []any{subjectID}

	if filter.Bureau != "" {
		query += " AND bureau = ?"
		args = append(args, string(filter.Bureau))
	}
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, string(filter.Category))
	}
	if filter.Severity != "" {
		query += " AND severity = ?"
		args = append(args, string(filter.Severity))
	}

	query += " ORDER BY id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query changes: %w", err)
	}
	defer rows.Close()

	var changes []model.Change
	for rows.Next() {
		change, err := scanChange(rows)
		if err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		changes = append(changes, *change)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changes: %w", err)
	}

	if changes == nil {
		changes = []model.Change{}
	}
	return changes, nil
}

func scanSnapshot(s scanner) (*model.Snapshot, error) {
	var snap model.Snapshot
	var bureau, reportJSON, createdAt string
	var previousID sql.NullInt64

	err := s.Scan(&snap.ID, &snap.SubjectID, &bureau, &previousID, &snap.PullID, &reportJSON, &snap.ChangeCount, &createdAt)
	if err != nil {
		return nil, err
	}

	snap.Bureau = model.Bureau(bureau)
	if previousID.Valid {
		snap.PreviousID = &previousID.Int64
	}

	if err := json.Unmarshal([]byte(reportJSON), &snap.Report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}

	snap.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &snap, nil
}

func scanChange(s scanner) (*model.Change, error) {
	var change model.Change
	var bureau, changeType, category, severity, createdAt string
	var delta sql.NullFloat64
	var isPositive int

	err := s.Scan(
		&change.ID, &change.SubjectID, &bureau, &change.SnapshotID, &change.PreviousSnapshotID,
		&changeType, &category, &severity, &change.Description,
		&change.PreviousValue, &change.CurrentValue, &delta, &isPositive, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	change.Bureau = model.Bureau(bureau)
	change.Type = model.ChangeType(changeType)
	change.Category = model.ChangeCategory(category)
	change.Severity = model.Severity(severity)
	if delta.Valid {
		change.Delta = &delta.Float64
	}
	change.IsPositive = isPositive != 0

	change.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &change, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
