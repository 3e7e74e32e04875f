package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/creditwatch/creditwatch/internal/domain/model"
	"github.com/creditwatch/creditwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PullStore = (*PullRepo)(nil)

// PullRepo is the SQLite implementation of the PullStore port. The table
// is append-only: rows are created in_progress and finalized exactly once.
type PullRepo struct {
	db *DB
}

// NewPullRepo creates a PullRepo backed by the given DB.
func NewPullRepo(db *DB) *PullRepo {
	return &PullRepo{db: db}
}

// Create inserts a new in-progress pull record.
func (r *PullRepo) Create(ctx context.Context, rec model.PullRecord) error {
	_, err := r.db.Writer.ExecContext(ctx, `
		INSERT INTO pull_records (id, subject_id, bureau, status, requested_by, permissible_purpose, report_id, error_message, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SubjectID, string(rec.Bureau), string(rec.Status),
		rec.RequestedBy, rec.PermissiblePurpose, rec.ReportID, rec.ErrorMessage, formatTime(rec.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("insert pull record %s: %w", rec.ID, err)
	}
	return nil
}

// Complete finalizes a pull record as completed with its report id.
func (r *PullRepo) Complete(ctx context.Context, pullID string, reportID string) error {
	return r.finalize(ctx, pullID, model.PullCompleted, reportID, "")
}

// Fail finalizes a pull record as failed with the error message.
func (r *PullRepo) Fail(ctx context.Context, pullID string, errorMessage string) error {
	return r.finalize(ctx, pullID, model.PullFailed, "", errorMessage)
}

// finalize updates a record exactly once: only in_progress rows transition.
func (r *PullRepo) finalize(ctx context.Context, pullID string, status model.PullStatus, reportID, errorMessage string) error {
	result, err := r.db.Writer.ExecContext(ctx, `
		UPDATE pull_records
		SET status = ?, report_id = ?, error_message = ?, finished_at = ?
		WHERE id = ? AND status = ?`,
		string(status), reportID, errorMessage, formatTime(time.Now()),
		pullID, string(model.PullInProgress),
	)
	if err != nil {
		return fmt.Errorf("finalize pull record %s: %w", pullID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("pull record %s not found or already finalized", pullID)
	}
	return nil
}

// GetBySubject returns all pull records for a subject, newest first.
func (r *PullRepo) GetBySubject(ctx context.Context, subjectID string) ([]model.PullRecord, error) {
	rows, err := r.db.Reader.QueryContext(ctx, `
		SELECT id, subject_id, bureau, status, requested_by, permissible_purpose, report_id, error_message, started_at, finished_at
		FROM pull_records
		WHERE subject_id = ?
		ORDER BY started_at DESC`,
		subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("query pull records: %w", err)
	}
	defer rows.Close()

	var records []model.PullRecord
	for rows.Next() {
		rec, err := scanPullRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pull record: %w", err)
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pull records: %w", err)
	}

	if records == nil {
		records = []model.PullRecord{}
	}
	return records, nil
}

func scanPullRecord(s scanner) (*model.PullRecord, error) {
	var rec model.PullRecord
	var bureau, status, startedAt string
	var finishedAt sql.NullString

	err := s.Scan(
		&rec.ID, &rec.SubjectID, &bureau, &status, &rec.RequestedBy,
		&rec.PermissiblePurpose, &rec.ReportID, &rec.ErrorMessage, &startedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Bureau = model.Bureau(bureau)
	rec.Status = model.PullStatus(status)

	rec.StartedAt, err = parseTime(startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}

	if finishedAt.Valid {
		t, err := parseTime(finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		rec.FinishedAt = &t
	}

	return &rec, nil
}
