package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/creditwatch/creditwatch/internal/domain/model"
	"github.com/creditwatch/creditwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SubjectStore = (*SubjectRepo)(nil)

// SubjectRepo is the SQLite implementation of the SubjectStore port.
type SubjectRepo struct {
	db *DB
}

// NewSubjectRepo creates a SubjectRepo backed by the given DB.
func NewSubjectRepo(db *DB) *SubjectRepo {
	return &SubjectRepo{db: db}
}

// Add registers a new subject profile.
func (r *SubjectRepo) Add(ctx context.Context, subject model.Subject) error {
	_, err := r.db.Writer.ExecContext(ctx, `
		INSERT INTO subjects (id, first_name, last_name, dob, national_id_last4, street, city, state, zip, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		subject.ID,
		subject.Identity.FirstName, subject.Identity.LastName,
		subject.Identity.DOB, subject.Identity.NationalIDLast4,
		subject.Identity.Address.Street, subject.Identity.Address.City,
		subject.Identity.Address.State, subject.Identity.Address.Zip,
		formatTime(subject.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert subject %s: %w", subject.ID, err)
	}
	return nil
}

// Get returns the subject with the given id, or *model.NotFoundError.
func (r *SubjectRepo) Get(ctx context.Context, subjectID string) (model.Subject, error) {
	row := r.db.Reader.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, dob, national_id_last4, street, city, state, zip, created_at
		FROM subjects
		WHERE id = ?`,
		subjectID,
	)

	var subject model.Subject
	var createdAt string
	err := row.Scan(
		&subject.ID,
		&subject.Identity.FirstName, &subject.Identity.LastName,
		&subject.Identity.DOB, &subject.Identity.NationalIDLast4,
		&subject.Identity.Address.Street, &subject.Identity.Address.City,
		&subject.Identity.Address.State, &subject.Identity.Address.Zip,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Subject{}, &model.NotFoundError{Entity: "subject", ID: subjectID}
	}
	if err != nil {
		return model.Subject{}, fmt.Errorf("query subject %s: %w", subjectID, err)
	}

	subject.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return model.Subject{}, fmt.Errorf("parse created_at: %w", err)
	}

	return subject, nil
}
