package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"apshelper.com/job-helper/internal/model"
)

func (s *SQLiteStore) CreateAssessment(ctx context.Context, a *model.Assessment) error {
	a.ID = uuid.NewString()
	a.CreatedAt = s.now()

	var exampleID sql.NullString
	if a.WorkExampleID != "" {
		exampleID = sql.NullString{String: a.WorkExampleID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO assessments (id, work_example_id, example_text, aps_level, assessment, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		a.ID, exampleID, a.ExampleText, a.APSLevel, a.Assessment, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert assessment: %w", err)
	}
	return nil
}

// ListAssessments returns saved assessments newest first, optionally only
// those made for one work example.
func (s *SQLiteStore) ListAssessments(ctx context.Context, workExampleID string) ([]model.Assessment, error) {
	query := "SELECT id, work_example_id, example_text, aps_level, assessment, created_at FROM assessments"
	args := []any{}
	if workExampleID != "" {
		query += " WHERE work_example_id = ?"
		args = append(args, workExampleID)
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, maxListRows)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}
	defer rows.Close()

	assessments := []model.Assessment{}
	for rows.Next() {
		var a model.Assessment
		var exampleID sql.NullString
		if err := rows.Scan(&a.ID, &exampleID, &a.ExampleText, &a.APSLevel, &a.Assessment, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assessment row: %w", err)
		}
		a.WorkExampleID = exampleID.String
		assessments = append(assessments, a)
	}
	return assessments, rows.Err()
}
