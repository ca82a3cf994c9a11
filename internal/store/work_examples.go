package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"apshelper.com/job-helper/internal/model"
)

const workExampleColumns = "id, title, example_text, role, aps_level, capabilities, behaviours, tags, created_at, updated_at"

type listColumns struct {
	capabilities, behaviours, tags string
}

func encodeWorkExampleLists(ex *model.WorkExample) (listColumns, error) {
	var cols listColumns
	var err error
	if cols.capabilities, err = encodeList(ex.Capabilities); err != nil {
		return cols, err
	}
	if cols.behaviours, err = encodeList(ex.Behaviours); err != nil {
		return cols, err
	}
	if cols.tags, err = encodeList(ex.Tags); err != nil {
		return cols, err
	}
	return cols, nil
}

func (s *SQLiteStore) CreateWorkExample(ctx context.Context, in model.WorkExampleInput) (*model.WorkExample, error) {
	now := s.now()
	ex := &model.WorkExample{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	in.Apply(ex)

	cols, err := encodeWorkExampleLists(ex)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO work_examples ("+workExampleColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		ex.ID, ex.Title, ex.ExampleText, ex.Role, ex.APSLevel,
		cols.capabilities, cols.behaviours, cols.tags, ex.CreatedAt, ex.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert work example: %w", err)
	}
	return ex, nil
}

func (s *SQLiteStore) UpdateWorkExample(ctx context.Context, id string, in model.WorkExampleInput) (*model.WorkExample, error) {
	ex, err := s.GetWorkExample(ctx, id)
	if err != nil {
		return nil, err
	}
	in.Apply(ex)
	ex.UpdatedAt = s.now()

	cols, err := encodeWorkExampleLists(ex)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
        UPDATE work_examples
        SET title = ?, example_text = ?, role = ?, aps_level = ?,
            capabilities = ?, behaviours = ?, tags = ?, updated_at = ?
        WHERE id = ?`,
		ex.Title, ex.ExampleText, ex.Role, ex.APSLevel,
		cols.capabilities, cols.behaviours, cols.tags, ex.UpdatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update work example: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		// Deleted between the read and the write.
		return nil, fmt.Errorf("work example %s: %w", id, ErrNotFound)
	}
	return ex, nil
}

func (s *SQLiteStore) GetWorkExample(ctx context.Context, id string) (*model.WorkExample, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+workExampleColumns+" FROM work_examples WHERE id = ?", id)
	ex, err := scanWorkExample(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("work example %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return ex, nil
}

// ListWorkExamples returns work examples newest first.
func (s *SQLiteStore) ListWorkExamples(ctx context.Context) ([]model.WorkExample, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+workExampleColumns+" FROM work_examples ORDER BY created_at DESC, rowid DESC LIMIT ?", maxListRows)
	if err != nil {
		return nil, fmt.Errorf("failed to query work examples: %w", err)
	}
	defer rows.Close()

	examples := []model.WorkExample{}
	for rows.Next() {
		ex, err := scanWorkExample(rows)
		if err != nil {
			return nil, err
		}
		examples = append(examples, *ex)
	}
	return examples, rows.Err()
}

func (s *SQLiteStore) DeleteWorkExample(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM work_examples WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete work example: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("work example %s: %w", id, ErrNotFound)
	}
	return nil
}

// FilterOptions builds the work-example filter vocabulary: capabilities and
// behaviours from the ILS reference plus any used on examples, tags from
// examples, and the fixed level ladder.
func (s *SQLiteStore) FilterOptions(ctx context.Context) (*model.FilterOptions, error) {
	capabilities, err := s.queryStrings(ctx, `
        SELECT capability_name FROM ils_reference
        UNION
        SELECT j.value FROM work_examples, json_each(work_examples.capabilities) AS j WHERE j.value <> ''
        ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("capabilities: %w", err)
	}
	behaviours, err := s.queryStrings(ctx, `
        SELECT behaviour FROM ils_reference
        UNION
        SELECT j.value FROM work_examples, json_each(work_examples.behaviours) AS j WHERE j.value <> ''
        ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("behaviours: %w", err)
	}
	tags, err := s.distinctListValues(ctx, "work_examples", "tags")
	if err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}

	return &model.FilterOptions{
		Capabilities: capabilities,
		Behaviours:   behaviours,
		Tags:         tags,
		APSLevels:    append([]string(nil), model.APSLevels...),
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkExample(row rowScanner) (*model.WorkExample, error) {
	var ex model.WorkExample
	var cols listColumns
	err := row.Scan(&ex.ID, &ex.Title, &ex.ExampleText, &ex.Role, &ex.APSLevel,
		&cols.capabilities, &cols.behaviours, &cols.tags, &ex.CreatedAt, &ex.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan work example row: %w", err)
	}
	if ex.Capabilities, err = decodeList(cols.capabilities); err != nil {
		return nil, err
	}
	if ex.Behaviours, err = decodeList(cols.behaviours); err != nil {
		return nil, err
	}
	if ex.Tags, err = decodeList(cols.tags); err != nil {
		return nil, err
	}
	return &ex, nil
}
