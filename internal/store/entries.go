package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"apshelper.com/job-helper/internal/model"
)

func (s *SQLiteStore) CreateEntry(ctx context.Context, content string, tags []string) (*model.Entry, error) {
	tagsJSON, err := encodeList(tags)
	if err != nil {
		return nil, err
	}

	now := s.now()
	entry := &model.Entry{
		ID:        uuid.NewString(),
		Content:   content,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if entry.Tags == nil {
		entry.Tags = []string{}
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO entries (id, content, tags, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		entry.ID, entry.Content, tagsJSON, entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert entry: %w", err)
	}
	return entry, nil
}

// ListEntries returns entries newest first. A non-empty tag restricts the
// result to entries carrying exactly that tag.
func (s *SQLiteStore) ListEntries(ctx context.Context, tag string) ([]model.Entry, error) {
	query := "SELECT id, content, tags, created_at, updated_at FROM entries"
	args := []any{}
	if tag != "" {
		query += " WHERE EXISTS (SELECT 1 FROM json_each(entries.tags) WHERE json_each.value = ?)"
		args = append(args, tag)
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, maxListRows)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := []model.Entry{}
	for rows.Next() {
		var e model.Entry
		var tagsJSON string
		if err := rows.Scan(&e.ID, &e.Content, &tagsJSON, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		if e.Tags, err = decodeList(tagsJSON); err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListTags returns every distinct entry tag in lexical order.
func (s *SQLiteStore) ListTags(ctx context.Context) ([]string, error) {
	return s.distinctListValues(ctx, "entries", "tags")
}

func (s *SQLiteStore) DeleteEntry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	return nil
}

// distinctListValues flattens a JSON list column across a table.
// table and column are never user input.
func (s *SQLiteStore) distinctListValues(ctx context.Context, table, column string) ([]string, error) {
	query := fmt.Sprintf(
		"SELECT DISTINCT j.value FROM %s, json_each(%s.%s) AS j WHERE j.value <> '' ORDER BY j.value", table, table, column)
	return s.queryStrings(ctx, query)
}

func (s *SQLiteStore) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query values: %w", err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
