package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"apshelper.com/job-helper/internal/model"
)

func (s *SQLiteStore) CreateChatMessage(ctx context.Context, msg *model.ChatMessage) error {
	msg.ID = uuid.NewString()
	msg.Timestamp = s.now()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO chat_messages (id, session_id, role, content, timestamp) VALUES (?, ?, ?, ?, ?)",
		msg.ID, msg.SessionID, string(msg.Role), msg.Content, msg.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert chat message: %w", err)
	}
	return nil
}

// GetChatMessages returns a session's transcript oldest first.
func (s *SQLiteStore) GetChatMessages(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	return s.scanChatMessages(ctx, `
        SELECT id, session_id, role, content, timestamp
        FROM chat_messages
        WHERE session_id = ?
        ORDER BY timestamp ASC, rowid ASC
        LIMIT ?`, sessionID, maxListRows)
}

// GetLastNChatMessages returns the n most recent messages, oldest first.
func (s *SQLiteStore) GetLastNChatMessages(ctx context.Context, sessionID string, n int) ([]model.ChatMessage, error) {
	messages, err := s.scanChatMessages(ctx, `
        SELECT id, session_id, role, content, timestamp
        FROM chat_messages
        WHERE session_id = ?
        ORDER BY timestamp DESC, rowid DESC
        LIMIT ?`, sessionID, n)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (s *SQLiteStore) scanChatMessages(ctx context.Context, query string, args ...any) ([]model.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat messages: %w", err)
	}
	defer rows.Close()

	messages := []model.ChatMessage{}
	for rows.Next() {
		var msg model.ChatMessage
		var role string
		if err := rows.Scan(&msg.ID, &msg.SessionID, &role, &msg.Content, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan chat message row: %w", err)
		}
		msg.Role = model.Role(role)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
