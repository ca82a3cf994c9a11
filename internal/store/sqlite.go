package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"go.uber.org/zap"
)

// maxListRows caps list queries, mirroring the page's fetch size.
const maxListRows = 1000

type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

func NewSQLiteStore(dataSourceName string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", dataSourceName+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	if err = store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS entries (
        id TEXT PRIMARY KEY, -- UUID
        content TEXT NOT NULL,
        tags TEXT NOT NULL DEFAULT '[]', -- JSON array of strings
        created_at DATETIME NOT NULL,
        updated_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_entries_created ON entries(created_at DESC);

    CREATE TABLE IF NOT EXISTS chat_messages (
        id TEXT PRIMARY KEY, -- UUID
        session_id TEXT NOT NULL,
        role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
        content TEXT NOT NULL,
        timestamp DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages(session_id, timestamp);

    CREATE TABLE IF NOT EXISTS work_examples (
        id TEXT PRIMARY KEY, -- UUID
        title TEXT NOT NULL,
        example_text TEXT NOT NULL,
        role TEXT NOT NULL DEFAULT '',
        aps_level TEXT NOT NULL,
        capabilities TEXT NOT NULL DEFAULT '[]',
        behaviours TEXT NOT NULL DEFAULT '[]',
        tags TEXT NOT NULL DEFAULT '[]',
        created_at DATETIME NOT NULL,
        updated_at DATETIME NOT NULL
    );

    CREATE TABLE IF NOT EXISTS assessments (
        id TEXT PRIMARY KEY, -- UUID
        work_example_id TEXT, -- not a foreign key: assessments outlive their example
        example_text TEXT NOT NULL,
        aps_level TEXT NOT NULL,
        assessment TEXT NOT NULL,
        created_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_assessments_example ON assessments(work_example_id);

    CREATE TABLE IF NOT EXISTS ils_reference (
        id TEXT PRIMARY KEY, -- UUID
        capability_name TEXT NOT NULL,
        aps_level TEXT NOT NULL,
        behaviour TEXT NOT NULL,
        description TEXT NOT NULL,
        embedding_json TEXT -- JSON array of float32, empty when not embedded
    );
    `
	_, err := s.db.Exec(schema)
	return err
}
