package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"apshelper.com/job-helper/internal/model"
	"apshelper.com/job-helper/internal/store"
)

// EntryService stores application text with AI-generated tags.
type EntryService struct {
	dbStore *store.SQLiteStore
	llm     LLM
	logger  *zap.Logger
}

func NewEntryService(db *store.SQLiteStore, llm LLM, logger *zap.Logger) *EntryService {
	return &EntryService{dbStore: db, llm: llm, logger: logger}
}

// Store tags content with the AI and saves it. Nothing is saved when
// tagging fails.
func (s *EntryService) Store(ctx context.Context, content string) (*model.Entry, error) {
	if s.llm == nil {
		return nil, ErrAIUnavailable
	}

	reply, err := s.llm.Complete(ctx, OpTag, taggingSystemInstruction, nil, taggingPrompt(content))
	if err != nil {
		return nil, fmt.Errorf("failed to tag entry: %w", err)
	}
	tags := ParseTags(reply)
	s.logger.Debug("Tagged entry", zap.Strings("tags", tags))

	return s.dbStore.CreateEntry(ctx, content, tags)
}

func (s *EntryService) List(ctx context.Context, tag string) ([]model.Entry, error) {
	return s.dbStore.ListEntries(ctx, tag)
}

func (s *EntryService) Tags(ctx context.Context) ([]string, error) {
	return s.dbStore.ListTags(ctx)
}

func (s *EntryService) Delete(ctx context.Context, id string) error {
	return s.dbStore.DeleteEntry(ctx, id)
}
