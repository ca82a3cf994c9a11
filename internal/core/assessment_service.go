package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"apshelper.com/job-helper/internal/model"
	"apshelper.com/job-helper/internal/store"
)

// AssessmentService manages work examples and assesses them against the ILS.
type AssessmentService struct {
	dbStore *store.SQLiteStore
	llm     LLM
	logger  *zap.Logger
}

func NewAssessmentService(db *store.SQLiteStore, llm LLM, logger *zap.Logger) *AssessmentService {
	return &AssessmentService{dbStore: db, llm: llm, logger: logger}
}

func (s *AssessmentService) ListWorkExamples(ctx context.Context) ([]model.WorkExample, error) {
	return s.dbStore.ListWorkExamples(ctx)
}

func (s *AssessmentService) CreateWorkExample(ctx context.Context, in model.WorkExampleInput) (*model.WorkExample, error) {
	return s.dbStore.CreateWorkExample(ctx, in)
}

func (s *AssessmentService) UpdateWorkExample(ctx context.Context, id string, in model.WorkExampleInput) (*model.WorkExample, error) {
	return s.dbStore.UpdateWorkExample(ctx, id, in)
}

func (s *AssessmentService) DeleteWorkExample(ctx context.Context, id string) error {
	return s.dbStore.DeleteWorkExample(ctx, id)
}

func (s *AssessmentService) FilterOptions(ctx context.Context) (*model.FilterOptions, error) {
	return s.dbStore.FilterOptions(ctx)
}

// Assess asks the AI to evaluate exampleText at level. The prompt carries
// the ILS reference behaviours for that level, or every behaviour when the
// level has none of its own.
func (s *AssessmentService) Assess(ctx context.Context, exampleText, level string) (string, error) {
	if s.llm == nil {
		return "", ErrAIUnavailable
	}

	refs, err := s.dbStore.ListILSReferences(ctx, level)
	if err != nil {
		return "", err
	}
	if len(refs) == 0 {
		if refs, err = s.dbStore.ListILSReferences(ctx, ""); err != nil {
			return "", err
		}
	}
	s.logger.Debug("Assessing work example", zap.String("aps_level", level), zap.Int("reference_rows", len(refs)))

	assessment, err := s.llm.Complete(ctx, OpAssess, assessmentSystemInstruction, nil, assessmentPrompt(exampleText, level, refs))
	if err != nil {
		return "", fmt.Errorf("failed to assess work example: %w", err)
	}
	return assessment, nil
}

func (s *AssessmentService) SaveAssessment(ctx context.Context, a *model.Assessment) error {
	return s.dbStore.CreateAssessment(ctx, a)
}

func (s *AssessmentService) ListAssessments(ctx context.Context, workExampleID string) ([]model.Assessment, error) {
	return s.dbStore.ListAssessments(ctx, workExampleID)
}
