package core

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"apshelper.com/job-helper/internal/model"
	"apshelper.com/job-helper/internal/store"
	"apshelper.com/job-helper/internal/utils"
)

const (
	NumRelevantBehaviours = 3   // ILS behaviours added to a chat prompt
	SimilarityThreshold   = 0.7 // minimum cosine similarity to count as relevant
)

// RAGService retrieves ILS behaviours relevant to a chat message.
type RAGService struct {
	llm        LLM
	logger     *zap.Logger
	references []model.ILSReference // embedded rows only
	vectors    [][]float32
}

// NewRAGService loads the embedded ILS reference rows once; rows seeded
// without embeddings are not retrievable.
func NewRAGService(ctx context.Context, db *store.SQLiteStore, llm LLM, logger *zap.Logger) (*RAGService, error) {
	refs, err := db.ListILSReferences(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load ILS reference for RAG service: %w", err)
	}

	s := &RAGService{llm: llm, logger: logger}
	for _, r := range refs {
		if len(r.Embedding) == 0 {
			continue
		}
		s.references = append(s.references, r)
		s.vectors = append(s.vectors, r.Embedding)
	}
	if len(s.references) == 0 {
		logger.Warn("RAG service has no embedded ILS reference data; run the server with -seed and an AI key")
	} else {
		logger.Info("RAG service initialized", zap.Int("behaviours", len(s.references)))
	}
	return s, nil
}

// RelevantContext returns the best matching behaviours as prompt lines, or
// "" when nothing clears the threshold.
func (s *RAGService) RelevantContext(ctx context.Context, query string) (string, error) {
	if s == nil || s.llm == nil || len(s.references) == 0 {
		return "", nil
	}

	queryEmbedding, err := s.llm.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to get query embedding: %w", err)
	}

	best := utils.TopK(queryEmbedding, s.vectors, NumRelevantBehaviours, SimilarityThreshold)
	if len(best) == 0 {
		s.logger.Debug("No relevant ILS behaviours", zap.Float32("threshold", SimilarityThreshold))
		return "", nil
	}

	lines := make([]string, 0, len(best))
	for _, b := range best {
		lines = append(lines, formatReference(s.references[b.Index]))
	}
	s.logger.Debug("Retrieved ILS behaviours", zap.Int("count", len(lines)))
	return strings.Join(lines, "\n"), nil
}
