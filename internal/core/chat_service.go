package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"apshelper.com/job-helper/internal/model"
	"apshelper.com/job-helper/internal/store"
)

// chatHistoryTurns is how many stored turns accompany a new message.
const chatHistoryTurns = 20

type ChatService struct {
	dbStore    *store.SQLiteStore
	ragService *RAGService
	llm        LLM
	logger     *zap.Logger
}

func NewChatService(db *store.SQLiteStore, rag *RAGService, llm LLM, logger *zap.Logger) *ChatService {
	return &ChatService{
		dbStore:    db,
		ragService: rag,
		llm:        llm,
		logger:     logger,
	}
}

// Chat stores the user's message, asks the AI for a reply using the
// session's recent history, stores the reply and returns it. An empty
// sessionID starts a new session. If the AI fails the user's message stays
// stored and no assistant message is written.
func (s *ChatService) Chat(ctx context.Context, sessionID, message string) (reply string, session string, err error) {
	if s.llm == nil {
		return "", "", ErrAIUnavailable
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	history, err := s.dbStore.GetLastNChatMessages(ctx, sessionID, chatHistoryTurns)
	if err != nil {
		s.logger.Warn("Proceeding without chat history", zap.String("session_id", sessionID), zap.Error(err))
		history = nil
	}

	userMsg := model.ChatMessage{SessionID: sessionID, Role: model.RoleUser, Content: message}
	if err := s.dbStore.CreateChatMessage(ctx, &userMsg); err != nil {
		return "", sessionID, fmt.Errorf("failed to store user message: %w", err)
	}

	ilsContext, err := s.ragService.RelevantContext(ctx, message)
	if err != nil {
		// Retrieval only enriches the prompt.
		s.logger.Warn("Failed to get relevant ILS context, proceeding without it", zap.Error(err))
		ilsContext = ""
	}

	turns := make([]Turn, 0, len(history))
	for _, m := range history {
		turns = append(turns, Turn{Role: m.Role, Content: m.Content})
	}

	reply, err = s.llm.Complete(ctx, OpChat, chatSystemInstruction, turns, chatPrompt(message, ilsContext))
	if err != nil {
		return "", sessionID, fmt.Errorf("failed to get AI reply: %w", err)
	}

	assistantMsg := model.ChatMessage{SessionID: sessionID, Role: model.RoleAssistant, Content: reply}
	if err := s.dbStore.CreateChatMessage(ctx, &assistantMsg); err != nil {
		return "", sessionID, fmt.Errorf("failed to store assistant message: %w", err)
	}
	return reply, sessionID, nil
}

func (s *ChatService) History(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	return s.dbStore.GetChatMessages(ctx, sessionID)
}
