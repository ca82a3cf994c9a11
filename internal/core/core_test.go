package core

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"apshelper.com/job-helper/internal/model"
	"apshelper.com/job-helper/internal/store"
)

type completeCall struct {
	op      string
	system  string
	history []Turn
	prompt  string
}

// fakeLLM answers from canned replies and records what it was asked.
type fakeLLM struct {
	mu       sync.Mutex
	reply    func(call completeCall) (string, error)
	embed    func(text string) ([]float32, error)
	calls    []completeCall
	embedded []string
}

func (f *fakeLLM) Complete(ctx context.Context, op, system string, history []Turn, prompt string) (string, error) {
	f.mu.Lock()
	call := completeCall{op: op, system: system, history: append([]Turn(nil), history...), prompt: prompt}
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	if f.reply == nil {
		return "ok", nil
	}
	return f.reply(call)
}

func (f *fakeLLM) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.embedded = append(f.embedded, text)
	f.mu.Unlock()
	if f.embed == nil {
		return nil, errors.New("embeddings disabled")
	}
	return f.embed(text)
}

func (f *fakeLLM) Close() error { return nil }

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "core.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newChatService(t *testing.T, db *store.SQLiteStore, llm LLM) *ChatService {
	t.Helper()
	rag, err := NewRAGService(context.Background(), db, llm, zap.NewNop())
	require.NoError(t, err)
	return NewChatService(db, rag, llm, zap.NewNop())
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"Achieves Results", "APS6", "cover letter"}, ParseTags(" Achieves Results, APS6 ,, cover letter ,"))
	assert.Equal(t, []string{}, ParseTags(""))
	assert.Equal(t, []string{}, ParseTags(" , ,"))
}

func TestChatStoresBothTurnsAndSendsHistory(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	llm := &fakeLLM{reply: func(c completeCall) (string, error) {
		return "reply to " + c.prompt, nil
	}}
	svc := newChatService(t, db, llm)

	reply, session, err := svc.Chat(ctx, "", "What is EL1?")
	require.NoError(t, err)
	assert.NotEmpty(t, session)
	assert.Equal(t, "reply to What is EL1?", reply)

	_, again, err := svc.Chat(ctx, session, "And EL2?")
	require.NoError(t, err)
	assert.Equal(t, session, again)

	require.Len(t, llm.calls, 2)
	assert.Equal(t, OpChat, llm.calls[1].op)
	assert.Contains(t, llm.calls[1].system, "Integrated Leadership System")
	assert.Equal(t, []Turn{
		{Role: model.RoleUser, Content: "What is EL1?"},
		{Role: model.RoleAssistant, Content: "reply to What is EL1?"},
	}, llm.calls[1].history)

	msgs, err := svc.History(ctx, session)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, model.RoleUser, msgs[2].Role)
	assert.Equal(t, "And EL2?", msgs[2].Content)
}

func TestChatFailureKeepsUserMessage(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	llm := &fakeLLM{reply: func(completeCall) (string, error) { return "", errors.New("provider down") }}
	svc := newChatService(t, db, llm)

	_, session, err := svc.Chat(ctx, "s-1", "hello")
	require.Error(t, err)
	assert.Equal(t, "s-1", session)

	msgs, err := svc.History(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
}

func TestAIServicesWithoutProvider(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)

	_, _, err := newChatService(t, db, nil).Chat(ctx, "", "hi")
	assert.ErrorIs(t, err, ErrAIUnavailable)

	_, err = NewEntryService(db, nil, zap.NewNop()).Store(ctx, "text")
	assert.ErrorIs(t, err, ErrAIUnavailable)

	_, err = NewAssessmentService(db, nil, zap.NewNop()).Assess(ctx, "text", "APS6")
	assert.ErrorIs(t, err, ErrAIUnavailable)
}

func TestChatAddsRelevantILSContext(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	require.NoError(t, db.CreateILSReference(ctx, &model.ILSReference{
		CapabilityName: "Communicates with Influence", APSLevel: "APS6",
		Behaviour: "Negotiates confidently", Description: "Approaches negotiations with a clear understanding.",
		Embedding: []float32{1, 0},
	}))
	require.NoError(t, db.CreateILSReference(ctx, &model.ILSReference{
		CapabilityName: "Achieves Results", APSLevel: "APS6",
		Behaviour: "Commits to action", Description: "Takes personal responsibility.",
		Embedding: []float32{0, 1},
	}))
	require.NoError(t, db.CreateILSReference(ctx, &model.ILSReference{
		CapabilityName: "Unembedded", APSLevel: "APS6", Behaviour: "b", Description: "d",
	}))

	llm := &fakeLLM{embed: func(text string) ([]float32, error) { return []float32{0.9, 0.1}, nil }}
	svc := newChatService(t, db, llm)
	assert.Len(t, svc.ragService.references, 2)

	_, _, err := svc.Chat(ctx, "", "How do I show negotiation skills?")
	require.NoError(t, err)

	prompt := llm.calls[0].prompt
	assert.Contains(t, prompt, "--- CONTEXT START ---")
	assert.Contains(t, prompt, "Negotiates confidently")
	assert.NotContains(t, prompt, "Commits to action")
	assert.True(t, strings.HasSuffix(prompt, "How do I show negotiation skills?"))
}

func TestChatProceedsWhenRetrievalFails(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	require.NoError(t, db.CreateILSReference(ctx, &model.ILSReference{
		CapabilityName: "c", APSLevel: "APS6", Behaviour: "b", Description: "d", Embedding: []float32{1, 0},
	}))
	llm := &fakeLLM{} // Embed fails
	svc := newChatService(t, db, llm)

	_, _, err := svc.Chat(ctx, "", "plain question")
	require.NoError(t, err)
	assert.Equal(t, "plain question", llm.calls[0].prompt)
}

func TestEntryStoreTagsContent(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	llm := &fakeLLM{reply: func(c completeCall) (string, error) {
		return "Achieves Results, EL1 , stakeholder engagement,", nil
	}}
	svc := NewEntryService(db, llm, zap.NewNop())

	entry, err := svc.Store(ctx, "I led stakeholder engagement for a program.")
	require.NoError(t, err)
	assert.Equal(t, []string{"Achieves Results", "EL1", "stakeholder engagement"}, entry.Tags)
	assert.Equal(t, OpTag, llm.calls[0].op)
	assert.Contains(t, llm.calls[0].prompt, "I led stakeholder engagement for a program.")
	assert.Equal(t, taggingSystemInstruction, llm.calls[0].system)

	tags, err := svc.Tags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Achieves Results", "EL1", "stakeholder engagement"}, tags)

	list, err := svc.List(ctx, "EL1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, entry.ID))
	assert.ErrorIs(t, svc.Delete(ctx, entry.ID), store.ErrNotFound)
}

func TestEntryStoreNothingSavedWhenTaggingFails(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	llm := &fakeLLM{reply: func(completeCall) (string, error) { return "", errors.New("timeout") }}

	_, err := NewEntryService(db, llm, zap.NewNop()).Store(ctx, "text")
	require.Error(t, err)

	entries, err := db.ListEntries(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAssessUsesLevelReferenceOrFallsBack(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	require.NoError(t, db.CreateILSReference(ctx, &model.ILSReference{
		CapabilityName: "Achieves Results", APSLevel: "APS6", Behaviour: "Commits to action", Description: "Takes responsibility.",
	}))
	llm := &fakeLLM{reply: func(c completeCall) (string, error) { return "Meets APS6 expectations.", nil }}
	svc := NewAssessmentService(db, llm, zap.NewNop())

	out, err := svc.Assess(ctx, "I delivered the project early.", "APS6")
	require.NoError(t, err)
	assert.Equal(t, "Meets APS6 expectations.", out)
	assert.Contains(t, llm.calls[0].prompt, "Target classification: APS6")
	assert.Contains(t, llm.calls[0].prompt, "Commits to action")
	assert.Contains(t, llm.calls[0].prompt, "I delivered the project early.")

	_, err = svc.Assess(ctx, "text", "EL2")
	require.NoError(t, err)
	assert.Contains(t, llm.calls[1].prompt, "Target classification: EL2")
	assert.Contains(t, llm.calls[1].prompt, "Commits to action (APS6)")
}

func TestWorkExamplesAndSavedAssessments(t *testing.T) {
	ctx := context.Background()
	svc := NewAssessmentService(newTestStore(t), &fakeLLM{}, zap.NewNop())

	ex, err := svc.CreateWorkExample(ctx, model.WorkExampleInput{Title: "t", ExampleText: "x", APSLevel: "APS3", Tags: []string{"ops"}})
	require.NoError(t, err)

	_, err = svc.UpdateWorkExample(ctx, ex.ID, model.WorkExampleInput{Title: "t2", ExampleText: "x", APSLevel: "APS4"})
	require.NoError(t, err)

	list, err := svc.ListWorkExamples(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "APS4", list[0].APSLevel)

	opts, err := svc.FilterOptions(ctx)
	require.NoError(t, err)
	assert.Empty(t, opts.Tags)

	require.NoError(t, svc.SaveAssessment(ctx, &model.Assessment{WorkExampleID: ex.ID, ExampleText: "x", APSLevel: "APS4", Assessment: "ok"}))
	saved, err := svc.ListAssessments(ctx, ex.ID)
	require.NoError(t, err)
	assert.Len(t, saved, 1)

	require.NoError(t, svc.DeleteWorkExample(ctx, ex.ID))
	assert.ErrorIs(t, svc.DeleteWorkExample(ctx, ex.ID), store.ErrNotFound)
}
