package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"apshelper.com/job-helper/internal/config"
	"apshelper.com/job-helper/internal/metrics"
	"apshelper.com/job-helper/internal/model"
)

func TestNewLLMWithoutKey(t *testing.T) {
	_, err := NewLLM(context.Background(), config.Config{AIProvider: config.ProviderOpenAI, AIRatePerMinute: 60}, nil, zap.NewNop())
	assert.ErrorIs(t, err, ErrAIUnavailable)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	_, err = NewLLM(context.Background(), config.Config{AIProvider: config.ProviderGemini, AIRatePerMinute: 60}, nil, zap.NewNop())
	assert.ErrorIs(t, err, ErrAIUnavailable)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestNewRateLimiter(t *testing.T) {
	l := NewRateLimiter(60)
	assert.Equal(t, 12, l.Burst())
	assert.InDelta(t, 1.0, float64(l.Limit()), 1e-9)

	assert.Equal(t, 1, NewRateLimiter(3).Burst())
}

func TestThrottledLLMRecordsMetrics(t *testing.T) {
	m := metrics.New()
	inner := &fakeLLM{embed: func(string) ([]float32, error) { return []float32{1}, nil }}
	llm := NewThrottledLLM(inner, rate.NewLimiter(rate.Inf, 1), m)

	_, err := llm.Complete(context.Background(), OpTag, "", nil, "p")
	require.NoError(t, err)
	_, err = llm.Embed(context.Background(), "x")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AICallsTotal.WithLabelValues(OpTag, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AICallsTotal.WithLabelValues(OpEmbed, "success")))
}

func TestThrottledLLMStopsOnCanceledContext(t *testing.T) {
	inner := &fakeLLM{}
	// An empty bucket that refills slowly forces Wait to consult the context.
	limiter := rate.NewLimiter(rate.Limit(0.001), 1)
	limiter.Allow()
	llm := NewThrottledLLM(inner, limiter, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := llm.Complete(ctx, OpChat, "", nil, "p")
	require.Error(t, err)
	assert.Empty(t, inner.calls)
}

func TestOpenAIProvider(t *testing.T) {
	var gotChat openai.ChatCompletionRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotChat))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Role: "assistant", Content: "Use STAR."}}},
		})
	})
	mux.HandleFunc("/embeddings", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   []map[string]any{{"object": "embedding", "index": 0, "embedding": []float32{0.25, 0.5}}},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL
	p := NewOpenAIProviderWithConfig(cfg, "gpt-4o-mini", zap.NewNop())

	out, err := p.Complete(context.Background(), OpChat, "system prompt",
		[]Turn{{Role: model.RoleUser, Content: "q1"}, {Role: model.RoleAssistant, Content: "a1"}}, "q2")
	require.NoError(t, err)
	assert.Equal(t, "Use STAR.", out)

	require.Len(t, gotChat.Messages, 4)
	assert.Equal(t, "gpt-4o-mini", gotChat.Model)
	assert.Equal(t, openai.ChatMessageRoleSystem, gotChat.Messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, gotChat.Messages[2].Role)
	assert.Equal(t, "q2", gotChat.Messages[3].Content)

	vec, err := p.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 0.5}, vec)
}

func TestOpenAIProviderSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("bad")
	cfg.BaseURL = srv.URL
	_, err := NewOpenAIProviderWithConfig(cfg, "gpt-4o-mini", zap.NewNop()).Complete(context.Background(), OpTag, "", nil, "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect API key provided")
}

func TestGeminiHistoryRoles(t *testing.T) {
	contents := geminiHistory([]Turn{{Role: model.RoleUser, Content: "q"}, {Role: model.RoleAssistant, Content: "a"}})
	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
}
