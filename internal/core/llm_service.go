package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"apshelper.com/job-helper/internal/config"
	"apshelper.com/job-helper/internal/metrics"
	"apshelper.com/job-helper/internal/model"
)

// ErrAIUnavailable means no provider key is configured.
var ErrAIUnavailable = errors.New("API key not configured")

// AI operation names, used as metric labels.
const (
	OpChat   = "chat"
	OpTag    = "tag"
	OpAssess = "assess"
	OpEmbed  = "embed"
)

// Turn is one prior message of a conversation.
type Turn struct {
	Role    model.Role
	Content string
}

// LLM is the AI provider used for chat, tagging, assessment and embeddings.
type LLM interface {
	// Complete answers prompt given a system instruction and prior turns.
	Complete(ctx context.Context, op, system string, history []Turn, prompt string) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
	Close() error
}

// NewLLM builds the configured provider, throttled to cfg.AIRatePerMinute
// and instrumented with m. It returns ErrAIUnavailable when the provider's
// key is missing so callers can still serve the non-AI routes.
func NewLLM(ctx context.Context, cfg config.Config, m *metrics.Metrics, logger *zap.Logger) (LLM, error) {
	key := cfg.APIKey()
	if key == "" {
		return nil, fmt.Errorf("%w: set %s", ErrAIUnavailable, cfg.APIKeyEnv())
	}

	var provider LLM
	var err error
	switch cfg.AIProvider {
	case config.ProviderGemini:
		provider, err = NewGeminiProvider(ctx, key, cfg.GeminiModel, logger)
	default:
		provider = NewOpenAIProvider(key, cfg.OpenAIModel, logger)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("AI provider ready", zap.String("provider", cfg.AIProvider), zap.Int("rate_per_minute", cfg.AIRatePerMinute))
	return NewThrottledLLM(provider, NewRateLimiter(cfg.AIRatePerMinute), m), nil
}

// NewRateLimiter allows perMinute calls a minute with a burst of one call
// in five, at least one.
func NewRateLimiter(perMinute int) *rate.Limiter {
	burst := perMinute / 5
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
}

type throttledLLM struct {
	next    LLM
	limiter *rate.Limiter
	metrics *metrics.Metrics
}

// NewThrottledLLM waits on limiter before every call to next and records
// each call in m.
func NewThrottledLLM(next LLM, limiter *rate.Limiter, m *metrics.Metrics) LLM {
	return &throttledLLM{next: next, limiter: limiter, metrics: m}
}

func (t *throttledLLM) Complete(ctx context.Context, op, system string, history []Turn, prompt string) (string, error) {
	started := time.Now()
	if err := t.limiter.Wait(ctx); err != nil {
		t.metrics.ObserveAICall(op, started, err)
		return "", fmt.Errorf("waiting for AI rate limit: %w", err)
	}
	out, err := t.next.Complete(ctx, op, system, history, prompt)
	t.metrics.ObserveAICall(op, started, err)
	return out, err
}

func (t *throttledLLM) Embed(ctx context.Context, text string) ([]float32, error) {
	started := time.Now()
	if err := t.limiter.Wait(ctx); err != nil {
		t.metrics.ObserveAICall(OpEmbed, started, err)
		return nil, fmt.Errorf("waiting for AI rate limit: %w", err)
	}
	vec, err := t.next.Embed(ctx, text)
	t.metrics.ObserveAICall(OpEmbed, started, err)
	return vec, err
}

func (t *throttledLLM) Close() error {
	return t.next.Close()
}
