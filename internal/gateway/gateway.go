// Package gateway is the client for the APS Job Helper HTTP API. Each method
// is a single request and response; there is no retry, batching or caching.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"apshelper.com/job-helper/internal/model"
)

// APIError is a non-2xx response. Detail is the server's "detail" field, or
// empty when the body did not carry one.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// Client talks to one backend. It is safe for concurrent use.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// New creates a client for baseURL, e.g. http://localhost:8080/api.
// AI-backed calls can be slow, hence the generous timeout.
func New(baseURL string, logger *zap.Logger) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: 90 * time.Second}, logger)
}

func NewWithHTTPClient(baseURL string, hc *http.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{baseURL: baseURL, client: hc, logger: logger}
}

type ChatReply struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

func (c *Client) ListEntries(ctx context.Context, tag string) ([]model.Entry, error) {
	path := "/entries"
	if tag != "" {
		path += "?tag=" + url.QueryEscape(tag)
	}
	return getList[model.Entry](ctx, c, path)
}

func (c *Client) ListTags(ctx context.Context) ([]string, error) {
	return getList[string](ctx, c, "/tags")
}

// StoreEntry sends text to be tagged by the AI and saved.
func (c *Client) StoreEntry(ctx context.Context, content string) (*model.Entry, error) {
	var out model.Entry
	if err := c.do(ctx, http.MethodPost, "/store", map[string]string{"content": content}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/entries/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Chat(ctx context.Context, sessionID, message string) (*ChatReply, error) {
	body := map[string]string{"message": message, "session_id": sessionID}
	var out ChatReply
	if err := c.do(ctx, http.MethodPost, "/chat", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ChatHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	return getList[model.ChatMessage](ctx, c, "/chat/"+url.PathEscape(sessionID))
}

func (c *Client) ListWorkExamples(ctx context.Context) ([]model.WorkExample, error) {
	return getList[model.WorkExample](ctx, c, "/work-examples")
}

func (c *Client) CreateWorkExample(ctx context.Context, in model.WorkExampleInput) (*model.WorkExample, error) {
	var out model.WorkExample
	if err := c.do(ctx, http.MethodPost, "/work-examples", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateWorkExample(ctx context.Context, id string, in model.WorkExampleInput) (*model.WorkExample, error) {
	var out model.WorkExample
	if err := c.do(ctx, http.MethodPut, "/work-examples/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteWorkExample(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/work-examples/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Filters(ctx context.Context) (*model.FilterOptions, error) {
	var out model.FilterOptions
	if err := c.do(ctx, http.MethodGet, "/filters", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Assess returns the AI's evaluation of exampleText at level.
func (c *Client) Assess(ctx context.Context, exampleText, level string) (string, error) {
	body := map[string]string{"example_text": exampleText, "aps_level": level}
	var out struct {
		Assessment string `json:"assessment"`
	}
	if err := c.do(ctx, http.MethodPost, "/assess", body, &out); err != nil {
		return "", err
	}
	return out.Assessment, nil
}

func (c *Client) SaveAssessment(ctx context.Context, a model.Assessment) (*model.Assessment, error) {
	body := map[string]string{
		"work_example_id": a.WorkExampleID,
		"example_text":    a.ExampleText,
		"aps_level":       a.APSLevel,
		"assessment":      a.Assessment,
	}
	var out model.Assessment
	if err := c.do(ctx, http.MethodPost, "/assessments/save", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListAssessments(ctx context.Context, workExampleID string) ([]model.Assessment, error) {
	path := "/assessments"
	if workExampleID != "" {
		path += "?work_example_id=" + url.QueryEscape(workExampleID)
	}
	return getList[model.Assessment](ctx, c, path)
}

func getList[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var out []T
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DetailOr returns the server's detail for err, or fallback when err carries
// none.
func DetailOr(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// do sends body as JSON (when non-nil) and decodes a 2xx response into out
// (when non-nil). Any other status becomes an *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s request: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("API call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(started)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var e struct {
			Detail string `json:"detail"`
		}
		_ = json.Unmarshal(b, &e)
		return &APIError{Status: resp.StatusCode, Detail: e.Detail}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}
