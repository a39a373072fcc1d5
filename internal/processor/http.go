package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vendalia/opcenter/internal/model"
)

// HTTPStep delegates a drain pass to an external delivery function over
// HTTP. The response body is passed through as Result.Detail without
// interpretation.
type HTTPStep struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewHTTPStep creates a step that posts batches to endpoint, authenticating
// with the service-level bearer token.
func NewHTTPStep(endpoint, token string, timeout time.Duration) *HTTPStep {
	if timeout <= 0 {
		timeout = 55 * time.Second
	}
	return &HTTPStep{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: timeout},
	}
}

// Name implements Step.
func (s *HTTPStep) Name() string { return "http" }

// Process implements Step.
func (s *HTTPStep) Process(ctx context.Context, batch []model.QueueEntry) (*Result, error) {
	body, err := json.Marshal(map[string]any{"entries": batch})
	if err != nil {
		return nil, fmt.Errorf("marshal batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invoke delivery function: %w", err)
	}
	defer resp.Body.Close()

	detail, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("delivery function returned %d: %s", resp.StatusCode, detail)
	}

	result := &Result{Processed: len(batch)}
	if json.Valid(detail) {
		result.Detail = detail
	}
	return result, nil
}
