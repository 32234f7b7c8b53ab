package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// ErrQuotaExhausted is returned once a run has spent its advisory budget.
var ErrQuotaExhausted = errors.New("advisory quota exhausted")

// DefaultTimeout bounds one advisory round trip.
const DefaultTimeout = 30 * time.Second

// ClientConfig configures the HTTP advisor.
type ClientConfig struct {
	// Endpoint is the URL of the oracle's batch-analyze endpoint.
	Endpoint string

	// Timeout bounds each request; DefaultTimeout when zero.
	Timeout time.Duration

	// Quota caps the number of requests per run; 0 means unlimited.
	Quota int
}

// Client is an HTTP JSON Advisor with a per-run request quota.
type Client struct {
	cfg  ClientConfig
	http *http.Client
	used atomic.Int64
}

// NewClient creates an HTTP advisor.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

type batchRequest struct {
	DiagnosticIDs  []int64 `json:"diagnosticIds"`
	IncludeContext bool    `json:"includeContext"`
}

type batchResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
}

// BatchAnalyze implements Advisor. Markdown answers are reduced to the
// first fenced code block before being returned as SuggestedFix.
func (c *Client) BatchAnalyze(ctx context.Context, diagnosticIDs []int64, opts Options) ([]Suggestion, error) {
	if len(diagnosticIDs) == 0 {
		return nil, nil
	}
	if c.cfg.Quota > 0 && c.used.Add(1) > int64(c.cfg.Quota) {
		return nil, ErrQuotaExhausted
	}

	body, err := json.Marshal(batchRequest{
		DiagnosticIDs:  diagnosticIDs,
		IncludeContext: opts.IncludeContext,
	})
	if err != nil {
		return nil, fmt.Errorf("encode advisory request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build advisory request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("advisory request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("advisory request: unexpected status %d", resp.StatusCode)
	}

	var decoded batchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode advisory response: %w", err)
	}

	out := decoded.Suggestions
	for i := range out {
		if code, ok := ExtractCodeBlock(out[i].SuggestedFix); ok {
			out[i].SuggestedFix = code
		}
	}
	return out, nil
}
