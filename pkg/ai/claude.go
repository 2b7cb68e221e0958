package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/classpulse-team/classpulse/errors"
	"github.com/classpulse-team/classpulse/pkg/config"
)

// ClaudeClient is a minimal client for the Anthropic messages API used for
// the reasoning agents.
type ClaudeClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewClaudeClient creates a Claude client using values from the provided
// config. Pass a nil config to fall back to environment variables.
func NewClaudeClient(cfg *config.ClaudeConfig) *ClaudeClient {
	var apiKey string
	if cfg != nil {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		apiKey = os.Getenv("CLAUDE_API_KEY")
	}

	base := "https://api.anthropic.com"
	if cfg != nil && cfg.BaseURL != "" {
		base = cfg.BaseURL
	}

	model := "claude-3-haiku-20240307"
	if cfg != nil && cfg.Model != "" {
		model = cfg.Model
	}

	timeout := 30 * time.Second
	if cfg != nil && cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	return &ClaudeClient{
		apiKey:  apiKey,
		baseURL: base,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// MessagesRequest is the shape for messages API requests
type MessagesRequest struct {
	Model     string      `json:"model"`
	MaxTokens int         `json:"max_tokens"`
	System    string      `json:"system,omitempty"`
	Messages  interface{} `json:"messages"`
}

// MessagesResponse is a minimal response shape
type MessagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// CompleteJSON sends a system+user prompt pair and returns the first text
// block of the response. Transient failures (5xx, 429, network) are retried
// with exponential backoff inside the request context's deadline.
func (c *ClaudeClient) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	if c.apiKey == "" {
		return "", errors.ErrAgentUnavailable("claude").WithDetail("reason", "CLAUDE_API_KEY is not set")
	}

	reqBody := MessagesRequest{
		Model:     c.model,
		MaxTokens: 1024,
		System:    system,
		Messages:  []map[string]string{{"role": "user", "content": user}},
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	var out string
	operation := func() error {
		out, err = c.doRequest(ctx, b)
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}
	return out, nil
}

func (c *ClaudeClient) doRequest(ctx context.Context, body []byte) (string, error) {
	endpoint := c.baseURL + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("claude returned status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return "", backoff.Permanent(fmt.Errorf("claude returned status %d", resp.StatusCode))
	}

	var mr MessagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return "", backoff.Permanent(err)
	}
	for _, block := range mr.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", backoff.Permanent(fmt.Errorf("no text content in response"))
}
