package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	messagesURL   = "https://api.anthropic.com/v1/messages"
	apiVersion    = "2023-06-01"
	defaultModel  = "claude-haiku-4-5-20251001"
)

// Client is a direct (non-SDK) Anthropic Messages API client, grounded
// on the teacher's internal/llm.Client: raw net/http, a system/user
// message pair, and a per-minute call-count rate limiter.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client

	mu        sync.Mutex
	callCount int
	resetAt   time.Time
	maxPerMin int
}

// NewClient creates a Client. Returns nil if apiKey is empty, matching
// the teacher's "LLM features disabled without a key" behavior; an Oracle
// built from a nil Client always falls back (see Cognize).
func NewClient(apiKey string, maxPerMin int) *Client {
	if apiKey == "" {
		return nil
	}
	if maxPerMin <= 0 {
		maxPerMin = 20
	}
	return &Client{
		apiKey:     apiKey,
		model:      defaultModel,
		httpClient: &http.Client{},
		maxPerMin:  maxPerMin,
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system,omitempty"`
	Messages  []apiMessage `json:"messages"`
}

type apiResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (c *Client) reserveSlot() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if now.After(c.resetAt) {
		c.callCount = 0
		c.resetAt = now.Add(time.Minute)
	}
	if c.callCount >= c.maxPerMin {
		return fmt.Errorf("oracle rate limit exceeded (%d calls/min)", c.maxPerMin)
	}
	c.callCount++
	return nil
}

// complete sends one system/user exchange to the Messages API,
// respecting ctx's deadline (spec.md §4.5 per-operation timeouts).
func (c *Client) complete(ctx context.Context, system, userPrompt string, maxTokens int) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("oracle client not configured")
	}
	if err := c.reserveSlot(); err != nil {
		return "", err
	}

	reqBody := apiRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []apiMessage{{Role: "user", Content: userPrompt}},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal oracle request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, messagesURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create oracle request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("oracle API call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read oracle response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oracle API error %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed apiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal oracle response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("empty oracle response")
	}

	slog.Debug("oracle call", "input_tokens", parsed.Usage.InputTokens, "output_tokens", parsed.Usage.OutputTokens)
	return parsed.Content[0].Text, nil
}
