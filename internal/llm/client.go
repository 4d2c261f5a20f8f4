package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lamim/tutorialforge/internal/config"
)

// Client issues a single request to a language-model backend and returns
// its text response. Implementations have no knowledge of caching or
// pipeline state; resilience policy, if any, is layered on top (see
// RetryClient).
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// HTTPClient talks to an OpenAI-compatible chat completions endpoint.
// Each Generate performs exactly one request attempt; an unsuccessful call
// propagates its failure to the caller unmodified.
type HTTPClient struct {
	httpClient      *http.Client
	rateLimiterPool *RateLimiterPool
	logger          *slog.Logger
	modelCfg        config.ModelConfig
	apiKey          string
}

// NewHTTPClient creates a new backend client for the configured model.
func NewHTTPClient(modelCfg config.ModelConfig, apiKey string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{
			// Zero means no client-side timeout: a hang in the backend
			// blocks the calling stage, matching the synchronous model.
			Timeout: time.Duration(modelCfg.HTTPTimeoutSeconds) * time.Second,
		},
		rateLimiterPool: NewRateLimiterPool(),
		logger:          logger,
		modelCfg:        modelCfg,
		apiKey:          apiKey,
	}
}

// Generate sends the prompt as the sole user message and returns the text
// of the first completion choice.
func (c *HTTPClient) Generate(ctx context.Context, prompt string) (string, error) {
	endpointID := fmt.Sprintf("%s:%s", c.modelCfg.BaseURL, c.modelCfg.ModelName)
	if err := c.rateLimiterPool.Wait(ctx, endpointID, c.modelCfg.RateLimitPerMinute); err != nil {
		return "", fmt.Errorf("rate limiter wait failed: %w", err)
	}

	req := ChatCompletionRequest{
		Model:       c.modelCfg.ModelName,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: c.modelCfg.Temperature,
		MaxTokens:   c.modelCfg.MaxOutputTokens,
		N:           1,
	}

	resp, err := c.doRequest(ctx, req)
	if err != nil {
		return "", err
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("model returned an empty response")
	}
	return content, nil
}

func (c *HTTPClient) doRequest(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := c.modelCfg.BaseURL
	if endpoint == "" {
		return nil, fmt.Errorf("model base URL is not configured")
	}
	if endpoint[len(endpoint)-1] != '/' {
		endpoint += "/"
	}
	endpoint += "chat/completions"

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	} else {
		c.logger.Warn("API request without key", "endpoint", endpoint)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &APIError{
			Message:    fmt.Sprintf("request failed: %v", err),
			StatusCode: 0,
			Retryable:  true,
		}
	}
	defer func() {
		if err := httpResp.Body.Close(); err != nil {
			c.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		isRetryable := isStatusCodeRetryable(httpResp.StatusCode)

		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			return nil, &APIError{
				Message:    errResp.Error.Message,
				StatusCode: httpResp.StatusCode,
				Type:       errResp.Error.Type,
				Code:       errResp.Error.Code,
				Retryable:  isRetryable,
			}
		}

		return nil, &APIError{
			Message:    fmt.Sprintf("API request failed with status %d: %s", httpResp.StatusCode, string(respBody)),
			StatusCode: httpResp.StatusCode,
			Retryable:  isRetryable,
		}
	}

	var resp ChatCompletionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned in response")
	}

	return &resp, nil
}

func isStatusCodeRetryable(statusCode int) bool {
	// Retry on rate limits and server errors
	return statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusInternalServerError ||
		statusCode == http.StatusBadGateway ||
		statusCode == http.StatusServiceUnavailable ||
		statusCode == http.StatusGatewayTimeout
}
