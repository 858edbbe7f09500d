package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/majormentor/major-mentor-go/internal/ratelimit"
)

const (
	// DefaultEmbeddingModel is used when no embedding model is configured.
	DefaultEmbeddingModel = "gemini-embedding-001"

	// EmbeddingDimensions is the output dimension (768 default, supports MRL truncation).
	EmbeddingDimensions = 768

	// geminiAPIBaseURL is the base URL for the Gemini REST API.
	geminiAPIBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

	embedMaxRetries    = 5
	embedInitialDelay  = 2 * time.Second
	embedBackoffFactor = 2.0
)

// EmbeddingClient generates embedding vectors through the Gemini REST API.
// Requests are throttled locally to stay under the per-minute quota.
type EmbeddingClient struct {
	apiKey      string
	model       string
	httpClient  *http.Client
	rateLimiter *ratelimit.Limiter
}

// NewEmbeddingClient creates a Gemini embedding client. An empty model
// selects DefaultEmbeddingModel; requestsPerMinute <= 0 disables throttling
// headroom tuning and falls back to a conservative default.
func NewEmbeddingClient(apiKey, model string, requestsPerMinute int) *EmbeddingClient {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 100
	}
	return &EmbeddingClient{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		rateLimiter: ratelimit.NewPerMinute(float64(requestsPerMinute)),
	}
}

type embeddingRequest struct {
	Model   string           `json:"model"`
	Content embeddingContent `json:"content"`
}

type embeddingContent struct {
	Parts []embeddingPart `json:"parts"`
}

type embeddingPart struct {
	Text string `json:"text"`
}

type embeddingResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Embed generates an embedding vector for the given text.
// Transient errors (429, 500+) are retried with exponential backoff.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("gemini API key not configured")
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty or whitespace-only text cannot be embedded")
	}

	var lastErr error
	delay := embedInitialDelay

	for attempt := 0; attempt <= embedMaxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		result, retryable, err := c.embedOnce(ctx, text)
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !retryable {
			return nil, err
		}

		if attempt == embedMaxRetries {
			break
		}

		jittered := CalculateBackoff(attempt+1, delay, 64*time.Second)
		if err := Sleep(ctx, jittered); err != nil {
			return nil, err
		}

		delay = time.Duration(float64(delay) * embedBackoffFactor)
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// embedOnce performs a single embedding request.
// Returns (result, retryable, error).
func (c *EmbeddingClient) embedOnce(ctx context.Context, text string) ([]float32, bool, error) {
	url := fmt.Sprintf("%s/%s:embedContent?key=%s", geminiAPIBaseURL, c.model, c.apiKey)

	reqBody := embeddingRequest{
		Model: fmt.Sprintf("models/%s", c.model),
		Content: embeddingContent{
			Parts: []embeddingPart{{Text: text}},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, false, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network errors are retryable.
		return nil, true, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("HTTP %d: server error or rate limited", resp.StatusCode)
	}

	var embeddingResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingResp); err != nil {
		return nil, false, fmt.Errorf("decode response: %w", err)
	}

	if embeddingResp.Error != nil {
		retryable := embeddingResp.Error.Code == http.StatusTooManyRequests ||
			embeddingResp.Error.Status == "RESOURCE_EXHAUSTED" ||
			embeddingResp.Error.Code >= 500

		return nil, retryable, fmt.Errorf("API error %d: %s - %s",
			embeddingResp.Error.Code,
			embeddingResp.Error.Status,
			embeddingResp.Error.Message)
	}

	if len(embeddingResp.Embedding.Values) == 0 {
		return nil, false, fmt.Errorf("empty embedding returned")
	}

	return embeddingResp.Embedding.Values, false, nil
}

// EmbeddingFunc adapts the client to the chromem-go embedding interface.
func (c *EmbeddingClient) EmbeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return c.Embed(ctx, text)
	}
}

// IsConfigured returns true if the API key is set.
func (c *EmbeddingClient) IsConfigured() bool {
	return c.apiKey != ""
}
