package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/zeewaqar/stock-prediction-app/internal/httputil"
)

const (
	groqBaseURL     = "https://api.groq.com"
	defaultModel    = "mistral-saba-24b"
	completionsPath = "/openai/v1/chat/completions"
)

// GroqClient talks to the Groq OpenAI-compatible chat completions endpoint.
type GroqClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	retry      httputil.RetryConfig
	logger     zerolog.Logger
}

func NewGroqClient(apiKey, model string, retry httputil.RetryConfig, timeout time.Duration) *GroqClient {
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GroqClient{
		apiKey:     apiKey,
		model:      model,
		baseURL:    groqBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
		logger:     log.With().Str("component", "groq_client").Logger(),
	}
}

// WithBaseURL overrides the provider endpoint, for tests.
func (c *GroqClient) WithBaseURL(u string) *GroqClient {
	c.baseURL = u
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
	Messages    []chatMessage `json:"messages"`
}

// Complete sends a system instruction plus user prompt and returns the raw
// text of the first completion choice.
func (c *GroqClient) Complete(ctx context.Context, system, user string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Temperature: 0.2,
		Stream:      false,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	resp, err := httputil.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: completion call: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: model endpoint returned status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var envelope struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", fmt.Errorf("%w: decode completion envelope: %v", ErrUpstreamUnavailable, err)
	}
	if len(envelope.Choices) == 0 || envelope.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: completion envelope has no content", ErrUpstreamUnavailable)
	}

	c.logger.Debug().Str("model", c.model).Int("chars", len(envelope.Choices[0].Message.Content)).Msg("completion received")
	return envelope.Choices[0].Message.Content, nil
}
