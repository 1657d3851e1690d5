package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-health-planner/internal/config"
	"ai-health-planner/internal/shared"
)

// OpenRouterClient is a chat-completions client for the OpenRouter API.
type OpenRouterClient struct {
	apiKey     string
	model      string
	maxTokens  int
	timeout    time.Duration
	endpoint   string
	httpClient *http.Client
}

// NewOpenRouterClient creates a new OpenRouter API client.
func NewOpenRouterClient(cfg *config.Config) *OpenRouterClient {
	return &OpenRouterClient{
		apiKey:    cfg.OpenRouterAPIKey,
		model:     cfg.LLMModel,
		maxTokens: cfg.LLMMaxTokens,
		timeout:   cfg.LLMTimeout,
		endpoint:  cfg.OpenRouterURL,
		// The per-call deadline lives on the request context.
		httpClient: &http.Client{},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// GenerateContent sends both instructions to the model and returns the first
// message's text unmodified.
func (c *OpenRouterClient) GenerateContent(ctx context.Context, prompt Prompt) (ContentResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	jsonBody, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Title", "AI Health Planner")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ContentResponse{}, c.classify(ctx, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return ContentResponse{}, c.classify(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ContentResponse{}, &UpstreamError{Provider: "OpenRouter", Status: resp.StatusCode, Body: string(bodyBytes)}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
		return ContentResponse{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if len(chatResp.Choices) == 0 {
		return ContentResponse{}, fmt.Errorf("%w: no choices", ErrMalformedEnvelope)
	}
	msg := chatResp.Choices[0].Message
	if msg == nil {
		return ContentResponse{}, fmt.Errorf("%w: missing message", ErrMalformedEnvelope)
	}
	if msg.Content == nil {
		return ContentResponse{}, fmt.Errorf("%w: missing content", ErrMalformedEnvelope)
	}

	return ContentResponse{
		Content: *msg.Content,
		Usage: shared.TokenUsage{
			PromptTokens:     chatResp.Usage.PromptTokens,
			CompletionTokens: chatResp.Usage.CompletionTokens,
			TotalTokens:      chatResp.Usage.TotalTokens,
			Model:            c.model,
		},
	}, nil
}

func (c *OpenRouterClient) classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
	}
	return fmt.Errorf("failed to send request: %w", err)
}
