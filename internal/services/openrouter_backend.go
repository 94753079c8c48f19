package services

import (
	"context"
	"errors"
	"net/http"
	"time"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// OpenRouterBackend calls an OpenAI-compatible chat-completions aggregator.
// Unlike the other backends a missing answer is an error, not a default string.
type OpenRouterBackend struct {
	URL    string
	Model  string
	APIKey string
	client *http.Client
}

func NewOpenRouterBackend(url, model, apiKey string, timeout time.Duration) *OpenRouterBackend {
	return &OpenRouterBackend{URL: url, Model: model, APIKey: apiKey, client: newBackendClient(timeout)}
}

func (b *OpenRouterBackend) Name() string {
	return "OpenRouter"
}

func (b *OpenRouterBackend) Generate(ctx context.Context, prompt string) (string, error) {
	if b.APIKey == "" {
		return "", ErrMissingAPIKey
	}

	req := ChatCompletionRequest{
		Model:       b.Model,
		Messages:    []ChatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.7,
		MaxTokens:   500,
	}

	var result ChatCompletionResponse
	if err := postJSON(ctx, b.client, b.Name(), b.URL, b.APIKey, req, &result); err != nil {
		return "", err
	}

	if len(result.Choices) == 0 {
		return "", &UpstreamError{Backend: b.Name(), Err: errors.New("no choices in response")}
	}
	content := result.Choices[0].Message.Content
	if content == nil {
		return "", &UpstreamError{Backend: b.Name(), Err: errors.New("no message content in response")}
	}
	return *content, nil
}
