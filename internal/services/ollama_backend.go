package services

import (
	"context"
	"net/http"
	"time"
)

const ollamaNoResponse = "No response generated."

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response *string `json:"response"`
}

// OllamaBackend talks to a locally hosted model server's /api/generate endpoint.
type OllamaBackend struct {
	URL    string
	Model  string
	client *http.Client
}

func NewOllamaBackend(url, model string, timeout time.Duration) *OllamaBackend {
	return &OllamaBackend{URL: url, Model: model, client: newBackendClient(timeout)}
}

func (b *OllamaBackend) Name() string {
	return "Ollama"
}

func (b *OllamaBackend) Generate(ctx context.Context, prompt string) (string, error) {
	var result ollamaGenerateResponse
	req := ollamaGenerateRequest{Model: b.Model, Prompt: prompt, Stream: false}
	if err := postJSON(ctx, b.client, b.Name(), b.URL, "", req, &result); err != nil {
		return "", err
	}

	if result.Response == nil {
		return ollamaNoResponse, nil
	}
	return *result.Response, nil
}
