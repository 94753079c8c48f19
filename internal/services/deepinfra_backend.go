package services

import (
	"context"
	"net/http"
	"time"
)

const deepInfraNoAnswer = "No answer returned."

type deepInfraParameters struct {
	MaxNewTokens int     `json:"max_new_tokens"`
	Temperature  float64 `json:"temperature"`
}

type deepInfraRequest struct {
	Input      string              `json:"input"`
	Parameters deepInfraParameters `json:"parameters"`
}

type deepInfraResponse struct {
	GeneratedText *string `json:"generated_text"`
}

// DeepInfraBackend calls a hosted inference endpoint for a single named model.
type DeepInfraBackend struct {
	URL    string
	APIKey string
	client *http.Client
}

func NewDeepInfraBackend(url, apiKey string, timeout time.Duration) *DeepInfraBackend {
	return &DeepInfraBackend{URL: url, APIKey: apiKey, client: newBackendClient(timeout)}
}

func (b *DeepInfraBackend) Name() string {
	return "DeepInfra"
}

func (b *DeepInfraBackend) Generate(ctx context.Context, prompt string) (string, error) {
	if b.APIKey == "" {
		return "", ErrMissingAPIKey
	}

	req := deepInfraRequest{
		Input: prompt,
		Parameters: deepInfraParameters{
			MaxNewTokens: 200,
			Temperature:  0.7,
		},
	}

	var result deepInfraResponse
	if err := postJSON(ctx, b.client, b.Name(), b.URL, b.APIKey, req, &result); err != nil {
		return "", err
	}

	if result.GeneratedText == nil {
		return deepInfraNoAnswer, nil
	}
	return *result.GeneratedText, nil
}
