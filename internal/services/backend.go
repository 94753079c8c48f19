package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"promptrelay-backend/internal/utils"
	"time"
)

const DefaultBackendTimeout = 30 * time.Second

// ErrMissingAPIKey is returned before any outbound call when a backend's credential is not configured.
var ErrMissingAPIKey = errors.New("missing api key")

// Backend turns a prompt into generated text using one fixed inference service.
type Backend interface {
	// Name is the display name used in error messages, e.g. "OpenRouter".
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// UpstreamError describes a failed backend call: transport failure, timeout,
// non-2xx status or an unusable response body.
type UpstreamError struct {
	Backend    string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s returned status %d: %v", e.Backend, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Backend, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// newBackendClient returns a logging client; every backend call is bounded by timeout.
func newBackendClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultBackendTimeout
	}
	return utils.NewHTTPClient(timeout)
}

// postJSON sends payload to url and decodes a 2xx JSON response into out.
// Any other outcome is reported as *UpstreamError.
func postJSON(ctx context.Context, client *http.Client, backend, url, apiKey string, payload, out interface{}) error {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return &UpstreamError{Backend: backend, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return &UpstreamError{Backend: backend, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return &UpstreamError{Backend: backend, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &UpstreamError{Backend: backend, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UpstreamError{Backend: backend, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return &UpstreamError{Backend: backend, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	return nil
}
