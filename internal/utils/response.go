package utils

import "strings"

const redactedPlaceholder = "[REDACTED]"

// ErrorResponse is the JSON body returned on every failure.
// Details carries the underlying cause when one is available.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// NewErrorResponse creates an ErrorResponse without details.
func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Error: message}
}

// NewErrorResponseWithDetails creates an ErrorResponse whose details have every
// given secret replaced, so credentials never reach a client.
func NewErrorResponseWithDetails(message string, err error, secrets ...string) ErrorResponse {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = Redact(err.Error(), secrets...)
	}
	return resp
}

// Redact replaces each non-empty secret in s.
func Redact(s string, secrets ...string) string {
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		s = strings.ReplaceAll(s, secret, redactedPlaceholder)
	}
	return s
}
