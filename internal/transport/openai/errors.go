package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/lograg/internal/domain"
)

// parseAPIError extracts a human-readable error from the API response and
// wraps it with base. Error responses additionally carry providerErr
// (when set), 429 always carries ErrRateLimited.
func parseAPIError(what string, err, base, providerErr error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s request: %w: %w", what, base, err)
	}

	status, detail := statusAndDetail(err)
	if status == 0 {
		return fmt.Errorf("%s request failed: %v: %w", what, err, base)
	}

	if status == http.StatusTooManyRequests {
		providerErr = domain.ErrRateLimited
	}
	if providerErr == nil {
		return fmt.Errorf("%s API error %d: %s: %w", what, status, detail, base)
	}
	return fmt.Errorf("%s API error %d: %s: %w: %w", what, status, detail, base, providerErr)
}

func statusAndDetail(err error) (int, string) {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if d := extractDetail(reqErr.Body); d != "" {
			return reqErr.HTTPStatusCode, d
		}
		return reqErr.HTTPStatusCode, string(reqErr.Body)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode, apiErr.Message
	}
	return 0, ""
}

// isTransient reports whether a provider error is worth one retry:
// rate limits, 5xx and transport failures.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	status, _ := statusAndDetail(err)
	return status == 0 || status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
