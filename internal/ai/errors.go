package ai

import (
	"fmt"
	"time"
)

// Typed wrappers around APIError let callers branch with errors.As instead
// of inspecting status codes. Each wraps the classified response so the
// provider's own message and request id stay visible.

// AuthError: the provider rejected the credentials (401/403).
type AuthError struct{ *APIError }

func (e *AuthError) Error() string {
	return fmt.Sprintf("provider rejected the API key: %s", e.APIError.Error())
}

// RateLimitError: the provider throttled us (429). RetryAfter is zero when
// the response carried no Retry-After header.
type RateLimitError struct {
	*APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("throttled by provider, retry in ~%ds: %s", int(e.RetryAfter.Seconds()), e.APIError.Error())
	}
	return fmt.Sprintf("throttled by provider: %s", e.APIError.Error())
}

// ModelNotFoundError: the configured model name is unknown to the provider.
type ModelNotFoundError struct{ *APIError }

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model unavailable (check default_model): %s", e.APIError.Error())
}

// BadRequestError: the provider refused the request shape (400).
type BadRequestError struct{ *APIError }

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("request refused: %s", e.APIError.Error())
}

// QuotaExceededError: the account is out of credits or over its quota.
type QuotaExceededError struct{ *APIError }

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("account quota exhausted: %s", e.APIError.Error())
}

// ServerError: the provider failed on its side (5xx); retried before surfacing.
type ServerError struct{ *APIError }

func (e *ServerError) Error() string {
	return fmt.Sprintf("provider failure: %s", e.APIError.Error())
}

// UnreachableError: no HTTP conversation happened at all, e.g. a local
// Ollama daemon that is not running.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e.Host != "" {
		return fmt.Sprintf("cannot reach %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("cannot reach provider: %v", e.Err)
}
