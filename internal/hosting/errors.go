package hosting

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound объект не найден в панели.
	ErrNotFound = errors.New("hosting: not found")
	// ErrTimeout панель не ответила за отведённое время.
	ErrTimeout = errors.New("hosting: request timed out")
	// ErrMalformedResponse ответ панели не содержит обязательных полей.
	ErrMalformedResponse = errors.New("hosting: malformed response")
)

// ValidationError панель отклонила запрос (HTTP 422).
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return "hosting: validation failed: " + strings.Join(e.Details, "; ")
}

// RateLimitError панель ограничила частоту запросов (HTTP 429).
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("hosting: rate limited, retry after %s", e.RetryAfter)
}

// APIError прочие ответы панели с неуспешным статусом.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hosting: unexpected status %d: %s", e.StatusCode, e.Body)
}

// IsTransient сообщает, имеет ли смысл повторить запрос.
func IsTransient(err error) bool {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return true
	}
	if errors.Is(err, ErrTimeout) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode >= 500
}

// RetryAfter возвращает задержку, запрошенную панелью, или 0.
func RetryAfter(err error) time.Duration {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl.RetryAfter
	}
	return 0
}
