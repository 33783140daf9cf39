package notifier

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Webhook error types returned by Fire.

// RateLimitError represents a 429 response from the trigger receiver.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string // Optional custom message
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// RedirectError represents a 3xx response. Redirects are not followed.
type RedirectError struct {
	StatusCode int
	Location   string
}

func (e *RedirectError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("trigger receiver redirect %d to %s", e.StatusCode, e.Location)
	}
	return fmt.Sprintf("trigger receiver redirect %d", e.StatusCode)
}

// ClientError represents a 4xx response from the trigger receiver.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	return e.Message
}

// ServerError represents a 5xx response from the trigger receiver.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

// StatusError classifies a non-2xx status into one of the error types above.
// It returns nil for 2xx statuses only.
func StatusError(resp *http.Response, snippet string) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code >= 300 && code < 400:
		return &RedirectError{StatusCode: code, Location: resp.Header.Get("Location")}
	case code == http.StatusTooManyRequests:
		return &RateLimitError{
			Message:    "trigger receiver rate limit exceeded",
			RetryAfter: retryAfter(resp),
		}
	case code < 500:
		return &ClientError{
			StatusCode: code,
			Message:    fmt.Sprintf("trigger receiver client error %d: %s", code, snippet),
		}
	default:
		return &ServerError{
			StatusCode: code,
			Message:    fmt.Sprintf("trigger receiver server error %d: %s", code, snippet),
		}
	}
}

// retryAfter reads the Retry-After header in seconds, defaulting to 5s.
// Triggers are never retried; the value is only logged.
func retryAfter(resp *http.Response) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return 5 * time.Second
}

// ErrorKind names the class of a Fire error for logs and metric labels.
func ErrorKind(err error) string {
	var rateLimitErr *RateLimitError
	var redirectErr *RedirectError
	var clientErr *ClientError
	var serverErr *ServerError
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &rateLimitErr):
		return "rate_limited"
	case errors.As(err, &redirectErr):
		return "redirect"
	case errors.As(err, &clientErr):
		return "client_error"
	case errors.As(err, &serverErr):
		return "server_error"
	case errors.Is(err, errTimeout):
		return "timeout"
	default:
		return "transport"
	}
}

// truncate shortens a response snippet to maxLength bytes.
func truncate(text string, maxLength int) string {
	if len(text) <= maxLength {
		return text
	}
	return text[:maxLength] + "..."
}
