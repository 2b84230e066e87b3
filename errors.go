package prospectindata

import (
	"errors"
	"fmt"
)

// ErrorType classifies an APIError. The set is closed: every non-2xx outcome
// and every network failure maps onto exactly one of these.
type ErrorType string

const (
	// ErrorTypeAuthentication is a 401/403. Fatal, never retried.
	ErrorTypeAuthentication ErrorType = "Authentication"

	// ErrorTypeValidation is a 4xx other than 401/403/404/429. Fatal, with
	// the (truncated) response body for diagnostics.
	ErrorTypeValidation ErrorType = "Validation"

	// ErrorTypeRateLimited is a 429 that survived every retry attempt.
	ErrorTypeRateLimited ErrorType = "RateLimited"

	// ErrorTypeTransient is a network-level failure (timeout, connection
	// reset) that survived every retry attempt, or a call cancelled while
	// suspended. Callers may choose to treat it as absent-with-warning.
	ErrorTypeTransient ErrorType = "Transient"

	// ErrorTypeServer is any other unexpected status, including 5xx. Fatal,
	// logged, never silently retried.
	ErrorTypeServer ErrorType = "Server"
)

// Sentinel errors for cache outcomes. Neither ever reaches a caller of
// Get/Post: a miss goes to the network and corruption degrades to a miss.
var (
	ErrCacheMiss    = errors.New("prospectindata: cache miss")
	ErrCacheCorrupt = errors.New("prospectindata: corrupt cache entry")
)

// APIError is a classified request failure.
type APIError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Method     string
	Endpoint   string
	Body       string // truncated response body, when one was read
	Attempts   int    // attempts actually made (1 = no retries)
	RequestID  string
	Cause      error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Endpoint != "" {
		msg = fmt.Sprintf("%s [%s %s]", msg, e.Method, e.Endpoint)
	}
	if e.Attempts > 1 {
		msg = fmt.Sprintf("%s after %d attempts", msg, e.Attempts)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches on error type, so callers can write
// errors.Is(err, &APIError{Type: ErrorTypeAuthentication}).
func (e *APIError) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*APIError); ok {
		return e.Type == t.Type
	}
	return false
}

// IsTransient reports whether err might succeed if the whole call were
// repeated: exhausted-retry rate limiting and network failures qualify,
// authentication and validation failures do not.
func IsTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type == ErrorTypeTransient || apiErr.Type == ErrorTypeRateLimited
	}
	return false
}

// IsAuthentication reports whether err is a credential failure (401/403).
func IsAuthentication(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Type == ErrorTypeAuthentication
}

const maxBodySnippet = 512

// truncateBody trims a response body for inclusion in errors and logs.
func truncateBody(body []byte) string {
	if len(body) <= maxBodySnippet {
		return string(body)
	}
	return string(body[:maxBodySnippet]) + "..."
}
