package voice

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoVoice is returned when no voice is configured for a Class.
var ErrNoVoice = errors.New("voice: no voice configured")

// Error is an error reported by the voice-clone service.
type Error struct {
	// HTTPStatus is the HTTP status code.
	HTTPStatus int

	// Message is the service message or a snippet of the response body.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("voice: %s (http=%d)", e.Message, e.HTTPStatus)
}

// IsRateLimit returns true if the service throttled the request.
func (e *Error) IsRateLimit() bool {
	return e.HTTPStatus == http.StatusTooManyRequests
}

// IsServerError returns true if this is a server-side error.
func (e *Error) IsServerError() bool {
	return e.HTTPStatus >= 500
}

// Retryable returns true if the request can be retried.
func (e *Error) Retryable() bool {
	return e.IsRateLimit() || e.IsServerError()
}

// AsError extracts *Error from an error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
