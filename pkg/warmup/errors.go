package warmup

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned by the client. Use errors.Is to check for them.
var (
	// ErrAuth is returned when login is rejected or yields no token.
	ErrAuth = errors.New("warmup: authentication failed")

	// ErrConfig is returned when the account has no usable location.
	ErrConfig = errors.New("warmup: account has no locations")

	// ErrNotReady is returned when an operation needs a session that does not exist yet.
	ErrNotReady = errors.New("warmup: session not established")

	// ErrTransport covers network failures, timeouts and non-success replies.
	ErrTransport = errors.New("warmup: transport error")

	// ErrParse is returned for malformed response bodies or wire values.
	ErrParse = errors.New("warmup: malformed response")

	// ErrNotFound is returned when a room id is absent from the latest known state.
	ErrNotFound = errors.New("warmup: room not found")

	// ErrRange is returned for setpoints outside the room's allowed range.
	ErrRange = errors.New("warmup: temperature out of range")

	// ErrClosed is returned by Start once the client has been closed.
	ErrClosed = errors.New("warmup: client is closed")
)

// HTTPStatusError reports a non-200 reply from the API.
type HTTPStatusError struct {
	Status int
	Body   string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("warmup api error %d: %s", e.Status, strings.TrimSpace(e.Body))
}

func (e *HTTPStatusError) Unwrap() error {
	return ErrTransport
}

// APIError reports a reply whose status.result is not "success".
type APIError struct {
	Method string
	Result string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("warmup %s returned %q", e.Method, e.Result)
}

func (e *APIError) Unwrap() error {
	if e.Method == MethodUserLogin {
		return ErrAuth
	}
	return ErrTransport
}
