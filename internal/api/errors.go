package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized means no credential was sent or the server rejected it
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound means the target record does not exist on the server
	ErrNotFound = errors.New("not found")
	// ErrValidation means the server rejected the payload
	ErrValidation = errors.New("rejected by server")
	// ErrServer covers every other non-2xx response
	ErrServer = errors.New("server error")
	// ErrUnreachable means no response reached the client
	ErrUnreachable = errors.New("server unreachable")
)

// Error is a non-2xx response from the backend
type Error struct {
	Method  string
	Path    string
	Status  int
	Message string // server-provided message, may be empty
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// Unwrap maps the status code onto one of the sentinel errors
func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return ErrValidation
	}
	return ErrServer
}

// UnreachableError wraps a transport failure
type UnreachableError struct {
	Method string
	Path   string
	Err    error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *UnreachableError) Unwrap() []error {
	return []error{ErrUnreachable, e.Err}
}

// Message returns the text to show a user for err: the server's own
// message when there is one, otherwise fallback.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// IsNoData reports whether a read failure should be treated as an empty
// result rather than an error: missing credentials or no connectivity.
func IsNoData(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrUnreachable)
}
