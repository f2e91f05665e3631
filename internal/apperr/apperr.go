// Package apperr classifies failures of the ingestion and query pipelines so
// transports can map them to status codes without inspecting messages.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrUnprocessable = errors.New("unprocessable content")
	ErrInvalidState  = errors.New("invalid state")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
	ErrRateLimited   = errors.New("rate limited")
	ErrInternal      = errors.New("internal error")
)

// Error carries a kind, a message safe to show to the caller and an
// optional cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && !strings.HasSuffix(e.Message, e.Err.Error()) {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func New(kind error, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind error, msg string, err error) error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Internal wraps an unexpected failure, appending the original message to
// what the caller sees.
func Internal(msg string, err error) error {
	return &Error{Kind: ErrInternal, Message: fmt.Sprintf("%s: %v", msg, err), Err: err}
}

// Message returns the caller-facing text of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

var statuses = []struct {
	kind   error
	status int
}{
	{ErrInvalidInput, http.StatusBadRequest},
	{ErrUnprocessable, http.StatusBadRequest},
	{ErrInvalidState, http.StatusBadRequest},
	{ErrConflict, http.StatusBadRequest},
	{ErrNotFound, http.StatusNotFound},
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrForbidden, http.StatusForbidden},
	{ErrRateLimited, http.StatusTooManyRequests},
}

// Status maps err to an HTTP status code; unclassified errors are 500.
func Status(err error) int {
	for _, s := range statuses {
		if errors.Is(err, s.kind) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}
