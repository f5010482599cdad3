// Package apierror defines the single error type every HTTP handler reports
// through, and the JSON envelope it is rendered as.
package apierror

import (
	"errors"
	"net/http"
)

// Kind tags an Error with its class.
type Kind string

const (
	KindValidation Kind = "validation"
	KindBadRequest Kind = "bad_request"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindRateLimit  Kind = "rate_limited"
	KindInternal   Kind = "internal"
)

// FieldError describes one failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is an error that knows how to present itself to an API client.
// Err carries the underlying cause and is never serialized.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Body is the JSON envelope written for every error response.
type Body struct {
	Error Payload `json:"error"`
}

type Payload struct {
	Message string `json:"message"`
	Details any    `json:"details"`
	Status  int    `json:"status"`
}

// Body renders the client-facing envelope.
func (e *Error) Body() Body {
	return Body{Error: Payload{Message: e.Message, Details: e.Details, Status: e.Status}}
}

// New builds an Error with an explicit status. The kind is derived from it.
func New(status int, message string, details any) *Error {
	return &Error{Kind: kindFor(status), Status: status, Message: message, Details: details}
}

func Validation(fields []FieldError) *Error {
	return &Error{
		Kind:    KindValidation,
		Status:  http.StatusBadRequest,
		Message: "Validation failed",
		Details: fields,
	}
}

func BadRequest(message string, details any) *Error {
	return &Error{Kind: KindBadRequest, Status: http.StatusBadRequest, Message: message, Details: details}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Status: http.StatusConflict, Message: message}
}

func RateLimited(retryAfterSeconds int) *Error {
	return &Error{
		Kind:    KindRateLimit,
		Status:  http.StatusTooManyRequests,
		Message: "rate limit exceeded",
		Details: map[string]int{"retryAfter": retryAfterSeconds},
	}
}

// Internal hides err from the client behind message.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Message: message, Err: err}
}

// From converts any error into an *Error, treating unknown errors as internal.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal(http.StatusText(http.StatusInternalServerError), err)
}

func kindFor(status int) Kind {
	switch status {
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusTooManyRequests:
		return KindRateLimit
	}
	if status >= http.StatusInternalServerError {
		return KindInternal
	}
	return KindBadRequest
}
