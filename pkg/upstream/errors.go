// Package upstream holds the error type and response plumbing shared by the
// handlers that talk to WordPress and the Gravity Forms REST API.
package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so handlers can decide what to expose.
type Kind string

const (
	KindBadRequest        Kind = "bad_request"
	KindConfiguration     Kind = "configuration"
	KindTransport         Kind = "transport"
	KindUpstreamEmpty     Kind = "upstream_empty"
	KindUpstreamMalformed Kind = "upstream_malformed"
	KindUpstreamRejected  Kind = "upstream_rejected"
	KindValidation        Kind = "validation"
)

// HTTPError is satisfied by errors that carry an HTTP status.
type HTTPError interface {
	error
	StatusCode() int
}

// Error is a classified failure with the status and message a handler should
// respond with. Messages is only set for KindValidation.
type Error struct {
	Kind     Kind
	Code     int
	Message  string
	Messages map[string]string
	Err      error
}

var _ HTTPError = (*Error)(nil)

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode())
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StatusCode reports the HTTP status, defaulting to 500.
func (e *Error) StatusCode() int {
	if e == nil || e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// PublicMessage is the text safe to show a client. Configuration failures
// collapse to the generic status text so setting names stay server-side.
func (e *Error) PublicMessage() string {
	if e == nil {
		return ""
	}
	if e.Kind == KindConfiguration || e.Message == "" {
		return http.StatusText(e.StatusCode())
	}
	return e.Message
}

// BadRequest builds a KindBadRequest error.
func BadRequest(message string) *Error {
	return &Error{Kind: KindBadRequest, Code: http.StatusBadRequest, Message: message}
}

// Misconfigured builds a KindConfiguration error. message names the missing
// setting and is only meant for logs.
func Misconfigured(message string) *Error {
	return &Error{Kind: KindConfiguration, Code: http.StatusInternalServerError, Message: message}
}

// Validation builds a KindValidation error carrying field messages.
func Validation(messages map[string]string) *Error {
	if messages == nil {
		messages = map[string]string{}
	}
	return &Error{
		Kind:     KindValidation,
		Code:     http.StatusUnprocessableEntity,
		Message:  "Validation failed",
		Messages: messages,
	}
}

// As extracts an *Error from err.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) && target != nil {
		return target, true
	}
	return nil, false
}
