// Package errors provides the error types used by the Project Brain client.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrEmptyInput = errors.New("empty input")
	ErrBusy       = errors.New("a request is already in flight")
	ErrTransport  = errors.New("backend unreachable")
	ErrDecode     = errors.New("malformed capability response")
)

// Kind classifies why a conversation turn failed.
type Kind int

const (
	KindUnknown Kind = iota
	KindEmptyInput
	KindTransport
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindEmptyInput:
		return "empty_input"
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// sentinel returns the sentinel error matching the kind
func (k Kind) sentinel() error {
	switch k {
	case KindEmptyInput:
		return ErrEmptyInput
	case KindTransport:
		return ErrTransport
	case KindDecode:
		return ErrDecode
	default:
		return nil
	}
}

// OrchestrationError is returned by a conversation turn that did not produce
// a normal reply.
type OrchestrationError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *OrchestrationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *OrchestrationError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind and any OrchestrationError of
// the same kind.
func (e *OrchestrationError) Is(target error) bool {
	if s := e.Kind.sentinel(); s != nil && target == s {
		return true
	}
	other, ok := target.(*OrchestrationError)
	return ok && other.Kind == e.Kind
}

// NewOrchestrationError creates a new OrchestrationError
func NewOrchestrationError(kind Kind, op string, err error) *OrchestrationError {
	return &OrchestrationError{Kind: kind, Op: op, Err: err}
}

// NetworkError represents a connection-level failure
type NetworkError struct {
	Operation string
	Endpoint  string
	Cause     error
}

func (e *NetworkError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("network error during %s at %s: %v", e.Operation, e.Endpoint, e.Cause)
	}
	return fmt.Sprintf("network error during %s: %v", e.Operation, e.Cause)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// NewNetworkError creates a new NetworkError
func NewNetworkError(operation, endpoint string, cause error) *NetworkError {
	return &NetworkError{Operation: operation, Endpoint: endpoint, Cause: cause}
}

// APIError represents a request that reached the backend but did not succeed
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("API error at %s: %s", e.Endpoint, e.Message)
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, endpoint, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
	}
}

// NewAPIErrorWithBody creates a new APIError keeping a body excerpt for diagnostics
func NewAPIErrorWithBody(statusCode int, endpoint, message, body string) *APIError {
	e := NewAPIError(statusCode, endpoint, message)
	e.Body = body
	return e
}

// TimeoutError represents a request that hit its deadline
type TimeoutError struct {
	Message string
}

func (e *TimeoutError) Error() string {
	if e.Message == "" {
		return "request timed out"
	}
	return fmt.Sprintf("request timed out: %s", e.Message)
}

// Is lets TimeoutError match context.DeadlineExceeded
func (e *TimeoutError) Is(target error) bool {
	return target == context.DeadlineExceeded
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(message string) *TimeoutError {
	return &TimeoutError{Message: message}
}

// DecodeError represents a capability response missing an expected field
// or carrying it with the wrong shape.
type DecodeError struct {
	Field   string
	Message string
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("decode error: %s", e.Message)
	}
	return fmt.Sprintf("decode error at %q: %s", e.Field, e.Message)
}

// Is allows comparison with sentinel errors
func (e *DecodeError) Is(target error) bool {
	if target == ErrDecode {
		return true
	}
	_, ok := target.(*DecodeError)
	return ok
}

// NewDecodeError creates a new DecodeError
func NewDecodeError(field, message string) *DecodeError {
	return &DecodeError{Field: field, Message: message}
}

// KindOf reports which turn failure kind err belongs to.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var oe *OrchestrationError
	if errors.As(err, &oe) {
		return oe.Kind
	}

	switch {
	case errors.Is(err, ErrEmptyInput):
		return KindEmptyInput
	case errors.Is(err, ErrDecode):
		return KindDecode
	case IsTransportError(err):
		return KindTransport
	}
	return KindUnknown
}

// IsTransportError reports whether err came from reaching (or failing to
// reach) the backend.
func IsTransportError(err error) bool {
	if err == nil {
		return false
	}
	var oe *OrchestrationError
	if errors.As(err, &oe) {
		return oe.Kind == KindTransport
	}
	var ae *APIError
	return IsNetworkError(err) || IsTimeoutError(err) || errors.As(err, &ae) || errors.Is(err, ErrTransport)
}

// IsDecodeError reports whether err is a malformed capability response.
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrDecode)
}

// IsNetworkError reports whether err wraps a NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsTimeoutError reports whether err is a deadline expiry.
func IsTimeoutError(err error) bool {
	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// GetHTTPStatus extracts the HTTP status from an APIError, or 0.
func GetHTTPStatus(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	return 0
}
