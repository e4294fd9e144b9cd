package datagov

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnknownResource indicates the resource id is not in the registry
	ErrUnknownResource = errors.New("unknown resource")

	// ErrTransport indicates the HTTP exchange could not be completed
	ErrTransport = errors.New("transport failure")

	// ErrUnauthorized indicates the API rejected the token
	ErrUnauthorized = errors.New("unauthorized")

	// ErrBadRequest indicates a non-success status or an unreadable success body
	ErrBadRequest = errors.New("bad request")

	// ErrTransform indicates a payload item could not be turned into a record
	ErrTransform = errors.New("transform failure")
)

// UnknownResourceError is returned before any request is sent
type UnknownResourceError struct {
	Resource string
}

func (e *UnknownResourceError) Error() string {
	return fmt.Sprintf("unknown resource %q", e.Resource)
}

func (e *UnknownResourceError) Is(target error) bool {
	return target == ErrUnknownResource
}

// TransportError wraps a failed send or body read
type TransportError struct {
	Resource string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error for %s: %v", e.Resource, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// UnauthorizedError carries the detail message of a 401 response
type UnauthorizedError struct {
	Detail string
	// Err is set when the 401 body was not the expected JSON document
	Err error
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized: %s", e.Detail)
}

func (e *UnauthorizedError) Unwrap() error {
	return e.Err
}

func (e *UnauthorizedError) Is(target error) bool {
	return target == ErrUnauthorized
}

// BadRequestError carries the raw body of a rejected request, or a parse
// failure of a success body
type BadRequestError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *BadRequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bad request %d: %s: %v", e.StatusCode, e.Body, e.Err)
	}
	return fmt.Sprintf("bad request %d: %s", e.StatusCode, e.Body)
}

func (e *BadRequestError) Unwrap() error {
	return e.Err
}

func (e *BadRequestError) Is(target error) bool {
	return target == ErrBadRequest
}

// TransformError identifies the payload item that failed to transform
type TransformError struct {
	Resource string
	Index    int
	Item     json.RawMessage
	Field    string
	Reason   string
	Err      error
}

func (e *TransformError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("transform %s item %d: field %q: %s", e.Resource, e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("transform %s item %d: %s", e.Resource, e.Index, e.Reason)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

func (e *TransformError) Is(target error) bool {
	return target == ErrTransform
}

// Kind classifies fetch errors
type Kind int

const (
	KindNone Kind = iota
	KindUnknownResource
	KindTransport
	KindUnauthorized
	KindBadRequest
	KindTransform
	KindOther
)

// String returns the label used in logs and metrics
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "ok"
	case KindUnknownResource:
		return "unknown_resource"
	case KindTransport:
		return "transport"
	case KindUnauthorized:
		return "unauthorized"
	case KindBadRequest:
		return "bad_request"
	case KindTransform:
		return "transform"
	default:
		return "other"
	}
}

// KindOf returns the category of err
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrUnknownResource):
		return KindUnknownResource
	case errors.Is(err, ErrTransport):
		return KindTransport
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrBadRequest):
		return KindBadRequest
	case errors.Is(err, ErrTransform):
		return KindTransform
	default:
		return KindOther
	}
}
