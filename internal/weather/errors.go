package weather

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error classes. Match them with errors.Is.
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNotFound            = errors.New("not found")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// Code is a stable machine-readable error code.
type Code string

const (
	CodeInvalidArgument     Code = "INVALID_ARGUMENT"
	CodeNotFound            Code = "NOT_FOUND"
	CodeUpstreamUnavailable Code = "UPSTREAM_UNAVAILABLE"
	CodeInternal            Code = "INTERNAL"
)

// InvalidArgumentError reports a request field the service cannot accept.
type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidArgumentError) Unwrap() error { return ErrInvalidArgument }

// NotFoundError reports a domain entity missing by identifier.
type NotFoundError struct {
	Kind string // e.g. "city"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Code returns e.g. CITY_NOT_FOUND.
func (e *NotFoundError) Code() Code {
	if e.Kind == "" {
		return CodeNotFound
	}
	return Code(strings.ToUpper(e.Kind) + "_NOT_FOUND")
}

// UpstreamError wraps any failure talking to the weather/geocoding provider:
// transport errors, non-success statuses, malformed payloads, timeouts.
type UpstreamError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() []error { return []error{ErrUpstreamUnavailable, e.Err} }

// CodeOf returns the stable code for err.
func CodeOf(err error) Code {
	var nf *NotFoundError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &nf):
		return nf.Code()
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument
	case errors.Is(err, ErrUpstreamUnavailable):
		return CodeUpstreamUnavailable
	default:
		return CodeInternal
	}
}

// HTTPStatus returns the HTTP status a transport layer should answer with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
