// Package apierror provides standardized error response structures for the API
// plus the error taxonomy shared by all services. All errors returned to
// clients go through this package to ensure consistency and to prevent
// leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// ── Error taxonomy ────────────────────────────────────────────────────────────
// Services classify every failure so handlers can answer with the right HTTP
// status without inspecting message strings:
//
//	KindValidation → 400 (malformed input, insufficient stock/tendered amount)
//	KindConflict   → 409 (table occupied, item already paid, caja closed…)
//	KindForbidden  → 403 (wrong cancellation code, no floor access)
//	KindNotFound   → 404 (missing table/order/product/register/sale)
//
// Anything unclassified is an infrastructure error: logged and surfaced as a
// generic 500.

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindForbidden
	KindNotFound
)

// Error is a classified service error.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func newKind(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) error {
	return newKind(KindValidation, format, args...)
}

func Conflict(format string, args ...interface{}) error {
	return newKind(KindConflict, format, args...)
}

func Forbidden(format string, args ...interface{}) error {
	return newKind(KindForbidden, format, args...)
}

func NotFound(format string, args ...interface{}) error {
	return newKind(KindNotFound, format, args...)
}

// KindOf extracts the classification from err; unwrapped/unknown errors are
// KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to its response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
