// Package domainerrors provides coded errors shared by services and handlers.
//
// Services return these so handlers can translate to HTTP without inspecting
// error strings. Infrastructure layers (stores, providers) return
// pkg/platform/sentinel errors instead; services translate at the boundary.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error. Codes are stable API surface; messages are
// for humans and may change.
type Code string

const (
	// Workflow taxonomy.
	CodeInvalidTransition        Code = "invalid_transition"
	CodePermissionDenied         Code = "permission_denied"
	CodeAssessmentIncomplete     Code = "assessment_incomplete"
	CodeNoTemplateConfigured     Code = "no_template_configured"
	CodeConflictingRFI           Code = "conflicting_rfi"
	CodeIncompletePaymentDetails Code = "incomplete_payment_details"
	CodeConcurrentModification   Code = "concurrent_modification"
	CodeInvalidState             Code = "invalid_state"

	// Ambient taxonomy.
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_failed"
	CodeInvariantViolation Code = "invariant_violation"
	CodeBadRequest         Code = "bad_request"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeTimeout            Code = "timeout"
	CodeUnavailable        Code = "unavailable"
	CodeInternal           Code = "internal"
)

// Error is a coded domain error with optional structured details. Details
// carry audit context (request id, attempted transition) without forcing it
// into the message.
type Error struct {
	Code    Code
	Message string
	Details map[string]string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.err }

// WithDetail attaches a structured detail and returns the same error for
// chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string, 2)
	}
	e.Details[key] = value
	return e
}

// Detail returns a previously attached detail, or "".
func (e *Error) Detail(key string) string { return e.Details[key] }

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a coded error preserving the underlying cause for errors.Is /
// errors.As chains.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability:
// dErrors.Is(err, dErrors.CodeNotFound).
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the code from err, defaulting to CodeInternal for uncoded
// errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// DetailsOf extracts structured details from err, or nil.
func DetailsOf(err error) map[string]string {
	var de *Error
	if errors.As(err, &de) {
		return de.Details
	}
	return nil
}

// ToHTTPStatus maps a code to its HTTP response status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidTransition, CodeInvalidState, CodeAssessmentIncomplete,
		CodeIncompletePaymentDetails, CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	case CodeInvalidInput, CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodePermissionDenied, CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeConflictingRFI, CodeConcurrentModification:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeNoTemplateConfigured:
		// Operator misconfiguration, not a caller mistake.
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
