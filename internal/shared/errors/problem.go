// Package errors renders RFC 7807 problem details for the onboarding API.
package errors

import (
	"fmt"
	"net/http"
)

// ProblemDetail is the RFC 7807 body returned on every failed request.
type ProblemDetail struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail,omitempty"`
	Instance   string         `json:"instance,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Error implements the error interface.
func (p ProblemDetail) Error() string {
	if p.Detail != "" {
		return fmt.Sprintf("%s: %s", p.Title, p.Detail)
	}
	return p.Title
}

// WithDetail returns a copy with the given detail message.
func (p ProblemDetail) WithDetail(detail string) ProblemDetail {
	p.Detail = detail
	return p
}

// WithExtension returns a copy with one more extension member. The
// receiver's map is never mutated, so package-level templates stay clean.
func (p ProblemDetail) WithExtension(key string, value any) ProblemDetail {
	ext := make(map[string]any, len(p.Extensions)+1)
	for k, v := range p.Extensions {
		ext[k] = v
	}
	ext[key] = value
	p.Extensions = ext
	return p
}

// Problem type references, relative unless a Responder carries a base URI.
const (
	TypeValidation   = "/problems/validation-error"
	TypeNotFound     = "/problems/not-found"
	TypeConflict     = "/problems/conflict"
	TypeInternal     = "/problems/internal-error"
	TypeUnauthorized = "/problems/unauthorized"
	TypeForbidden    = "/problems/forbidden"
	TypeBadRequest   = "/problems/bad-request"
	TypeConfirmation = "/problems/confirmation-required"
	TypeUpstream     = "/problems/upstream-unavailable"
	TypePartial      = "/problems/partial-failure"
	TypeRateLimited  = "/problems/rate-limited"
)

func template(status int, typ, title string) ProblemDetail {
	return ProblemDetail{Type: typ, Title: title, Status: status}
}

var (
	ErrBadRequest   = template(http.StatusBadRequest, TypeBadRequest, "Bad Request")
	ErrValidation   = template(http.StatusBadRequest, TypeValidation, "Validation Error")
	ErrUnauthorized = template(http.StatusUnauthorized, TypeUnauthorized, "Unauthorized")
	ErrForbidden    = template(http.StatusForbidden, TypeForbidden, "Forbidden")
	ErrNotFound     = template(http.StatusNotFound, TypeNotFound, "Resource Not Found")
	ErrConflict     = template(http.StatusConflict, TypeConflict, "Conflict")
	ErrInternal     = template(http.StatusInternalServerError, TypeInternal, "Internal Server Error")

	// ErrConfirmationRequired marks a destructive admin action sent without confirm=true.
	ErrConfirmationRequired = template(http.StatusPreconditionRequired, TypeConfirmation, "Confirmation Required")
	// ErrUpstream means the record store could not be reached and nothing changed.
	ErrUpstream = template(http.StatusBadGateway, TypeUpstream, "Upstream Unavailable")
	// ErrPartialFailure means an operation stopped half-way and could not be undone.
	ErrPartialFailure  = template(http.StatusInternalServerError, TypePartial, "Partial Failure")
	ErrTooManyRequests = template(http.StatusTooManyRequests, TypeRateLimited, "Too Many Requests")
)

var byStatus = map[int]ProblemDetail{
	http.StatusBadRequest:           ErrBadRequest,
	http.StatusUnauthorized:         ErrUnauthorized,
	http.StatusForbidden:            ErrForbidden,
	http.StatusNotFound:             ErrNotFound,
	http.StatusConflict:             ErrConflict,
	http.StatusPreconditionRequired: ErrConfirmationRequired,
	http.StatusTooManyRequests:      ErrTooManyRequests,
	http.StatusBadGateway:           ErrUpstream,
}

// ForStatus returns the template for status, falling back to a 500.
func ForStatus(status int) ProblemDetail {
	if p, ok := byStatus[status]; ok {
		return p
	}
	return ErrInternal
}

// NewValidationProblem reports field-level failures under extensions.fields.
func NewValidationProblem(fieldErrors map[string]string) ProblemDetail {
	return ErrValidation.
		WithDetail(fmt.Sprintf("%d field(s) failed validation", len(fieldErrors))).
		WithExtension("fields", fieldErrors)
}
