package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/domain"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
)

var (
	// ErrValidation signals the application failed field validation; no network call was made.
	ErrValidation = errors.New("restaurant application invalid")
	// ErrNotFound covers unknown restaurants and restaurants not in the state an operation expects.
	ErrNotFound = errors.New("restaurant not found or not in expected state")
	// ErrConflict signals a concurrent mutation of the same restaurant or a reused idempotency key.
	ErrConflict = errors.New("restaurant operation conflict")
	// ErrTransport signals the record store or notification backend could not be reached.
	ErrTransport = errors.New("restaurant backend unavailable")
	// ErrPartialFailure signals a transition could neither complete nor be rolled back.
	ErrPartialFailure = errors.New("restaurant operation partially applied")
	// ErrConfirmationRequired signals a destructive admin action was invoked without confirmation.
	ErrConfirmationRequired = errors.New("operator confirmation required")
	// ErrUnauthorized signals restaurant credentials did not verify.
	ErrUnauthorized = errors.New("restaurant authentication failed")
)

// ValidationError carries field-level messages keyed by field path (e.g. "contact.phone").
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrTransport),
		errors.Is(err, ErrPartialFailure),
		errors.Is(err, ErrConfirmationRequired),
		errors.Is(err, ErrUnauthorized):
		return err
	case errors.Is(err, domain.ErrMissingName), errors.Is(err, domain.ErrMissingEmail):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	case errors.Is(err, ports.ErrNotFound), errors.Is(err, domain.ErrInvalidTransition):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, ports.ErrStatusConflict),
		errors.Is(err, ports.ErrInFlight),
		errors.Is(err, ports.ErrIdempotencyConflict):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, ports.ErrInvalidCredentials), errors.Is(err, ports.ErrCredentialsExpired):
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	case errors.Is(err, ports.ErrUnavailable), errors.Is(err, ports.ErrUnsupportedTransition):
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return err
}
