package observability

import (
	"errors"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application"
)

var categories = []struct {
	err  error
	name string
}{
	{application.ErrPartialFailure, "partial_failure"},
	{application.ErrValidation, "validation"},
	{application.ErrConfirmationRequired, "confirmation_required"},
	{application.ErrConflict, "conflict"},
	{application.ErrNotFound, "not_found"},
	{application.ErrTransport, "transport"},
	{application.ErrUnauthorized, "unauthorized"},
}

func errorCategory(err error) string {
	for _, c := range categories {
		if errors.Is(err, c.err) {
			return c.name
		}
	}
	return "internal"
}
