package onboardingserver

import (
	"errors"

	"github.com/gin-gonic/gin"

	restaurantapp "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/domain"
	apierrors "github.com/Apurer/go-gin-restaurant-onboarding/internal/shared/errors"
)

var problemResponder = apierrors.NewResponder("", restaurantProblem)

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	problemResponder.Respond(c, problem)
}

// respondError renders a transport-level failure with the template for status.
func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		return
	}
	problemResponder.RespondStatus(c, status, err)
}

// respondServiceError renders an onboarding service error.
func respondServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	problemResponder.RespondError(c, err)
}

// restaurantProblem maps the onboarding error taxonomy onto problem details. An invalid
// transition is checked before not-found because it wraps both.
func restaurantProblem(err error) (apierrors.ProblemDetail, bool) {
	var validation *restaurantapp.ValidationError
	switch {
	case errors.As(err, &validation):
		return apierrors.NewValidationProblem(validation.Fields), true
	case errors.Is(err, restaurantapp.ErrValidation):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, restaurantapp.ErrConfirmationRequired):
		return apierrors.ErrConfirmationRequired.WithDetail("resend the request with {\"confirm\": true}"), true
	case errors.Is(err, restaurantapp.ErrUnauthorized):
		return apierrors.ErrUnauthorized.WithDetail("invalid username or password"), true
	case errors.Is(err, domain.ErrInvalidTransition):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	case errors.Is(err, restaurantapp.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail("restaurant not found or not in the expected state"), true
	case errors.Is(err, restaurantapp.ErrConflict):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	case errors.Is(err, restaurantapp.ErrTransport):
		return apierrors.ErrUpstream.WithDetail("the restaurant record store is unavailable; no change was made"), true
	case errors.Is(err, restaurantapp.ErrPartialFailure):
		return apierrors.ErrPartialFailure.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}
