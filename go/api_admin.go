package onboardingserver

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	restaurantmapper "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/adapters/http/mapper"
	restauranttypes "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application/types"
	restaurantports "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/shared/auth"
	apierrors "github.com/Apurer/go-gin-restaurant-onboarding/internal/shared/errors"
)

// AdminAPI serves the approval queues and admin decisions.
type AdminAPI struct {
	service restaurantports.Service
	tokens  *auth.TokenIssuer
	admin   *auth.AdminAuthenticator
}

// NewAdminAPI creates an AdminAPI. A nil authenticator disables admin login.
func NewAdminAPI(service restaurantports.Service, tokens *auth.TokenIssuer, admin *auth.AdminAuthenticator) AdminAPI {
	return AdminAPI{service: service, tokens: tokens, admin: admin}
}

// Post /v1/admin/login
// Log in as the portal operator
func (api *AdminAPI) Login(c *gin.Context) {
	var payload restaurantmapper.LoginRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if err := api.admin.Authenticate(payload.Username, payload.Password); err != nil {
		if errors.Is(err, auth.ErrAdminLoginDisabled) {
			respondProblem(c, apierrors.ErrForbidden.WithDetail(err.Error()))
			return
		}
		respondProblem(c, apierrors.ErrUnauthorized.WithDetail("invalid username or password"))
		return
	}
	if api.tokens == nil {
		respondError(c, http.StatusInternalServerError, errors.New("token signing is not configured"))
		return
	}
	token, expiresAt, err := api.tokens.IssueAdmin(api.admin.Username())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, restaurantmapper.TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
		Role:      string(auth.RoleAdmin),
	})
}

// Get /v1/admin/restaurants/pending
// Applications awaiting a decision, oldest first
func (api *AdminAPI) ListPending(c *gin.Context) {
	result, err := api.service.ListPending(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, restaurantmapper.FromProjections(result))
}

// Get /v1/admin/restaurants/withdrawals
// Restaurants that asked to leave the platform
func (api *AdminAPI) ListPendingWithdrawals(c *gin.Context) {
	result, err := api.service.ListPendingWithdrawals(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, restaurantmapper.FromProjections(result))
}

// Get /v1/admin/restaurants/:id
// Full record for review, whatever the status
func (api *AdminAPI) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	projection, err := api.service.Get(c.Request.Context(), restauranttypes.RestaurantIdentifier{ID: id})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, restaurantmapper.FromProjection(projection))
}

// Post /v1/admin/restaurants/:id/approve
// Approve a pending application and issue its credentials
func (api *AdminAPI) Approve(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	result, err := api.service.Approve(c.Request.Context(), restauranttypes.RestaurantIdentifier{ID: id})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, restaurantmapper.FromApproval(result))
}

// Post /v1/admin/restaurants/:id/reject
// Reject a pending application
func (api *AdminAPI) Reject(c *gin.Context) {
	api.confirmed(c, api.service.Reject)
}

// Post /v1/admin/restaurants/:id/approve-withdrawal
// Deactivate a restaurant that asked to withdraw
func (api *AdminAPI) ApproveWithdrawal(c *gin.Context) {
	api.confirmed(c, api.service.ApproveWithdrawal)
}

// Post /v1/admin/restaurants/:id/reject-withdrawal
// Keep a restaurant active and clear its withdrawal request
func (api *AdminAPI) RejectWithdrawal(c *gin.Context) {
	api.confirmed(c, api.service.RejectWithdrawal)
}

type confirmedAction func(ctx context.Context, input restauranttypes.ConfirmedAction) (*restauranttypes.RestaurantProjection, error)

func (api *AdminAPI) confirmed(c *gin.Context, action confirmedAction) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload restaurantmapper.ConfirmRequest
	if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	updated, err := action(c.Request.Context(), restauranttypes.ConfirmedAction{ID: id, Confirmed: payload.Confirm})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, restaurantmapper.FromProjection(updated))
}
