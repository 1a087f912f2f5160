package onboardingserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	restaurantmapper "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/adapters/http/mapper"
	restauranttypes "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application/types"
	restaurantports "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/shared/auth"
	apierrors "github.com/Apurer/go-gin-restaurant-onboarding/internal/shared/errors"
)

// IdempotencyKeyHeader lets a client retry registration without creating duplicates.
const IdempotencyKeyHeader = "Idempotency-Key"

// RestaurantAPI serves registration intake, restaurant login and the customer listings.
type RestaurantAPI struct {
	service   restaurantports.Service
	workflows restaurantports.WorkflowOrchestrator
	tokens    *auth.TokenIssuer
	now       func() time.Time
}

// NewRestaurantAPI creates a RestaurantAPI. A nil workflows runs registration inline.
func NewRestaurantAPI(service restaurantports.Service, workflows restaurantports.WorkflowOrchestrator, tokens *auth.TokenIssuer) RestaurantAPI {
	return RestaurantAPI{service: service, workflows: workflows, tokens: tokens, now: time.Now}
}

// Post /v1/restaurants/register
// Submit a restaurant application
func (api *RestaurantAPI) Register(c *gin.Context) {
	var payload restaurantmapper.RegistrationRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	application, err := restaurantmapper.ToDomainApplication(payload)
	if err != nil {
		respondProblem(c, apierrors.NewValidationProblem(map[string]string{"hours": err.Error()}))
		return
	}
	input := restauranttypes.RegisterInput{
		Application:    application,
		IdempotencyKey: strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader)),
	}
	result, err := api.register(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, restaurantmapper.FromRegistration(result))
}

func (api *RestaurantAPI) register(ctx context.Context, input restauranttypes.RegisterInput) (*restauranttypes.RegistrationResult, error) {
	if api.workflows != nil {
		return api.workflows.Register(ctx, input)
	}
	return api.service.Register(ctx, input)
}

// Post /v1/restaurants/login
// Log in with the credentials issued on approval
func (api *RestaurantAPI) Login(c *gin.Context) {
	var payload restaurantmapper.LoginRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	authenticated, err := api.service.Authenticate(c.Request.Context(), restauranttypes.LoginInput{
		Username: payload.Username,
		Password: payload.Password,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if api.tokens == nil {
		respondError(c, http.StatusInternalServerError, errors.New("token signing is not configured"))
		return
	}
	token, expiresAt, err := api.tokens.IssueRestaurant(authenticated.RestaurantID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, restaurantmapper.TokenResponse{
		Token:        token,
		TokenType:    "Bearer",
		ExpiresAt:    expiresAt,
		Role:         string(auth.RoleRestaurant),
		RestaurantID: authenticated.RestaurantID,
		Status:       string(authenticated.Status),
	})
}

// Get /v1/restaurants
// List restaurants visible to customers, open ones first
func (api *RestaurantAPI) ListVisible(c *gin.Context) {
	at := api.now()
	if raw := strings.TrimSpace(c.Query("at")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, fmt.Errorf("at must be an RFC 3339 timestamp: %w", err))
			return
		}
		at = parsed
	}
	result, err := api.service.ListVisible(c.Request.Context(), restauranttypes.ListVisibleInput{At: at})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, restaurantmapper.FromVisibleList(result))
}

// Get /v1/restaurants/:id
// Find a visible restaurant by ID
func (api *RestaurantAPI) GetVisible(c *gin.Context) {
	visible, ok := api.loadVisible(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, restaurantmapper.FromVisible(*visible))
}

// Get /v1/restaurants/:id/menu
// Sample menu of a visible restaurant
func (api *RestaurantAPI) GetMenu(c *gin.Context) {
	visible, ok := api.loadVisible(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, restaurantmapper.FromMenu(visible.Restaurant.Application.MenuItems))
}

// Get /v1/restaurants/:id/hours
// Weekly operating hours of a visible restaurant
func (api *RestaurantAPI) GetHours(c *gin.Context) {
	visible, ok := api.loadVisible(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, restaurantmapper.FromHours(visible.Restaurant.Application.Hours))
}

func (api *RestaurantAPI) loadVisible(c *gin.Context) (*restauranttypes.VisibleRestaurant, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}
	visible, err := api.service.GetVisible(c.Request.Context(), restauranttypes.RestaurantIdentifier{ID: id})
	if err != nil {
		respondServiceError(c, err)
		return nil, false
	}
	return visible, true
}

// Get /v1/restaurants/me/dashboard
// Enter the dashboard; the view depends on the approval status
func (api *RestaurantAPI) Dashboard(c *gin.Context) {
	id, ok := restaurantIDFromToken(c)
	if !ok {
		return
	}
	view, err := api.service.EnterDashboard(c.Request.Context(), restauranttypes.RestaurantIdentifier{ID: id})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, restaurantmapper.FromDashboard(view))
}

// Post /v1/restaurants/me/withdraw
// Ask to leave the platform; an admin resolves the request
func (api *RestaurantAPI) RequestWithdrawal(c *gin.Context) {
	id, ok := restaurantIDFromToken(c)
	if !ok {
		return
	}
	updated, err := api.service.RequestWithdrawal(c.Request.Context(), restauranttypes.RestaurantIdentifier{ID: id})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, restaurantmapper.FromProjection(updated))
}

func restaurantIDFromToken(c *gin.Context) (int64, bool) {
	claims, err := claimsFrom(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, err)
		return 0, false
	}
	id, err := claims.RestaurantID()
	if err != nil {
		respondError(c, http.StatusForbidden, err)
		return 0, false
	}
	return id, true
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	var id int64
	if err := runtime.BindStyledParameterWithLocation("simple", false, name, runtime.ParamLocationPath, c.Param(name), &id); err != nil {
		respondError(c, http.StatusBadRequest, fmt.Errorf("invalid format for parameter %s: %w", name, err))
		return 0, false
	}
	if id <= 0 {
		respondError(c, http.StatusBadRequest, fmt.Errorf("parameter %s must be positive", name))
		return 0, false
	}
	return id, true
}
