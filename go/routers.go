package onboardingserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/platform/metrics"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/shared/auth"
)

// Access selects the middleware placed in front of a route.
type Access int

const (
	AccessPublic Access = iota
	AccessRateLimited
	AccessRestaurant
	AccessAdmin
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// Access decides which guard middleware runs before HandlerFunc.
	Access Access
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// ApiHandleFunctions bundles the handlers and the middleware they depend on.
type ApiHandleFunctions struct {
	RestaurantAPI RestaurantAPI
	AdminAPI      AdminAPI
	// Tokens verifies bearer tokens for restaurant and admin routes.
	Tokens *auth.TokenIssuer
	// Limiter throttles login and registration; nil disables throttling.
	Limiter *RateLimiter
	// Metrics records request metrics and serves /metrics; nil disables both.
	Metrics *metrics.HTTPMetrics
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	router.Use(RequestID())
	if handleFunctions.Metrics != nil {
		router.Use(handleFunctions.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(handleFunctions.Metrics.Handler()))
	}
	guard := NewAuthMiddleware(handleFunctions.Tokens)
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		handlers := make([]gin.HandlerFunc, 0, 2)
		switch route.Access {
		case AccessRateLimited:
			if handleFunctions.Limiter != nil {
				handlers = append(handlers, handleFunctions.Limiter.Middleware())
			}
		case AccessRestaurant:
			handlers = append(handlers, guard.Require(auth.RoleRestaurant))
		case AccessAdmin:
			handlers = append(handlers, guard.Require(auth.RoleAdmin))
		}
		handlers = append(handlers, route.HandlerFunc)
		router.Handle(route.Method, route.Pattern, handlers...)
	}
	return router
}

// DefaultHandleFunc is the default handler for routes without an implementation.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	restaurants := handleFunctions.RestaurantAPI
	admin := handleFunctions.AdminAPI
	return []Route{
		{"Healthz", http.MethodGet, "/healthz", AccessPublic, Healthz},
		{"RegisterRestaurant", http.MethodPost, "/v1/restaurants/register", AccessRateLimited, restaurants.Register},
		{"LoginRestaurant", http.MethodPost, "/v1/restaurants/login", AccessRateLimited, restaurants.Login},
		{"ListRestaurants", http.MethodGet, "/v1/restaurants", AccessPublic, restaurants.ListVisible},
		{"GetDashboard", http.MethodGet, "/v1/restaurants/me/dashboard", AccessRestaurant, restaurants.Dashboard},
		{"RequestWithdrawal", http.MethodPost, "/v1/restaurants/me/withdraw", AccessRestaurant, restaurants.RequestWithdrawal},
		{"GetRestaurant", http.MethodGet, "/v1/restaurants/:id", AccessPublic, restaurants.GetVisible},
		{"GetRestaurantMenu", http.MethodGet, "/v1/restaurants/:id/menu", AccessPublic, restaurants.GetMenu},
		{"GetRestaurantHours", http.MethodGet, "/v1/restaurants/:id/hours", AccessPublic, restaurants.GetHours},
		{"LoginAdmin", http.MethodPost, "/v1/admin/login", AccessRateLimited, admin.Login},
		{"ListPendingRestaurants", http.MethodGet, "/v1/admin/restaurants/pending", AccessAdmin, admin.ListPending},
		{"ListPendingWithdrawals", http.MethodGet, "/v1/admin/restaurants/withdrawals", AccessAdmin, admin.ListPendingWithdrawals},
		{"GetRestaurantForReview", http.MethodGet, "/v1/admin/restaurants/:id", AccessAdmin, admin.Get},
		{"ApproveRestaurant", http.MethodPost, "/v1/admin/restaurants/:id/approve", AccessAdmin, admin.Approve},
		{"RejectRestaurant", http.MethodPost, "/v1/admin/restaurants/:id/reject", AccessAdmin, admin.Reject},
		{"ApproveWithdrawal", http.MethodPost, "/v1/admin/restaurants/:id/approve-withdrawal", AccessAdmin, admin.ApproveWithdrawal},
		{"RejectWithdrawal", http.MethodPost, "/v1/admin/restaurants/:id/reject-withdrawal", AccessAdmin, admin.RejectWithdrawal},
	}
}

// Healthz reports liveness.
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
