package onboardingserver

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"golang.org/x/crypto/bcrypt"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/adapters/credentials"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/adapters/memory"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/adapters/notifications"
	restaurantapp "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/shared/auth"
	apierrors "github.com/Apurer/go-gin-restaurant-onboarding/internal/shared/errors"
)

const registrationBody = `{
  "profile": {"name": "Luigi's", "description": "Wood-fired pizza", "cuisines": ["Italian"]},
  "location": {"address": "1 Main St", "city": "Springfield", "state": "IL", "zip": "62701"},
  "contact": {"phone": "(555) 123-4567", "contactPerson": "Mario Rossi", "email": "owner@luigis.example"},
  "pricing": {"priceTier": "$$", "deliveryFee": 2.99, "minimumOrder": 10, "prepTimeMinutes": 25},
  "hours": {
    "monday": {"open": "11:00", "close": "22:00"},
    "tuesday": {"open": "11:00", "close": "22:00"},
    "wednesday": {"open": "11:00", "close": "22:00"},
    "thursday": {"open": "11:00", "close": "22:00"},
    "friday": {"open": "11:00", "close": "22:00"},
    "saturday": {"open": "11:00", "close": "22:00"},
    "sunday": {"closed": true}
  },
  "menuItems": [{"name": "Margherita", "price": 12.5, "category": "Pizza"}]
}`

// mondayNoon falls inside the 11:00-22:00 window used by registrationBody.
const mondayNoon = "2024-06-10T12:00:00Z"

type apiHarness struct {
	router *gin.Engine
	admin  string
}

func newAPIHarness(t *testing.T, limiter *RateLimiter) *apiHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	issuer := credentials.NewIssuer(memory.NewCredentialStore(), credentials.WithCost(bcrypt.MinCost))
	service := restaurantapp.NewService(
		memory.NewStatusStore(),
		issuer,
		notifications.NewLogSender(logger),
		restaurantapp.WithApprovalMarkers(memory.NewMarkerStore()),
		restaurantapp.WithIdempotencyStore(memory.NewIdempotencyStore()),
		restaurantapp.WithLocation(time.UTC),
	)
	tokens, err := auth.NewTokenIssuer("test-secret", auth.WithTTL(time.Hour))
	require.NoError(t, err)
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	admin, err := auth.NewAdminAuthenticator("ops", string(hash))
	require.NoError(t, err)

	router := NewRouterWithGinEngine(gin.New(), ApiHandleFunctions{
		RestaurantAPI: NewRestaurantAPI(service, nil, tokens),
		AdminAPI:      NewAdminAPI(service, tokens, admin),
		Tokens:        tokens,
		Limiter:       limiter,
	})
	h := &apiHarness{router: router}
	rec := h.do(t, http.MethodPost, "/v1/admin/login", `{"username":"ops","password":"admin-pass"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	h.admin = gjson.Get(rec.Body.String(), "token").String()
	return h
}

func (h *apiHarness) do(t *testing.T, method, path, body, token string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *apiHarness) register(t *testing.T) int64 {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/v1/restaurants/register", registrationBody, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return gjson.Get(rec.Body.String(), "id").Int()
}

func (h *apiHarness) approve(t *testing.T, id int64) (string, string) {
	t.Helper()
	rec := h.do(t, http.MethodPost, restaurantPath(id, "/approve"), "", h.admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := gjson.Parse(rec.Body.String())
	return body.Get("username").String(), body.Get("temporaryPassword").String()
}

func (h *apiHarness) loginRestaurant(t *testing.T, username, password string) string {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/v1/restaurants/login", `{"username":"`+username+`","password":"`+password+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return gjson.Get(rec.Body.String(), "token").String()
}

func restaurantPath(id int64, suffix string) string {
	return "/v1/admin/restaurants/" + itoa(id) + suffix
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestHealthz(t *testing.T) {
	h := newAPIHarness(t, nil)
	rec := h.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", gjson.Get(rec.Body.String(), "status").String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRegister_CreatesPendingApplication(t *testing.T) {
	h := newAPIHarness(t, nil)

	rec := h.do(t, http.MethodPost, "/v1/restaurants/register", registrationBody, "")

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := gjson.Parse(rec.Body.String())
	assert.Equal(t, "pending", body.Get("status").String())
	assert.NotEmpty(t, body.Get("applicationRef").String())

	pending := h.do(t, http.MethodGet, "/v1/admin/restaurants/pending", "", h.admin)
	require.Equal(t, http.StatusOK, pending.Code)
	assert.Equal(t, int64(1), gjson.Get(pending.Body.String(), "#").Int())
}

func TestRegister_ValidationProblemListsFields(t *testing.T) {
	h := newAPIHarness(t, nil)
	invalid := bytes.Replace([]byte(registrationBody), []byte(`"62701"`), []byte(`"6270"`), 1)

	rec := h.do(t, http.MethodPost, "/v1/restaurants/register", string(invalid), "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierrors.ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	assert.True(t, gjson.Get(rec.Body.String(), `extensions.fields.location\.zip`).Exists(), rec.Body.String())
}

func TestRegister_UnknownWeekdayRejected(t *testing.T) {
	h := newAPIHarness(t, nil)
	invalid := bytes.Replace([]byte(registrationBody), []byte(`"sunday"`), []byte(`"funday"`), 1)

	rec := h.do(t, http.MethodPost, "/v1/restaurants/register", string(invalid), "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, gjson.Get(rec.Body.String(), "extensions.fields.hours").String(), "funday")
}

func TestRegister_IdempotencyKeyReplays(t *testing.T) {
	h := newAPIHarness(t, nil)

	first := h.do(t, http.MethodPost, "/v1/restaurants/register", registrationBody, "", IdempotencyKeyHeader, "abc")
	second := h.do(t, http.MethodPost, "/v1/restaurants/register", registrationBody, "", IdempotencyKeyHeader, "abc")

	require.Equal(t, http.StatusCreated, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, gjson.Get(first.Body.String(), "id").Int(), gjson.Get(second.Body.String(), "id").Int())
	assert.True(t, gjson.Get(second.Body.String(), "replayed").Bool())

	changed := bytes.Replace([]byte(registrationBody), []byte("Luigi's"), []byte("Mario's"), 1)
	conflict := h.do(t, http.MethodPost, "/v1/restaurants/register", string(changed), "", IdempotencyKeyHeader, "abc")
	assert.Equal(t, http.StatusConflict, conflict.Code)
}

func TestAdminRoutes_RequireAdminToken(t *testing.T) {
	h := newAPIHarness(t, nil)
	id := h.register(t)
	username, password := h.approve(t, id)
	restaurantToken := h.loginRestaurant(t, username, password)

	rec := h.do(t, http.MethodGet, "/v1/admin/restaurants/pending", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(t, http.MethodGet, "/v1/admin/restaurants/pending", "", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(t, http.MethodGet, "/v1/admin/restaurants/pending", "", restaurantToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(t, http.MethodGet, "/v1/restaurants/me/dashboard", "", h.admin)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminLogin_WrongPassword(t *testing.T) {
	h := newAPIHarness(t, nil)
	rec := h.do(t, http.MethodPost, "/v1/admin/login", `{"username":"ops","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestApprovalFlow_DashboardAndVisibility(t *testing.T) {
	h := newAPIHarness(t, nil)
	id := h.register(t)

	hidden := h.do(t, http.MethodGet, "/v1/restaurants?at="+mondayNoon, "", "")
	require.Equal(t, http.StatusOK, hidden.Code)
	assert.Equal(t, int64(0), gjson.Get(hidden.Body.String(), "#").Int())

	username, password := h.approve(t, id)
	require.NotEmpty(t, username)
	require.NotEmpty(t, password)

	token := h.loginRestaurant(t, username, password)
	first := h.do(t, http.MethodGet, "/v1/restaurants/me/dashboard", "", token)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	assert.Equal(t, "dashboard", gjson.Get(first.Body.String(), "view").String())
	assert.True(t, gjson.Get(first.Body.String(), "firstApprovedSession").Bool())
	second := h.do(t, http.MethodGet, "/v1/restaurants/me/dashboard", "", token)
	assert.False(t, gjson.Get(second.Body.String(), "firstApprovedSession").Bool())

	listed := h.do(t, http.MethodGet, "/v1/restaurants?at="+mondayNoon, "", "")
	require.Equal(t, http.StatusOK, listed.Code)
	entry := gjson.Get(listed.Body.String(), "0")
	assert.Equal(t, id, entry.Get("id").Int())
	assert.True(t, entry.Get("open").Bool())
	assert.True(t, entry.Get("orderable").Bool())
	assert.False(t, gjson.Get(listed.Body.String(), "0.contact").Exists())

	menu := h.do(t, http.MethodGet, "/v1/restaurants/"+itoa(id)+"/menu", "", "")
	require.Equal(t, http.StatusOK, menu.Code)
	assert.Equal(t, "Margherita", gjson.Get(menu.Body.String(), "0.name").String())

	hours := h.do(t, http.MethodGet, "/v1/restaurants/"+itoa(id)+"/hours", "", "")
	require.Equal(t, http.StatusOK, hours.Code)
	assert.True(t, gjson.Get(hours.Body.String(), "sunday.closed").Bool())
}

func TestApprove_NonPendingIsConflict(t *testing.T) {
	h := newAPIHarness(t, nil)
	id := h.register(t)
	h.approve(t, id)

	rec := h.do(t, http.MethodPost, restaurantPath(id, "/approve"), "", h.admin)

	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestReject_RequiresConfirmation(t *testing.T) {
	h := newAPIHarness(t, nil)
	id := h.register(t)

	rec := h.do(t, http.MethodPost, restaurantPath(id, "/reject"), "", h.admin)
	assert.Equal(t, http.StatusPreconditionRequired, rec.Code)

	rec = h.do(t, http.MethodPost, restaurantPath(id, "/reject"), `{"confirm":false}`, h.admin)
	assert.Equal(t, http.StatusPreconditionRequired, rec.Code)

	rec = h.do(t, http.MethodPost, restaurantPath(id, "/reject"), `{"confirm":true}`, h.admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "rejected", gjson.Get(rec.Body.String(), "status").String())

	detail := h.do(t, http.MethodGet, restaurantPath(id, ""), "", h.admin)
	assert.Equal(t, "rejected", gjson.Get(detail.Body.String(), "status").String())
}

func TestWithdrawalFlow(t *testing.T) {
	h := newAPIHarness(t, nil)
	id := h.register(t)
	username, password := h.approve(t, id)
	token := h.loginRestaurant(t, username, password)

	rec := h.do(t, http.MethodPost, "/v1/restaurants/me/withdraw", "", token)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	queue := h.do(t, http.MethodGet, "/v1/admin/restaurants/withdrawals", "", h.admin)
	require.Equal(t, http.StatusOK, queue.Code)
	assert.Equal(t, id, gjson.Get(queue.Body.String(), "0.id").Int())

	stillVisible := h.do(t, http.MethodGet, "/v1/restaurants/"+itoa(id), "", "")
	assert.Equal(t, http.StatusOK, stillVisible.Code)

	rec = h.do(t, http.MethodPost, restaurantPath(id, "/approve-withdrawal"), `{"confirm":true}`, h.admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "inactive", gjson.Get(rec.Body.String(), "status").String())

	gone := h.do(t, http.MethodGet, "/v1/restaurants/"+itoa(id), "", "")
	assert.Equal(t, http.StatusNotFound, gone.Code)

	dashboard := h.do(t, http.MethodGet, "/v1/restaurants/me/dashboard", "", token)
	require.Equal(t, http.StatusOK, dashboard.Code)
	assert.Equal(t, "not_approved", gjson.Get(dashboard.Body.String(), "view").String())
	assert.False(t, gjson.Get(dashboard.Body.String(), "restaurant").Exists())
}

func TestInvalidIDParam(t *testing.T) {
	h := newAPIHarness(t, nil)

	rec := h.do(t, http.MethodGet, "/v1/restaurants/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodGet, "/v1/admin/restaurants/0", "", h.admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListVisible_RejectsBadTimestamp(t *testing.T) {
	h := newAPIHarness(t, nil)
	rec := h.do(t, http.MethodGet, "/v1/restaurants?at=yesterday", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimiter_ThrottlesRegistration(t *testing.T) {
	h := newAPIHarness(t, NewRateLimiter(1, 2))

	// admin login in the harness consumed one token
	first := h.do(t, http.MethodPost, "/v1/restaurants/register", registrationBody, "")
	throttled := h.do(t, http.MethodPost, "/v1/restaurants/register", registrationBody, "")

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, throttled.Code)
	assert.NotEmpty(t, throttled.Header().Get("Retry-After"))
}

func TestRateLimiter_PerClient(t *testing.T) {
	limiter := NewRateLimiter(60, 1)
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	ok, _ := limiter.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, wait := limiter.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, time.Second, wait)
	ok, _ = limiter.Allow("10.0.0.2")
	assert.True(t, ok)

	now = now.Add(time.Second)
	ok, _ = limiter.Allow("10.0.0.1")
	assert.True(t, ok)
}
