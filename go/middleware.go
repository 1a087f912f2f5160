package onboardingserver

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/shared/auth"
	apierrors "github.com/Apurer/go-gin-restaurant-onboarding/internal/shared/errors"
)

const (
	// RequestIDHeader carries the correlation id echoed on every response.
	RequestIDHeader = "X-Request-ID"

	requestIDKey = apierrors.RequestIDKey
	claimsKey    = "authClaims"
)

// RequestID reuses a well-formed inbound X-Request-ID or mints a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// AuthMiddleware checks bearer tokens and the role they carry.
type AuthMiddleware struct {
	tokens *auth.TokenIssuer
}

// NewAuthMiddleware wires the token verifier. A nil verifier rejects every protected call.
func NewAuthMiddleware(tokens *auth.TokenIssuer) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Require aborts with 401 for a missing or invalid token and 403 for the wrong role.
func (m *AuthMiddleware) Require(role auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil || m.tokens == nil {
			respondProblem(c, apierrors.ErrUnauthorized.WithDetail("authentication is not configured"))
			return
		}
		raw, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Header("WWW-Authenticate", `Bearer realm="restaurant-onboarding"`)
			respondProblem(c, apierrors.ErrUnauthorized.WithDetail("missing bearer token"))
			return
		}
		claims, err := m.tokens.Parse(raw)
		if err != nil {
			c.Header("WWW-Authenticate", `Bearer realm="restaurant-onboarding", error="invalid_token"`)
			respondProblem(c, apierrors.ErrUnauthorized.WithDetail("invalid or expired token"))
			return
		}
		if claims.Role != role {
			respondProblem(c, apierrors.ErrForbidden.WithDetail("token role "+string(claims.Role)+" cannot call this endpoint"))
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

var errNoClaims = errors.New("request is not authenticated")

func claimsFrom(c *gin.Context) (*auth.Claims, error) {
	value, ok := c.Get(claimsKey)
	if !ok {
		return nil, errNoClaims
	}
	claims, ok := value.(*auth.Claims)
	if !ok || claims == nil {
		return nil, errNoClaims
	}
	return claims, nil
}

// RateLimiter applies a token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	limit    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
	lastScan time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per client IP with the given burst.
func NewRateLimiter(perMinute float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(perMinute / 60),
		burst:   burst,
		idle:    10 * time.Minute,
		now:     time.Now,
	}
}

// Allow reports whether key may proceed now, and otherwise how long until it may.
func (l *RateLimiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.evictIdle(now)
	entry, ok := l.clients[key]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = entry
	}
	entry.lastSeen = now
	reservation := entry.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, 0
	}
	delay := reservation.DelayFrom(now)
	if delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (l *RateLimiter) evictIdle(now time.Time) {
	if now.Sub(l.lastScan) < l.idle {
		return
	}
	l.lastScan = now
	for key, entry := range l.clients {
		if now.Sub(entry.lastSeen) > l.idle {
			delete(l.clients, key)
		}
	}
}

// Middleware rejects throttled callers with 429 and a Retry-After header.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait := l.Allow(c.ClientIP())
		if !ok {
			if wait > 0 {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			}
			respondProblem(c, apierrors.ErrTooManyRequests.WithDetail("too many requests from this client, retry later"))
			return
		}
		c.Next()
	}
}
