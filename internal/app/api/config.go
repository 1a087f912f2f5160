package api

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/adapters/credentials"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/adapters/notifications"
	restaurantworkflows "github.com/Apurer/go-gin-restaurant-onboarding/internal/platform/temporal/workflows/restaurants"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/shared/auth"
)

// Config carries environment-driven settings for the API and worker processes.
type Config struct {
	Port        string
	ServiceName string

	PostgresDSN   string
	DBAutoMigrate bool

	RedisAddr     string
	RedisPassword string

	RabbitMQURL          string
	NotificationExchange string
	NotificationURL      string

	BackendBaseURL string

	JWTSecret         string
	JWTTTL            time.Duration
	AdminUsername     string
	AdminPasswordHash string
	CredentialTTL     time.Duration

	RegisterRateLimit float64
	RegisterRateBurst int

	TemporalAddress   string
	TemporalNamespace string
	TemporalTaskQueue string
	TemporalDisabled  bool
}

// LoadConfig reads .env (when present) and the environment, applies defaults, and
// validates basic constraints.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg := Config{
		Port:                 envDefault("PORT", "8080"),
		ServiceName:          envDefault("SERVICE_NAME", "restaurant-onboarding-api"),
		PostgresDSN:          firstNonEmpty(os.Getenv("POSTGRES_DSN"), os.Getenv("DATABASE_URL")),
		DBAutoMigrate:        isTruthy(envDefault("DB_AUTO_MIGRATE", "true")),
		RedisAddr:            strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		RabbitMQURL:          strings.TrimSpace(os.Getenv("RABBITMQ_URL")),
		NotificationExchange: envDefault("NOTIFICATION_EXCHANGE", notifications.DefaultExchange),
		NotificationURL:      strings.TrimSpace(os.Getenv("NOTIFICATION_URL")),
		BackendBaseURL:       strings.TrimSpace(os.Getenv("BACKEND_BASE_URL")),
		JWTSecret:            strings.TrimSpace(os.Getenv("JWT_SECRET")),
		AdminUsername:        envDefault("ADMIN_USERNAME", "admin"),
		AdminPasswordHash:    strings.TrimSpace(os.Getenv("ADMIN_PASSWORD_HASH")),
		TemporalAddress:      envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace:    envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalTaskQueue:    envDefault("TEMPORAL_TASK_QUEUE", restaurantworkflows.RegistrationTaskQueue),
		TemporalDisabled:     isTruthy(os.Getenv("TEMPORAL_DISABLED")),
	}
	var err error
	if cfg.JWTTTL, err = durationEnv("JWT_TTL", auth.DefaultTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.CredentialTTL, err = durationEnv("CREDENTIAL_TTL", credentials.DefaultTTL); err != nil {
		return Config{}, err
	}
	if cfg.RegisterRateLimit, err = floatEnv("REGISTER_RATE_LIMIT", 30); err != nil {
		return Config{}, err
	}
	if cfg.RegisterRateBurst, err = intEnv("REGISTER_RATE_BURST", 10); err != nil {
		return Config{}, err
	}
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return Config{}, fmt.Errorf("PORT must be numeric")
	}
	return cfg, nil
}

// Addr is the listen address derived from Port.
func (c Config) Addr() string {
	return ":" + c.Port
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration such as 72h", key)
	}
	return d, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive number", key)
	}
	return v, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return v, nil
}
