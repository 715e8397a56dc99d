package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr          = ":8080"
	defaultDatabaseURL       = "salon.db"
	defaultJWTSecret         = "change-me-jwt-secret"
	defaultJWTTTL            = "24h"
	defaultStoreTimeout      = "5s"
	defaultSlotGuard         = SlotGuardTransactional
	defaultAMQPQueue         = "appointment-events"
	defaultRedisChannel      = "appointments:changed"
	defaultConsultantTimeout = "20s"
	defaultConsultantModel   = "gemini-2.5-flash-image"
	defaultOTELEndpoint      = "localhost:4317"
)

// Slot guard modes. Transactional closes the double-booking race at the
// store, optimistic keeps last-write-wins.
const (
	SlotGuardTransactional = "transactional"
	SlotGuardOptimistic    = "optimistic"
)

// MemoryDatabaseURL selects the in-memory appointment store.
const MemoryDatabaseURL = "memory"

type Config struct {
	AppEnv       string
	HTTPAddr     string
	DatabaseURL  string
	JWTSecret    string
	JWTTTL       time.Duration
	StoreTimeout time.Duration
	SlotGuard    string

	RedisURL     string
	RedisChannel string

	AMQPURL   string
	AMQPQueue string

	ConsultantURL     string
	ConsultantAPIKey  string
	ConsultantModel   string
	ConsultantTimeout time.Duration

	OTELEnabled  bool
	OTELEndpoint string

	CORSAllowedOrigins []string
}

// Load reads the configuration from the environment, optionally seeded by
// a .env file in the working directory.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.SlotGuard = strings.ToLower(strings.TrimSpace(getEnv("SLOT_GUARD", defaultSlotGuard)))

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.RedisChannel = strings.TrimSpace(getEnv("REDIS_CHANNEL", defaultRedisChannel))
	cfg.AMQPURL = strings.TrimSpace(os.Getenv("AMQP_URL"))
	cfg.AMQPQueue = strings.TrimSpace(getEnv("AMQP_QUEUE", defaultAMQPQueue))
	cfg.ConsultantURL = strings.TrimSpace(os.Getenv("CONSULTANT_URL"))
	cfg.ConsultantAPIKey = strings.TrimSpace(os.Getenv("CONSULTANT_API_KEY"))
	cfg.ConsultantModel = strings.TrimSpace(getEnv("CONSULTANT_MODEL", defaultConsultantModel))
	cfg.OTELEnabled = parseBoolEnv("OTEL_ENABLED", "false")
	cfg.OTELEndpoint = strings.TrimSpace(getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", defaultOTELEndpoint))

	var err error
	cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL)
	if err != nil {
		return nil, err
	}
	cfg.StoreTimeout, err = parseDurationEnv("STORE_TIMEOUT", defaultStoreTimeout)
	if err != nil {
		return nil, err
	}
	cfg.ConsultantTimeout, err = parseDurationEnv("CONSULTANT_TIMEOUT", defaultConsultantTimeout)
	if err != nil {
		return nil, err
	}

	if extra := os.Getenv("CORS_ALLOWED_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether the service runs in a prod-like environment.
func (c *Config) IsProduction() bool {
	return isProdLike(c.AppEnv)
}

// UsesMemoryStore reports whether appointments live in process memory.
func (c *Config) UsesMemoryStore() bool {
	return strings.EqualFold(c.DatabaseURL, MemoryDatabaseURL)
}

func validateConfig(cfg *Config) error {
	if cfg.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be > 0")
	}
	if cfg.ConsultantTimeout <= 0 {
		return fmt.Errorf("CONSULTANT_TIMEOUT must be > 0")
	}
	if cfg.SlotGuard != SlotGuardTransactional && cfg.SlotGuard != SlotGuardOptimistic {
		return fmt.Errorf("SLOT_GUARD must be one of: %s, %s", SlotGuardTransactional, SlotGuardOptimistic)
	}
	if cfg.AMQPURL != "" && cfg.AMQPQueue == "" {
		return fmt.Errorf("AMQP_QUEUE must not be empty when AMQP_URL is set")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if strings.EqualFold(cfg.DatabaseURL, MemoryDatabaseURL) {
			return fmt.Errorf("in prod/release DATABASE_URL must point to a database")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
