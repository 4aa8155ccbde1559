package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/utafrali/storefront/internal/lock"
	pkgconfig "github.com/utafrali/storefront/pkg/config"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreREST     = "rest"
	StorePostgres = "postgres"
)

// Session registries.
const (
	RegistryMemory = "memory"
	RegistryRedis  = "redis"
)

const devJWTSecret = "storefront-dev-secret-change-me"

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort           int           `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Remote store
	StoreBackend          string        `env:"STORE_BACKEND" envDefault:"memory"`
	StoreSeedFile         string        `env:"STORE_SEED_FILE"`
	RemoteStoreURL        string        `env:"REMOTE_STORE_URL"`
	RemoteStoreAPIKey     string        `env:"REMOTE_STORE_API_KEY"`
	RemoteStoreSchema     string        `env:"REMOTE_STORE_SCHEMA"`
	RemoteStoreTimeout    time.Duration `env:"REMOTE_STORE_TIMEOUT" envDefault:"10s"`
	RemoteStoreMaxRetries int           `env:"REMOTE_STORE_MAX_RETRIES" envDefault:"0"`
	SlowQueryThreshold    time.Duration `env:"SLOW_QUERY_THRESHOLD" envDefault:"500ms"`

	// PostgreSQL
	DatabaseURL   string `env:"DATABASE_URL"`
	DBMaxConns    int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`

	// Redis
	RedisURL string `env:"REDIS_URL"`

	// Kafka. No brokers disables event publication.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// Sessions
	JWTSecret       string        `env:"JWT_SECRET" envDefault:"storefront-dev-secret-change-me"`
	JWTExpiry       time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
	SessionRegistry string        `env:"SESSION_REGISTRY" envDefault:"memory"`
	BcryptCost      int           `env:"BCRYPT_COST" envDefault:"0"`
	AuthRateLimit   float64       `env:"AUTH_RATE_LIMIT_RPS" envDefault:"5"`
	AuthBurst       int           `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`

	// Line items
	LineLockMode string        `env:"LINE_LOCK_MODE" envDefault:"local"`
	LineLockTTL  time.Duration `env:"LINE_LOCK_TTL" envDefault:"5s"`

	// Pages
	NoticeDuration time.Duration `env:"NOTICE_DURATION" envDefault:"3s"`
	WhatsAppNumber string        `env:"WHATSAPP_NUMBER" envDefault:"910000000000"`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LockMode returns the parsed line lock mode. Valid after Load.
func (c *Config) LockMode() lock.Mode {
	m, _ := lock.ParseMode(c.LineLockMode)
	return m
}

// NeedsRedis reports whether any component is configured to use Redis.
func (c *Config) NeedsRedis() bool {
	return c.LockMode() == lock.ModeRedis || c.SessionRegistry == RegistryRedis
}

// LockTTL is the expiry of a Redis line lock. A lock must not expire while
// its holder is still talking to the store, so the TTL is raised to cover
// the request timeout and, for the rest backend, the select plus the
// following write.
func (c *Config) LockTTL() time.Duration {
	ttl := max(c.LineLockTTL, c.RequestTimeout)
	if c.StoreBackend == StoreREST {
		ttl = max(ttl, 2*c.RemoteStoreTimeout)
	}
	return ttl
}

// IsDevelopment reports whether the service runs in development.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	var errs []error

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP port: %d", c.HTTPPort))
	}

	switch c.StoreBackend {
	case StoreMemory:
	case StoreREST:
		if c.RemoteStoreURL == "" {
			errs = append(errs, errors.New("REMOTE_STORE_URL is required for the rest store"))
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be one of memory, rest, postgres: got %q", c.StoreBackend))
	}
	if c.RemoteStoreMaxRetries < 0 {
		errs = append(errs, errors.New("REMOTE_STORE_MAX_RETRIES must not be negative"))
	}

	if _, err := lock.ParseMode(c.LineLockMode); err != nil {
		errs = append(errs, err)
	}
	if c.SessionRegistry != RegistryMemory && c.SessionRegistry != RegistryRedis {
		errs = append(errs, fmt.Errorf("SESSION_REGISTRY must be memory or redis: got %q", c.SessionRegistry))
	}
	if c.NeedsRedis() && c.RedisURL == "" {
		errs = append(errs, errors.New("REDIS_URL is required when locks or sessions use redis"))
	}

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if c.JWTSecret == devJWTSecret && !c.IsDevelopment() {
		errs = append(errs, errors.New("JWT_SECRET must be set outside development"))
	}
	if c.JWTExpiry <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRY must be positive"))
	}
	if c.AuthRateLimit < 0 || c.AuthBurst < 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT_RPS and AUTH_RATE_LIMIT_BURST must not be negative"))
	}
	if c.NoticeDuration <= 0 {
		errs = append(errs, errors.New("NOTICE_DURATION must be positive"))
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		errs = append(errs, errors.New("OTEL_SAMPLE_RATE must be between 0.0 and 1.0"))
	}

	return errors.Join(errs...)
}
