package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/platinummonkey/userdeck/pkg/observability"
	"github.com/platinummonkey/userdeck/pkg/storage"
)

// Identity modes
const (
	IdentityFirebase = "firebase"
	IdentityHS256    = "hs256"
)

// Rate limiter backends
const (
	RateLimitMemory = "memory"
	RateLimitRedis  = "redis"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Identity verification
	Identity IdentityConfig

	// Storage configuration
	Storage storage.Config

	// Signup rate limiting
	RateLimit RateLimitConfig

	// Authorization gate
	Authz AuthzConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s health checks)
	HealthPort string

	CORSOrigins []string

	// TrustProxyHeaders keys the rate limiter on X-Forwarded-For. Enable only
	// behind a proxy that overwrites the header.
	TrustProxyHeaders bool
}

// IdentityConfig selects how bearer tokens are verified
type IdentityConfig struct {
	Mode string // "firebase" or "hs256"

	// Firebase mode
	CredentialsFile string
	ProjectID       string

	// hs256 mode, for local development
	Secret string
	Issuer string
}

// RateLimitConfig configures the signup limiter
type RateLimitConfig struct {
	Backend string // "memory" or "redis"
	Limit   int
	Window  time.Duration
	MaxKeys int
}

// AuthzConfig configures the authorization gate
type AuthzConfig struct {
	// EnforceActive treats inactive profiles as having no role
	EnforceActive bool
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// StatsSchedule is the cron expression for refreshing the profile gauges
	StatsSchedule string

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// OTel returns the OpenTelemetry settings in the form InitOTel expects
func (o ObservabilityConfig) OTel() observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:        o.OTelEnabled,
		Endpoint:       o.OTelEndpoint,
		ServiceName:    o.OTelServiceName,
		ServiceVersion: o.OTelServiceVersion,
		Insecure:       o.OTelInsecure,
	}
}

// LoadConfig loads configuration from environment variables. Values in a
// .env file in the working directory fill variables that are not already
// set; a missing file is not an error.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// LoadConfigFiles is LoadConfig with explicit .env files
func LoadConfigFiles(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}
	return FromEnv()
}

// FromEnv builds and validates the configuration from the process environment
func FromEnv() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Identity:      loadIdentityConfig(),
		Storage:       loadStorageConfig(),
		RateLimit:     loadRateLimitConfig(),
		Authz:         AuthzConfig{EnforceActive: getEnvBool("USERDECK_ENFORCE_ACTIVE", false)},
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:              getEnv("USERDECK_HOST", "0.0.0.0"),
		Port:              getEnv("PORT", "4000"),
		ReadTimeout:       getEnvDuration("USERDECK_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      getEnvDuration("USERDECK_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       getEnvDuration("USERDECK_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   getEnvDuration("USERDECK_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:        getEnv("USERDECK_HEALTH_PORT", "9090"),
		CORSOrigins:       splitList(getEnv("USERDECK_CORS_ORIGINS", "*")),
		TrustProxyHeaders: getEnvBool("USERDECK_TRUST_PROXY_HEADERS", false),
	}
}

func loadIdentityConfig() IdentityConfig {
	return IdentityConfig{
		Mode:            strings.ToLower(getEnv("USERDECK_IDENTITY_MODE", IdentityFirebase)),
		CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		Secret:          getEnv("USERDECK_IDENTITY_SECRET", ""),
		Issuer:          getEnv("USERDECK_IDENTITY_ISSUER", "userdeck-dev"),
	}
}

// loadStorageConfig loads storage configuration from environment
func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	if storeType := getEnv("USERDECK_STORE_TYPE", ""); storeType != "" {
		cfg.Type = strings.ToLower(storeType)
	}

	// PostgreSQL config
	if pgURL := getEnv("USERDECK_POSTGRES_URL", ""); pgURL != "" {
		cfg.PostgresURL = pgURL
	}
	if replicaURLs := getEnv("USERDECK_POSTGRES_REPLICA_URLS", ""); replicaURLs != "" {
		cfg.PostgresReplicaURLs = splitList(replicaURLs)
	}
	if maxConns := getEnvInt("USERDECK_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		cfg.PostgresMaxConns = maxConns
	}
	if minConns := getEnvInt("USERDECK_POSTGRES_MIN_CONNS", 0); minConns > 0 {
		cfg.PostgresMinConns = minConns
	}
	if timeout := getEnvDuration("USERDECK_POSTGRES_TIMEOUT", 0); timeout > 0 {
		cfg.PostgresTimeout = timeout
	}

	// SQLite config
	if path := getEnv("USERDECK_SQLITE_PATH", ""); path != "" {
		cfg.SQLitePath = path
	}

	// Redis config
	if redisURL := getEnv("USERDECK_REDIS_URL", ""); redisURL != "" {
		cfg.RedisURL = redisURL
	}
	if redisPassword := getEnv("USERDECK_REDIS_PASSWORD", ""); redisPassword != "" {
		cfg.RedisPassword = redisPassword
	}
	if redisDB := getEnvInt("USERDECK_REDIS_DB", -1); redisDB >= 0 {
		cfg.RedisDB = redisDB
	}
	if redisMaxRetries := getEnvInt("USERDECK_REDIS_MAX_RETRIES", 0); redisMaxRetries > 0 {
		cfg.RedisMaxRetries = redisMaxRetries
	}
	if redisPoolSize := getEnvInt("USERDECK_REDIS_POOL_SIZE", 0); redisPoolSize > 0 {
		cfg.RedisPoolSize = redisPoolSize
	}

	return cfg
}

func loadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Backend: strings.ToLower(getEnv("USERDECK_RATE_LIMIT_BACKEND", RateLimitMemory)),
		Limit:   getEnvInt("USERDECK_SIGNUP_RATE_LIMIT", 100),
		Window:  getEnvDuration("USERDECK_SIGNUP_RATE_WINDOW", 15*time.Minute),
		MaxKeys: getEnvInt("USERDECK_RATE_LIMIT_MAX_KEYS", 10000),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLogLevel(getEnv("USERDECK_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("USERDECK_METRICS_ENABLED", true),
		StatsSchedule:      getEnv("USERDECK_STATS_SCHEDULE", "@every 1m"),
		OTelEnabled:        getEnvBool("USERDECK_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("USERDECK_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("USERDECK_OTEL_SERVICE_NAME", "userdeck"),
		OTelServiceVersion: getEnv("USERDECK_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("USERDECK_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	// Validate identity config
	switch c.Identity.Mode {
	case IdentityFirebase:
		if c.Identity.CredentialsFile == "" && c.Identity.ProjectID == "" {
			return fmt.Errorf("GOOGLE_APPLICATION_CREDENTIALS or FIREBASE_PROJECT_ID is required for firebase identity")
		}
	case IdentityHS256:
		if len(c.Identity.Secret) < 16 {
			return fmt.Errorf("identity secret of at least 16 bytes is required for hs256 identity")
		}
	default:
		return fmt.Errorf("invalid identity mode: %s (must be firebase or hs256)", c.Identity.Mode)
	}

	// Validate storage config based on type
	switch c.Storage.Type {
	case storage.TypeMemory:
	case storage.TypePostgres:
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("postgres URL is required for postgres storage")
		}
		if c.Storage.PostgresMinConns > c.Storage.PostgresMaxConns {
			return fmt.Errorf("postgres min conns (%d) exceeds max conns (%d)", c.Storage.PostgresMinConns, c.Storage.PostgresMaxConns)
		}
	case storage.TypeSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required for sqlite storage")
		}
	default:
		return fmt.Errorf("invalid storage type: %s (must be memory, postgres, or sqlite)", c.Storage.Type)
	}

	// Validate rate limit config
	switch c.RateLimit.Backend {
	case RateLimitMemory:
	case RateLimitRedis:
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("redis URL is required for the redis rate limit backend")
		}
	default:
		return fmt.Errorf("invalid rate limit backend: %s (must be memory or redis)", c.RateLimit.Backend)
	}
	if c.RateLimit.Limit <= 0 {
		return fmt.Errorf("signup rate limit must be positive")
	}
	if c.RateLimit.Window < time.Second {
		return fmt.Errorf("signup rate window must be at least 1s")
	}

	if c.Observability.StatsSchedule == "" {
		return fmt.Errorf("stats schedule is required")
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// splitList splits a comma separated value, dropping empty items
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
