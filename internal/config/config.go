package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/pendergraft/launchcache/internal/validation"
)

// DefaultPinnedCertificateHash is the SHA-256 of the api.spacexdata.com certificate
const DefaultPinnedCertificateHash = "8ebfd584b67f63646f874ab3021ae954ffc1d6fd4fbac45ca8ed783994abac06"

// Config holds all configuration for the server
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	KV        KVConfig
	Remote    RemoteConfig
	Cache     CacheConfig
	Logging   LoggingConfig
	Metrics   MetricsConfig
	RateLimit RateLimitConfig
	Security  SecurityConfig
	Proxy     ProxyConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int
	Host         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type     string // "sqlite" or "postgres"
	Postgres PostgresConfig
	SQLite   SQLiteConfig
}

// PostgresConfig holds Postgres connection settings
type PostgresConfig struct {
	URL string
}

// SQLiteConfig holds SQLite settings
type SQLiteConfig struct {
	Path string
}

// KVConfig selects where cache timestamps and preferences live
type KVConfig struct {
	Type  string // "store" or "redis"
	Redis RedisConfig
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RemoteConfig holds settings for the SpaceX API client
type RemoteConfig struct {
	BaseURL         string
	LaunchesVersion string
	RocketsVersion  string
	CompanyVersion  string
	TimeoutSeconds  int
	RetryAttempts   int
	RequestsPerSec  int
	Burst           int

	PinningEnabled bool
	PinnedHashes   []string
	ValidateChain  bool

	ReachabilityEnabled  bool
	ReachabilityAddr     string
	ReachabilityInterval time.Duration
}

// CacheConfig holds the per-domain cache TTLs
type CacheConfig struct {
	LaunchTTL  time.Duration
	YearsTTL   time.Duration
	RocketTTL  time.Duration
	CompanyTTL time.Duration
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string
	Format string // "text" or "json"
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Enabled     bool
	ServiceName string
}

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	Enabled        bool
	RequestsPerMin int
	BurstSize      int
	CleanupMinutes int
}

// SecurityConfig holds request limits
type SecurityConfig struct {
	MaxBodySizeKB int
}

// ProxyConfig holds trusted proxy settings for X-Forwarded-For handling
type ProxyConfig struct {
	TrustProxy     bool
	TrustedProxies []string // CIDRs or bare addresses
}

// CORSConfig holds the allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment variables win
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnvInt("PORT", 8080),
			Host:         getEnv("HOST", "0.0.0.0"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 30),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 60),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 120),
		},
		Storage: StorageConfig{
			Type: getEnv("STORAGE_TYPE", "sqlite"),
			Postgres: PostgresConfig{
				URL: getEnv("DATABASE_URL", ""),
			},
			SQLite: SQLiteConfig{
				Path: getEnv("SQLITE_PATH", "./data/launchcache.db"),
			},
		},
		KV: KVConfig{
			Type: getEnv("KV_BACKEND", "store"),
			Redis: RedisConfig{
				Addr:     getEnv("REDIS_ADDR", ""),
				Password: getEnv("REDIS_PASSWORD", ""),
				DB:       getEnvInt("REDIS_DB", 0),
				Prefix:   getEnv("REDIS_PREFIX", "launchcache"),
			},
		},
		Remote: RemoteConfig{
			BaseURL:         strings.TrimRight(getEnv("SPACEX_API_URL", "https://api.spacexdata.com"), "/"),
			LaunchesVersion: getEnv("SPACEX_LAUNCHES_API_VERSION", "v5"),
			RocketsVersion:  getEnv("SPACEX_ROCKETS_API_VERSION", "v4"),
			CompanyVersion:  getEnv("SPACEX_COMPANY_API_VERSION", "v4"),
			TimeoutSeconds:  getEnvInt("SPACEX_TIMEOUT_SECONDS", 30),
			RetryAttempts:   getEnvInt("SPACEX_RETRY_ATTEMPTS", 2),
			RequestsPerSec:  getEnvInt("SPACEX_REQUESTS_PER_SEC", 10),
			Burst:           getEnvInt("SPACEX_BURST", 10),

			PinningEnabled: getEnvBool("SPACEX_PINNING_ENABLED", true),
			PinnedHashes:   getEnvStringSlice("SPACEX_PINNED_HASHES", []string{DefaultPinnedCertificateHash}),
			ValidateChain:  getEnvBool("SPACEX_PIN_VALIDATE_CHAIN", true),

			ReachabilityEnabled:  getEnvBool("REACHABILITY_ENABLED", true),
			ReachabilityAddr:     getEnv("REACHABILITY_ADDR", "api.spacexdata.com:443"),
			ReachabilityInterval: getEnvDuration("REACHABILITY_INTERVAL", 30*time.Second),
		},
		Cache: CacheConfig{
			LaunchTTL:  getEnvDuration("CACHE_LAUNCH_TTL", 5*time.Minute),
			YearsTTL:   getEnvDuration("CACHE_YEARS_TTL", 24*time.Hour),
			RocketTTL:  getEnvDuration("CACHE_ROCKET_TTL", 24*time.Hour),
			CompanyTTL: getEnvDuration("CACHE_COMPANY_TTL", 15*time.Minute),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled:     getEnvBool("METRICS_ENABLED", true),
			ServiceName: getEnv("METRICS_SERVICE_NAME", "launchcache"),
		},
		RateLimit: RateLimitConfig{
			Enabled:        getEnvBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMin: getEnvInt("RATE_LIMIT_RPM", 300),
			BurstSize:      getEnvInt("RATE_LIMIT_BURST", 50),
			CleanupMinutes: getEnvInt("RATE_LIMIT_CLEANUP_MINUTES", 10),
		},
		Security: SecurityConfig{
			MaxBodySizeKB: getEnvInt("MAX_BODY_SIZE_KB", 64),
		},
		Proxy: ProxyConfig{
			TrustProxy:     getEnvBool("TRUST_PROXY", false),
			TrustedProxies: getEnvList("TRUSTED_PROXIES", []string{"127.0.0.1/32", "::1/128"}),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
	}

	// If DATABASE_URL is set, default to postgres
	if cfg.Storage.Postgres.URL != "" && cfg.Storage.Type == "sqlite" {
		cfg.Storage.Type = "postgres"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the values Load cannot sanitize with defaults
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "sqlite":
	case "postgres":
		if c.Storage.Postgres.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres storage")
		}
	default:
		return fmt.Errorf("unknown storage type: %s", c.Storage.Type)
	}

	switch c.KV.Type {
	case "store":
	case "redis":
		if c.KV.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis kv backend")
		}
	default:
		return fmt.Errorf("unknown kv backend: %s", c.KV.Type)
	}

	for name, v := range map[string]string{
		"launches": c.Remote.LaunchesVersion,
		"rockets":  c.Remote.RocketsVersion,
		"company":  c.Remote.CompanyVersion,
	} {
		if err := validation.ValidateAPIVersion(v); err != nil {
			return fmt.Errorf("invalid %s API version: %w", name, err)
		}
	}

	for name, ttl := range map[string]time.Duration{
		"launch":  c.Cache.LaunchTTL,
		"years":   c.Cache.YearsTTL,
		"rocket":  c.Cache.RocketTTL,
		"company": c.Cache.CompanyTTL,
	} {
		if ttl <= 0 {
			return fmt.Errorf("%s cache TTL must be positive, got %s", name, ttl)
		}
	}

	if c.Security.MaxBodySizeKB <= 0 {
		return fmt.Errorf("MAX_BODY_SIZE_KB must be positive, got %d", c.Security.MaxBodySizeKB)
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMin < 0 {
		return fmt.Errorf("RATE_LIMIT_RPM must not be negative, got %d", c.RateLimit.RequestsPerMin)
	}

	if c.Remote.PinningEnabled {
		if len(c.Remote.PinnedHashes) == 0 {
			return fmt.Errorf("certificate pinning is enabled but no hashes are configured")
		}
		for _, h := range c.Remote.PinnedHashes {
			if b, err := hex.DecodeString(h); err != nil || len(b) != 32 {
				return fmt.Errorf("invalid pinned certificate hash %q: want 64 hex characters", h)
			}
		}
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, strings.ToLower(trimmed))
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, keeping case
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var result []string
	for _, p := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
