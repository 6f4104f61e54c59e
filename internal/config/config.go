package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAuthURL   = "https://entreprise.francetravail.fr/connexion/oauth2/access_token?realm=/partenaire"
	DefaultSearchURL = "https://api.francetravail.io/partenaire/offresdemploi/v2/offres/search"
	DefaultScope     = "api_offresdemploiv2 o2dsoffre"

	// DefaultRequestTimeoutSeconds covers the worst search path: token
	// exchange, search, refresh after a 401 and the retried search.
	DefaultRequestTimeoutSeconds = 70
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App           AppConfig
	FranceTravail FranceTravailConfig
	TokenStore    TokenStoreConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	Logger        LoggerConfig
	Search        SearchConfig
	History       HistoryConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// FranceTravailConfig holds the upstream API credentials and endpoints.
type FranceTravailConfig struct {
	ClientID             string
	ClientSecret         string
	AuthURL              string
	SearchURL            string
	Scope                string
	AuthTimeoutSeconds   int
	SearchTimeoutSeconds int
}

// TokenStoreConfig selects where the current access token lives.
type TokenStoreConfig struct {
	Driver   string
	RedisKey string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// SearchConfig tunes the search executor.
type SearchConfig struct {
	CacheTTLSeconds int
}

// HistoryConfig controls retention of recorded searches.
type HistoryConfig struct {
	RetentionDays int
	PruneSchedule string
}

// Load reads configuration from environment variables, applying defaults where possible.
// Missing France Travail credentials are not an error here: the process starts and
// authentication attempts report them.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	port := getEnv("PORT", getEnv("APP_PORT", "8080"))
	if _, err := strconv.Atoi(port); err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", port, err)
	}

	driver := strings.ToLower(getEnv("TOKEN_STORE", TokenStoreMemory))
	if driver != TokenStoreMemory && driver != TokenStoreRedis {
		return nil, fmt.Errorf("invalid TOKEN_STORE %q: expected %q or %q", driver, TokenStoreMemory, TokenStoreRedis)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "data-collector"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  port,
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", DefaultRequestTimeoutSeconds),
		},
		FranceTravail: FranceTravailConfig{
			ClientID:             os.Getenv("FT_CLIENT_ID"),
			ClientSecret:         os.Getenv("FT_CLIENT_SECRET"),
			AuthURL:              getEnv("FT_AUTH_URL", DefaultAuthURL),
			SearchURL:            getEnv("FT_SEARCH_URL", DefaultSearchURL),
			Scope:                getEnv("FT_SCOPE", DefaultScope),
			AuthTimeoutSeconds:   getEnvAsInt("FT_AUTH_TIMEOUT_SECONDS", 10),
			SearchTimeoutSeconds: getEnvAsInt("FT_SEARCH_TIMEOUT_SECONDS", 20),
		},
		TokenStore: TokenStoreConfig{
			Driver:   driver,
			RedisKey: getEnv("TOKEN_REDIS_KEY", "data-collector:access-token"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Search: SearchConfig{
			CacheTTLSeconds: getEnvAsNonNegativeInt("SEARCH_CACHE_TTL_SECONDS", 0),
		},
		History: HistoryConfig{
			RetentionDays: getEnvAsInt("HISTORY_RETENTION_DAYS", 30),
			PruneSchedule: getEnv("HISTORY_PRUNE_SCHEDULE", "@daily"),
		},
	}

	return cfg, nil
}

// Token store drivers.
const (
	TokenStoreMemory = "memory"
	TokenStoreRedis  = "redis"
)

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// HasCredentials reports whether both client id and secret are set.
func (f FranceTravailConfig) HasCredentials() bool {
	return f.ClientID != "" && f.ClientSecret != ""
}

// AuthTimeout bounds the token exchange.
func (f FranceTravailConfig) AuthTimeout() time.Duration {
	return secondsOr(f.AuthTimeoutSeconds, 10)
}

// SearchTimeout bounds each search request.
func (f FranceTravailConfig) SearchTimeout() time.Duration {
	return secondsOr(f.SearchTimeoutSeconds, 20)
}

// CacheTTL returns zero when the result cache is disabled.
func (s SearchConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

// Retention returns how long history rows are kept; zero disables pruning.
func (h HistoryConfig) Retention() time.Duration {
	if h.RetentionDays <= 0 {
		return 0
	}
	return time.Duration(h.RetentionDays) * 24 * time.Hour
}

func secondsOr(val, fallback int) time.Duration {
	if val <= 0 {
		val = fallback
	}
	return time.Duration(val) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsNonNegativeInt(key string, fallback int) int {
	parsed := getEnvAsInt(key, fallback)
	if parsed < 0 {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
