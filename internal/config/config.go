package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config represents runtime configuration derived from environment variables.
type Config struct {
	Server    ServerConfig
	Logging   LoggingConfig
	Database  DatabaseConfig
	Ingest    IngestConfig
	Translate TranslateConfig
	Auth      AuthConfig
}

// ServerConfig holds HTTP server runtime parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	URL           string
	MigrationsDir string
}

// IngestConfig tunes the polling engine.
type IngestConfig struct {
	PollInterval         time.Duration
	RequestTimeout       time.Duration
	MaxArticlesPerSource int
	FeedMaxAttempts      int
	FeedBackoff          time.Duration
	RetryBatchSize       int
	RetryMaxAttempts     int
	RetryInitialDelay    time.Duration
	ExtractWorkers       int
	UserAgent            string
	SourcesFile          string
}

// TranslateConfig configures the optional Chinese translation step.
type TranslateConfig struct {
	APIKey  string
	Model   string
	Enabled bool
}

// AuthConfig holds admin authentication settings.
type AuthConfig struct {
	JWTSecret         string
	AdminPasswordHash string
	TokenTTL          time.Duration
}

const (
	defaultPort            = "8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second

	defaultLogFormat = "json"

	defaultMigrationsDir = "migrations"

	defaultPollInterval      = 60 * time.Second
	defaultRequestTimeout    = 20 * time.Second
	defaultMaxArticles       = 30
	defaultFeedMaxAttempts   = 2
	defaultFeedBackoff       = 1500 * time.Millisecond
	defaultRetryBatchSize    = 20
	defaultRetryMaxAttempts  = 5
	defaultRetryInitialDelay = 2 * time.Minute
	defaultExtractWorkers    = 8

	defaultUserAgent = "Mozilla/5.0 (compatible; sinowatch/1.0; +https://github.com/sinowatch/sinowatch)"

	defaultTranslateModel = "gpt-4o-mini"

	defaultTokenTTL = 12 * time.Hour
)

// Load reads configuration from environment variables, applying defaults
// when values are not provided.
func Load() (Config, error) {
	// Cloud Run sets PORT, but allow SERVER_PORT override for local dev
	port := getEnv("PORT", "")
	if port == "" {
		port = getEnv("SERVER_PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: defaultLogFormat,
		},
		Database: DatabaseConfig{
			URL:           os.Getenv("DATABASE_URL"),
			MigrationsDir: getEnv("MIGRATIONS_DIR", defaultMigrationsDir),
		},
		Ingest: IngestConfig{
			PollInterval:         defaultPollInterval,
			RequestTimeout:       defaultRequestTimeout,
			MaxArticlesPerSource: defaultMaxArticles,
			FeedMaxAttempts:      defaultFeedMaxAttempts,
			FeedBackoff:          defaultFeedBackoff,
			RetryBatchSize:       defaultRetryBatchSize,
			RetryMaxAttempts:     defaultRetryMaxAttempts,
			RetryInitialDelay:    defaultRetryInitialDelay,
			ExtractWorkers:       defaultExtractWorkers,
			UserAgent:            getEnv("INGEST_USER_AGENT", defaultUserAgent),
			SourcesFile:          os.Getenv("SOURCES_FILE"),
		},
		Translate: TranslateConfig{
			APIKey: os.Getenv("OPENAI_API_KEY"),
			Model:  getEnv("TRANSLATE_MODEL", defaultTranslateModel),
		},
		Auth: AuthConfig{
			JWTSecret:         os.Getenv("JWT_SECRET"),
			AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
			TokenTTL:          defaultTokenTTL,
		},
	}
	cfg.Translate.Enabled = cfg.Translate.APIKey != "" && getEnv("TRANSLATE_ENABLED", "true") == "true"

	if v := os.Getenv("SERVER_READ_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_READ_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ReadTimeout = d
	}

	if v := os.Getenv("SERVER_WRITE_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.WriteTimeout = d
	}

	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ShutdownTimeout = d
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch v {
		case "json", "text":
			cfg.Logging.Format = v
		default:
			return Config{}, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
		}
	}

	if v := os.Getenv("POLL_INTERVAL_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid POLL_INTERVAL_SECONDS: %w", err)
		}
		cfg.Ingest.PollInterval = d
	}

	if v := os.Getenv("INGEST_REQUEST_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid INGEST_REQUEST_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Ingest.RequestTimeout = d
	}

	if v := os.Getenv("MAX_ARTICLES_PER_SOURCE"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MAX_ARTICLES_PER_SOURCE: %w", err)
		}
		cfg.Ingest.MaxArticlesPerSource = n
	}

	if v := os.Getenv("FEED_MAX_ATTEMPTS"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid FEED_MAX_ATTEMPTS: %w", err)
		}
		cfg.Ingest.FeedMaxAttempts = n
	}

	if v := os.Getenv("RETRY_BATCH_SIZE"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BATCH_SIZE: %w", err)
		}
		cfg.Ingest.RetryBatchSize = n
	}

	if v := os.Getenv("RETRY_MAX_ATTEMPTS"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_MAX_ATTEMPTS: %w", err)
		}
		cfg.Ingest.RetryMaxAttempts = n
	}

	if v := os.Getenv("RETRY_INITIAL_DELAY_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_INITIAL_DELAY_SECONDS: %w", err)
		}
		cfg.Ingest.RetryInitialDelay = d
	}

	if v := os.Getenv("EXTRACT_WORKERS"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid EXTRACT_WORKERS: %w", err)
		}
		cfg.Ingest.ExtractWorkers = n
	}

	return cfg, nil
}

func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return time.Duration(seconds) * time.Second, nil
}

func parsePositiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("must be a positive integer")
	}
	return n, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}
