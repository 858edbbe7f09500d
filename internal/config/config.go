// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// the HTTP server, model providers, retrieval, and session handling.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// LLM Configuration
	GeminiAPIKey string // Gemini API key for planning and embeddings
	GroqAPIKey   string // Groq API key (OpenAI-compatible alternative provider)

	// LLM Model Configuration (optional, defaults apply if empty)
	GeminiPlannerModel         string // Primary Gemini model for agent planning
	GeminiPlannerFallbackModel string // Fallback Gemini model for agent planning
	GroqPlannerModel           string // Primary Groq model for agent planning
	GroqPlannerFallbackModel   string // Fallback Groq model for agent planning
	EmbeddingModel             string // Gemini embedding model

	// LLM Provider Configuration
	LLMPrimaryProvider  string // Primary LLM provider: "gemini" or "groq" (default: "gemini")
	LLMFallbackProvider string // Fallback LLM provider: "gemini" or "groq" (default: "groq")

	// Metrics Authentication
	MetricsUsername string // Username for /metrics endpoint Basic Auth (default: "prometheus")
	MetricsPassword string // Password for /metrics endpoint Basic Auth (empty = no auth)

	// Observability
	BetterstackToken    string // Better Stack log ingest token (empty = stdout only)
	BetterstackEndpoint string // Better Stack ingest endpoint override
	SentryToken         string // Better Stack Errors token (empty = disabled)
	SentryHost          string // Better Stack Errors ingest host
	Environment         string // Deployment environment ("production", "staging", ...)

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir    string // Data directory for SQLite catalog and vector store
	CorpusPath string // Path to the corpus JSON consumed by the ingest command

	// Session Configuration
	SessionIdleTTL    time.Duration // Idle timeout before a session is collected
	SessionMaxHistory int           // Turns retained per session for prompt context

	// Snapshot Configuration (S3-compatible catalog sync, optional)
	SnapshotBucket    string // Bucket holding catalog snapshots (empty = disabled)
	SnapshotKey       string // Object key of the snapshot archive
	SnapshotEndpoint  string // S3-compatible endpoint URL
	SnapshotAccessKey string
	SnapshotSecretKey string
	SnapshotInterval  time.Duration // Poll interval for new snapshots

	// Rate Limits
	SessionRateLimitBurst     float64 // Maximum burst tokens per session
	SessionRateLimitRefillSec float64 // Tokens refilled per second per session
	GlobalRateLimitRPS        float64 // Global rate limit in requests per second
	EmbeddingRequestsPerMin   int     // Embedding API requests per minute
}

// Mode selects which subset of configuration a command requires.
type Mode int

const (
	// ServerMode requires the full stack: LLM providers, embeddings, sessions.
	ServerMode Mode = iota
	// IngestMode builds the catalog offline and needs no model access.
	IngestMode
)

// Load reads server configuration from environment variables.
// It attempts to load .env file first, then reads from env vars.
func Load() (*Config, error) {
	return LoadForMode(ServerMode)
}

// LoadForMode reads configuration validated for the given command mode.
func LoadForMode(mode Mode) (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		// LLM Configuration
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GroqAPIKey:   getEnv("GROQ_API_KEY", ""),

		// LLM Model Configuration (empty = use defaults from genai package)
		GeminiPlannerModel:         getEnv("GEMINI_PLANNER_MODEL", ""),
		GeminiPlannerFallbackModel: getEnv("GEMINI_PLANNER_FALLBACK_MODEL", ""),
		GroqPlannerModel:           getEnv("GROQ_PLANNER_MODEL", ""),
		GroqPlannerFallbackModel:   getEnv("GROQ_PLANNER_FALLBACK_MODEL", ""),
		EmbeddingModel:             getEnv("EMBEDDING_MODEL", ""),

		// LLM Provider Configuration
		LLMPrimaryProvider:  getEnv("LLM_PRIMARY_PROVIDER", "gemini"),
		LLMFallbackProvider: getEnv("LLM_FALLBACK_PROVIDER", "groq"),

		// Metrics Authentication
		MetricsUsername: getEnv("METRICS_USERNAME", "prometheus"),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),

		// Observability
		BetterstackToken:    getEnv("BETTERSTACK_TOKEN", ""),
		BetterstackEndpoint: getEnv("BETTERSTACK_ENDPOINT", ""),
		SentryToken:         getEnv("SENTRY_TOKEN", ""),
		SentryHost:          getEnv("SENTRY_HOST", "errors.betterstack.com"),
		Environment:         getEnv("ENVIRONMENT", "production"),

		// Server Configuration
		Port:            getEnv("PORT", "10000"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),

		// Data Configuration
		DataDir:    getEnv("DATA_DIR", getDefaultDataDir()),
		CorpusPath: getEnv("CORPUS_PATH", ""),

		// Session Configuration
		SessionIdleTTL:    getDurationEnv("SESSION_IDLE_TTL", 30*time.Minute),
		SessionMaxHistory: getIntEnv("SESSION_MAX_HISTORY", 12),

		// Snapshot Configuration
		SnapshotBucket:    getEnv("SNAPSHOT_BUCKET", ""),
		SnapshotKey:       getEnv("SNAPSHOT_KEY", "corpus/latest.json.zst"),
		SnapshotEndpoint:  getEnv("SNAPSHOT_ENDPOINT", ""),
		SnapshotAccessKey: getEnv("SNAPSHOT_ACCESS_KEY_ID", ""),
		SnapshotSecretKey: getEnv("SNAPSHOT_SECRET_ACCESS_KEY", ""),
		SnapshotInterval:  getDurationEnv("SNAPSHOT_INTERVAL", 15*time.Minute),

		// Rate Limits
		SessionRateLimitBurst:     getFloatEnv("SESSION_RATE_LIMIT_BURST", 10.0),
		SessionRateLimitRefillSec: getFloatEnv("SESSION_RATE_LIMIT_REFILL_PER_SEC", 0.2), // 1 per 5s
		GlobalRateLimitRPS:        getFloatEnv("GLOBAL_RATE_LIMIT_RPS", 100.0),
		EmbeddingRequestsPerMin:   getIntEnv("EMBEDDING_REQUESTS_PER_MIN", 140),
	}

	// Validate configuration
	if err := cfg.ValidateFor(mode); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required server configuration values are set.
func (c *Config) Validate() error {
	return c.ValidateFor(ServerMode)
}

// ValidateFor checks the configuration against the given command mode.
func (c *Config) ValidateFor(mode Mode) error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, errors.New("DATA_DIR is required"))
	}

	if mode == ServerMode {
		if c.Port == "" {
			errs = append(errs, errors.New("PORT is required"))
		}
		if !c.HasLLMProvider() {
			errs = append(errs, errors.New("GEMINI_API_KEY or GROQ_API_KEY is required"))
		}
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for embeddings"))
		}
		switch c.LLMPrimaryProvider {
		case "gemini", "groq":
		default:
			errs = append(errs, fmt.Errorf("LLM_PRIMARY_PROVIDER must be gemini or groq, got %q", c.LLMPrimaryProvider))
		}
		if c.SessionIdleTTL <= 0 {
			errs = append(errs, fmt.Errorf("SESSION_IDLE_TTL must be positive, got %v", c.SessionIdleTTL))
		}
		if c.SessionMaxHistory <= 0 {
			errs = append(errs, fmt.Errorf("SESSION_MAX_HISTORY must be positive, got %d", c.SessionMaxHistory))
		}
		if c.EmbeddingRequestsPerMin <= 0 {
			errs = append(errs, fmt.Errorf("EMBEDDING_REQUESTS_PER_MIN must be positive, got %d", c.EmbeddingRequestsPerMin))
		}
	}
	if c.SnapshotBucket != "" {
		if c.SnapshotEndpoint == "" {
			errs = append(errs, errors.New("SNAPSHOT_ENDPOINT is required when SNAPSHOT_BUCKET is set"))
		}
		if c.SnapshotAccessKey == "" || c.SnapshotSecretKey == "" {
			errs = append(errs, errors.New("snapshot credentials are required when SNAPSHOT_BUCKET is set"))
		}
		if c.SnapshotInterval <= 0 {
			errs = append(errs, fmt.Errorf("SNAPSHOT_INTERVAL must be positive, got %v", c.SnapshotInterval))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}

// SQLitePath returns the full path to the SQLite catalog database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "catalog.db")
}

// VectorStorePath returns the directory holding the persistent vector store
func (c *Config) VectorStorePath() string {
	return filepath.Join(c.DataDir, "vectors")
}

// HasLLMProvider returns true if at least one LLM provider is configured.
func (c *Config) HasLLMProvider() bool {
	return c.GeminiAPIKey != "" || c.GroqAPIKey != ""
}

// SnapshotEnabled returns true if S3 snapshot sync is configured.
func (c *Config) SnapshotEnabled() bool {
	return c.SnapshotBucket != ""
}
