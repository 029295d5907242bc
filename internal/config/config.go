// Package config loads service configuration from the environment and
// sets up logging.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// LLM provider identifiers.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Memory backend identifiers.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// groqBaseURL is the default OpenAI-compatible endpoint. Any compatible
// base URL works; model ids stay opaque configuration strings.
const groqBaseURL = "https://api.groq.com/openai/v1"

// Config holds all configuration values.
type Config struct {
	// HTTP
	Addr        string
	CORSOrigins []string

	// LLM
	LLMProvider   string
	APIKey        string
	BaseURL       string
	OllamaHost    string
	PrimaryModel  string
	FallbackModel string

	PrimaryTemperature  float64
	FallbackTemperature float64
	PrimaryMaxTokens    int
	FallbackMaxTokens   int
	CompletionTimeout   time.Duration

	// Memory
	MemoryBackend string
	MemoryDir     string
	RedisAddr     string
	HistoryLimit  int
	ContextWindow int
	TurnRunes     int

	// Replies
	ReplyMaxRunes int

	// Uploads
	UploadDir      string
	UploadMaxBytes int64
	UploadTTL      time.Duration
	SweepInterval  time.Duration

	// Persona registry
	PersonaFile string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables. Every tunable
// the pipeline uses lives here; nothing downstream hard-codes a limit.
func Load() Config {
	return Config{
		Addr:        getEnv("AISHA_ADDR", ":8087"),
		CORSOrigins: splitList(getEnv("AISHA_CORS_ORIGINS", "http://localhost:5500,http://localhost:8000,http://127.0.0.1:5500,http://127.0.0.1:8000")),

		LLMProvider:   getEnv("AISHA_LLM_PROVIDER", ProviderOpenAI),
		APIKey:        getEnv("AISHA_API_KEY", os.Getenv("GROQ_API_KEY")),
		BaseURL:       getEnv("AISHA_BASE_URL", groqBaseURL),
		OllamaHost:    getEnv("OLLAMA_HOST", "http://localhost:11434"),
		PrimaryModel:  getEnv("AISHA_PRIMARY_MODEL", "llama-3.1-8b-instant"),
		FallbackModel: getEnv("AISHA_FALLBACK_MODEL", "llama-3.1-70b-versatile"),

		PrimaryTemperature:  getEnvFloat("AISHA_PRIMARY_TEMPERATURE", 0.8),
		FallbackTemperature: getEnvFloat("AISHA_FALLBACK_TEMPERATURE", 0.6),
		PrimaryMaxTokens:    getEnvInt("AISHA_PRIMARY_MAX_TOKENS", 500),
		FallbackMaxTokens:   getEnvInt("AISHA_FALLBACK_MAX_TOKENS", 400),
		CompletionTimeout:   getEnvDuration("AISHA_COMPLETION_TIMEOUT", 30*time.Second),

		MemoryBackend: getEnv("AISHA_MEMORY_BACKEND", BackendFile),
		MemoryDir:     getEnv("AISHA_MEMORY_DIR", "data/memory"),
		RedisAddr:     getEnv("AISHA_REDIS_ADDR", "localhost:6379"),
		HistoryLimit:  getEnvInt("AISHA_HISTORY_LIMIT", 60),
		ContextWindow: getEnvInt("AISHA_CONTEXT_WINDOW", 6),
		TurnRunes:     getEnvInt("AISHA_TURN_RUNES", 200),

		ReplyMaxRunes: getEnvInt("AISHA_REPLY_MAX_RUNES", 1200),

		UploadDir:      getEnv("AISHA_UPLOAD_DIR", "data/uploads"),
		UploadMaxBytes: int64(getEnvInt("AISHA_UPLOAD_MAX_BYTES", 5*1024*1024)),
		UploadTTL:      getEnvDuration("AISHA_UPLOAD_TTL", 24*time.Hour),
		SweepInterval:  getEnvDuration("AISHA_SWEEP_INTERVAL", time.Hour),

		PersonaFile: getEnv("AISHA_PERSONA_FILE", ""),

		LogFile:  getEnv("AISHA_LOG_FILE", ""),
		LogLevel: parseLogLevel(getEnv("AISHA_LOG_LEVEL", "INFO")),
	}
}

// Validate catches misconfiguration before the server starts serving.
func (c Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.APIKey == "" {
			return fmt.Errorf("AISHA_API_KEY (or GROQ_API_KEY) is required for the %s provider", ProviderOpenAI)
		}
	case ProviderOllama:
		// No key needed.
	default:
		return fmt.Errorf("unsupported LLM provider: %s", c.LLMProvider)
	}

	switch c.MemoryBackend {
	case BackendFile, BackendRedis:
	default:
		return fmt.Errorf("unsupported memory backend: %s", c.MemoryBackend)
	}

	if c.PrimaryModel == "" || c.FallbackModel == "" {
		return fmt.Errorf("primary and fallback model ids must both be set")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
