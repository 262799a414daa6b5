package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Database
	DatabasePath string

	// VecLite
	VecLitePath   string // Path to VecLite index (default: data/quotes.veclite)
	EmbedProvider string // Embedding provider: "ollama" or "openai" (default: ollama)
	EmbedDim      int    // Embedding dimension (default: 768 for nomic-embed-text)

	// OpenAI API (for embeddings)
	OpenAIAPIKey string

	// Gemini API (for recommendation reasons)
	GeminiAPIKey string
	GeminiModel  string

	// Ollama
	OllamaHost  string
	OllamaModel string // Ollama model for embeddings (default: nomic-embed-text)

	// HTTP server
	ServerAddr string

	// Logging
	LogLevel string

	// Recommendation cache
	CacheEnabled bool
	CacheTTL     time.Duration

	// Reason generation
	ReasonEnabled bool
	ReasonTimeout time.Duration

	// Similarity search tuning
	MatchThreshold   float64 // harsh/comfort similarity floor
	MatchTopK        int     // harsh/comfort candidate count
	MatchTemperature float64 // harsh/comfort sampling temperature

	RandomThreshold   float64 // random-with-text similarity floor
	RandomTopK        int     // random-with-text candidate count
	RandomTemperature float64 // random-with-text sampling temperature
}

// Load reads configuration from environment variables.
// It automatically loads .env file if present.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DatabasePath:  getEnv("DATABASE_PATH", "data/moodquote.db"),
		VecLitePath:   getEnv("VECLITE_PATH", "data/quotes.veclite"),
		EmbedProvider: getEnv("EMBED_PROVIDER", "ollama"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		OllamaHost:    normalizeOllamaHost(getEnv("OLLAMA_HOST", "http://localhost:11434")),
		OllamaModel:   getEnv("OLLAMA_MODEL", "nomic-embed-text"),
		ServerAddr:    getEnv("SERVER_ADDR", ":8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	var err error
	cfg.EmbedDim, err = getEnvInt("EMBED_DIM", defaultEmbedDim(cfg.EmbedProvider))
	if err != nil {
		return nil, err
	}

	cfg.CacheEnabled, err = getEnvBool("CACHE_ENABLED", true)
	if err != nil {
		return nil, err
	}
	cfg.CacheTTL, err = getEnvDuration("CACHE_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}

	cfg.ReasonEnabled, err = getEnvBool("REASON_ENABLED", true)
	if err != nil {
		return nil, err
	}
	cfg.ReasonTimeout, err = getEnvDuration("REASON_TIMEOUT", 4*time.Second)
	if err != nil {
		return nil, err
	}

	cfg.MatchThreshold, err = getEnvFloat("MATCH_THRESHOLD", 0.6)
	if err != nil {
		return nil, err
	}
	cfg.MatchTopK, err = getEnvInt("MATCH_TOP_K", 4)
	if err != nil {
		return nil, err
	}
	cfg.MatchTemperature, err = getEnvFloat("MATCH_TEMPERATURE", 0.35)
	if err != nil {
		return nil, err
	}

	cfg.RandomThreshold, err = getEnvFloat("RANDOM_THRESHOLD", 0.5)
	if err != nil {
		return nil, err
	}
	cfg.RandomTopK, err = getEnvInt("RANDOM_TOP_K", 5)
	if err != nil {
		return nil, err
	}
	cfg.RandomTemperature, err = getEnvFloat("RANDOM_TEMPERATURE", 0.7)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	return nil
}

// ValidateForEmbedding checks configuration needed for embedding generation.
func (c *Config) ValidateForEmbedding() error {
	if err := c.Validate(); err != nil {
		return err
	}
	switch c.EmbedProvider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when EMBED_PROVIDER is openai")
		}
	case "ollama", "":
		if c.OllamaHost == "" {
			return fmt.Errorf("OLLAMA_HOST is required for embedding")
		}
	default:
		return fmt.Errorf("invalid EMBED_PROVIDER: %s (must be 'ollama' or 'openai')", c.EmbedProvider)
	}
	if c.EmbedDim <= 0 {
		return fmt.Errorf("EMBED_DIM must be positive")
	}
	return nil
}

// ValidateForImport checks configuration needed to import and index quotes.
func (c *Config) ValidateForImport() error {
	if err := c.ValidateForEmbedding(); err != nil {
		return err
	}
	if c.VecLitePath == "" {
		return fmt.Errorf("VECLITE_PATH is required")
	}
	return nil
}

// ValidateForServe checks all configuration needed for serve mode.
// GEMINI_API_KEY is not required: reason generation is best-effort and
// simply stays disabled without it.
func (c *Config) ValidateForServe() error {
	if err := c.ValidateForImport(); err != nil {
		return err
	}
	if c.ServerAddr == "" {
		return fmt.Errorf("SERVER_ADDR is required")
	}
	return nil
}

func defaultEmbedDim(provider string) int {
	if provider == "openai" {
		return 1536 // text-embedding-3-small
	}
	return 768 // nomic-embed-text
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// normalizeOllamaHost ensures the Ollama host has a proper URL scheme.
// This handles cases where OLLAMA_HOST is set to a bind address like "0.0.0.0"
// (used by Ollama server) instead of a client URL like "http://localhost:11434".
func normalizeOllamaHost(host string) string {
	if host == "" {
		return "http://localhost:11434"
	}

	if host == "0.0.0.0" || host == "0.0.0.0:11434" {
		return "http://localhost:11434"
	}

	if len(host) < 4 || host[:4] != "http" {
		return "http://" + host
	}

	return host
}
