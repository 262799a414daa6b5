package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env and restore after test
	origEnv := os.Environ()
	t.Cleanup(func() {
		os.Clearenv()
		for _, e := range origEnv {
			for i := 0; i < len(e); i++ {
				if e[i] == '=' {
					os.Setenv(e[:i], e[i+1:])
					break
				}
			}
		}
	})

	t.Run("defaults", func(t *testing.T) {
		os.Clearenv()
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "data/moodquote.db", cfg.DatabasePath)
		assert.Equal(t, "data/quotes.veclite", cfg.VecLitePath)
		assert.Equal(t, "ollama", cfg.EmbedProvider)
		assert.Equal(t, 768, cfg.EmbedDim)
		assert.Equal(t, "http://localhost:11434", cfg.OllamaHost)
		assert.Equal(t, ":8080", cfg.ServerAddr)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.True(t, cfg.CacheEnabled)
		assert.Equal(t, 7*24*time.Hour, cfg.CacheTTL)
		assert.True(t, cfg.ReasonEnabled)
		assert.Equal(t, 4*time.Second, cfg.ReasonTimeout)
		assert.Equal(t, 0.6, cfg.MatchThreshold)
		assert.Equal(t, 4, cfg.MatchTopK)
		assert.Equal(t, 0.35, cfg.MatchTemperature)
		assert.Equal(t, 0.5, cfg.RandomThreshold)
		assert.Equal(t, 5, cfg.RandomTopK)
		assert.Equal(t, 0.7, cfg.RandomTemperature)
	})

	t.Run("openai provider defaults to 1536 dimensions", func(t *testing.T) {
		os.Clearenv()
		os.Setenv("EMBED_PROVIDER", "openai")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 1536, cfg.EmbedDim)
	})

	t.Run("custom values", func(t *testing.T) {
		os.Clearenv()
		os.Setenv("DATABASE_PATH", "/custom/path.db")
		os.Setenv("GEMINI_API_KEY", "gm-test")
		os.Setenv("CACHE_TTL", "24h")
		os.Setenv("MATCH_TOP_K", "8")
		os.Setenv("CACHE_ENABLED", "false")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "/custom/path.db", cfg.DatabasePath)
		assert.Equal(t, "gm-test", cfg.GeminiAPIKey)
		assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
		assert.Equal(t, 8, cfg.MatchTopK)
		assert.False(t, cfg.CacheEnabled)
	})

	t.Run("invalid duration", func(t *testing.T) {
		os.Clearenv()
		os.Setenv("CACHE_TTL", "invalid")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "CACHE_TTL")
	})

	t.Run("invalid float", func(t *testing.T) {
		os.Clearenv()
		os.Setenv("MATCH_THRESHOLD", "notanumber")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "MATCH_THRESHOLD")
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cfg := &Config{DatabasePath: "test.db"}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing database path", func(t *testing.T) {
		cfg := &Config{}
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "DATABASE_PATH")
	})
}

func TestConfig_ValidateForEmbedding(t *testing.T) {
	t.Run("ollama requires host", func(t *testing.T) {
		cfg := &Config{DatabasePath: "test.db", EmbedProvider: "ollama", EmbedDim: 768}
		err := cfg.ValidateForEmbedding()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "OLLAMA_HOST")
	})

	t.Run("openai requires key", func(t *testing.T) {
		cfg := &Config{DatabasePath: "test.db", EmbedProvider: "openai", EmbedDim: 1536}
		err := cfg.ValidateForEmbedding()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := &Config{DatabasePath: "test.db", EmbedProvider: "cohere", EmbedDim: 768}
		err := cfg.ValidateForEmbedding()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "EMBED_PROVIDER")
	})

	t.Run("valid ollama", func(t *testing.T) {
		cfg := &Config{
			DatabasePath:  "test.db",
			EmbedProvider: "ollama",
			OllamaHost:    "http://localhost:11434",
			EmbedDim:      768,
		}
		assert.NoError(t, cfg.ValidateForEmbedding())
	})
}

func TestConfig_ValidateForServe(t *testing.T) {
	cfg := &Config{
		DatabasePath:  "test.db",
		VecLitePath:   "test.veclite",
		EmbedProvider: "ollama",
		OllamaHost:    "http://localhost:11434",
		EmbedDim:      768,
		ServerAddr:    ":8080",
	}
	assert.NoError(t, cfg.ValidateForServe())

	cfg.ServerAddr = ""
	err := cfg.ValidateForServe()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "SERVER_ADDR")
}

func TestNormalizeOllamaHost(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "http://localhost:11434"},
		{"0.0.0.0", "http://localhost:11434"},
		{"0.0.0.0:11434", "http://localhost:11434"},
		{"localhost:11434", "http://localhost:11434"},
		{"http://remote:11434", "http://remote:11434"},
		{"https://ollama.example.com", "https://ollama.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeOllamaHost(tt.input))
		})
	}
}
