package embedder

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOllama(t *testing.T) {
	t.Run("uses default model", func(t *testing.T) {
		e := NewOllama(OllamaConfig{Host: "http://localhost:11434"})
		assert.Equal(t, defaultOllamaModel, e.model)
	})

	t.Run("uses custom model", func(t *testing.T) {
		e := NewOllama(OllamaConfig{
			Host:  "http://localhost:11434",
			Model: "custom-model",
		})
		assert.Equal(t, "custom-model", e.model)
	})
}

func TestOllama_Embed(t *testing.T) {
	t.Run("successful embedding", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/embeddings", r.URL.Path)
			assert.Equal(t, "POST", r.Method)

			var req ollamaRequest
			json.NewDecoder(r.Body).Decode(&req)
			assert.Equal(t, "test text", req.Prompt)

			embedding := make([]float64, 768)
			for i := range embedding {
				embedding[i] = float64(i) / 768.0
			}

			json.NewEncoder(w).Encode(ollamaResponse{Embedding: embedding})
		}))
		defer server.Close()

		e := NewOllama(OllamaConfig{Host: server.URL})
		embedding, err := e.Embed(context.Background(), "test text")

		require.NoError(t, err)
		assert.Len(t, embedding, 768)
	})

	t.Run("handles error response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("internal error"))
		}))
		defer server.Close()

		e := NewOllama(OllamaConfig{Host: server.URL})
		_, err := e.Embed(context.Background(), "test text")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "status 500")
	})

	t.Run("handles empty embedding", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(ollamaResponse{Embedding: []float64{}})
		}))
		defer server.Close()

		e := NewOllama(OllamaConfig{Host: server.URL})
		_, err := e.Embed(context.Background(), "test text")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "empty embedding")
	})
}

func TestOllama_Ping(t *testing.T) {
	t.Run("model found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/tags", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]any{
				"models": []map[string]string{
					{"name": "nomic-embed-text:latest"},
					{"name": "llama2:latest"},
				},
			})
		}))
		defer server.Close()

		e := NewOllama(OllamaConfig{Host: server.URL})
		assert.NoError(t, e.Ping(context.Background()))
	})

	t.Run("model missing", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"models": []map[string]string{{"name": "llama2:latest"}},
			})
		}))
		defer server.Close()

		e := NewOllama(OllamaConfig{Host: server.URL})
		err := e.Ping(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestPing(t *testing.T) {
	t.Run("reaches the ollama health check", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"models": []map[string]string{{"name": "nomic-embed-text"}},
			})
		}))
		defer server.Close()

		var c Client = NewOllama(OllamaConfig{Host: server.URL})
		assert.NoError(t, Ping(context.Background(), c))
	})

	t.Run("failure surfaces", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		var c Client = NewOllama(OllamaConfig{Host: server.URL})
		assert.Error(t, Ping(context.Background(), c))
	})

	t.Run("clients without a health check pass", func(t *testing.T) {
		var c Client = NewOpenAI(OpenAIConfig{APIKey: "test"})
		assert.NoError(t, Ping(context.Background(), c))
	})
}

func TestEmbeddingRoundTrip(t *testing.T) {
	original := []float32{0.1, -0.2, 0.3, 1.5}

	data := EmbeddingToBytes(original)
	assert.Len(t, data, len(original)*4)

	restored, err := BytesToEmbedding(data)
	require.NoError(t, err)
	assert.Equal(t, original, restored)
}

func TestBytesToEmbedding_Invalid(t *testing.T) {
	_, err := BytesToEmbedding([]byte{1, 2, 3})
	assert.Error(t, err)

	restored, err := BytesToEmbedding(nil)
	require.NoError(t, err)
	assert.Nil(t, restored)
}

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vectors", func(t *testing.T) {
		a := []float32{1, 2, 3}
		sim := CosineSimilarity(a, a)
		assert.InDelta(t, 1.0, float64(sim), 1e-6)
	})

	t.Run("orthogonal vectors", func(t *testing.T) {
		sim := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
		assert.InDelta(t, 0.0, float64(sim), 1e-6)
	})

	t.Run("mismatched lengths", func(t *testing.T) {
		sim := CosineSimilarity([]float32{1, 2}, []float32{1})
		assert.Equal(t, float32(0), sim)
	})
}

func TestNormalize(t *testing.T) {
	normalized := Normalize([]float32{3, 4})

	var norm float64
	for _, v := range normalized {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)

	// Zero vector stays unchanged
	zero := []float32{0, 0}
	assert.Equal(t, zero, Normalize(zero))
}
