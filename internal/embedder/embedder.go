// Package embedder turns text into fixed-length embedding vectors.
package embedder

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/sejinbae/moodquote/internal/config"
)

// Client produces an embedding vector for a text.
type Client interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// NewFromConfig creates an embedding client for the configured provider.
func NewFromConfig(cfg *config.Config) (Client, error) {
	switch cfg.EmbedProvider {
	case "openai":
		return NewOpenAI(OpenAIConfig{APIKey: cfg.OpenAIAPIKey}), nil
	case "ollama", "":
		return NewOllama(OllamaConfig{Host: cfg.OllamaHost, Model: cfg.OllamaModel}), nil
	default:
		return nil, fmt.Errorf("unknown embed provider: %s", cfg.EmbedProvider)
	}
}

// Ping verifies the provider is reachable when the client supports a
// health check. Clients without one (OpenAI) pass trivially.
func Ping(ctx context.Context, c Client) error {
	p, ok := c.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}
	return p.Ping(ctx)
}

// EmbeddingToBytes converts an embedding to bytes for storage.
func EmbeddingToBytes(embedding []float32) []byte {
	buf := new(bytes.Buffer)
	for _, v := range embedding {
		binary.Write(buf, binary.LittleEndian, v)
	}
	return buf.Bytes()
}

// BytesToEmbedding converts bytes back to an embedding.
func BytesToEmbedding(data []byte) ([]float32, error) {
	if len(data) == 0 {
		return nil, nil
	}

	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding data length: %d", len(data))
	}

	embedding := make([]float32, len(data)/4)
	reader := bytes.NewReader(data)
	for i := range embedding {
		if err := binary.Read(reader, binary.LittleEndian, &embedding[i]); err != nil {
			return nil, fmt.Errorf("read float: %w", err)
		}
	}

	return embedding, nil
}

// CosineSimilarity computes the cosine similarity between two embeddings.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return float32(dotProduct / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// Normalize normalizes an embedding to unit length.
func Normalize(embedding []float32) []float32 {
	var norm float64
	for _, v := range embedding {
		norm += float64(v) * float64(v)
	}

	if norm == 0 {
		return embedding
	}

	norm = math.Sqrt(norm)
	result := make([]float32, len(embedding))
	for i, v := range embedding {
		result[i] = float32(float64(v) / norm)
	}

	return result
}
