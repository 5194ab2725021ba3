package embedding

import (
	"context"
	"math"
)

// Task type hints passed to providers that distinguish document and query
// embeddings (Gemini does; Ollama ignores them).
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// EmbeddingProvider defines the interface for generating text embeddings.
// Vectors returned by one provider instance always share a single dimension;
// mixing providers between ingestion and query time is a caller bug.
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) ([]float32, error)

	// GenerateBatch embeds every text, preserving input order.
	GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error)
}

// NormalizeVector normalizes a vector to unit length (magnitude = 1).
// Required for accurate cosine similarity via dot product.
func NormalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	// Avoid division by zero
	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
