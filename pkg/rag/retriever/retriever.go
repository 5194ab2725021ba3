package retriever

import (
	"context"
	"fmt"
	"log"

	"rag-assistant-be/pkg/embedding"
	"rag-assistant-be/pkg/rag/index"
)

// Config encapsulates retrieval parameters
type Config struct {
	TopK     int
	MinScore float64
}

// DefaultConfig matches the assistant corpus defaults
func DefaultConfig() Config {
	return Config{
		TopK:     3,
		MinScore: 0.6,
	}
}

// Retriever embeds a query and runs nearest-neighbor search against an
// index. The embedding provider must be the same one used at ingestion
// time; a dimension mismatch is surfaced as an error by the index.
type Retriever struct {
	embeddingProvider embedding.EmbeddingProvider
	logger            *log.Logger
}

func NewRetriever(embeddingProvider embedding.EmbeddingProvider, logger *log.Logger) *Retriever {
	return &Retriever{
		embeddingProvider: embeddingProvider,
		logger:            logger,
	}
}

// Retrieve returns at most cfg.TopK segments from idx with similarity >=
// cfg.MinScore, best first. An empty result is a retrieval miss, not an
// error.
func (r *Retriever) Retrieve(ctx context.Context, query string, idx *index.VectorIndex, cfg Config) ([]index.ScoredSegment, error) {
	queryVec, err := r.embeddingProvider.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	results, err := idx.Search(queryVec, cfg.TopK, cfg.MinScore)
	if err != nil {
		r.logger.Printf("[ERROR] Vector search failed on %s: %v", idx.Label(), err)
		return nil, err
	}

	for i, res := range results {
		r.logger.Printf("[DEBUG] %s candidate %d: segment=%s score=%.4f",
			idx.Label(), i+1, res.Segment.ID, res.Score)
	}
	if len(results) == 0 {
		r.logger.Printf("[DEBUG] %s: no segment cleared min score %.2f", idx.Label(), cfg.MinScore)
	}

	return results, nil
}
