package index

import (
	"fmt"
	"sort"
	"sync"

	"rag-assistant-be/pkg/rag/document"
)

// ScoredSegment pairs a segment with its similarity to a query vector.
type ScoredSegment struct {
	Segment document.Segment
	Score   float64
}

// VectorIndex is an in-memory store of (embedding, segment) pairs using
// brute-force cosine similarity. Vectors are expected L2-normalized, so
// similarity is a plain dot product. The index is append-only during
// ingestion and read-only afterwards; the mutex only guards against a
// rebuild racing an in-flight search.
type VectorIndex struct {
	mu          sync.RWMutex
	label       string
	description string
	dimension   int
	vectors     [][]float32
	segments    []document.Segment
}

// New creates an empty index. The description is human-readable text used
// by the query router to decide whether this index matches a question
// (e.g. "technical AI/RAG documents").
func New(label, description string) *VectorIndex {
	return &VectorIndex{
		label:       label,
		description: description,
	}
}

func (idx *VectorIndex) Label() string       { return idx.label }
func (idx *VectorIndex) Description() string { return idx.description }

// Add appends a (vector, segment) pair. The first insert fixes the index
// dimension; any later mismatch is an error, never silently tolerated.
func (idx *VectorIndex) Add(seg document.Segment, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("index %s: empty vector for segment %s", idx.label, seg.ID)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.dimension == 0 {
		idx.dimension = len(vector)
	} else if len(vector) != idx.dimension {
		return fmt.Errorf("index %s: vector dimension %d does not match index dimension %d",
			idx.label, len(vector), idx.dimension)
	}

	idx.vectors = append(idx.vectors, vector)
	idx.segments = append(idx.segments, seg)
	return nil
}

// Size returns the number of stored segments.
func (idx *VectorIndex) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.segments)
}

// Dimension returns the fixed vector dimension (0 while empty).
func (idx *VectorIndex) Dimension() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dimension
}

// Search returns at most k segments with similarity >= minScore, best
// first. Ties are broken by insertion order (first-inserted wins) so
// results stay reproducible.
func (idx *VectorIndex) Search(vector []float32, k int, minScore float64) ([]ScoredSegment, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.segments) == 0 {
		return nil, nil
	}
	if len(vector) != idx.dimension {
		return nil, fmt.Errorf("index %s: query dimension %d does not match index dimension %d",
			idx.label, len(vector), idx.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	scored := make([]ScoredSegment, 0, len(idx.segments))
	for i := range idx.vectors {
		score := dot(idx.vectors[i], vector)
		if score >= minScore {
			scored = append(scored, ScoredSegment{
				Segment: idx.segments[i],
				Score:   score,
			})
		}
	}

	// Stable sort keeps insertion order for equal scores
	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Score > scored[b].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

func dot(a, b []float32) float64 {
	sum := 0.0
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
