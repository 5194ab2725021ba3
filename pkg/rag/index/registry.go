package index

import "sync"

// Registry holds the set of live vector indexes shared by all sessions.
// After the initial ingestion the set is read-mostly; Replace swaps a
// rebuilt index in atomically under the write lock, so readers never see
// a half-built index.
type Registry struct {
	mu      sync.RWMutex
	indexes []*VectorIndex
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a new index. Labels are expected unique; registering an
// existing label replaces the old index instead.
func (r *Registry) Register(idx *VectorIndex) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.indexes {
		if existing.Label() == idx.Label() {
			r.indexes[i] = idx
			return
		}
	}
	r.indexes = append(r.indexes, idx)
}

// Snapshot returns the current index set in registration order. The
// returned slice is a copy; indexes themselves are shared and read-only.
func (r *Registry) Snapshot() []*VectorIndex {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*VectorIndex, len(r.indexes))
	copy(out, r.indexes)
	return out
}

// Get returns the index with the given label, or nil.
func (r *Registry) Get(label string) *VectorIndex {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, idx := range r.indexes {
		if idx.Label() == label {
			return idx
		}
	}
	return nil
}
