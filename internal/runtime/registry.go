// Package runtime holds the process-wide mutable state: the registry of
// year-scoped vector indices. Everything else in the core is immutable or
// request-scoped.
package runtime

import (
	"sort"
	"sync"

	"github.com/finsight-labs/reportqa-core/internal/index"
)

// Registry maps report years to their vector indices.
// Entries are added at ingestion time and replaced wholesale on rebuild.
// Thread-safe for concurrent access; an index is immutable once registered,
// so readers either see the old index or the new one, never a partial one.
type Registry struct {
	mu      sync.RWMutex
	indices map[int]*index.VectorIndex
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{
		indices: make(map[int]*index.VectorIndex),
	}
}

// Get returns the index for a year, if present
func (r *Registry) Get(year int) (*index.VectorIndex, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ix, ok := r.indices[year]
	return ix, ok
}

// Set publishes an index for a year, replacing any previous entry.
// The swap is atomic with respect to Get.
func (r *Registry) Set(year int, ix *index.VectorIndex) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indices[year] = ix
}

// Delete removes a year's entry, if present
func (r *Registry) Delete(year int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.indices, year)
}

// Years returns the registered years in ascending order
func (r *Registry) Years() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	years := make([]int, 0, len(r.indices))
	for year := range r.indices {
		years = append(years, year)
	}
	sort.Ints(years)
	return years
}

// Len returns the number of registered years
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.indices)
}

// ChunkCounts returns the number of indexed chunks per year
func (r *Registry) ChunkCounts() map[int]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[int]int, len(r.indices))
	for year, ix := range r.indices {
		counts[year] = ix.Len()
	}
	return counts
}
