// Package index implements an in-memory vector index over one report year.
// Search is brute-force cosine similarity; corpora are small enough (a few
// thousand chunks per year) that an ANN structure would not pay for itself.
package index

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/finsight-labs/reportqa-core/internal/core/domain"
)

// VectorIndex maps embedded chunk vectors to chunk payloads for one year.
// Immutable once built; safe for concurrent readers without locking.
type VectorIndex struct {
	year       int
	model      string
	dimensions int
	vectors    [][]float32 // unit-normalized
	chunks     []domain.Chunk
	createdAt  time.Time
}

// Build constructs an index from embedded chunks. Vectors are normalized to
// unit length so that search reduces to a dot product.
func Build(year int, model string, dimensions int, vectors [][]float32, chunks []domain.Chunk) (*VectorIndex, error) {
	if year <= 0 {
		return nil, fmt.Errorf("year %d: %w", year, domain.ErrInvalidArgument)
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions %d: %w", dimensions, domain.ErrInvalidArgument)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%d vectors for %d chunks: %w", len(vectors), len(chunks), domain.ErrInvalidArgument)
	}

	normalized := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dimensions {
			return nil, fmt.Errorf("vector %d has %d dimensions, want %d: %w", i, len(v), dimensions, domain.ErrInvalidArgument)
		}
		normalized[i] = normalize(v)
	}

	return &VectorIndex{
		year:       year,
		model:      model,
		dimensions: dimensions,
		vectors:    normalized,
		chunks:     chunks,
		createdAt:  time.Now().UTC(),
	}, nil
}

// FromSnapshot reconstructs an index from persisted data. The snapshot is
// validated before use since it comes from untrusted local storage.
func FromSnapshot(snap *domain.IndexSnapshot) (*VectorIndex, error) {
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("snapshot for year %d: %w", snap.Year, err)
	}

	ix, err := Build(snap.Year, snap.Model, snap.Dimensions, snap.Vectors, snap.Chunks)
	if err != nil {
		return nil, fmt.Errorf("snapshot for year %d: %w", snap.Year, domain.ErrPersistence)
	}
	ix.createdAt = snap.CreatedAt
	return ix, nil
}

// Snapshot returns the serializable form of the index.
func (ix *VectorIndex) Snapshot() *domain.IndexSnapshot {
	return &domain.IndexSnapshot{
		Year:       ix.year,
		Model:      ix.model,
		Dimensions: ix.dimensions,
		Vectors:    ix.vectors,
		Chunks:     ix.chunks,
		CreatedAt:  ix.createdAt,
	}
}

// Search returns the k nearest chunks to the query vector, ordered by
// descending similarity. Similarity is cosine clamped to [0,1] so that
// callers always see a "higher is better" score on a fixed scale.
// If the index holds fewer than k vectors, all of them are returned.
func (ix *VectorIndex) Search(query []float32, k int) ([]domain.RetrievedPassage, error) {
	if len(query) != ix.dimensions {
		return nil, fmt.Errorf("query has %d dimensions, want %d: %w", len(query), ix.dimensions, domain.ErrInvalidArgument)
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d: %w", k, domain.ErrInvalidArgument)
	}

	q := normalize(query)

	scores := make([]float64, len(ix.vectors))
	order := make([]int, len(ix.vectors))
	for i, v := range ix.vectors {
		scores[i] = clamp01(dot(v, q))
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	passages := make([]domain.RetrievedPassage, 0, k)
	for _, i := range order[:k] {
		passages = append(passages, domain.RetrievedPassage{
			Chunk: ix.chunks[i],
			Score: scores[i],
		})
	}
	return passages, nil
}

// Year returns the report year this index covers
func (ix *VectorIndex) Year() int { return ix.year }

// Model returns the embedding model the vectors were produced with
func (ix *VectorIndex) Model() string { return ix.model }

// Dimensions returns the embedding dimensionality
func (ix *VectorIndex) Dimensions() int { return ix.dimensions }

// Len returns the number of indexed chunks
func (ix *VectorIndex) Len() int { return len(ix.chunks) }

// CreatedAt returns when the index was built
func (ix *VectorIndex) CreatedAt() time.Time { return ix.createdAt }

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		out := make([]float32, len(v))
		return out
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
