package services

import (
	"context"
	"fmt"

	"github.com/finsight-labs/reportqa-core/internal/core/domain"
	"github.com/finsight-labs/reportqa-core/internal/core/ports/driven"
	"github.com/finsight-labs/reportqa-core/internal/runtime"
)

// Retriever runs similarity search against a year's index.
type Retriever struct {
	registry  *runtime.Registry
	embedding driven.EmbeddingService
}

// NewRetriever creates a new Retriever
func NewRetriever(registry *runtime.Registry, embedding driven.EmbeddingService) *Retriever {
	return &Retriever{
		registry:  registry,
		embedding: embedding,
	}
}

// Search returns up to k passages for the query, ordered by descending
// similarity on a [0,1] scale. Fails with domain.ErrIndexNotFound when the
// year has no registered index.
func (r *Retriever) Search(ctx context.Context, year int, query string, k int) ([]domain.RetrievedPassage, error) {
	ix, ok := r.registry.Get(year)
	if !ok {
		return nil, fmt.Errorf("year %d: %w", year, domain.ErrIndexNotFound)
	}

	vector, err := r.embedding.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %v: %w", err, domain.ErrEmbeddingService)
	}

	return ix.Search(vector, k)
}
