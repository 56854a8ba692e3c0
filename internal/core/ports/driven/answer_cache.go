package driven

import (
	"context"
	"time"

	"github.com/finsight-labs/reportqa-core/internal/core/domain"
)

// AnswerCache stores recent QA results keyed by (year, query).
// A cache is an optimization only: misses and cache failures must never
// fail a query.
type AnswerCache interface {
	// Get returns the cached result or domain.ErrNotFound on a miss.
	Get(ctx context.Context, year int, query string) (*domain.QAResult, error)

	// Set stores a result with the given TTL.
	Set(ctx context.Context, result *domain.QAResult, ttl time.Duration) error

	// Close releases resources held by the cache
	Close() error
}
