package driving

import (
	"context"

	"github.com/finsight-labs/reportqa-core/internal/core/domain"
)

// QueryService answers natural-language questions against indexed report
// years.
type QueryService interface {
	// AnswerYear answers a question against a single year's index.
	// Fails with domain.ErrInvalidArgument for a bad query and
	// domain.ErrIndexNotFound when the year has not been ingested.
	AnswerYear(ctx context.Context, query string, year int) (*domain.QAResult, error)

	// AnswerAllYears answers a question against every available year.
	// A failure for one year is logged and that year is omitted from the
	// result; the call itself only fails on invalid input.
	AnswerAllYears(ctx context.Context, query string) (map[int]*domain.QAResult, error)

	// Stats reports available years and chunk counts
	Stats(ctx context.Context) (*domain.Stats, error)
}
