package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/finsight-labs/reportqa-core/internal/core/domain"
	"github.com/finsight-labs/reportqa-core/internal/core/ports/driven"
	"github.com/finsight-labs/reportqa-core/internal/core/ports/driving"
	"github.com/finsight-labs/reportqa-core/internal/runtime"
)

// Queries shorter than this after trimming carry no retrievable intent.
const minQueryLength = 3

// Ensure queryService implements QueryService
var _ driving.QueryService = (*queryService)(nil)

// queryService implements the QueryService interface. It coordinates
// retrieval, confidence scoring and answer synthesis per year.
type queryService struct {
	registry    *runtime.Registry
	retriever   *Retriever
	synthesizer *AnswerSynthesizer
	cache       driven.AnswerCache // optional, may be nil
	maxChunks   int
	cacheTTL    time.Duration
	logger      *slog.Logger
}

// NewQueryService creates a new QueryService.
// cache may be nil; caching is best-effort and never fails a query.
func NewQueryService(
	registry *runtime.Registry,
	retriever *Retriever,
	synthesizer *AnswerSynthesizer,
	cache driven.AnswerCache,
	maxChunks int,
	cacheTTL time.Duration,
	logger *slog.Logger,
) driving.QueryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &queryService{
		registry:    registry,
		retriever:   retriever,
		synthesizer: synthesizer,
		cache:       cache,
		maxChunks:   maxChunks,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// AnswerYear answers a question against a single year's index.
func (s *queryService) AnswerYear(ctx context.Context, query string, year int) (*domain.QAResult, error) {
	q, err := sanitizeQuery(query)
	if err != nil {
		return nil, err
	}
	return s.answerYear(ctx, q, year)
}

// AnswerAllYears fans the question out to every registered year
// concurrently. Each year's index is independently read-only, so sub-queries
// run in parallel; aggregation waits for all of them. A failed year is
// logged and omitted, never surfaced as a top-level failure.
func (s *queryService) AnswerAllYears(ctx context.Context, query string) (map[int]*domain.QAResult, error) {
	q, err := sanitizeQuery(query)
	if err != nil {
		return nil, err
	}

	years := s.registry.Years()
	results := make(map[int]*domain.QAResult, len(years))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, year := range years {
		wg.Add(1)
		go func(year int) {
			defer wg.Done()
			res, err := s.answerYear(ctx, q, year)
			if err != nil {
				s.logger.Warn("query failed for year", "year", year, "error", err)
				return
			}
			mu.Lock()
			results[year] = res
			mu.Unlock()
		}(year)
	}
	wg.Wait()

	return results, nil
}

// Stats reports available years and chunk counts from the registry.
func (s *queryService) Stats(ctx context.Context) (*domain.Stats, error) {
	counts := s.registry.ChunkCounts()
	total := 0
	for _, n := range counts {
		total += n
	}

	return &domain.Stats{
		AvailableYears: s.registry.Years(),
		TotalYears:     len(counts),
		ChunksPerYear:  counts,
		TotalChunks:    total,
		LastUpdated:    time.Now().UTC(),
	}, nil
}

// answerYear runs the retrieval/synthesis pipeline for one year. The query
// is already validated; validation happens once at the entry points.
func (s *queryService) answerYear(ctx context.Context, query string, year int) (*domain.QAResult, error) {
	start := time.Now()

	if cached := s.cachedAnswer(ctx, query, year); cached != nil {
		return cached, nil
	}

	passages, err := s.retriever.Search(ctx, year, query, s.maxChunks)
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(passages))
	similarities := make([]float64, 0, len(passages))
	citations := make([]domain.Citation, 0, len(passages))
	for _, p := range passages {
		texts = append(texts, p.Chunk.Text)
		similarities = append(similarities, p.Score)
		citations = append(citations, domain.Citation{
			Text:   p.Chunk.Text,
			Page:   p.Chunk.Page,
			Source: citationSource(p.Chunk, year),
		})
	}

	answer := s.synthesizer.Synthesize(ctx, query, texts)
	confidence := ConfidenceScore(len(passages), similarities)

	result := &domain.QAResult{
		Answer:         answer,
		Citations:      citations,
		Confidence:     confidence,
		Year:           year,
		Query:          query,
		ProcessingTime: time.Since(start),
	}

	s.storeAnswer(ctx, result)
	return result, nil
}

func (s *queryService) cachedAnswer(ctx context.Context, query string, year int) *domain.QAResult {
	if s.cache == nil {
		return nil
	}
	res, err := s.cache.Get(ctx, year, query)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("answer cache read failed", "year", year, "error", err)
		}
		return nil
	}
	return res
}

func (s *queryService) storeAnswer(ctx context.Context, result *domain.QAResult) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, result, s.cacheTTL); err != nil {
		s.logger.Warn("answer cache write failed", "year", result.Year, "error", err)
	}
}

// citationSource derives the provenance label for a chunk. Chunks ingested
// from files carry their file name; otherwise the year names the report.
func citationSource(c domain.Chunk, year int) string {
	if c.Source != "" {
		return c.Source
	}
	return fmt.Sprintf("annual_report_%d.pdf", year)
}

// sanitizeQuery trims and collapses whitespace, rejecting queries that are
// empty or too short to mean anything.
func sanitizeQuery(query string) (string, error) {
	q := strings.Join(strings.Fields(query), " ")
	if q == "" {
		return "", fmt.Errorf("query cannot be empty: %w", domain.ErrInvalidArgument)
	}
	if utf8.RuneCountInString(q) < minQueryLength {
		return "", fmt.Errorf("query must be at least %d characters: %w", minQueryLength, domain.ErrInvalidArgument)
	}
	return q, nil
}
