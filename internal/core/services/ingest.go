package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finsight-labs/reportqa-core/internal/core/domain"
	"github.com/finsight-labs/reportqa-core/internal/core/ports/driven"
	"github.com/finsight-labs/reportqa-core/internal/core/ports/driving"
	"github.com/finsight-labs/reportqa-core/internal/index"
	"github.com/finsight-labs/reportqa-core/internal/runtime"
)

// Embedding providers cap request sizes; chunks are embedded in batches.
const embedBatchSize = 64

// Ensure ingestService implements IngestService
var _ driving.IngestService = (*ingestService)(nil)

// ingestService implements the IngestService interface. It owns the index
// lifecycle: chunk, embed, build, persist, publish.
type ingestService struct {
	chunker   *Chunker
	embedding driven.EmbeddingService
	store     driven.IndexStore
	loader    driven.DocumentLoader
	archive   driven.ArchiveStore // optional, may be nil
	registry  *runtime.Registry
	logger    *slog.Logger

	// At-most-one in-flight build per year
	mu       sync.Mutex
	building map[int]bool
}

// NewIngestService creates a new IngestService.
// archive may be nil; archiving is best-effort and never fails an ingest.
func NewIngestService(
	chunker *Chunker,
	embedding driven.EmbeddingService,
	store driven.IndexStore,
	loader driven.DocumentLoader,
	archive driven.ArchiveStore,
	registry *runtime.Registry,
	logger *slog.Logger,
) driving.IngestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ingestService{
		chunker:   chunker,
		embedding: embedding,
		store:     store,
		loader:    loader,
		archive:   archive,
		registry:  registry,
		logger:    logger,
		building:  make(map[int]bool),
	}
}

// Ingest builds or loads the index for a year and publishes it to the
// registry. The registry swap happens only after a successful build and
// persist, so readers never observe a partially-built index.
func (s *ingestService) Ingest(ctx context.Context, year int, docs []domain.Document, force bool) error {
	if year <= 0 {
		return fmt.Errorf("year %d: %w", year, domain.ErrInvalidArgument)
	}

	if err := s.beginBuild(year); err != nil {
		return err
	}
	defer s.endBuild(year)

	if !force {
		snap, err := s.store.Load(ctx, year)
		if err == nil {
			ix, lerr := s.indexFromSnapshot(snap)
			if lerr != nil {
				return lerr
			}
			s.registry.Set(year, ix)
			s.logger.Info("loaded persisted index", "year", year, "chunks", ix.Len())
			return nil
		}
		if !errors.Is(err, domain.ErrIndexNotFound) {
			return fmt.Errorf("load index for year %d: %w", year, err)
		}
	}

	return s.build(ctx, year, docs)
}

// IngestFile loads a source file and ingests its pages for the given year.
// The year is an explicit input; it is never inferred from the file name.
func (s *ingestService) IngestFile(ctx context.Context, year int, path string, force bool) error {
	pages, err := s.loader.Load(ctx, path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	now := time.Now().UTC()
	docs := make([]domain.Document, 0, len(pages))
	for _, p := range pages {
		docs = append(docs, domain.Document{
			ID:        uuid.New().String(),
			Year:      year,
			Source:    p.Source,
			Page:      p.Page,
			Text:      p.Text,
			CreatedAt: now,
		})
	}

	return s.Ingest(ctx, year, docs, force)
}

// LoadPersisted loads every year found in persisted storage. A year that
// fails to load is logged and skipped; it is simply absent from the registry.
func (s *ingestService) LoadPersisted(ctx context.Context) error {
	years, err := s.store.Years(ctx)
	if err != nil {
		return fmt.Errorf("list persisted years: %w", err)
	}

	loaded := 0
	for _, year := range years {
		snap, err := s.store.Load(ctx, year)
		if err != nil {
			s.logger.Warn("skipping persisted index", "year", year, "error", err)
			continue
		}
		ix, err := s.indexFromSnapshot(snap)
		if err != nil {
			s.logger.Warn("skipping persisted index", "year", year, "error", err)
			continue
		}
		s.registry.Set(year, ix)
		loaded++
	}

	s.logger.Info("persisted indices loaded", "found", len(years), "loaded", loaded)
	return nil
}

// Years returns the years currently available for querying
func (s *ingestService) Years() []int {
	return s.registry.Years()
}

func (s *ingestService) build(ctx context.Context, year int, docs []domain.Document) error {
	var chunks []domain.Chunk
	for i := range docs {
		doc := docs[i]
		doc.Year = year
		chunks = append(chunks, s.chunker.Split(&doc)...)
	}
	if len(chunks) == 0 {
		return fmt.Errorf("no text to index for year %d: %w", year, domain.ErrInvalidArgument)
	}

	vectors, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return err
	}

	ix, err := index.Build(year, s.embedding.Model(), s.embedding.Dimensions(), vectors, chunks)
	if err != nil {
		return err
	}

	if err := s.store.Save(ctx, ix.Snapshot()); err != nil {
		return fmt.Errorf("persist index for year %d: %v: %w", year, err, domain.ErrPersistence)
	}

	s.archiveChunks(ctx, docs, chunks)

	s.registry.Set(year, ix)
	s.logger.Info("index built", "year", year, "documents", len(docs), "chunks", len(chunks))
	return nil
}

func (s *ingestService) embedChunks(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}
		batch, err := s.embedding.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %v: %w", err, domain.ErrEmbeddingService)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// archiveChunks records ingestion metadata. Archive failures are logged,
// never propagated. The index is the source of truth.
func (s *ingestService) archiveChunks(ctx context.Context, docs []domain.Document, chunks []domain.Chunk) {
	if s.archive == nil {
		return
	}
	for i := range docs {
		if err := s.archive.SaveDocument(ctx, &docs[i]); err != nil {
			s.logger.Warn("failed to archive document", "source", docs[i].Source, "error", err)
			return
		}
	}
	if err := s.archive.SaveChunks(ctx, chunks); err != nil {
		s.logger.Warn("failed to archive chunks", "count", len(chunks), "error", err)
	}
}

// indexFromSnapshot rebuilds the in-memory index from a snapshot, rejecting
// snapshots produced by a different embedding model.
func (s *ingestService) indexFromSnapshot(snap *domain.IndexSnapshot) (*index.VectorIndex, error) {
	if snap.Model != s.embedding.Model() || snap.Dimensions != s.embedding.Dimensions() {
		return nil, fmt.Errorf("snapshot for year %d built with %s/%d, want %s/%d: %w",
			snap.Year, snap.Model, snap.Dimensions,
			s.embedding.Model(), s.embedding.Dimensions(), domain.ErrPersistence)
	}
	return index.FromSnapshot(snap)
}

func (s *ingestService) beginBuild(year int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.building[year] {
		return fmt.Errorf("year %d: %w", year, domain.ErrBuildInProgress)
	}
	s.building[year] = true
	return nil
}

func (s *ingestService) endBuild(year int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.building, year)
}
