package driving

import (
	"context"

	"github.com/finsight-labs/reportqa-core/internal/core/domain"
)

// IngestService owns the index lifecycle for report years.
type IngestService interface {
	// Ingest chunks, embeds and indexes the given documents for a year,
	// persists the index and atomically publishes it to the registry.
	// When a persisted index already exists and force is false, it is
	// loaded instead of rebuilt. A concurrent ingest for the same year
	// fails with domain.ErrBuildInProgress.
	Ingest(ctx context.Context, year int, docs []domain.Document, force bool) error

	// IngestFile loads a source file through the document loader and
	// ingests its pages for the given year.
	IngestFile(ctx context.Context, year int, path string, force bool) error

	// LoadPersisted loads every year discoverable in persisted storage.
	// Individual load failures are logged and skipped; the call only
	// fails when storage itself cannot be listed.
	LoadPersisted(ctx context.Context) error

	// Years returns the years currently available for querying
	Years() []int
}
