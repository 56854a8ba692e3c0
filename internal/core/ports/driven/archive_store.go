package driven

import (
	"context"

	"github.com/finsight-labs/reportqa-core/internal/core/domain"
)

// ArchiveStore records ingested documents and chunk metadata for audit and
// reporting. Embeddings are not stored here; they live in the index snapshots.
type ArchiveStore interface {
	// SaveDocument creates or updates a document record
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks saves chunk metadata in a single transaction
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// ChunkCounts returns the number of archived chunks per year
	ChunkCounts(ctx context.Context) (map[int]int, error)

	// Close releases the underlying connection
	Close() error
}
