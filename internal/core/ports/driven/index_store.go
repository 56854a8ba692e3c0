package driven

import (
	"context"

	"github.com/finsight-labs/reportqa-core/internal/core/domain"
)

// IndexStore persists one index snapshot per report year.
type IndexStore interface {
	// Save durably stores the snapshot, replacing any previous snapshot
	// for the same year. A concurrent Load never observes a partially
	// written snapshot, though it may briefly find none at all while the
	// replacement swaps in.
	Save(ctx context.Context, snap *domain.IndexSnapshot) error

	// Load reads the persisted snapshot for a year.
	// Returns domain.ErrIndexNotFound when no snapshot exists and
	// domain.ErrPersistence when the stored data is corrupt.
	Load(ctx context.Context, year int) (*domain.IndexSnapshot, error)

	// Years lists every year with a persisted snapshot.
	Years(ctx context.Context) ([]int, error)

	// Delete removes the persisted snapshot for a year, if any.
	Delete(ctx context.Context, year int) error
}
