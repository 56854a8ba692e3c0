package postgres

import (
	"context"
	"database/sql"

	"github.com/finsight-labs/reportqa-core/internal/core/domain"
	"github.com/finsight-labs/reportqa-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ArchiveStore = (*ArchiveStore)(nil)

// ArchiveStore implements driven.ArchiveStore using PostgreSQL.
// It records what was ingested and when; the index snapshots remain the
// source of truth for retrieval.
type ArchiveStore struct {
	db *DB
}

// NewArchiveStore creates a new ArchiveStore
func NewArchiveStore(db *DB) *ArchiveStore {
	return &ArchiveStore{db: db}
}

// SaveDocument creates or updates a document record
func (s *ArchiveStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	query := `
		INSERT INTO documents (id, year, source, page, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			year = EXCLUDED.year,
			source = EXCLUDED.source,
			page = EXCLUDED.page
	`

	_, err := s.db.ExecContext(ctx, query,
		doc.ID,
		doc.Year,
		doc.Source,
		doc.Page,
		doc.CreatedAt,
	)
	return err
}

// SaveChunks saves chunk metadata in a single transaction
func (s *ArchiveStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO chunks (id, document_id, year, source, page, position, start_char, end_char, content, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO UPDATE SET
				content = EXCLUDED.content,
				position = EXCLUDED.position,
				start_char = EXCLUDED.start_char,
				end_char = EXCLUDED.end_char
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, chunk := range chunks {
			_, err = stmt.ExecContext(ctx,
				chunk.ID,
				chunk.DocumentID,
				chunk.Year,
				chunk.Source,
				chunk.Page,
				chunk.Position,
				chunk.StartChar,
				chunk.EndChar,
				chunk.Text,
				chunk.CreatedAt,
			)
			if err != nil {
				return err
			}
		}

		return nil
	})
}

// ChunkCounts returns the number of archived chunks per year
func (s *ArchiveStore) ChunkCounts(ctx context.Context) (map[int]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT year, COUNT(*) FROM chunks GROUP BY year`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var year, count int
		if err := rows.Scan(&year, &count); err != nil {
			return nil, err
		}
		counts[year] = count
	}
	return counts, rows.Err()
}

// Close releases the underlying connection
func (s *ArchiveStore) Close() error {
	return s.db.Close()
}
