package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finsight-labs/reportqa-core/internal/core/domain"
)

// Chunker splits cleaned document text into overlapping windows. Each window
// after the first starts chunkSize-overlap runes after the previous start, so
// adjacent chunks share overlap runes of content. Input text is expected to
// be pre-cleaned by the document loader; the chunker does not re-clean.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker creates a Chunker. Fails with domain.ErrInvalidArgument when
// overlap >= chunkSize, since the window start would never advance.
func NewChunker(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d: %w", chunkSize, domain.ErrInvalidArgument)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("overlap must be non-negative, got %d: %w", overlap, domain.ErrInvalidArgument)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("overlap %d >= chunk size %d: %w", overlap, chunkSize, domain.ErrInvalidArgument)
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Split produces the chunks of one document. The trailing window shorter
// than chunkSize is emitted as-is so no content is dropped.
func (c *Chunker) Split(doc *domain.Document) []domain.Chunk {
	runes := []rune(doc.Text)
	if len(runes) == 0 {
		return nil
	}

	step := c.chunkSize - c.overlap
	now := time.Now().UTC()

	var chunks []domain.Chunk
	for start := 0; start < len(runes); start += step {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Year:       doc.Year,
			Source:     doc.Source,
			Page:       doc.Page,
			Position:   len(chunks),
			StartChar:  start,
			EndChar:    end,
			Text:       string(runes[start:end]),
			CreatedAt:  now,
		})

		if end == len(runes) {
			break
		}
	}
	return chunks
}

// ChunkSize returns the configured window size
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the configured window overlap
func (c *Chunker) Overlap() int { return c.overlap }
