package domain

import "time"

// Document holds the cleaned text of one page (or whole file) of a yearly
// report. Immutable once loaded.
type Document struct {
	ID        string    `json:"id"`
	Year      int       `json:"year"`
	Source    string    `json:"source"` // originating file name or URL
	Page      int       `json:"page"`   // 0 when unknown
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Chunk is a bounded window of a document's text, the unit of indexing and
// retrieval. Never mutated after creation.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Year       int       `json:"year"`
	Source     string    `json:"source"`
	Page       int       `json:"page,omitempty"`
	Position   int       `json:"position"` // chunk position within document
	StartChar  int       `json:"start_char"`
	EndChar    int       `json:"end_char"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// IndexSnapshot is the serialized form of a year's vector index: one vector
// per chunk plus enough metadata to validate embedding-model compatibility
// on load.
type IndexSnapshot struct {
	Year       int         `json:"year"`
	Model      string      `json:"model"`
	Dimensions int         `json:"dimensions"`
	Vectors    [][]float32 `json:"vectors"`
	Chunks     []Chunk     `json:"chunks"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Validate checks the structural integrity of a snapshot. Persisted data is
// untrusted; a snapshot must pass this before it is admitted to the registry.
func (s *IndexSnapshot) Validate() error {
	if s.Year <= 0 {
		return ErrPersistence
	}
	if s.Dimensions <= 0 {
		return ErrPersistence
	}
	if len(s.Vectors) != len(s.Chunks) {
		return ErrPersistence
	}
	for _, v := range s.Vectors {
		if len(v) != s.Dimensions {
			return ErrPersistence
		}
	}
	for _, c := range s.Chunks {
		if c.Year != s.Year {
			return ErrPersistence
		}
	}
	return nil
}
