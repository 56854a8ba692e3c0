package domain

import "time"

// RetrievedPassage is one scored retrieval hit. Produced per query, never
// persisted.
type RetrievedPassage struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"` // similarity, normalized to [0,1], higher is better
}

// Citation is a provenance record linking an answer to the source passage it
// was derived from.
type Citation struct {
	Text   string `json:"text"`
	Page   int    `json:"page,omitempty"`
	Source string `json:"source"`
}

// QAResult is the answer for one (query, year) pair. Constructed fresh per
// query; immutable.
type QAResult struct {
	Answer         string        `json:"answer"`
	Citations      []Citation    `json:"citations"`
	Confidence     float64       `json:"confidence"` // always in [0,1]
	Year           int           `json:"year"`
	Query          string        `json:"query"`
	ProcessingTime time.Duration `json:"processing_time" swaggertype:"integer" example:"1500000"`
}

// Stats summarizes the state of the registry for callers.
type Stats struct {
	AvailableYears []int       `json:"available_years"`
	TotalYears     int         `json:"total_years"`
	ChunksPerYear  map[int]int `json:"chunks_per_year"`
	TotalChunks    int         `json:"total_chunks"`
	LastUpdated    time.Time   `json:"last_updated"`
}
