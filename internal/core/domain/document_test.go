package domain

import (
	"errors"
	"testing"
	"time"
)

func validSnapshot() *IndexSnapshot {
	return &IndexSnapshot{
		Year:       2023,
		Model:      "test-model",
		Dimensions: 2,
		Vectors:    [][]float32{{1, 0}, {0, 1}},
		Chunks: []Chunk{
			{ID: "c1", Year: 2023, Position: 0, Text: "first"},
			{ID: "c2", Year: 2023, Position: 1, Text: "second"},
		},
		CreatedAt: time.Now().UTC(),
	}
}

func TestIndexSnapshot_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*IndexSnapshot)
		wantErr bool
	}{
		{"valid", func(s *IndexSnapshot) {}, false},
		{"zero year", func(s *IndexSnapshot) { s.Year = 0 }, true},
		{"negative year", func(s *IndexSnapshot) { s.Year = -1 }, true},
		{"zero dimensions", func(s *IndexSnapshot) { s.Dimensions = 0 }, true},
		{"vector count mismatch", func(s *IndexSnapshot) { s.Vectors = s.Vectors[:1] }, true},
		{"vector width mismatch", func(s *IndexSnapshot) { s.Vectors[0] = []float32{1} }, true},
		{"chunk year mismatch", func(s *IndexSnapshot) { s.Chunks[1].Year = 2022 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := validSnapshot()
			tt.mutate(snap)
			err := snap.Validate()
			if tt.wantErr && !errors.Is(err, ErrPersistence) {
				t.Errorf("Validate() error = %v, want ErrPersistence", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
		})
	}
}
