// Package fsindex persists index snapshots on the local filesystem, one
// directory per report year.
package fsindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/finsight-labs/reportqa-core/internal/core/domain"
	"github.com/finsight-labs/reportqa-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.IndexStore = (*Store)(nil)

const (
	yearDirPrefix = "year_"
	metaFileName  = "meta.json"
	indexFileName = "index.json"
)

// indexMeta is the per-year metadata file. It is read before the (much
// larger) index file so incompatible snapshots are rejected cheaply.
type indexMeta struct {
	Year       int    `json:"year"`
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions"`
	Chunks     int    `json:"chunks"`
	CreatedAt  string `json:"created_at"`
}

// Store implements driven.IndexStore on a local directory
type Store struct {
	root string
}

// NewStore creates a Store rooted at dir, creating it if needed
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("index directory is required: %w", domain.ErrInvalidArgument)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %v: %w", err, domain.ErrPersistence)
	}
	return &Store{root: dir}, nil
}

// Save writes the snapshot to a staging directory and renames it into place.
// A previous snapshot is renamed aside rather than deleted first, so during a
// replacement a concurrent Load finds either a complete snapshot or, for the
// instant between the two renames, none at all; never a half-written one.
func (s *Store) Save(_ context.Context, snap *domain.IndexSnapshot) error {
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("refusing to persist invalid snapshot for year %d: %w", snap.Year, err)
	}

	staging, err := os.MkdirTemp(s.root, yearDirPrefix+"staging-")
	if err != nil {
		return fmt.Errorf("create staging directory: %v: %w", err, domain.ErrPersistence)
	}
	defer os.RemoveAll(staging)

	meta := indexMeta{
		Year:       snap.Year,
		Model:      snap.Model,
		Dimensions: snap.Dimensions,
		Chunks:     len(snap.Chunks),
		CreatedAt:  snap.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if err := writeJSONFile(filepath.Join(staging, metaFileName), meta); err != nil {
		return err
	}
	if err := writeJSONFile(filepath.Join(staging, indexFileName), snap); err != nil {
		return err
	}

	// Move any previous snapshot aside before publishing, so the year
	// directory is never absent longer than the gap between two renames.
	// The aside name must not carry the year prefix or Years would list it.
	final := s.yearDir(snap.Year)
	retired := filepath.Join(s.root, fmt.Sprintf(".retired-%d", snap.Year))
	if err := os.RemoveAll(retired); err != nil {
		return fmt.Errorf("remove stale snapshot for year %d: %v: %w", snap.Year, err, domain.ErrPersistence)
	}
	hadPrevious := false
	if _, err := os.Stat(final); err == nil {
		if err := os.Rename(final, retired); err != nil {
			return fmt.Errorf("retire previous snapshot for year %d: %v: %w", snap.Year, err, domain.ErrPersistence)
		}
		hadPrevious = true
	}
	if err := os.Rename(staging, final); err != nil {
		if hadPrevious {
			os.Rename(retired, final)
		}
		return fmt.Errorf("publish snapshot for year %d: %v: %w", snap.Year, err, domain.ErrPersistence)
	}
	if hadPrevious {
		os.RemoveAll(retired)
	}
	return nil
}

// Load reads and validates the persisted snapshot for a year
func (s *Store) Load(_ context.Context, year int) (*domain.IndexSnapshot, error) {
	dir := s.yearDir(year)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("year %d: %w", year, domain.ErrIndexNotFound)
	}

	var meta indexMeta
	if err := readJSONFile(filepath.Join(dir, metaFileName), &meta); err != nil {
		return nil, fmt.Errorf("read metadata for year %d: %w", year, err)
	}
	if meta.Year != year {
		return nil, fmt.Errorf("metadata year %d does not match directory year %d: %w", meta.Year, year, domain.ErrPersistence)
	}

	var snap domain.IndexSnapshot
	if err := readJSONFile(filepath.Join(dir, indexFileName), &snap); err != nil {
		return nil, fmt.Errorf("read index for year %d: %w", year, err)
	}

	// Stored data is untrusted; validate structure before handing it out.
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("snapshot for year %d failed validation: %w", year, err)
	}
	if snap.Year != year || snap.Model != meta.Model || snap.Dimensions != meta.Dimensions {
		return nil, fmt.Errorf("snapshot for year %d does not match its metadata: %w", year, domain.ErrPersistence)
	}

	return &snap, nil
}

// Years lists every year with a persisted snapshot, in ascending order
func (s *Store) Years(_ context.Context) ([]int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list index directory: %v: %w", err, domain.ErrPersistence)
	}

	var years []int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		var year int
		if _, err := fmt.Sscanf(entry.Name(), yearDirPrefix+"%d", &year); err != nil {
			continue
		}
		if year > 0 {
			years = append(years, year)
		}
	}
	sort.Ints(years)
	return years, nil
}

// Delete removes the persisted snapshot for a year, if any
func (s *Store) Delete(_ context.Context, year int) error {
	if err := os.RemoveAll(s.yearDir(year)); err != nil {
		return fmt.Errorf("delete snapshot for year %d: %v: %w", year, err, domain.ErrPersistence)
	}
	return nil
}

func (s *Store) yearDir(year int) string {
	return filepath.Join(s.root, fmt.Sprintf("%s%d", yearDirPrefix, year))
}

func writeJSONFile(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %v: %w", filepath.Base(path), err, domain.ErrPersistence)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %v: %w", filepath.Base(path), err, domain.ErrPersistence)
	}
	return nil
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %v: %w", filepath.Base(path), err, domain.ErrPersistence)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %v: %w", filepath.Base(path), err, domain.ErrPersistence)
	}
	return nil
}
