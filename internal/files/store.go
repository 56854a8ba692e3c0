// Package files manages the upload directory for report source files.
// Storage policy only; nothing here touches the index.
package files

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/finsight-labs/reportqa-core/internal/core/domain"
)

// Uploads larger than this are rejected
const maxFileSize = 50 * 1024 * 1024 // 50MB

var allowedExtensions = map[string]bool{
	".txt":  true,
	".json": true,
	".pdf":  true,
}

// FileInfo describes one stored file
type FileInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Store manages files in a single upload directory
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir, creating it if needed
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload directory is required: %w", domain.ErrInvalidArgument)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save validates and stores an uploaded file, returning its stored path.
// An existing file with the same name is overwritten.
func (s *Store) Save(name string, size int64, r io.Reader) (string, error) {
	if err := s.validate(name, size); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, filepath.Base(name))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	defer f.Close()

	written, err := io.Copy(f, io.LimitReader(r, maxFileSize+1))
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if written > maxFileSize {
		os.Remove(path)
		return "", fmt.Errorf("file exceeds %d bytes: %w", maxFileSize, domain.ErrInvalidArgument)
	}

	return path, nil
}

// List returns the stored files sorted by name
func (s *Store) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list upload directory: %w", err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:       entry.Name(),
			Size:       info.Size(),
			ModifiedAt: info.ModTime().UTC(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Delete removes a stored file.
// Returns domain.ErrNotFound when the file does not exist.
func (s *Store) Delete(name string) error {
	path := filepath.Join(s.dir, filepath.Base(name))
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", name, domain.ErrNotFound)
		}
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// CleanupResult reports what a Cleanup pass removed
type CleanupResult struct {
	CleanedFiles []string `json:"cleaned_files"`
	CleanedSize  int64    `json:"cleaned_size"`
	TotalCleaned int      `json:"total_cleaned"`
}

// Cleanup removes stored files that no longer pass validation, such as files
// with a disallowed extension or over the size limit placed in the directory
// outside of Save. Files that cannot be removed are skipped.
func (s *Store) Cleanup() (*CleanupResult, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list upload directory: %w", err)
	}

	result := &CleanupResult{CleanedFiles: []string{}}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if s.validate(entry.Name(), info.Size()) == nil {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			continue
		}
		result.CleanedFiles = append(result.CleanedFiles, entry.Name())
		result.CleanedSize += info.Size()
	}
	result.TotalCleaned = len(result.CleanedFiles)
	return result, nil
}

// Path returns the stored path for a file name.
// Returns domain.ErrNotFound when the file does not exist.
func (s *Store) Path(name string) (string, error) {
	path := filepath.Join(s.dir, filepath.Base(name))
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", name, domain.ErrNotFound)
		}
		return "", err
	}
	return path, nil
}

func (s *Store) validate(name string, size int64) error {
	base := filepath.Base(name)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return fmt.Errorf("invalid file name %q: %w", name, domain.ErrInvalidArgument)
	}
	ext := strings.ToLower(filepath.Ext(base))
	if !allowedExtensions[ext] {
		return fmt.Errorf("file type %q is not allowed: %w", ext, domain.ErrInvalidArgument)
	}
	if size > maxFileSize {
		return fmt.Errorf("file exceeds %d bytes: %w", maxFileSize, domain.ErrInvalidArgument)
	}
	return nil
}
