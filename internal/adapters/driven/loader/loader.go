// Package loader supplies cleaned page text from source files. PDF text
// extraction is out of scope; PDFs must be pre-extracted to the JSON pages
// format before ingestion.
package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/finsight-labs/reportqa-core/internal/core/domain"
	"github.com/finsight-labs/reportqa-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentLoader = (*FileLoader)(nil)

// FileLoader implements driven.DocumentLoader for local files.
// Supported formats:
//   - .txt: the whole file becomes a single page
//   - .json: pre-extracted pages, [{"page": 1, "text": "..."}, ...]
type FileLoader struct{}

// NewFileLoader creates a new FileLoader
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// jsonPage is one entry of the pre-extracted pages format
type jsonPage struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// Load reads a source file and returns its cleaned pages in order.
// Pages that are empty after cleaning are omitted.
func (l *FileLoader) Load(_ context.Context, path string) ([]driven.PageText, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	source := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		text := Clean(string(data))
		if text == "" {
			return nil, nil
		}
		return []driven.PageText{{Source: source, Page: 1, Text: text}}, nil

	case ".json":
		var pages []jsonPage
		if err := json.Unmarshal(data, &pages); err != nil {
			return nil, fmt.Errorf("parse pages from %s: %v: %w", path, err, domain.ErrInvalidArgument)
		}
		out := make([]driven.PageText, 0, len(pages))
		for _, p := range pages {
			text := Clean(p.Text)
			if text == "" {
				continue
			}
			out = append(out, driven.PageText{Source: source, Page: p.Page, Text: text})
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported file type %q: %w", filepath.Ext(path), domain.ErrInvalidArgument)
	}
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	// Characters outside this set tend to be extraction artifacts
	disallowedRe = regexp.MustCompile(`[^\w\s.,!?;:\-()\[\]{}$%&/'"]`)
	yearRe       = regexp.MustCompile(`(\d{4})`)
)

// Clean normalizes whitespace and strips control characters and extraction
// artifacts from raw text.
func Clean(text string) string {
	text = whitespaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
	return disallowedRe.ReplaceAllString(text, "")
}

// YearFromFilename suggests a report year from a file name containing a
// 4-digit year in a plausible range. This is only a suggestion for upload
// convenience; ingestion always takes the year as an explicit input.
func YearFromFilename(name string) (int, bool) {
	match := yearRe.FindString(name)
	if match == "" {
		return 0, false
	}
	year, err := strconv.Atoi(match)
	if err != nil || year < 2000 || year > 2100 {
		return 0, false
	}
	return year, true
}
