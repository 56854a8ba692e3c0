package driven

import "context"

// PageText is one page of cleaned text supplied by a document loader.
type PageText struct {
	Source string
	Page   int
	Text   string
}

// DocumentLoader supplies cleaned page text from source files. The core
// consumes this output; text extraction itself lives behind this port.
type DocumentLoader interface {
	// Load reads a source file and returns its pages in order.
	// Pages with no content after cleaning are omitted.
	Load(ctx context.Context, path string) ([]PageText, error)
}
