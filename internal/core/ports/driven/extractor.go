package driven

import (
	"context"

	"github.com/custodia-labs/docuchat/internal/core/domain"
)

// Extractor turns a file on disk into per-page text.
// Each extractor handles one or more file extensions.
type Extractor interface {
	// Extensions returns the lower-case extensions handled, with the dot.
	Extensions() []string

	// Extract reads the file and returns its pages in order.
	Extract(ctx context.Context, path string) ([]domain.Page, error)
}

// ExtractorRegistry selects an extractor by file extension.
type ExtractorRegistry interface {
	// Register adds an extractor for all of its extensions.
	Register(e Extractor)

	// ForPath returns the extractor for the path's extension.
	// Returns domain.ErrUnsupportedFormat when none matches.
	ForPath(path string) (Extractor, error)

	// Extensions returns all registered extensions, sorted.
	Extensions() []string
}

// Chunker splits page text into chunk candidates.
type Chunker interface {
	// Chunk returns candidates for one page. Blank text returns nil.
	Chunk(text string, pageNumber int) []domain.ChunkCandidate
}
