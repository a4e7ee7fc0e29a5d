// Package chunker splits page text into overlapping, size-bounded chunks
// using a recursive character splitter.
//
// Text is split on the first separator in priority order that occurs in it
// (paragraph, line, sentence end, space, character). Pieces that still
// exceed the chunk size are split again with the remaining separators, and
// small pieces are merged back up to the chunk size with an overlap window.
// Separators stay attached to the start of the piece that follows them.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docuchat/internal/core/domain"
	"github.com/custodia-labs/docuchat/internal/core/ports/driven"
	"github.com/custodia-labs/docuchat/internal/logger"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// DefaultChunkSize is the default maximum number of characters per chunk.
const DefaultChunkSize = 800

// DefaultChunkOverlap is the default number of characters shared between
// consecutive chunks.
const DefaultChunkOverlap = 100

// DefaultOffsetStep is subtracted from a chunk's end offset to get the next
// chunk's start offset, so offsets are approximate.
const DefaultOffsetStep = 50

// DefaultSeparators returns the separators in priority order.
func DefaultSeparators() []string {
	return []string{"\n\n", "\n", ". ", "! ", "? ", " ", ""}
}

// Chunker splits text into chunk candidates.
type Chunker struct {
	chunkSize  int
	overlap    int
	offsetStep int
	separators []string
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the maximum chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithOffsetStep sets the backward offset adjustment applied after each chunk.
func WithOffsetStep(step int) Option {
	return func(c *Chunker) {
		if step >= 0 {
			c.offsetStep = step
		}
	}
}

// WithSeparators replaces the separator list. An empty list is ignored.
func WithSeparators(seps []string) Option {
	return func(c *Chunker) {
		if len(seps) > 0 {
			c.separators = append([]string(nil), seps...)
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		offsetStep: DefaultOffsetStep,
		separators: DefaultSeparators(),
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// ChunkSize returns the configured maximum chunk size.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Chunk splits one page of text into candidates with approximate offsets.
func (c *Chunker) Chunk(text string, pageNumber int) []domain.ChunkCandidate {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	pieces := c.Split(text)
	candidates := make([]domain.ChunkCandidate, 0, len(pieces))

	cursor := 0
	for i, piece := range pieces {
		trimmed := strings.TrimSpace(piece)
		if trimmed == "" {
			continue
		}

		start := cursor
		end := cursor + utf8.RuneCountInString(piece)

		candidates = append(candidates, domain.ChunkCandidate{
			Index:      i,
			PageNumber: pageNumber,
			StartChar:  start,
			EndChar:    end,
			Text:       trimmed,
			WordCount:  len(strings.Fields(piece)),
		})

		cursor = end - c.offsetStep
		if cursor < 0 {
			cursor = 0
		}
	}

	logger.Debug("Page %d split into %d chunks", pageNumber, len(candidates))
	return candidates
}

// Split returns the raw chunk texts for text, trimmed and non-empty.
func (c *Chunker) Split(text string) []string {
	return c.split(text, c.separators)
}

func (c *Chunker) split(text string, separators []string) []string {
	var final []string

	separator := separators[len(separators)-1]
	var rest []string
	for i, s := range separators {
		if s == "" {
			separator = s
			break
		}
		if strings.Contains(text, s) {
			separator = s
			rest = separators[i+1:]
			break
		}
	}

	var good []string
	for _, s := range splitKeep(text, separator) {
		if runeLen(s) < c.chunkSize {
			good = append(good, s)
			continue
		}
		if len(good) > 0 {
			final = append(final, c.merge(good)...)
			good = nil
		}
		if len(rest) == 0 {
			final = append(final, s)
		} else {
			final = append(final, c.split(s, rest)...)
		}
	}
	if len(good) > 0 {
		final = append(final, c.merge(good)...)
	}
	return final
}

// merge combines small splits into chunks no larger than chunkSize, carrying
// up to overlap characters from the end of one chunk into the next.
// Separators are already attached to the splits, so joining adds nothing.
func (c *Chunker) merge(splits []string) []string {
	var docs []string
	var current []string
	total := 0

	for _, d := range splits {
		n := runeLen(d)
		if total+n > c.chunkSize {
			if total > c.chunkSize {
				logger.Debug("Created a chunk of size %d, longer than %d", total, c.chunkSize)
			}
			if len(current) > 0 {
				if doc := join(current); doc != "" {
					docs = append(docs, doc)
				}
				for total > c.overlap || (total+n > c.chunkSize && total > 0) {
					total -= runeLen(current[0])
					current = current[1:]
				}
			}
		}
		current = append(current, d)
		total += n
	}

	if doc := join(current); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

// splitKeep splits text on sep, attaching each separator to the start of
// the piece that follows it. Empty pieces are dropped. An empty sep splits
// into characters.
func splitKeep(text, sep string) []string {
	if sep == "" {
		out := make([]string, 0, len(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}

	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	if parts[0] != "" {
		out = append(out, parts[0])
	}
	for _, p := range parts[1:] {
		out = append(out, sep+p)
	}
	return out
}

func join(parts []string) string {
	return strings.TrimSpace(strings.Join(parts, ""))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
