// Package csv renders comma-separated files as a single page of aligned
// columns, header first.
package csv

import (
	"context"
	encodingcsv "encoding/csv"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docuchat/internal/core/domain"
	"github.com/custodia-labs/docuchat/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles CSV documents.
type Extractor struct{}

// New creates a new CSV extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".csv"}
}

// Extract parses the file and renders it as one tabular page.
func (e *Extractor) Extract(_ context.Context, path string) ([]domain.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := encodingcsv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	for i, rec := range records {
		for _, cell := range rec {
			if !utf8.ValidString(cell) {
				return nil, fmt.Errorf("%w: %s record %d is not valid UTF-8", domain.ErrInvalidInput, path, i+1)
			}
		}
	}

	return []domain.Page{domain.NewPage(1, Render(records))}, nil
}

// Render lays records out as right-aligned columns separated by a space.
// Short rows are padded with empty cells.
func Render(records [][]string) string {
	if len(records) == 0 {
		return ""
	}

	cols := 0
	for _, rec := range records {
		if len(rec) > cols {
			cols = len(rec)
		}
	}

	widths := make([]int, cols)
	for _, rec := range records {
		for i, cell := range rec {
			if w := utf8.RuneCountInString(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(records))
	for _, rec := range records {
		cells := make([]string, cols)
		for i := 0; i < cols; i++ {
			cell := ""
			if i < len(rec) {
				cell = rec[i]
			}
			cells[i] = strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell)) + cell
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	return strings.Join(lines, "\n")
}
