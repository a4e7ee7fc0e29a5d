package extractors

import (
	"github.com/custodia-labs/docuchat/internal/extractors/csv"
	"github.com/custodia-labs/docuchat/internal/extractors/docx"
	"github.com/custodia-labs/docuchat/internal/extractors/pdf"
	"github.com/custodia-labs/docuchat/internal/extractors/plaintext"
	"github.com/custodia-labs/docuchat/internal/extractors/pptx"
)

// RegisterDefaults registers the extractor for every supported format.
// pdfOpts configure OCR for the PDF extractor.
func RegisterDefaults(r *Registry, pdfOpts ...pdf.Option) {
	r.Register(pdf.New(pdfOpts...))
	r.Register(docx.New())
	r.Register(plaintext.New())
	r.Register(csv.New())
	r.Register(pptx.New())
}

// NewDefaultRegistry returns a registry with every supported format.
func NewDefaultRegistry(pdfOpts ...pdf.Option) *Registry {
	r := NewRegistry()
	RegisterDefaults(r, pdfOpts...)
	return r
}
