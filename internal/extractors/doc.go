// Package extractors provides the registry that dispatches files to
// per-format text extractors by extension. The extractors themselves live
// in subpackages (pdf, docx, plaintext, csv, pptx) and are registered at
// startup with RegisterDefaults.
package extractors
