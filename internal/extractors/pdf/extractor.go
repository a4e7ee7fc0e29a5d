// Package pdf extracts page text from PDF files, falling back to OCR for
// pages whose embedded text layer is too thin to be useful.
//
// Native text comes from github.com/ledongthuc/pdf. OCR shells out to
// pdftoppm (poppler) to rasterise a page and tesseract to read it.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/docuchat/internal/core/domain"
	"github.com/custodia-labs/docuchat/internal/core/ports/driven"
	"github.com/custodia-labs/docuchat/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const (
	// DefaultMinNativeChars is the trimmed native text length at or below
	// which a page is sent to OCR.
	DefaultMinNativeChars = 100

	// DefaultDPI is the rasterisation resolution used for OCR.
	DefaultDPI = 300
)

// ErrOCRToolNotFound is returned by CheckOCRAvailable when pdftoppm or
// tesseract is missing from PATH.
var ErrOCRToolNotFound = errors.New("OCR tools not found: install poppler (pdftoppm) and tesseract")

// CommandRunner executes external commands.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// PageReader returns the native text of every page, in order.
type PageReader interface {
	ReadPages(ctx context.Context, path string) ([]string, error)
}

// nativeReader reads the text layer with ledongthuc/pdf.
type nativeReader struct{}

func (nativeReader) ReadPages(_ context.Context, path string) (pages []string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := r.NumPage()
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			logger.Warn("pdf: page %d text layer unreadable: %v", i, err)
			text = ""
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// Extractor handles PDF documents.
type Extractor struct {
	runner         CommandRunner
	reader         PageReader
	pdftoppmPath   string
	tesseractPath  string
	dpi            int
	minNativeChars int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRunner sets the command runner used for OCR.
func WithRunner(r CommandRunner) Option {
	return func(e *Extractor) { e.runner = r }
}

// WithPageReader sets the native text reader.
func WithPageReader(r PageReader) Option {
	return func(e *Extractor) { e.reader = r }
}

// WithTesseractPath sets the tesseract executable.
func WithTesseractPath(path string) Option {
	return func(e *Extractor) {
		if path != "" {
			e.tesseractPath = path
		}
	}
}

// WithPdftoppmPath sets the pdftoppm executable.
func WithPdftoppmPath(path string) Option {
	return func(e *Extractor) {
		if path != "" {
			e.pdftoppmPath = path
		}
	}
}

// WithDPI sets the OCR rasterisation resolution.
func WithDPI(dpi int) Option {
	return func(e *Extractor) {
		if dpi > 0 {
			e.dpi = dpi
		}
	}
}

// WithMinNativeChars sets the OCR fallback threshold.
func WithMinNativeChars(n int) Option {
	return func(e *Extractor) {
		if n >= 0 {
			e.minNativeChars = n
		}
	}
}

// New creates a PDF extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		runner:         execRunner{},
		reader:         nativeReader{},
		pdftoppmPath:   "pdftoppm",
		tesseractPath:  "tesseract",
		dpi:            DefaultDPI,
		minNativeChars: DefaultMinNativeChars,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".pdf"}
}

// Extract returns one page per PDF page. A page whose trimmed native text
// is at most the configured threshold is rasterised and OCR'd; OCR
// failures are logged and leave the native text in place.
func (e *Extractor) Extract(ctx context.Context, path string) ([]domain.Page, error) {
	native, err := e.reader.ReadPages(ctx, path)
	if err != nil {
		return nil, err
	}
	logger.Info("Processing PDF with %d pages", len(native))

	pages := make([]domain.Page, 0, len(native))
	for i, raw := range native {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		number := i + 1
		nativeText := strings.TrimSpace(raw)

		var ocrText string
		if domain.CharCount(nativeText) <= e.minNativeChars {
			logger.Debug("Low text on page %d, attempting OCR", number)
			ocrText, err = e.ocrPage(ctx, path, number)
			if err != nil {
				logger.Warn("OCR failed for page %d: %v", number, err)
				ocrText = ""
			}
		}

		pages = append(pages, combine(number, nativeText, ocrText))
	}
	return pages, nil
}

// combine joins native and OCR text for a page.
func combine(number int, nativeText, ocrText string) domain.Page {
	ocrText = strings.TrimSpace(ocrText)
	text := nativeText
	if ocrText != "" {
		if text != "" {
			text += "\n\n" + ocrText
		} else {
			text = ocrText
		}
	}

	page := domain.NewPage(number, text)
	page.UsedOCR = ocrText != ""
	page.HasNativeText = nativeText != ""
	return page
}

// ocrPage rasterises a single page and runs tesseract over the image.
func (e *Extractor) ocrPage(ctx context.Context, path string, number int) (string, error) {
	dir, err := os.MkdirTemp("", "docuchat-ocr-*")
	if err != nil {
		return "", fmt.Errorf("create OCR workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	prefix := filepath.Join(dir, "page")
	page := strconv.Itoa(number)

	if _, err := e.runner.Run(ctx, e.pdftoppmPath,
		"-r", strconv.Itoa(e.dpi),
		"-f", page, "-l", page,
		"-png", "-singlefile",
		path, prefix,
	); err != nil {
		return "", fmt.Errorf("rasterise page: %w", err)
	}

	out, err := e.runner.Run(ctx, e.tesseractPath,
		prefix+".png", "stdout",
		"--psm", "6",
		"-c", "preserve_interword_spaces=1",
	)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil
}

// CheckOCRAvailable reports whether the OCR toolchain is on PATH.
func CheckOCRAvailable() error {
	for _, tool := range []string{"pdftoppm", "tesseract"} {
		if _, err := exec.LookPath(tool); err != nil {
			return ErrOCRToolNotFound
		}
	}
	return nil
}

// InstallInstructions returns platform hints for installing the OCR tools.
func InstallInstructions() string {
	return `PDF OCR requires pdftoppm (poppler) and tesseract.

  macOS:         brew install poppler tesseract
  Ubuntu/Debian: apt install poppler-utils tesseract-ocr
  Fedora:        dnf install poppler-utils tesseract
  Arch:          pacman -S poppler tesseract`
}
