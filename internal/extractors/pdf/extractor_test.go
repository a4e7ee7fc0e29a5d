package pdf

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReader struct {
	pages []string
	err   error
}

func (s *stubReader) ReadPages(_ context.Context, _ string) ([]string, error) {
	return s.pages, s.err
}

// mockRunner records invocations and answers tesseract with a canned output.
type mockRunner struct {
	calls     [][]string
	ocr       string
	ocrErr    error
	rasterErr error
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.calls = append(m.calls, append([]string{name}, args...))
	switch name {
	case "pdftoppm":
		return nil, m.rasterErr
	case "tesseract":
		return []byte(m.ocr), m.ocrErr
	}
	return nil, errors.New("unexpected command " + name)
}

var richPage = strings.Repeat("Native text layer content. ", 10)

func TestNew_Defaults(t *testing.T) {
	e := New()
	assert.Equal(t, []string{".pdf"}, e.Extensions())
	assert.Equal(t, DefaultDPI, e.dpi)
	assert.Equal(t, DefaultMinNativeChars, e.minNativeChars)
	assert.Equal(t, "tesseract", e.tesseractPath)
	assert.Equal(t, "pdftoppm", e.pdftoppmPath)
}

func TestNew_Options(t *testing.T) {
	runner := &mockRunner{}
	e := New(
		WithRunner(runner),
		WithTesseractPath("/opt/bin/tesseract"),
		WithPdftoppmPath(""),
		WithDPI(150),
		WithMinNativeChars(10),
	)
	assert.Equal(t, runner, e.runner)
	assert.Equal(t, "/opt/bin/tesseract", e.tesseractPath)
	assert.Equal(t, "pdftoppm", e.pdftoppmPath)
	assert.Equal(t, 150, e.dpi)
	assert.Equal(t, 10, e.minNativeChars)
}

func TestExtract_NativeTextSkipsOCR(t *testing.T) {
	runner := &mockRunner{}
	e := New(WithRunner(runner), WithPageReader(&stubReader{pages: []string{"  " + richPage + "\n"}}))

	pages, err := e.Extract(context.Background(), "doc.pdf")

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, strings.TrimSpace(richPage), pages[0].Text)
	assert.False(t, pages[0].UsedOCR)
	assert.True(t, pages[0].HasNativeText)
	assert.Empty(t, runner.calls)
}

func TestExtract_ScannedPageUsesOCR(t *testing.T) {
	runner := &mockRunner{ocr: "  Scanned words\n"}
	e := New(WithRunner(runner), WithPageReader(&stubReader{pages: []string{richPage, ""}}))

	pages, err := e.Extract(context.Background(), "/tmp/doc.pdf")

	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, 2, pages[1].Number)
	assert.Equal(t, "Scanned words", pages[1].Text)
	assert.True(t, pages[1].UsedOCR)
	assert.False(t, pages[1].HasNativeText)
	assert.Equal(t, len("Scanned words"), pages[1].CharLength)

	require.Len(t, runner.calls, 2)
	raster := runner.calls[0]
	assert.Equal(t, []string{"pdftoppm", "-r", "300", "-f", "2", "-l", "2", "-png", "-singlefile", "/tmp/doc.pdf"}, raster[:10])
	ocr := runner.calls[1]
	assert.Equal(t, "tesseract", ocr[0])
	assert.Equal(t, raster[10]+".png", ocr[1])
	assert.Equal(t, []string{"stdout", "--psm", "6", "-c", "preserve_interword_spaces=1"}, ocr[2:])
}

func TestExtract_ThinNativeTextIsCombinedWithOCR(t *testing.T) {
	runner := &mockRunner{ocr: "Figure caption from image"}
	e := New(WithRunner(runner), WithPageReader(&stubReader{pages: []string{"Header"}}))

	pages, err := e.Extract(context.Background(), "doc.pdf")

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "Header\n\nFigure caption from image", pages[0].Text)
	assert.True(t, pages[0].UsedOCR)
	assert.True(t, pages[0].HasNativeText)
}

func TestExtract_OCRFailureKeepsNativeText(t *testing.T) {
	tests := []struct {
		name   string
		runner *mockRunner
	}{
		{"rasterise fails", &mockRunner{rasterErr: errors.New("no pdftoppm")}},
		{"tesseract fails", &mockRunner{ocrErr: errors.New("no tesseract")}},
		{"blank OCR output", &mockRunner{ocr: "   \n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(WithRunner(tt.runner), WithPageReader(&stubReader{pages: []string{"Short"}}))

			pages, err := e.Extract(context.Background(), "doc.pdf")

			require.NoError(t, err)
			require.Len(t, pages, 1)
			assert.Equal(t, "Short", pages[0].Text)
			assert.False(t, pages[0].UsedOCR)
		})
	}
}

func TestExtract_ReaderError(t *testing.T) {
	e := New(WithPageReader(&stubReader{err: errors.New("corrupt")}))

	_, err := e.Extract(context.Background(), "doc.pdf")

	assert.EqualError(t, err, "corrupt")
}

func TestExtract_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := New(WithRunner(&mockRunner{}), WithPageReader(&stubReader{pages: []string{richPage}}))

	_, err := e.Extract(ctx, "doc.pdf")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestNativeReader_MissingFile(t *testing.T) {
	_, err := nativeReader{}.ReadPages(context.Background(), "/nonexistent/file.pdf")
	assert.Error(t, err)
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "pdftoppm")
	assert.Contains(t, instructions, "brew install poppler tesseract")
	assert.Contains(t, instructions, "apt install poppler-utils tesseract-ocr")
}

func TestErrOCRToolNotFound(t *testing.T) {
	assert.Contains(t, ErrOCRToolNotFound.Error(), "tesseract")
}
