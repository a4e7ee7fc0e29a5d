package extractors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docuchat/internal/core/domain"
)

type stubExtractor struct {
	exts []string
}

func (s *stubExtractor) Extensions() []string { return s.exts }

func (s *stubExtractor) Extract(_ context.Context, _ string) ([]domain.Page, error) {
	return nil, nil
}

func TestRegistry_ForPath(t *testing.T) {
	r := NewRegistry()
	txt := &stubExtractor{exts: []string{".txt"}}
	r.Register(txt)

	got, err := r.ForPath("/uploads/Notes.TXT")
	require.NoError(t, err)
	assert.Same(t, txt, got)
}

func TestRegistry_Unsupported(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubExtractor{exts: []string{".txt"}})

	_, err := r.ForPath("/uploads/image.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), "TXT")

	_, err = r.ForPath("/uploads/noext")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestRegistry_LaterRegistrationWins(t *testing.T) {
	r := NewRegistry()
	first := &stubExtractor{exts: []string{".csv"}}
	second := &stubExtractor{exts: []string{".csv"}}
	r.Register(first)
	r.Register(second)

	got, err := r.ForPath("a.csv")
	require.NoError(t, err)
	assert.Same(t, second, got)
}

// TestNewDefaultRegistry tests that exactly the five formats are accepted
func TestNewDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry()

	assert.Equal(t, []string{".csv", ".docx", ".pdf", ".pptx", ".txt"}, r.Extensions())
	assert.True(t, r.Supports("report.PDF"))
	assert.False(t, r.Supports("report.doc"))
}
