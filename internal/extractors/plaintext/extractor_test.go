package plaintext

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docuchat/internal/core/domain"
)

func TestExtensions(t *testing.T) {
	assert.Equal(t, []string{".txt"}, New().Extensions())
}

func TestExtract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	text := "Cats are mammals. Dogs are mammals too."
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))

	pages, err := New().Extract(context.Background(), path)

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, text, pages[0].Text)
	assert.Equal(t, len(text), pages[0].CharLength)
	assert.False(t, pages[0].UsedOCR)
}

func TestExtract_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	pages, err := New().Extract(context.Background(), path)

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Zero(t, pages[0].CharLength)
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := New().Extract(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestExtract_InvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latin1.txt")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 'a'}, 0o600))

	pages, err := New().Extract(context.Background(), path)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, pages)
}
