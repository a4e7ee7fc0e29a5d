package domain

import (
	"context"
	"errors"
	"fmt"
)

// Domain errors represent pipeline failures.
// Adapters wrap these with context; callers test with errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrFileNotFound indicates the file to ingest does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrUnsupportedFormat indicates a file extension with no extractor.
	ErrUnsupportedFormat = errors.New("unsupported file type")

	// ErrEmptyExtraction indicates no text could be extracted from a document.
	ErrEmptyExtraction = errors.New("no text content could be extracted from document")

	// ErrInvalidInput indicates malformed or invalid input, such as text too
	// short to embed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDimensionMismatch indicates the embedding model returned vectors of
	// the wrong size. This is a configuration error and is never retried.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrProviderUnavailable indicates no credentialed LLM client exists for
	// the selected provider.
	ErrProviderUnavailable = errors.New("LLM provider unavailable")

	// ErrProviderCallFailed indicates an LLM call timed out or the API
	// returned an error.
	ErrProviderCallFailed = errors.New("LLM provider call failed")

	// ErrPersistenceFailed indicates a transaction or connection level
	// database failure.
	ErrPersistenceFailed = errors.New("persistence failed")

	// ErrPerChunkFailure indicates a single chunk could not be stored.
	// Ingestion counts and skips these.
	ErrPerChunkFailure = errors.New("chunk failed")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrDocumentConflict indicates a document ID already used by another owner.
	ErrDocumentConflict = errors.New("document belongs to another user")
)

// AsChunkFailure classifies an error raised while storing one chunk.
// Errors that would fail every remaining chunk, such as a wrong model
// dimension or a cancelled context, are returned unchanged; anything else
// is wrapped in ErrPerChunkFailure.
func AsChunkFailure(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrPerChunkFailure),
		errors.Is(err, ErrDimensionMismatch),
		errors.Is(err, ErrEmbeddingUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %w", ErrPerChunkFailure, err)
}
