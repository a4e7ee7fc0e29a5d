package driving

import (
	"context"

	"github.com/custodia-labs/docuchat/internal/core/domain"
)

// IngestionService turns an uploaded file into stored chunks and embeddings.
type IngestionService interface {
	// Register records an uploaded document as pending unless it already
	// exists.
	Register(ctx context.Context, doc domain.Document) error

	// Process extracts, chunks, embeds and persists one document.
	// The returned result is always non-nil; on failure its Status is
	// error and the error is also returned.
	Process(ctx context.Context, documentID, filePath, ownerID string) (*domain.IngestResult, error)
}
