package driving

import (
	"context"

	"github.com/custodia-labs/docuchat/internal/core/domain"
)

// RetrievalService runs semantic search over a user's documents.
type RetrievalService interface {
	// Search returns up to topK chunks in descending similarity.
	// The threshold is advisory and never removes results.
	Search(ctx context.Context, query string, documentIDs []string, ownerID string, topK int, threshold float64) ([]domain.RetrievedChunk, error)

	// ResolveNames returns file names for the owner's IDs, or nil on lookup failure.
	ResolveNames(ctx context.Context, documentIDs []string, ownerID string) []string

	// GetChunk returns one chunk by ID for reference display.
	GetChunk(ctx context.Context, chunkID, ownerID string) (*domain.RetrievedChunk, error)
}
