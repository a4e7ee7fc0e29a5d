package driven

import (
	"context"

	"github.com/custodia-labs/docuchat/internal/core/domain"
)

// DocumentStore reads and updates document rows.
type DocumentStore interface {
	// EnsureDocument inserts the document if no row with its ID exists.
	// Returns domain.ErrDocumentConflict when the ID has another owner.
	EnsureDocument(ctx context.Context, doc domain.Document) error

	// GetDocument returns the document owned by ownerID.
	// Returns domain.ErrNotFound when absent.
	GetDocument(ctx context.Context, id, ownerID string) (*domain.Document, error)

	// SetStatus updates the processing status outside any ingest transaction.
	// Returns domain.ErrNotFound unless ownerID owns the document.
	SetStatus(ctx context.Context, id, ownerID string, status domain.ProcessingStatus) error

	// DocumentNames returns file names for the given IDs owned by ownerID.
	DocumentNames(ctx context.Context, ids []string, ownerID string) ([]string, error)
}

// EmbedFunc computes the vector for a chunk's text.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// IngestStore opens per-document ingest transactions.
type IngestStore interface {
	// BeginIngest starts a transaction holding one connection for the
	// whole document.
	BeginIngest(ctx context.Context, documentID, ownerID string) (IngestTx, error)
}

// IngestTx is a single-document ingest transaction.
// Nothing written through it is visible until Commit.
type IngestTx interface {
	// AddChunk inserts the chunk, calls embed and inserts the embedding.
	// A failure of this chunk alone is undone and returned wrapped in
	// domain.ErrPerChunkFailure; any other error means the transaction is
	// no longer usable.
	AddChunk(ctx context.Context, chunk domain.Chunk, embed EmbedFunc) error

	// Complete marks the document completed with the given page count.
	// Returns domain.ErrNotFound unless the transaction's owner owns it.
	Complete(ctx context.Context, pageCount int) error

	// Commit makes all writes visible.
	Commit() error

	// Rollback discards all writes. Safe to call after Commit.
	Rollback() error
}

// VectorStore runs similarity queries over stored embeddings.
type VectorStore interface {
	// Nearest returns up to limit chunks ordered by ascending cosine
	// distance, scoped to documentIDs and ownerID.
	Nearest(ctx context.Context, query []float32, documentIDs []string, ownerID string, limit int) ([]domain.RetrievedChunk, error)

	// GetChunk returns a single chunk owned by ownerID.
	// Returns domain.ErrNotFound when absent.
	GetChunk(ctx context.Context, chunkID, ownerID string) (*domain.RetrievedChunk, error)
}

// HealthChecker reports store readiness.
type HealthChecker interface {
	// Ping verifies connectivity.
	Ping(ctx context.Context) error

	// VectorSupport reports whether the vector extension is installed and usable.
	VectorSupport(ctx context.Context) (bool, error)
}
