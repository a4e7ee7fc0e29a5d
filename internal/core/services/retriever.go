package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/custodia-labs/docuchat/internal/core/domain"
	"github.com/custodia-labs/docuchat/internal/core/ports/driven"
	"github.com/custodia-labs/docuchat/internal/core/ports/driving"
	"github.com/custodia-labs/docuchat/internal/logger"
	"github.com/custodia-labs/docuchat/internal/metrics"
	"github.com/custodia-labs/docuchat/internal/textutil"
)

// Ensure Retriever implements the interface.
var _ driving.RetrievalService = (*Retriever)(nil)

const (
	// DefaultTopK is used when a non-positive topK is requested.
	DefaultTopK = 5

	// DefaultThreshold is the advisory similarity threshold.
	DefaultThreshold = 0.7

	// dedupeKeyChars is how much of a chunk's text identifies a duplicate.
	dedupeKeyChars = 100
)

// Retriever finds the chunks most similar to a query within a set of
// documents owned by one user.
type Retriever struct {
	embedder  driven.EmbeddingService
	vectors   driven.VectorStore
	documents driven.DocumentStore
	metrics   *metrics.Metrics
}

// NewRetriever creates a new retriever.
func NewRetriever(
	embedder driven.EmbeddingService,
	vectors driven.VectorStore,
	documents driven.DocumentStore,
) *Retriever {
	return &Retriever{
		embedder:  embedder,
		vectors:   vectors,
		documents: documents,
	}
}

// SetMetrics enables retrieval metrics.
func (r *Retriever) SetMetrics(m *metrics.Metrics) {
	r.metrics = m
}

// Search returns at most topK chunks, best first. The store is asked for
// twice as many rows so near-duplicate chunks can be collapsed without
// starving the result. The threshold only affects logging.
func (r *Retriever) Search(
	ctx context.Context, query string, documentIDs []string, ownerID string, topK int, threshold float64,
) ([]domain.RetrievedChunk, error) {
	if len(documentIDs) == 0 {
		logger.Debug("No documents selected, skipping vector search")
		return []domain.RetrievedChunk{}, nil
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	start := time.Now()
	defer func() { r.metrics.ObserveRetrieval(time.Since(start)) }()

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	logger.Debug("Vector search for query: %q", textutil.Preview(query))

	rows, err := r.vectors.Nearest(ctx, vec, documentIDs, ownerID, topK*2)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := Dedupe(rows)
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > topK {
		results = results[:topK]
	}

	below := 0
	for _, c := range results {
		if c.Similarity < threshold {
			below++
		}
	}
	logger.Info("Found %d relevant chunks (threshold: %.2f, %d below)", len(results), threshold, below)

	return results, nil
}

// Dedupe collapses chunks whose first 100 characters match, keeping the
// more similar one. First-seen order is preserved.
func Dedupe(rows []domain.RetrievedChunk) []domain.RetrievedChunk {
	index := make(map[string]int, len(rows))
	out := make([]domain.RetrievedChunk, 0, len(rows))
	for _, row := range rows {
		key := textutil.Prefix(row.Text, dedupeKeyChars)
		if i, ok := index[key]; ok {
			if out[i].Similarity < row.Similarity {
				out[i] = row
			}
			continue
		}
		index[key] = len(out)
		out = append(out, row)
	}
	return out
}

// ResolveNames returns file names for the owner's IDs. Lookup failures are
// logged and yield nil.
func (r *Retriever) ResolveNames(ctx context.Context, documentIDs []string, ownerID string) []string {
	if len(documentIDs) == 0 {
		return nil
	}
	names, err := r.documents.DocumentNames(ctx, documentIDs, ownerID)
	if err != nil {
		logger.Warn("Get document names failed: %v", err)
		return nil
	}
	return names
}

// GetChunk returns one chunk for reference display.
func (r *Retriever) GetChunk(ctx context.Context, chunkID, ownerID string) (*domain.RetrievedChunk, error) {
	chunk, err := r.vectors.GetChunk(ctx, chunkID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get chunk %s: %w", chunkID, err)
	}
	return chunk, nil
}
