package driven

import (
	"context"
	"time"
)

// EmbeddingService generates vector embeddings from text.
// Implementations call a model server; validation of input length and
// output dimension is done by the core embedder that wraps them.
//
// Implementations include:
//   - Ollama (all-minilm)
//   - OpenAI-compatible servers (text-embeddings-inference, LocalAI, vLLM)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the declared embedding vector size (e.g. 384).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// EmbeddingCache stores vectors keyed by model name and text.
type EmbeddingCache interface {
	// Get returns the cached vector and true on a hit.
	Get(ctx context.Context, model, text string) ([]float32, bool, error)

	// Set stores a vector with the given time to live.
	Set(ctx context.Context, model, text string, vector []float32, ttl time.Duration) error

	// Close releases resources.
	Close() error
}
