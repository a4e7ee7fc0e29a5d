package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/docuchat/internal/core/domain"
	"github.com/custodia-labs/docuchat/internal/core/ports/driven"
	"github.com/custodia-labs/docuchat/internal/logger"
)

// Ensure Embedder implements the interface.
var _ driven.EmbeddingService = (*Embedder)(nil)

const (
	// MinEmbedChars is the shortest trimmed input accepted for embedding.
	MinEmbedChars = 3

	warmupText    = "test sentence"
	warmupTimeout = 60 * time.Second
)

// Embedder wraps a model backend with input validation, dimension checks,
// a one-time warm-up and an optional vector cache.
//
// It is constructed once at startup and shared by ingestion and retrieval.
type Embedder struct {
	backend  driven.EmbeddingService
	cache    driven.EmbeddingCache
	cacheTTL time.Duration

	once    sync.Once
	warmErr error
}

// EmbedderOption configures an Embedder.
type EmbedderOption func(*Embedder)

// WithEmbeddingCache enables caching of vectors for ttl.
func WithEmbeddingCache(cache driven.EmbeddingCache, ttl time.Duration) EmbedderOption {
	return func(e *Embedder) {
		e.cache = cache
		e.cacheTTL = ttl
	}
}

// NewEmbedder creates an embedder over the given backend.
func NewEmbedder(backend driven.EmbeddingService, opts ...EmbedderOption) *Embedder {
	e := &Embedder{backend: backend}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// warmUp loads the model on first use and verifies its output size.
// The outcome is remembered for the life of the process.
func (e *Embedder) warmUp(ctx context.Context) error {
	e.once.Do(func() {
		if e.backend == nil {
			e.warmErr = domain.ErrEmbeddingUnavailable
			return
		}

		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), warmupTimeout)
		defer cancel()

		logger.Debug("Warming up embedding model %s", e.backend.ModelName())
		vec, err := e.backend.Embed(wctx, warmupText)
		if err != nil {
			e.warmErr = fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
			return
		}
		e.warmErr = e.checkDimensions(vec)
	})
	return e.warmErr
}

func (e *Embedder) checkDimensions(vec []float32) error {
	if want := e.backend.Dimensions(); len(vec) != want {
		return fmt.Errorf("%w: model %s returned %d values, expected %d",
			domain.ErrDimensionMismatch, e.backend.ModelName(), len(vec), want)
	}
	return nil
}

func validateEmbedInput(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("%w: text is empty", domain.ErrInvalidInput)
	}
	if domain.CharCount(trimmed) < MinEmbedChars {
		return "", fmt.Errorf("%w: text must be at least %d characters", domain.ErrInvalidInput, MinEmbedChars)
	}
	return trimmed, nil
}

// Embed validates and embeds a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	trimmed, err := validateEmbedInput(text)
	if err != nil {
		return nil, err
	}
	if err := e.warmUp(ctx); err != nil {
		return nil, err
	}

	if vec, ok := e.cached(ctx, trimmed); ok {
		return vec, nil
	}

	vec, err := e.backend.Embed(ctx, trimmed)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if err := e.checkDimensions(vec); err != nil {
		return nil, err
	}

	e.store(ctx, trimmed, vec)
	return vec, nil
}

// EmbedBatch embeds every non-blank text. Blank inputs are dropped, so
// the result may be shorter than texts.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	inputs := make([]string, 0, len(texts))
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		trimmed, err := validateEmbedInput(text)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, trimmed)
	}
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}

	if err := e.warmUp(ctx); err != nil {
		return nil, err
	}

	out := make([][]float32, len(inputs))
	var missing []int
	for i, text := range inputs {
		if vec, ok := e.cached(ctx, text); ok {
			out[i] = vec
			continue
		}
		missing = append(missing, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	pending := make([]string, len(missing))
	for j, i := range missing {
		pending[j] = inputs[i]
	}
	vecs, err := e.backend.EmbedBatch(ctx, pending)
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	if len(vecs) != len(pending) {
		return nil, fmt.Errorf("embed batch: got %d vectors for %d inputs", len(vecs), len(pending))
	}

	for j, i := range missing {
		if err := e.checkDimensions(vecs[j]); err != nil {
			return nil, err
		}
		out[i] = vecs[j]
		e.store(ctx, inputs[i], vecs[j])
	}
	return out, nil
}

func (e *Embedder) cached(ctx context.Context, text string) ([]float32, bool) {
	if e.cache == nil {
		return nil, false
	}
	vec, ok, err := e.cache.Get(ctx, e.backend.ModelName(), text)
	if err != nil {
		logger.Warn("Embedding cache read failed: %v", err)
		return nil, false
	}
	if !ok || len(vec) != e.backend.Dimensions() {
		return nil, false
	}
	return vec, true
}

func (e *Embedder) store(ctx context.Context, text string, vec []float32) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Set(ctx, e.backend.ModelName(), text, vec, e.cacheTTL); err != nil {
		logger.Warn("Embedding cache write failed: %v", err)
	}
}

// Dimensions returns the backend's declared vector size.
func (e *Embedder) Dimensions() int {
	if e.backend == nil {
		return 0
	}
	return e.backend.Dimensions()
}

// ModelName returns the backend model name.
func (e *Embedder) ModelName() string {
	if e.backend == nil {
		return ""
	}
	return e.backend.ModelName()
}

// Ping checks the backend is reachable.
func (e *Embedder) Ping(ctx context.Context) error {
	if e.backend == nil {
		return domain.ErrEmbeddingUnavailable
	}
	return e.backend.Ping(ctx)
}

// Ready reports whether the warm-up succeeded, running it if needed.
func (e *Embedder) Ready(ctx context.Context) error {
	return e.warmUp(ctx)
}

// Close releases the backend and cache.
func (e *Embedder) Close() error {
	var errs []error
	if e.backend != nil {
		errs = append(errs, e.backend.Close())
	}
	if e.cache != nil {
		errs = append(errs, e.cache.Close())
	}
	return errors.Join(errs...)
}
