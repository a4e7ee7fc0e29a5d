package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/custodia-labs/docuchat/internal/core/domain"
	"github.com/custodia-labs/docuchat/internal/core/ports/driven"
)

// --- Mock implementations ---

// hashEmbeddingBackend implements driven.EmbeddingService with a
// deterministic bag-of-words vector, so similar texts score higher.
type hashEmbeddingBackend struct {
	mu        sync.Mutex
	dims      int
	calls     int
	batches   int
	failOn    map[string]error
	returnLen int
	closed    bool
}

func newHashBackend() *hashEmbeddingBackend {
	return &hashEmbeddingBackend{dims: 384}
}

func (m *hashEmbeddingBackend) vector(text string) []float32 {
	n := m.dims
	if m.returnLen > 0 {
		n = m.returnLen
	}
	vec := make([]float32, n)
	for _, word := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[int(h.Sum32())%n]++
	}
	return vec
}

func (m *hashEmbeddingBackend) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for marker, err := range m.failOn {
		if strings.Contains(text, marker) {
			return nil, err
		}
	}
	return m.vector(text), nil
}

func (m *hashEmbeddingBackend) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batches++
	m.mu.Unlock()
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *hashEmbeddingBackend) Dimensions() int              { return m.dims }
func (m *hashEmbeddingBackend) ModelName() string            { return "hash-embed" }
func (m *hashEmbeddingBackend) Ping(_ context.Context) error { return nil }

func (m *hashEmbeddingBackend) Close() error {
	m.closed = true
	return nil
}

func (m *hashEmbeddingBackend) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockCache implements driven.EmbeddingCache in memory.
type mockCache struct {
	mu     sync.Mutex
	values map[string][]float32
	getErr error
	closed bool
}

func newMockCache() *mockCache {
	return &mockCache{values: make(map[string][]float32)}
}

func (c *mockCache) Get(_ context.Context, model, text string) ([]float32, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.values[model+"|"+text]
	return v, ok, nil
}

func (c *mockCache) Set(_ context.Context, model, text string, vec []float32, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[model+"|"+text] = vec
	return nil
}

func (c *mockCache) Close() error {
	c.closed = true
	return nil
}

// mockLLM implements driven.LLMService. respond picks the reply for a
// prompt; every request is recorded.
type mockLLM struct {
	mu       sync.Mutex
	provider domain.Provider
	respond  func(req driven.CompletionRequest) (string, error)
	requests []driven.CompletionRequest
}

func newMockLLM(p domain.Provider, respond func(driven.CompletionRequest) (string, error)) *mockLLM {
	return &mockLLM{provider: p, respond: respond}
}

func (m *mockLLM) Complete(_ context.Context, req driven.CompletionRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.respond == nil {
		return "", errors.New("no response configured")
	}
	return m.respond(req)
}

func (m *mockLLM) Provider() domain.Provider    { return m.provider }
func (m *mockLLM) ModelName() string            { return "mock-" + string(m.provider) }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

func (m *mockLLM) prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.requests))
	for i, r := range m.requests {
		out[i] = r.Prompt
	}
	return out
}

// Test prompt templates. Each starts with a tag so mockLLM can route.
var testPrompts = map[string]string{
	driven.PromptSystem:          "SYSTEM",
	driven.PromptQuestionRewrite: "REWRITE\n%s\nQ: %s",
	driven.PromptAnswer:          "ANSWER\n%s\nQ: %s",
	driven.PromptFollowups:       "FOLLOWUPS\n%s\nQ: %s",
	driven.PromptSummariseText:   "SUMMARISE\n%s",
	driven.PromptDocumentSummary: "OVERVIEW\n%s",
}

// mockPromptStore implements driven.PromptStore from a map.
type mockPromptStore struct {
	prompts map[string]string
}

func newMockPromptStore() *mockPromptStore {
	return &mockPromptStore{prompts: testPrompts}
}

func (s *mockPromptStore) Load(name string) (string, error) {
	p, ok := s.prompts[name]
	if !ok {
		return "", fmt.Errorf("prompt %s: %w", name, domain.ErrNotFound)
	}
	return p, nil
}

func (s *mockPromptStore) Reload() {}

// routeByTag answers each prompt kind with a fixed reply.
func routeByTag(replies map[string]string) func(driven.CompletionRequest) (string, error) {
	return func(req driven.CompletionRequest) (string, error) {
		tag, _, _ := strings.Cut(req.Prompt, "\n")
		reply, ok := replies[tag]
		if !ok {
			return "", fmt.Errorf("%w: no reply for %s", domain.ErrProviderCallFailed, tag)
		}
		return reply, nil
	}
}

// stubRetriever implements driving.RetrievalService with canned results.
type stubRetriever struct {
	mu        sync.Mutex
	chunks    []domain.RetrievedChunk
	err       error
	names     []string
	nameOwner string
	queries   []string
	topKs     []int
	threshold []float64
}

func (r *stubRetriever) Search(
	_ context.Context, query string, _ []string, _ string, topK int, threshold float64,
) ([]domain.RetrievedChunk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, query)
	r.topKs = append(r.topKs, topK)
	r.threshold = append(r.threshold, threshold)
	if r.err != nil {
		return nil, r.err
	}
	return r.chunks, nil
}

func (r *stubRetriever) ResolveNames(_ context.Context, _ []string, ownerID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nameOwner = ownerID
	return r.names
}

func (r *stubRetriever) GetChunk(_ context.Context, _, _ string) (*domain.RetrievedChunk, error) {
	return nil, domain.ErrNotFound
}

// stubExtractor implements driven.Extractor with fixed pages.
type stubExtractor struct {
	exts  []string
	pages []domain.Page
	err   error
}

func (e *stubExtractor) Extensions() []string { return e.exts }

func (e *stubExtractor) Extract(_ context.Context, _ string) ([]domain.Page, error) {
	return e.pages, e.err
}
