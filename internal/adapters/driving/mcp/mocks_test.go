package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docuchat/internal/core/domain"
)

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	result  domain.AnswerResult
	summary string

	lastRequest  domain.AnswerRequest
	lastDocIDs   []string
	lastOwner    string
	lastProvider domain.Provider
}

func (m *mockAnswerService) Answer(_ context.Context, req domain.AnswerRequest) domain.AnswerResult {
	m.lastRequest = req
	return m.result
}

func (m *mockAnswerService) SummarizeDocuments(
	_ context.Context, documentIDs []string, ownerID string, provider domain.Provider,
) string {
	m.lastDocIDs = documentIDs
	m.lastOwner = ownerID
	m.lastProvider = provider
	return m.summary
}

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results []domain.RetrievedChunk
	chunk   *domain.RetrievedChunk
	err     error

	lastTopK      int
	lastThreshold float64
}

func (m *mockRetrievalService) Search(
	_ context.Context, _ string, _ []string, _ string, topK int, threshold float64,
) ([]domain.RetrievedChunk, error) {
	m.lastTopK = topK
	m.lastThreshold = threshold
	return m.results, m.err
}

func (m *mockRetrievalService) ResolveNames(_ context.Context, _ []string, _ string) []string {
	return nil
}

func (m *mockRetrievalService) GetChunk(_ context.Context, _, _ string) (*domain.RetrievedChunk, error) {
	return m.chunk, m.err
}

// mockIngestionService is a mock implementation of driving.IngestionService.
type mockIngestionService struct {
	registered  []domain.Document
	registerErr error
	result      *domain.IngestResult
	err         error
}

func (m *mockIngestionService) Register(_ context.Context, doc domain.Document) error {
	m.registered = append(m.registered, doc)
	return m.registerErr
}

func (m *mockIngestionService) Process(_ context.Context, _, _, _ string) (*domain.IngestResult, error) {
	return m.result, m.err
}

// mockHealthService is a mock implementation of driving.HealthService.
type mockHealthService struct {
	report domain.HealthReport
}

func (m *mockHealthService) Check(_ context.Context) domain.HealthReport {
	return m.report
}

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	if ports.Answer == nil {
		ports.Answer = &mockAnswerService{}
	}
	if ports.Retrieval == nil {
		ports.Retrieval = &mockRetrievalService{}
	}
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}
