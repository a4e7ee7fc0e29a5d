package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docuchat/internal/core/domain"
)

func sampleChunk() domain.RetrievedChunk {
	return domain.RetrievedChunk{
		Chunk: domain.Chunk{
			ID:         "chunk-1",
			DocumentID: "doc-1",
			OwnerID:    "user-1",
			Index:      2,
			PageNumber: 4,
			StartChar:  100,
			EndChar:    180,
			Text:       "Cats sleep most of the day.",
		},
		DocumentName: "cats.pdf",
		Similarity:   0.83,
	}
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("passes the request through", func(t *testing.T) {
		answers := &mockAnswerService{result: domain.AnswerResult{
			Answer:             "They sleep a lot.",
			References:         []domain.RetrievedChunk{sampleChunk()},
			SuggestedQuestions: []string{"Why do cats sleep?"},
			Provider:           domain.ProviderCerebras,
		}}
		server := newTestServer(t, &Ports{Answer: answers})

		_, output, err := server.handleAsk(ctx, nil, AskInput{
			Question:    "How long do cats sleep?",
			DocumentIDs: []string{"doc-1"},
			OwnerID:     "user-1",
			SessionID:   "session-9",
			History:     []TurnInput{{Sender: "user", Text: "hi"}, {Sender: "ai", Text: "hello"}},
			Provider:    " Cerebras ",
		})

		require.NoError(t, err)
		assert.Equal(t, "They sleep a lot.", output.Answer)
		assert.Equal(t, []string{"Why do cats sleep?"}, output.SuggestedQuestions)
		assert.Equal(t, "cerebras", output.Provider)
		require.Len(t, output.References, 1)
		assert.Equal(t, "cats.pdf", output.References[0].DocumentName)
		assert.Equal(t, 4, output.References[0].PageNumber)
		assert.Equal(t, 2, output.References[0].ChunkIndex)

		req := answers.lastRequest
		assert.Equal(t, "How long do cats sleep?", req.Question)
		assert.Equal(t, "session-9", req.SessionID)
		assert.Equal(t, domain.ProviderCerebras, req.Provider)
		require.Len(t, req.History, 2)
		assert.Equal(t, domain.SenderAI, req.History[1].Sender)
	})

	t.Run("unknown provider is left to the default", func(t *testing.T) {
		answers := &mockAnswerService{}
		server := newTestServer(t, &Ports{Answer: answers})

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "q", OwnerID: "user-1", Provider: "openai"})

		require.NoError(t, err)
		assert.Empty(t, answers.lastRequest.Provider)
		assert.NotNil(t, output.References)
		assert.NotNil(t, output.SuggestedQuestions)
	})

	t.Run("requires question and owner", func(t *testing.T) {
		server := newTestServer(t, &Ports{})

		_, _, err := server.handleAsk(ctx, nil, AskInput{Question: "  ", OwnerID: "user-1"})
		assert.Error(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "q"})
		assert.ErrorIs(t, err, errMissingOwner)
	})
}

func TestServer_handleSummarize(t *testing.T) {
	answers := &mockAnswerService{summary: "An overview."}
	server := newTestServer(t, &Ports{Answer: answers})

	_, output, err := server.handleSummarize(context.Background(), nil, SummarizeInput{
		DocumentIDs: []string{"doc-1", "doc-2"},
		OwnerID:     "user-1",
		Provider:    "groq",
	})

	require.NoError(t, err)
	assert.Equal(t, "An overview.", output.Summary)
	assert.Equal(t, []string{"doc-1", "doc-2"}, answers.lastDocIDs)
	assert.Equal(t, "user-1", answers.lastOwner)
	assert.Equal(t, domain.ProviderGroq, answers.lastProvider)

	_, _, err = server.handleSummarize(context.Background(), nil, SummarizeInput{})
	assert.ErrorIs(t, err, errMissingOwner)
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns search results", func(t *testing.T) {
		retrieval := &mockRetrievalService{results: []domain.RetrievedChunk{sampleChunk()}}
		server := newTestServer(t, &Ports{Retrieval: retrieval})

		_, output, err := server.handleSearch(ctx, nil, SearchInput{
			Query: "sleep", DocumentIDs: []string{"doc-1"}, OwnerID: "user-1", TopK: 3, Threshold: 0.5,
		})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "chunk-1", output.Results[0].ChunkID)
		assert.Equal(t, "Cats sleep most of the day.", output.Results[0].Text)
		assert.Equal(t, 0.83, output.Results[0].Similarity)
		assert.Equal(t, 3, retrieval.lastTopK)
		assert.Equal(t, 0.5, retrieval.lastThreshold)
	})

	t.Run("defaults top_k and threshold", func(t *testing.T) {
		retrieval := &mockRetrievalService{}
		server := newTestServer(t, &Ports{Retrieval: retrieval})

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "q", OwnerID: "user-1"})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.NotNil(t, output.Results)
		assert.Equal(t, 5, retrieval.lastTopK)
		assert.Equal(t, 0.7, retrieval.lastThreshold)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		retrieval := &mockRetrievalService{err: errors.New("search failed")}
		server := newTestServer(t, &Ports{Retrieval: retrieval})

		_, _, err := server.handleSearch(ctx, nil, SearchInput{Query: "q", OwnerID: "user-1"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "search failed")
	})
}

func TestServer_handleIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("registers then processes", func(t *testing.T) {
		ingestion := &mockIngestionService{result: &domain.IngestResult{
			Status: domain.IngestSuccess, Message: "Document processed successfully", ChunkCount: 4, PageCount: 2, TotalChunks: 4,
		}}
		server := newTestServer(t, &Ports{Ingestion: ingestion})

		res, output, err := server.handleIngest(ctx, nil, IngestInput{
			DocumentID: "doc-1", FilePath: "/uploads/abc/report.pdf", OwnerID: "user-1",
		})

		require.NoError(t, err)
		assert.Nil(t, res)
		assert.Equal(t, 4, output.ChunkCount)
		require.Len(t, ingestion.registered, 1)
		assert.Equal(t, "report.pdf", ingestion.registered[0].FileName)
	})

	t.Run("explicit file name wins", func(t *testing.T) {
		ingestion := &mockIngestionService{result: &domain.IngestResult{Status: domain.IngestSuccess}}
		server := newTestServer(t, &Ports{Ingestion: ingestion})

		_, _, err := server.handleIngest(ctx, nil, IngestInput{
			DocumentID: "doc-1", FilePath: "/uploads/tmp123", OwnerID: "user-1", FileName: "Quarterly.pdf",
		})

		require.NoError(t, err)
		assert.Equal(t, "Quarterly.pdf", ingestion.registered[0].FileName)
	})

	t.Run("processing failure is a tool error", func(t *testing.T) {
		ingestion := &mockIngestionService{
			result: &domain.IngestResult{Status: domain.IngestError, Message: "Document processing failed: unsupported file type"},
			err:    domain.ErrUnsupportedFormat,
		}
		server := newTestServer(t, &Ports{Ingestion: ingestion})

		res, output, err := server.handleIngest(ctx, nil, IngestInput{DocumentID: "doc-1", FilePath: "/x.exe", OwnerID: "user-1"})

		require.NoError(t, err)
		require.NotNil(t, res)
		assert.True(t, res.IsError)
		require.Len(t, res.Content, 1)
		assert.Equal(t, "Document processing failed: unsupported file type", res.Content[0].(*mcp.TextContent).Text)
		assert.Equal(t, domain.IngestError, output.Status)
	})

	t.Run("registration failure is returned", func(t *testing.T) {
		ingestion := &mockIngestionService{registerErr: domain.ErrInvalidInput}
		server := newTestServer(t, &Ports{Ingestion: ingestion})

		_, _, err := server.handleIngest(ctx, nil, IngestInput{FilePath: "/a.pdf", OwnerID: "user-1"})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
