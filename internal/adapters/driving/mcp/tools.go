package mcp

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docuchat/internal/core/domain"
	"github.com/custodia-labs/docuchat/internal/core/services"
)

// errMissingOwner is returned by every tool called without owner_id.
var errMissingOwner = errors.New("owner_id is required")

// TurnInput is one earlier conversation message.
type TurnInput struct {
	Sender string `json:"sender" jsonschema:"who wrote the message: user or ai"`
	Text   string `json:"text" jsonschema:"the message text"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question    string      `json:"question" jsonschema:"the question to answer from the documents"`
	DocumentIDs []string    `json:"document_ids" jsonschema:"IDs of the documents to search"`
	OwnerID     string      `json:"owner_id" jsonschema:"the user who owns the documents"`
	SessionID   string      `json:"session_id,omitempty" jsonschema:"chat session identifier, used for logging"`
	History     []TurnInput `json:"history,omitempty" jsonschema:"earlier messages, oldest first"`
	Provider    string      `json:"provider,omitempty" jsonschema:"LLM provider to use: groq or cerebras"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer             string        `json:"answer"`
	References         []ChunkOutput `json:"references"`
	SuggestedQuestions []string      `json:"suggested_questions"`
	Provider           string        `json:"provider,omitempty"`
}

// ChunkOutput represents one retrieved chunk.
type ChunkOutput struct {
	ChunkID      string  `json:"chunk_id"`
	DocumentID   string  `json:"pdf_id"`
	DocumentName string  `json:"pdf_name"`
	PageNumber   int     `json:"page_number"`
	ChunkIndex   int     `json:"chunk_index"`
	StartChar    int     `json:"start_char"`
	EndChar      int     `json:"end_char"`
	Text         string  `json:"chunk_text"`
	Similarity   float64 `json:"similarity"`
}

// SummarizeInput is the input schema for the summarize_documents tool.
type SummarizeInput struct {
	DocumentIDs []string `json:"document_ids" jsonschema:"IDs of the documents to summarise"`
	OwnerID     string   `json:"owner_id" jsonschema:"the user who owns the documents"`
	Provider    string   `json:"provider,omitempty" jsonschema:"LLM provider to use: groq or cerebras"`
}

// SummarizeOutput is the output schema for the summarize_documents tool.
type SummarizeOutput struct {
	Summary string `json:"summary"`
}

// SearchInput is the input schema for the search_chunks tool.
type SearchInput struct {
	Query       string   `json:"query" jsonschema:"text to find similar passages for"`
	DocumentIDs []string `json:"document_ids" jsonschema:"IDs of the documents to search"`
	OwnerID     string   `json:"owner_id" jsonschema:"the user who owns the documents"`
	TopK        int      `json:"top_k,omitempty" jsonschema:"maximum number of chunks to return (default 5)"`
	Threshold   float64  `json:"threshold,omitempty" jsonschema:"advisory similarity threshold (default 0.7), never filters results"`
}

// SearchOutput is the output schema for the search_chunks tool.
type SearchOutput struct {
	Results []ChunkOutput `json:"results"`
	Count   int           `json:"count"`
}

// IngestInput is the input schema for the ingest_document tool.
type IngestInput struct {
	DocumentID string `json:"document_id" jsonschema:"ID to store the document under"`
	FilePath   string `json:"file_path" jsonschema:"path of the uploaded file on the server"`
	OwnerID    string `json:"owner_id" jsonschema:"the user who owns the document"`
	FileName   string `json:"file_name,omitempty" jsonschema:"display name (defaults to the file's base name)"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the selected documents, with source references and follow-up suggestions",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "summarize_documents",
		Description: "Write a short overview of the selected documents",
	}, s.handleSummarize)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_chunks",
		Description: "Find the passages most similar to a query in the selected documents",
	}, s.handleSearch)

	if s.ports.Ingestion != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest_document",
			Description: "Extract, chunk and embed an uploaded PDF, DOCX, PPTX, TXT or CSV file",
		}, s.handleIngest)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, AskOutput{}, errors.New("question is required")
	}
	if input.OwnerID == "" {
		return nil, AskOutput{}, errMissingOwner
	}

	history := make([]domain.ConversationTurn, 0, len(input.History))
	for _, turn := range input.History {
		history = append(history, domain.ConversationTurn{Sender: domain.Sender(turn.Sender), Text: turn.Text})
	}

	result := s.ports.Answer.Answer(ctx, domain.AnswerRequest{
		Question:    input.Question,
		DocumentIDs: input.DocumentIDs,
		OwnerID:     input.OwnerID,
		SessionID:   input.SessionID,
		History:     history,
		Provider:    domain.ParseProvider(input.Provider),
	})

	return nil, AskOutput{
		Answer:             result.Answer,
		References:         toChunkOutputs(result.References),
		SuggestedQuestions: nonNil(result.SuggestedQuestions),
		Provider:           result.Provider.String(),
	}, nil
}

// handleSummarize handles the summarize_documents tool invocation.
func (s *Server) handleSummarize(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SummarizeInput,
) (*mcp.CallToolResult, SummarizeOutput, error) {
	if input.OwnerID == "" {
		return nil, SummarizeOutput{}, errMissingOwner
	}
	summary := s.ports.Answer.SummarizeDocuments(ctx, input.DocumentIDs, input.OwnerID, domain.ParseProvider(input.Provider))
	return nil, SummarizeOutput{Summary: summary}, nil
}

// handleSearch handles the search_chunks tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if input.OwnerID == "" {
		return nil, SearchOutput{}, errMissingOwner
	}
	topK := input.TopK
	if topK <= 0 {
		topK = services.DefaultTopK
	}
	threshold := input.Threshold
	if threshold == 0 {
		threshold = services.DefaultThreshold
	}

	results, err := s.ports.Retrieval.Search(ctx, input.Query, input.DocumentIDs, input.OwnerID, topK, threshold)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	return nil, SearchOutput{
		Results: toChunkOutputs(results),
		Count:   len(results),
	}, nil
}

// handleIngest handles the ingest_document tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, domain.IngestResult, error) {
	if input.OwnerID == "" {
		return nil, domain.IngestResult{}, errMissingOwner
	}
	name := input.FileName
	if name == "" {
		name = filepath.Base(input.FilePath)
	}

	err := s.ports.Ingestion.Register(ctx, domain.Document{
		ID:       input.DocumentID,
		OwnerID:  input.OwnerID,
		FileName: name,
	})
	if err != nil {
		return nil, domain.IngestResult{}, err
	}

	result, err := s.ports.Ingestion.Process(ctx, input.DocumentID, input.FilePath, input.OwnerID)
	if err != nil {
		// The result carries the user-facing message; report it as a tool error.
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: result.Message}},
		}, *result, nil
	}
	return nil, *result, nil
}

func toChunkOutputs(chunks []domain.RetrievedChunk) []ChunkOutput {
	out := make([]ChunkOutput, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		out[i] = ChunkOutput{
			ChunkID:      c.ID,
			DocumentID:   c.DocumentID,
			DocumentName: c.DocumentName,
			PageNumber:   c.PageNumber,
			ChunkIndex:   c.Index,
			StartChar:    c.StartChar,
			EndChar:      c.EndChar,
			Text:         c.Text,
			Similarity:   c.Similarity,
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
