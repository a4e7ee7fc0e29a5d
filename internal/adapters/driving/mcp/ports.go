package mcp

import (
	"github.com/custodia-labs/docuchat/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Answer generates answers and summaries.
	Answer driving.AnswerService

	// Retrieval runs semantic search and chunk lookups.
	Retrieval driving.RetrievalService

	// Ingestion registers and processes documents. Optional; without it the
	// ingest tool is not offered.
	Ingestion driving.IngestionService

	// Health reports readiness. Optional.
	Health driving.HealthService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
