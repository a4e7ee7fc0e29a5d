package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docuchat/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for DocuChat resources.
	uriScheme = "docuchat://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Template for a single chunk, used to expand answer references.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "owners/{ownerId}/chunks/{chunkId}",
		Name:        "chunk",
		Description: "A stored document chunk with its page and offsets",
		MIMEType:    "application/json",
	}, s.handleChunkResource)

	if s.ports.Health != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "health",
			Name:        "health",
			Description: "Readiness of the store, embedding model and LLM providers",
			MIMEType:    "application/json",
		}, s.handleHealthResource)
	}
}

// handleChunkResource returns one chunk as JSON.
func (s *Server) handleChunkResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	ownerID, chunkID := extractChunkRef(req.Params.URI)
	if ownerID == "" || chunkID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	chunk, err := s.ports.Retrieval.GetChunk(ctx, chunkID, ownerID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting chunk: %w", err)
	}

	out := toChunkOutputs([]domain.RetrievedChunk{*chunk})[0]
	return jsonResource(req.Params.URI, out)
}

// handleHealthResource returns the current health report.
func (s *Server) handleHealthResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, s.ports.Health.Check(ctx))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractChunkRef extracts the owner and chunk IDs from a URI like
// docuchat://owners/{ownerId}/chunks/{chunkId}.
func extractChunkRef(uri string) (ownerID, chunkID string) {
	const prefix = uriScheme + "owners/"

	if !strings.HasPrefix(uri, prefix) {
		return "", ""
	}

	parts := strings.Split(strings.TrimPrefix(uri, prefix), "/")
	if len(parts) != 3 || parts[1] != "chunks" {
		return "", ""
	}
	return parts[0], parts[2]
}
