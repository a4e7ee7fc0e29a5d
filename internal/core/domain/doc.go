// Package domain defines the core business entities for docuchat.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An uploaded file owned by exactly one user
//   - Page: A transient extraction unit (page, slide or whole file)
//   - Chunk: A retrieval unit cut from a page
//   - Embedding: The vector stored alongside a chunk
//   - RetrievedChunk: A chunk returned by similarity search
//   - Provider: A tagged LLM provider with a pure resolution rule
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
