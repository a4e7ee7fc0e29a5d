// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: Turns text into fixed-dimension vectors
//   - Extractor / ExtractorRegistry: Per-format text extraction
//   - Chunker: Splits page text into overlapping chunks
//   - DocumentStore, IngestStore, VectorStore: Postgres + pgvector persistence
//   - LLMService: Prompt-in/text-out completion for one provider
//   - PromptStore: User-editable prompt templates
//   - ConfigStore: Writable application settings
//
// # Optional Interfaces
//
//   - EmbeddingCache: Caches vectors keyed by model and text. When nil,
//     every call reaches the embedding backend.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, extractor or postprocessor package
package driven
