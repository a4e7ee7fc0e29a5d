// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The pipeline is split into:
//   - Embedder: validation, warm-up and caching around an embedding backend
//   - IngestionService: extract, chunk, embed and persist one document
//   - Retriever: similarity search with de-duplication
//   - AnswerService: question rewrite, retrieval, completion and references
//   - HealthService: dependency readiness
//
// Services are pure Go with no CGO or external dependencies.
package services
