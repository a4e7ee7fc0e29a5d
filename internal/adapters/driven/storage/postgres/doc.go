// Package postgres implements the document, ingest, vector and health
// ports on PostgreSQL with the pgvector extension.
//
// A single *sql.DB (lib/pq) backs every interface:
//
//   - DocumentStore: pdfs rows
//   - IngestStore: one transaction per document, a savepoint per chunk
//   - VectorStore: cosine distance queries over pdf_chunks_embeddings
//   - HealthChecker: connectivity and pgvector availability
//
// # Schema
//
// The schema is managed by golang-migrate. Migrations are embedded from the
// migrations/ directory and applied with Migrate; each migration is a pair
// of .up.sql and .down.sql files. The first migration installs the vector
// extension, so the connecting role needs permission to create it.
//
// # Thread Safety
//
// Store is safe for concurrent use. An IngestTx is not.
package postgres
