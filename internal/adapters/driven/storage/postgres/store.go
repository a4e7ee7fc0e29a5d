package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq" // registers the postgres driver
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/docuchat/internal/core/domain"
	"github.com/custodia-labs/docuchat/internal/core/ports/driven"
)

// Ensure Store implements the interfaces.
var (
	_ driven.DocumentStore = (*Store)(nil)
	_ driven.IngestStore   = (*Store)(nil)
	_ driven.VectorStore   = (*Store)(nil)
	_ driven.HealthChecker = (*Store)(nil)
)

// Options tunes the connection pool. Zero values keep the driver defaults.
type Options struct {
	MaxOpenConns int
	MaxIdleConns int
}

// Store is the Postgres implementation of the storage ports.
type Store struct {
	db *sql.DB
}

// Open connects to dsn and verifies the connection. It does not migrate.
func Open(ctx context.Context, dsn string, opts Options) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: connecting to database: %w", domain.ErrPersistenceFailed, err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an open database handle.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureDocument inserts the pdfs row unless one with the same ID exists.
// An existing row owned by another user is reported as a conflict.
func (s *Store) EnsureDocument(ctx context.Context, doc domain.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	status := doc.Status
	if status == "" {
		status = domain.StatusPending
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO pdfs (pdf_id, user_id, file_name, processing_status, page_count)
VALUES ($1::uuid, $2::uuid, $3, $4, $5)
ON CONFLICT (pdf_id) DO NOTHING
`, doc.ID, doc.OwnerID, doc.FileName, string(status), doc.PageCount)
	if err != nil {
		return dbError("insert document", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbError("insert document", err)
	}
	if n > 0 {
		return nil
	}

	var owned bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM pdfs WHERE pdf_id = $1::uuid AND user_id = $2::uuid)`,
		doc.ID, doc.OwnerID).Scan(&owned)
	if err != nil {
		return dbError("check document owner", err)
	}
	if !owned {
		return fmt.Errorf("%w: %s", domain.ErrDocumentConflict, doc.ID)
	}
	return nil
}

// GetDocument returns the document owned by ownerID.
func (s *Store) GetDocument(ctx context.Context, id, ownerID string) (*domain.Document, error) {
	var (
		doc    domain.Document
		status string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT pdf_id, user_id, file_name, processing_status, page_count
FROM pdfs
WHERE pdf_id = $1::uuid AND user_id = $2::uuid
`, id, ownerID).Scan(&doc.ID, &doc.OwnerID, &doc.FileName, &status, &doc.PageCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, dbError("get document", err)
	}
	doc.Status = domain.ProcessingStatus(status)
	return &doc, nil
}

// SetStatus updates processing_status in its own statement.
func (s *Store) SetStatus(ctx context.Context, id, ownerID string, status domain.ProcessingStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pdfs SET processing_status = $1 WHERE pdf_id = $2::uuid AND user_id = $3::uuid`,
		string(status), id, ownerID)
	if err != nil {
		return dbError("set status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbError("set status", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DocumentNames returns the file names of the owner's IDs in argument order.
func (s *Store) DocumentNames(ctx context.Context, ids []string, ownerID string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT pdf_id, file_name FROM pdfs WHERE pdf_id = ANY($1::uuid[]) AND user_id = $2::uuid`,
		pq.Array(ids), ownerID)
	if err != nil {
		return nil, dbError("document names", err)
	}
	defer rows.Close()

	byID := make(map[string]string, len(ids))
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, dbError("document names", err)
		}
		byID[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("document names", err)
	}

	var names []string
	for _, id := range ids {
		if name, ok := byID[id]; ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// Nearest returns up to limit chunks from the owner's documents ordered by
// ascending cosine distance to query.
func (s *Store) Nearest(
	ctx context.Context, query []float32, documentIDs []string, ownerID string, limit int,
) ([]domain.RetrievedChunk, error) {
	if len(documentIDs) == 0 || limit == 0 {
		return []domain.RetrievedChunk{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT pce.chunk_id, pce.pdf_id, pce.user_id, pce.chunk_index, pce.chunk_text,
       pce.start_char, pce.end_char, pc.page_number, pdf.file_name,
       1 - (pce.embedding <=> $1::vector) AS similarity
FROM pdf_chunks_embeddings pce
JOIN pdfs pdf ON pce.pdf_id = pdf.pdf_id
JOIN pdf_chunks pc ON pce.chunk_id = pc.chunk_id
WHERE pce.pdf_id = ANY($2::uuid[])
  AND pce.user_id = $3::uuid
ORDER BY pce.embedding <=> $1::vector
LIMIT $4
`, pgvector.NewVector(query), pq.Array(documentIDs), ownerID, limit)
	if err != nil {
		return nil, dbError("nearest", err)
	}
	defer rows.Close()

	results := make([]domain.RetrievedChunk, 0, limit)
	for rows.Next() {
		var rc domain.RetrievedChunk
		if err := rows.Scan(
			&rc.ID, &rc.DocumentID, &rc.OwnerID, &rc.Index, &rc.Text,
			&rc.StartChar, &rc.EndChar, &rc.PageNumber, &rc.DocumentName,
			&rc.Similarity,
		); err != nil {
			return nil, dbError("nearest", err)
		}
		rc.WordCount = len(strings.Fields(rc.Text))
		results = append(results, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("nearest", err)
	}
	return results, nil
}

// GetChunk returns a single chunk owned by ownerID.
func (s *Store) GetChunk(ctx context.Context, chunkID, ownerID string) (*domain.RetrievedChunk, error) {
	var rc domain.RetrievedChunk
	err := s.db.QueryRowContext(ctx, `
SELECT pc.chunk_id, pc.pdf_id, pc.user_id, pc.chunk_index, pc.chunk_text,
       pc.start_char, pc.end_char, pc.page_number, pdf.file_name
FROM pdf_chunks pc
JOIN pdfs pdf ON pc.pdf_id = pdf.pdf_id
WHERE pc.chunk_id = $1::uuid AND pc.user_id = $2::uuid
`, chunkID, ownerID).Scan(
		&rc.ID, &rc.DocumentID, &rc.OwnerID, &rc.Index, &rc.Text,
		&rc.StartChar, &rc.EndChar, &rc.PageNumber, &rc.DocumentName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, dbError("get chunk", err)
	}
	rc.WordCount = len(strings.Fields(rc.Text))
	return &rc, nil
}

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return dbError("ping", err)
	}
	return nil
}

// VectorSupport reports whether the vector extension is installed and
// casts a literal.
func (s *Store) VectorSupport(ctx context.Context) (bool, error) {
	var installed bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'vector')`).Scan(&installed)
	if err != nil {
		return false, dbError("check vector extension", err)
	}
	if !installed {
		return false, nil
	}

	var probe pgvector.Vector
	if err := s.db.QueryRowContext(ctx, `SELECT '[1,2,3]'::vector`).Scan(&probe); err != nil {
		return false, dbError("probe vector type", err)
	}
	return len(probe.Slice()) == 3, nil
}

// dbError marks err as a persistence failure unless it is a context error.
func dbError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrPersistenceFailed, op, err)
}
