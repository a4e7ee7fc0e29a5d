package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

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

// Store is an in-memory implementation of the document, ingest and vector
// ports. Similarity is computed by brute-force cosine over all vectors.
type Store struct {
	mu         sync.RWMutex
	documents  map[string]domain.Document
	chunks     map[string]domain.Chunk
	embeddings map[string]domain.Embedding
	order      []string // chunk IDs in insertion order

	commitErr error
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		documents:  make(map[string]domain.Document),
		chunks:     make(map[string]domain.Chunk),
		embeddings: make(map[string]domain.Embedding),
	}
}

// FailCommits makes every later Commit fail with err, as if the
// connection were lost. Pass nil to restore normal behaviour.
func (s *Store) FailCommits(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitErr = err
}

// EnsureDocument inserts the document if absent. An existing document with
// another owner is a conflict.
func (s *Store) EnsureDocument(_ context.Context, doc domain.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.documents[doc.ID]; ok {
		if existing.OwnerID != doc.OwnerID {
			return fmt.Errorf("%w: %s", domain.ErrDocumentConflict, doc.ID)
		}
		return nil
	}
	if doc.Status == "" {
		doc.Status = domain.StatusPending
	}
	s.documents[doc.ID] = doc
	return nil
}

// GetDocument returns the document if owned by ownerID.
func (s *Store) GetDocument(_ context.Context, id, ownerID string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok || doc.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// SetStatus updates the status of a document owned by ownerID.
func (s *Store) SetStatus(_ context.Context, id, ownerID string, status domain.ProcessingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok || doc.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	doc.Status = status
	s.documents[id] = doc
	return nil
}

// DocumentNames returns file names for the owner's IDs, in argument order.
func (s *Store) DocumentNames(_ context.Context, ids []string, ownerID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for _, id := range ids {
		if doc, ok := s.documents[id]; ok && doc.OwnerID == ownerID {
			names = append(names, doc.FileName)
		}
	}
	return names, nil
}

// Chunks returns the committed chunks of a document in insertion order.
func (s *Store) Chunks(documentID string) []domain.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Chunk
	for _, id := range s.order {
		if c := s.chunks[id]; c.DocumentID == documentID {
			out = append(out, c)
		}
	}
	return out
}

// Embeddings returns the committed embeddings of a document.
func (s *Store) Embeddings(documentID string) []domain.Embedding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Embedding
	for _, id := range s.order {
		if e, ok := s.embeddings[id]; ok && e.DocumentID == documentID {
			out = append(out, e)
		}
	}
	return out
}

// BeginIngest starts a buffered transaction.
func (s *Store) BeginIngest(ctx context.Context, documentID, ownerID string) (driven.IngestTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &ingestTx{store: s, documentID: documentID, ownerID: ownerID}, nil
}

// Nearest ranks the owner's embeddings in the given documents by cosine
// similarity to query.
func (s *Store) Nearest(
	ctx context.Context, query []float32, documentIDs []string, ownerID string, limit int,
) ([]domain.RetrievedChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	scope := make(map[string]bool, len(documentIDs))
	for _, id := range documentIDs {
		scope[id] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]domain.RetrievedChunk, 0)
	for _, id := range s.order {
		e, ok := s.embeddings[id]
		if !ok || !scope[e.DocumentID] || e.OwnerID != ownerID {
			continue
		}
		results = append(results, domain.RetrievedChunk{
			Chunk:        s.chunks[id],
			DocumentName: s.documents[e.DocumentID].FileName,
			Similarity:   cosine(query, e.Vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if limit >= 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// GetChunk returns one chunk owned by ownerID.
func (s *Store) GetChunk(_ context.Context, chunkID, ownerID string) (*domain.RetrievedChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[chunkID]
	if !ok || c.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return &domain.RetrievedChunk{
		Chunk:        c,
		DocumentName: s.documents[c.DocumentID].FileName,
	}, nil
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error {
	return nil
}

// VectorSupport always reports true.
func (s *Store) VectorSupport(_ context.Context) (bool, error) {
	return true, nil
}

// cosine returns the cosine similarity of a and b, or 0 when undefined.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// ingestTx buffers writes until Commit.
type ingestTx struct {
	store      *Store
	documentID string
	ownerID    string

	chunks     []domain.Chunk
	embeddings []domain.Embedding
	pageCount  int
	completed  bool
	done       bool
}

func (tx *ingestTx) AddChunk(ctx context.Context, chunk domain.Chunk, embed driven.EmbedFunc) error {
	if tx.done {
		return fmt.Errorf("%w: transaction closed", domain.ErrPersistenceFailed)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	vec, err := embed(ctx, chunk.Text)
	if err != nil {
		return domain.AsChunkFailure(fmt.Errorf("embed chunk %d: %w", chunk.Index, err))
	}

	tx.chunks = append(tx.chunks, chunk)
	tx.embeddings = append(tx.embeddings, domain.NewEmbedding(chunk, vec))
	return nil
}

func (tx *ingestTx) Complete(_ context.Context, pageCount int) error {
	if tx.done {
		return fmt.Errorf("%w: transaction closed", domain.ErrPersistenceFailed)
	}
	tx.store.mu.RLock()
	doc, ok := tx.store.documents[tx.documentID]
	tx.store.mu.RUnlock()
	if !ok || doc.OwnerID != tx.ownerID {
		return domain.ErrNotFound
	}
	tx.pageCount = pageCount
	tx.completed = true
	return nil
}

func (tx *ingestTx) Commit() error {
	if tx.done {
		return fmt.Errorf("%w: transaction closed", domain.ErrPersistenceFailed)
	}
	tx.done = true

	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.commitErr != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistenceFailed, s.commitErr)
	}

	for i, c := range tx.chunks {
		if _, exists := s.chunks[c.ID]; !exists {
			s.order = append(s.order, c.ID)
		}
		s.chunks[c.ID] = c
		s.embeddings[c.ID] = tx.embeddings[i]
	}
	if tx.completed {
		if doc, ok := s.documents[tx.documentID]; ok && doc.OwnerID == tx.ownerID {
			doc.Status = domain.StatusCompleted
			doc.PageCount = tx.pageCount
			s.documents[tx.documentID] = doc
		}
	}
	return nil
}

func (tx *ingestTx) Rollback() error {
	tx.done = true
	tx.chunks = nil
	tx.embeddings = nil
	return nil
}
