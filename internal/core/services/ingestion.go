package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/docuchat/internal/core/domain"
	"github.com/custodia-labs/docuchat/internal/core/ports/driven"
	"github.com/custodia-labs/docuchat/internal/core/ports/driving"
	"github.com/custodia-labs/docuchat/internal/fsutil"
	"github.com/custodia-labs/docuchat/internal/logger"
	"github.com/custodia-labs/docuchat/internal/metrics"
	"github.com/custodia-labs/docuchat/internal/textutil"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// IngestionService turns an uploaded file into stored chunk and embedding
// pairs inside a single transaction per document.
type IngestionService struct {
	extractors driven.ExtractorRegistry
	chunker    driven.Chunker
	embedder   driven.EmbeddingService
	documents  driven.DocumentStore
	store      driven.IngestStore
	metrics    *metrics.Metrics
	newID      func() string
}

// NewIngestionService creates a new ingestion service.
func NewIngestionService(
	extractors driven.ExtractorRegistry,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	documents driven.DocumentStore,
	store driven.IngestStore,
) *IngestionService {
	return &IngestionService{
		extractors: extractors,
		chunker:    chunker,
		embedder:   embedder,
		documents:  documents,
		store:      store,
		newID:      uuid.NewString,
	}
}

// SetMetrics enables ingestion metrics.
func (s *IngestionService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Register creates the document row when the upload layer has not.
func (s *IngestionService) Register(ctx context.Context, doc domain.Document) error {
	if doc.ID == "" || doc.OwnerID == "" {
		return fmt.Errorf("%w: document and owner IDs are required", domain.ErrInvalidInput)
	}
	if doc.FileName == "" {
		return fmt.Errorf("%w: file name is required", domain.ErrInvalidInput)
	}
	doc.Status = domain.StatusPending
	if err := s.documents.EnsureDocument(ctx, doc); err != nil {
		return fmt.Errorf("register document: %w", err)
	}
	logger.Debug("Registered document %s (%s)", doc.ID, doc.FileName)
	return nil
}

// Process runs the full pipeline for one document, which must already be
// registered to ownerID. On any later document-level failure the
// transaction is rolled back, the document is marked as errored and a
// result with Status error is returned alongside the error.
func (s *IngestionService) Process(
	ctx context.Context, documentID, filePath, ownerID string,
) (*domain.IngestResult, error) {
	logger.Section("Document Ingestion")
	logger.Info("Starting document processing: %s for user %s", documentID, ownerID)

	if _, err := s.documents.GetDocument(ctx, documentID, ownerID); err != nil {
		// Nothing is written, not even the error status.
		logger.Error("Document %s not available for user %s: %v", documentID, ownerID, err)
		s.metrics.DocumentProcessed(string(domain.IngestError))
		err = fmt.Errorf("document %s: %w", documentID, err)
		return &domain.IngestResult{
			Status:  domain.IngestError,
			Message: "Document processing failed: " + err.Error(),
		}, err
	}

	result, err := s.process(ctx, documentID, filePath, ownerID)
	if err != nil {
		logger.Error("Document processing failed: %v", err)
		s.markFailed(ctx, documentID, ownerID)
		s.metrics.DocumentProcessed(string(domain.IngestError))
		return &domain.IngestResult{
			Status:  domain.IngestError,
			Message: "Document processing failed: " + err.Error(),
		}, err
	}

	s.metrics.DocumentProcessed(string(domain.IngestSuccess))
	return result, nil
}

func (s *IngestionService) process(
	ctx context.Context, documentID, filePath, ownerID string,
) (*domain.IngestResult, error) {
	if !fsutil.Exists(filePath) {
		return nil, fmt.Errorf("%w: %s", domain.ErrFileNotFound, filePath)
	}
	if err := domain.ValidateExtension(filePath); err != nil {
		return nil, err
	}

	extractor, err := s.extractors.ForPath(filePath)
	if err != nil {
		return nil, err
	}
	logger.Debug("Processing file: %s", filePath)

	pages, err := extractor.Extract(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	totalChars := domain.TotalChars(pages)
	if totalChars == 0 {
		return nil, domain.ErrEmptyExtraction
	}
	logger.Info("Extracted %d characters from %d pages/sections", totalChars, len(pages))
	s.metrics.OCRPages(countOCRPages(pages))

	candidates := s.chunkPages(pages)
	logger.Info("Total chunks created: %d", len(candidates))

	stored, err := s.persist(ctx, documentID, ownerID, len(pages), candidates)
	if err != nil {
		return nil, err
	}

	logger.Info("Document processing completed: %s", documentID)
	logger.Info("Statistics: %d/%d chunks processed", stored, len(candidates))
	s.metrics.ChunksStored(stored)
	s.metrics.ChunksFailed(len(candidates) - stored)

	return &domain.IngestResult{
		Status:      domain.IngestSuccess,
		Message:     "Document processed successfully",
		ChunkCount:  stored,
		PageCount:   len(pages),
		TotalChunks: len(candidates),
	}, nil
}

// chunkPages chunks every page with text, in page order.
func (s *IngestionService) chunkPages(pages []domain.Page) []domain.ChunkCandidate {
	var all []domain.ChunkCandidate
	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		chunks := s.chunker.Chunk(page.Text, page.Number)
		logger.Debug("Page %d split into %d chunks", page.Number, len(chunks))
		all = append(all, chunks...)
	}
	return all
}

// persist writes all chunks in one transaction. Per-chunk failures are
// skipped; anything else aborts the document.
func (s *IngestionService) persist(
	ctx context.Context, documentID, ownerID string, pageCount int, candidates []domain.ChunkCandidate,
) (int, error) {
	tx, err := s.store.BeginIngest(ctx, documentID, ownerID)
	if err != nil {
		return 0, persistenceError("begin ingest", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Warn("Rollback failed: %v", rbErr)
		} else {
			logger.Debug("Transaction rolled back")
		}
	}()

	stored := 0
	for _, cand := range candidates {
		chunk := domain.NewChunk(s.newID(), documentID, ownerID, cand)
		err := tx.AddChunk(ctx, chunk, s.embedder.Embed)
		if err == nil {
			stored++
			continue
		}
		if errors.Is(err, domain.ErrPerChunkFailure) {
			logger.Warn("Failed to process chunk %d on page %d (%s): %v",
				cand.Index, cand.PageNumber, textutil.Preview(cand.Text), err)
			continue
		}
		return 0, persistenceError("add chunk", err)
	}

	if err := tx.Complete(ctx, pageCount); err != nil {
		return 0, persistenceError("mark completed", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, persistenceError("commit", err)
	}
	committed = true
	return stored, nil
}

// markFailed records the error status outside the aborted transaction.
func (s *IngestionService) markFailed(ctx context.Context, documentID, ownerID string) {
	err := s.documents.SetStatus(context.WithoutCancel(ctx), documentID, ownerID, domain.StatusError)
	if err != nil {
		logger.Error("Failed to update document status: %v", err)
	}
}

func persistenceError(op string, err error) error {
	if errors.Is(err, domain.ErrPersistenceFailed) || errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrPersistenceFailed, op, err)
}

func countOCRPages(pages []domain.Page) int {
	n := 0
	for _, p := range pages {
		if p.UsedOCR {
			n++
		}
	}
	return n
}
