package driving

import (
	"context"

	"github.com/custodia-labs/docuchat/internal/core/domain"
)

// AnswerService answers questions and summarises documents.
// Implementations never return errors; failures become user-safe text.
type AnswerService interface {
	// Answer generates a referenced answer for the request.
	Answer(ctx context.Context, req domain.AnswerRequest) domain.AnswerResult

	// SummarizeDocuments returns a short overview of the selected documents.
	SummarizeDocuments(ctx context.Context, documentIDs []string, ownerID string, provider domain.Provider) string
}
