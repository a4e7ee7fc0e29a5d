package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/docuchat/internal/core/domain"
	"github.com/custodia-labs/docuchat/internal/core/ports/driven"
	"github.com/custodia-labs/docuchat/internal/core/ports/driving"
	"github.com/custodia-labs/docuchat/internal/logger"
	"github.com/custodia-labs/docuchat/internal/metrics"
	"github.com/custodia-labs/docuchat/internal/textutil"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// Completion defaults.
const (
	DefaultMaxTokens   = 2000
	DefaultTemperature = 0.2
	DefaultLLMTimeout  = 60 * time.Second

	rewriteMaxTokens   = 100
	rewriteTemperature = 0.1
	rewriteTimeout     = 30 * time.Second
)

// Retrieval parameters per answer mode.
const (
	answerTopK         = 10
	answerThreshold    = 0.3
	summaryTopK        = 50
	summaryThreshold   = 0.1
	overviewTopK       = 20
	overviewThreshold  = 0.1
	overviewQuery      = "introduction summary overview abstract"
	overviewMaxChars   = 10000
	historyTurns       = 6
	maxFollowups       = 3
	summarizeKeyword   = "summarize"
	referencesHeader   = "\n\n---\n**Source Documents:**\n"
	contextGroupHeader = "=== FROM %s ==="
)

// User-facing messages.
const (
	MsgAnswerFailed       = "I apologize, but I encountered an error while processing your question. Please try again in a moment."
	MsgNothingToSummarize = "Unable to find content to summarize. Please ensure the PDFs contain relevant information."
	MsgNoRelevantContent  = "I couldn't find relevant information in the provided PDFs to answer your question."
	MsgNoDocuments        = " No documents are currently selected."
	MsgOverviewEmpty      = "I couldn't extract enough text to generate a summary. Please ask me specific questions about the documents."
	MsgOverviewFailed     = "Unable to generate summary at this time."
)

// AnswerService answers questions over retrieved document chunks.
// It never returns an error; failures become user-facing text.
type AnswerService struct {
	retriever driving.RetrievalService
	providers *ProviderRegistry
	prompts   driven.PromptStore
	metrics   *metrics.Metrics
}

// NewAnswerService creates a new answer service.
func NewAnswerService(
	retriever driving.RetrievalService,
	providers *ProviderRegistry,
	prompts driven.PromptStore,
) *AnswerService {
	return &AnswerService{
		retriever: retriever,
		providers: providers,
		prompts:   prompts,
	}
}

// SetMetrics enables LLM call metrics.
func (s *AnswerService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Answer produces a referenced answer, a summary when the question asks
// for one, or a fixed message when nothing relevant is found.
func (s *AnswerService) Answer(ctx context.Context, req domain.AnswerRequest) domain.AnswerResult {
	logger.Section("Answer Generation")
	logger.Info("Generating answer for user %s, documents: %v", req.OwnerID, req.DocumentIDs)
	if req.SessionID != "" {
		logger.Debug("Session: %s", req.SessionID)
	}

	result, err := s.answer(ctx, req)
	if err != nil {
		logger.Error("AI generation error: %v", err)
		return domain.AnswerResult{
			Answer:             MsgAnswerFailed,
			References:         []domain.RetrievedChunk{},
			SuggestedQuestions: []string{},
		}
	}
	return result
}

func (s *AnswerService) answer(ctx context.Context, req domain.AnswerRequest) (domain.AnswerResult, error) {
	provider := s.providers.Resolve(req.Provider)
	logger.Debug("Selected provider: %s", provider)

	query := s.rewriteQuestion(ctx, req.Question, req.History, provider)
	logger.Debug("Original question: %s", req.Question)
	logger.Debug("Enhanced question: %s", query)

	if strings.Contains(strings.ToLower(query), summarizeKeyword) {
		return s.summarize(ctx, query, req, provider)
	}

	chunks, err := s.retriever.Search(ctx, query, req.DocumentIDs, req.OwnerID, answerTopK, answerThreshold)
	if err != nil {
		return domain.AnswerResult{}, err
	}

	if len(chunks) == 0 {
		logger.Warn("No relevant chunks found for question")
		return domain.AnswerResult{
			Answer:             s.noContentMessage(ctx, req.DocumentIDs, req.OwnerID),
			References:         []domain.RetrievedChunk{},
			SuggestedQuestions: []string{},
		}, nil
	}
	logger.Info("Using %d relevant chunks for context", len(chunks))

	prompt, err := s.render(driven.PromptAnswer, BuildContext(chunks), req.Question)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	response, err := s.complete(ctx, provider, prompt, DefaultMaxTokens, DefaultTemperature, DefaultLLMTimeout)
	if err != nil {
		return domain.AnswerResult{}, err
	}

	followups := s.followups(ctx, response, req.Question, provider)
	logger.Info("Answer generated successfully")

	return domain.AnswerResult{
		Answer:             response + FormatReferences(chunks),
		References:         chunks,
		SuggestedQuestions: followups,
		Provider:           provider,
	}, nil
}

func (s *AnswerService) summarize(
	ctx context.Context, query string, req domain.AnswerRequest, provider domain.Provider,
) (domain.AnswerResult, error) {
	chunks, err := s.retriever.Search(ctx, query, req.DocumentIDs, req.OwnerID, summaryTopK, summaryThreshold)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	if len(chunks) == 0 {
		logger.Warn("No chunks found for summarization")
		return domain.AnswerResult{
			Answer:             MsgNothingToSummarize,
			References:         []domain.RetrievedChunk{},
			SuggestedQuestions: []string{},
		}, nil
	}

	prompt, err := s.render(driven.PromptSummariseText, joinChunkText(chunks))
	if err != nil {
		return domain.AnswerResult{}, err
	}
	summary, err := s.complete(ctx, provider, prompt, DefaultMaxTokens, DefaultTemperature, DefaultLLMTimeout)
	if err != nil {
		return domain.AnswerResult{}, err
	}

	return domain.AnswerResult{
		Answer:             summary,
		References:         chunks,
		SuggestedQuestions: s.followups(ctx, summary, query, provider),
		Provider:           provider,
	}, nil
}

// SummarizeDocuments returns a short overview of the selected documents.
func (s *AnswerService) SummarizeDocuments(
	ctx context.Context, documentIDs []string, ownerID string, requested domain.Provider,
) string {
	logger.Section("Document Summary")
	logger.Info("Generating summary for documents: %v", documentIDs)

	provider := s.providers.Resolve(requested)

	chunks, err := s.retriever.Search(ctx, overviewQuery, documentIDs, ownerID, overviewTopK, overviewThreshold)
	if err != nil {
		logger.Error("Summary generation error: %v", err)
		return MsgOverviewFailed
	}
	if len(chunks) == 0 {
		return MsgOverviewEmpty
	}

	excerpts := textutil.Prefix(joinChunkText(chunks), overviewMaxChars)
	prompt, err := s.render(driven.PromptDocumentSummary, excerpts)
	if err != nil {
		logger.Error("Summary generation error: %v", err)
		return MsgOverviewFailed
	}

	summary, err := s.complete(ctx, provider, prompt, DefaultMaxTokens, DefaultTemperature, DefaultLLMTimeout)
	if err != nil {
		logger.Error("Summary generation error: %v", err)
		return MsgOverviewFailed
	}
	return summary
}

// rewriteQuestion turns a follow-up into a standalone query using recent
// history. Any failure keeps the original question.
func (s *AnswerService) rewriteQuestion(
	ctx context.Context, question string, history []domain.ConversationTurn, provider domain.Provider,
) string {
	if len(history) == 0 {
		return question
	}

	prompt, err := s.render(driven.PromptQuestionRewrite, FormatHistory(history), question)
	if err != nil {
		logger.Warn("Error enhancing question: %v", err)
		return question
	}

	rewritten, err := s.complete(ctx, provider, prompt, rewriteMaxTokens, rewriteTemperature, rewriteTimeout)
	if err != nil {
		logger.Warn("Error enhancing question: %v", err)
		return question
	}
	if rewritten = strings.TrimSpace(rewritten); rewritten == "" {
		return question
	}
	return rewritten
}

// followups asks for up to three follow-up questions. Failures yield an
// empty list.
func (s *AnswerService) followups(ctx context.Context, answer, question string, provider domain.Provider) []string {
	prompt, err := s.render(driven.PromptFollowups, answer, question)
	if err != nil {
		logger.Warn("Error generating follow-ups: %v", err)
		return []string{}
	}

	response, err := s.complete(ctx, provider, prompt, DefaultMaxTokens, DefaultTemperature, DefaultLLMTimeout)
	if err != nil {
		logger.Warn("Error generating follow-ups: %v", err)
		return []string{}
	}
	return ParseFollowups(response)
}

func (s *AnswerService) noContentMessage(ctx context.Context, documentIDs []string, ownerID string) string {
	names := s.retriever.ResolveNames(ctx, documentIDs, ownerID)
	if len(names) == 0 {
		return MsgNoRelevantContent + MsgNoDocuments
	}

	lines := make([]string, len(names))
	for i, name := range names {
		lines[i] = "- " + name
	}
	return MsgNoRelevantContent +
		"\n\nCurrently selected documents:\n" + strings.Join(lines, "\n") +
		"\n\nYou can try asking about these, or select more documents."
}

func (s *AnswerService) render(name string, args ...any) (string, error) {
	tmpl, err := s.prompts.Load(name)
	if err != nil {
		return "", fmt.Errorf("load prompt %s: %w", name, err)
	}
	return fmt.Sprintf(tmpl, args...), nil
}

func (s *AnswerService) complete(
	ctx context.Context, provider domain.Provider, prompt string,
	maxTokens int, temperature float64, timeout time.Duration,
) (string, error) {
	client, err := s.providers.Client(provider)
	if err != nil {
		return "", err
	}
	system, err := s.prompts.Load(driven.PromptSystem)
	if err != nil {
		return "", fmt.Errorf("load prompt %s: %w", driven.PromptSystem, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := client.Complete(callCtx, driven.CompletionRequest{
		System:      system,
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Timeout:     timeout,
	})
	s.metrics.LLMCall(provider.String(), err)
	return out, err
}

// FormatHistory renders the most recent turns for the rewrite prompt.
func FormatHistory(history []domain.ConversationTurn) string {
	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}

	var b strings.Builder
	b.WriteString("Previous conversation:\n")
	for _, turn := range history {
		sender := "AI"
		if turn.Sender == domain.SenderUser {
			sender = "User"
		}
		fmt.Fprintf(&b, "%s: %s\n", sender, turn.Text)
	}
	return b.String()
}

// BuildContext groups chunks by document in first-seen order and numbers
// sources from 1 within each group.
func BuildContext(chunks []domain.RetrievedChunk) string {
	var order []string
	groups := make(map[string][]domain.RetrievedChunk)
	for _, c := range chunks {
		if _, ok := groups[c.DocumentName]; !ok {
			order = append(order, c.DocumentName)
		}
		groups[c.DocumentName] = append(groups[c.DocumentName], c)
	}

	var parts []string
	for _, name := range order {
		parts = append(parts, fmt.Sprintf(contextGroupHeader, name))
		for i, c := range groups[name] {
			parts = append(parts, fmt.Sprintf("[Source %d] Page %d, Chunk %d (Similarity: %.2f):\n%s\n",
				i+1, c.PageNumber, c.Index, c.Similarity, c.Text))
		}
		parts = append(parts, "")
	}
	return strings.Join(parts, "\n")
}

// FormatReferences renders the source footer appended to answers.
func FormatReferences(chunks []domain.RetrievedChunk) string {
	if len(chunks) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(referencesHeader)
	for _, c := range chunks {
		fmt.Fprintf(&b, "%s (Page %d, Similarity: %.2f)\n", c.DocumentName, c.PageNumber, c.Similarity)
	}
	return b.String()
}

// ParseFollowups keeps the first three non-blank lines.
func ParseFollowups(response string) []string {
	out := []string{}
	for _, line := range strings.Split(response, "\n") {
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == maxFollowups {
			break
		}
	}
	return out
}

func joinChunkText(chunks []domain.RetrievedChunk) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return strings.Join(texts, " ")
}
