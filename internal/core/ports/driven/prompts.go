package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations fall back to an embedded
	// default or return an error.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names. Placeholders are filled with fmt.Sprintf.
const (
	// PromptSystem is the system prompt sent with every completion.
	// No placeholders.
	PromptSystem = "system"

	// PromptQuestionRewrite turns a follow-up into a standalone query.
	// Placeholders: %s (conversation context), %s (current question).
	PromptQuestionRewrite = "question_rewrite"

	// PromptAnswer asks for a cited answer over retrieved context.
	// Placeholders: %s (context block), %s (question).
	PromptAnswer = "answer"

	// PromptFollowups asks for three follow-up questions.
	// Placeholders: %s (answer text), %s (original question).
	PromptFollowups = "followups"

	// PromptSummariseText summarises concatenated chunk text.
	// Placeholders: %s (text).
	PromptSummariseText = "summarise_text"

	// PromptDocumentSummary summarises a set of documents in under 200 words.
	// Placeholders: %s (excerpts).
	PromptDocumentSummary = "document_summary"
)
