package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/docuchat/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor. This makes testing easier and avoids unexpected I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptSystem: `You are an expert AI assistant that provides comprehensive, detailed answers based on document context. Focus on being thorough and educational in your responses.`,

	driven.PromptQuestionRewrite: `Based on the conversation context below, rewrite the user's current question to be a standalone search query.

Rules:
1. Replace pronouns (it, that, he, she) with specific names/terms from context.
2. Make the question specific and complete.
3. DO NOT answer the question.
4. DO NOT add any introductory text.
5. Output ONLY the rewritten question.

Context:
%s

Current question: %s

Rewritten question:`,

	driven.PromptAnswer: `You are an expert AI assistant that provides comprehensive answers based on PDF documents. Your goal is to give detailed, well-structured responses that fully address the user's question.

CONTEXT FROM PDFS:
%s

USER QUESTION: %s

INSTRUCTIONS:
1. Provide a comprehensive answer based on the information in the context above
2. Structure your response clearly with proper explanations and examples when available
3. Include specific details, definitions, and explanations from the source material
4. If the context contains multiple relevant pieces of information, synthesize them into a coherent answer
5. Use the source information to provide depth and context, not just surface-level answers
6. If the context doesn't contain enough information to fully answer the question, say so and explain what information is available
7. Do not make up information or use external knowledge beyond what's provided
8. Reference specific sources when citing information using [Source X] notation
9. If the question asks for definitions or explanations, provide thorough, detailed responses
10. Organize your answer logically with clear sections if appropriate

IMPORTANT: End your response with a "References" section that lists the sources you used, explaining briefly what specific point or topic each source contributed. Format it exactly like this:

References
[Source 1] – Page X (brief explanation of what this source covers regarding the question)
[Source 2] – Page Y (brief explanation)

ANSWER:`,

	driven.PromptFollowups: `Based on the answer below and the original user question, suggest exactly 3 short, relevant follow-up questions the user might ask to explore the topic further.

Rules:
1. Provide ONLY the questions, one per line.
2. Do not number them.
3. Do not add quotes or bullet points.
4. Keep them short (under 10 words).

Answer Context:
%s

Original Question:
%s

Questions:`,

	driven.PromptSummariseText: `Summarize the following text in a concise paragraph, preserving the main ideas and important details:

%s`,

	driven.PromptDocumentSummary: `Based on the following excerpts from the uploaded documents, provide a concise and engaging summary of what these documents are about. Highlight the key topics and main themes. Keep it under 200 words.

Excerpts:
%s

Summary:`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.docuchat/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".docuchat", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if file doesn't exist.
func (s *PromptStore) Load(name string) (string, error) {
	// Ensure directory and defaults exist (lazy init)
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		// Fall back to embedded defaults if init failed
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	// Check cache first (read lock)
	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// Load from file (no lock held during I/O)
	prompt, err := s.loadFromFile(name)
	if err != nil {
		// Fall back to embedded default
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Cache the result (write lock)
	// Use double-check pattern to avoid overwriting concurrent loads
	s.mu.Lock()
	if _, ok := s.cache[name]; !ok {
		s.cache[name] = prompt
	} else {
		// Another goroutine loaded it first, use their value
		prompt = s.cache[name]
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	// Create directory
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Create default prompt files (only if they don't exist)
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	// Create README
	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# Docuchat Prompts

This directory contains the prompts docuchat sends to the LLM provider.

## Files

- ` + "`system.txt`" + ` - System prompt sent with every completion
- ` + "`question_rewrite.txt`" + ` - Turns a follow-up into a standalone search query
- ` + "`answer.txt`" + ` - Answers a question from retrieved document context
- ` + "`followups.txt`" + ` - Suggests three follow-up questions
- ` + "`summarise_text.txt`" + ` - Summarises retrieved chunks when asked to summarize
- ` + "`document_summary.txt`" + ` - Short overview of the selected documents

## Customisation

Edit any file to customise LLM behaviour. Changes take effect on the next
command.

## Format Placeholders

Prompts use Go fmt ` + "`%s`" + ` placeholders, filled in order:
- question_rewrite: conversation context, current question
- answer: retrieved context, question
- followups: answer text, original question
- summarise_text, document_summary: document text

Keep the placeholders and their order when editing. A literal percent sign
must be written as ` + "`%%`" + `.
`
	return os.WriteFile(path, []byte(content), 0600)
}
