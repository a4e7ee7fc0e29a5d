package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docuchat/internal/core/domain"
)

var (
	askDocs        []string
	askOwner       string
	askProvider    string
	askSession     string
	askHistoryFile string
	askJSON        bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about documents",
	Long: `Answers a question from the selected documents and lists the pages the
answer was drawn from, followed by suggested follow-up questions.

Questions containing "summarize" produce a summary of the documents instead.
Earlier turns can be supplied as a JSON array of {"sender","message_text"}
objects with --history so follow-up questions are understood in context.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var (
	summarizeDocs     []string
	summarizeOwner    string
	summarizeProvider string
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarise documents",
	Long:  `Writes a short overview of the selected documents from their opening text.`,
	Args:  cobra.NoArgs,
	RunE:  runSummarize,
}

func init() {
	askCmd.Flags().StringSliceVarP(&askDocs, "doc", "d", nil, "document ID to search (repeatable)")
	askCmd.Flags().StringVar(&askOwner, "owner", "", "owning user ID (required)")
	askCmd.Flags().StringVarP(&askProvider, "provider", "p", "", "LLM provider: groq or cerebras")
	askCmd.Flags().StringVar(&askSession, "session", "", "chat session ID, used for logging")
	askCmd.Flags().StringVar(&askHistoryFile, "history", "", "path to a JSON file with earlier turns")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	_ = askCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(askCmd)

	summarizeCmd.Flags().StringSliceVarP(&summarizeDocs, "doc", "d", nil, "document ID to summarise (repeatable)")
	summarizeCmd.Flags().StringVar(&summarizeOwner, "owner", "", "owning user ID (required)")
	summarizeCmd.Flags().StringVarP(&summarizeProvider, "provider", "p", "", "LLM provider: groq or cerebras")
	_ = summarizeCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(summarizeCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	answers := current().Answer
	if answers == nil {
		return errNotConfigured("answer service")
	}

	provider, err := parseProviderFlag(askProvider)
	if err != nil {
		return err
	}
	history, err := loadHistory(askHistoryFile)
	if err != nil {
		return err
	}

	result := answers.Answer(cmd.Context(), domain.AnswerRequest{
		Question:    strings.Join(args, " "),
		DocumentIDs: askDocs,
		OwnerID:     askOwner,
		SessionID:   askSession,
		History:     history,
		Provider:    provider,
	})

	if askJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(result.Answer)
	if len(result.SuggestedQuestions) > 0 {
		cmd.Println()
		cmd.Println("You might also ask:")
		for i, q := range result.SuggestedQuestions {
			cmd.Printf("  %d. %s\n", i+1, q)
		}
	}
	return nil
}

func runSummarize(cmd *cobra.Command, _ []string) error {
	answers := current().Answer
	if answers == nil {
		return errNotConfigured("answer service")
	}
	provider, err := parseProviderFlag(summarizeProvider)
	if err != nil {
		return err
	}

	cmd.Println(answers.SummarizeDocuments(cmd.Context(), summarizeDocs, summarizeOwner, provider))
	return nil
}

// parseProviderFlag accepts an empty value for the configured default.
func parseProviderFlag(value string) (domain.Provider, error) {
	if value == "" {
		return "", nil
	}
	p := domain.ParseProvider(value)
	if p == "" {
		return "", fmt.Errorf("%w: unknown provider %q (use groq or cerebras)", domain.ErrInvalidInput, value)
	}
	return p, nil
}

// loadHistory reads earlier conversation turns from a JSON file.
func loadHistory(path string) ([]domain.ConversationTurn, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	var turns []domain.ConversationTurn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("%w: parsing history %s: %w", domain.ErrInvalidInput, path, err)
	}
	return turns, nil
}
