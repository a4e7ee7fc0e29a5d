package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docuchat/internal/core/domain"
	"github.com/custodia-labs/docuchat/internal/core/services"
	"github.com/custodia-labs/docuchat/internal/textutil"
)

// snippetChars bounds the chunk text shown per result.
const snippetChars = 160

var (
	searchDocs      []string
	searchOwner     string
	searchTopK      int
	searchThreshold float64
	searchJSON      bool
	chunkOwner      string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search document chunks",
	Long: `Performs semantic (vector) search over the chunks of the selected
documents and prints them by descending cosine similarity.

The threshold is advisory: it is reported but never removes results.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var chunkCmd = &cobra.Command{
	Use:   "chunk [chunk-id]",
	Short: "Show a stored chunk",
	Args:  cobra.ExactArgs(1),
	RunE:  runChunk,
}

func init() {
	searchCmd.Flags().StringSliceVarP(&searchDocs, "doc", "d", nil, "document ID to search (repeatable)")
	searchCmd.Flags().StringVar(&searchOwner, "owner", "", "owning user ID (required)")
	searchCmd.Flags().IntVarP(&searchTopK, "limit", "n", services.DefaultTopK, "maximum number of results")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", services.DefaultThreshold, "advisory similarity threshold")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	_ = searchCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(searchCmd)

	chunkCmd.Flags().StringVar(&chunkOwner, "owner", "", "owning user ID (required)")
	_ = chunkCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(chunkCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	retrieval := current().Retrieval
	if retrieval == nil {
		return errNotConfigured("retrieval")
	}

	query := strings.Join(args, " ")
	results, err := retrieval.Search(cmd.Context(), query, searchDocs, searchOwner, searchTopK, searchThreshold)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results, searchThreshold)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.RetrievedChunk) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.RetrievedChunk, threshold float64) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		r := &results[i]
		marker := ""
		if r.Similarity < threshold {
			marker = " (below threshold)"
		}
		// Format: [N] file.pdf p.3 #2 (0.81)
		cmd.Printf("  [%d] %s p.%d #%d (%.2f)%s\n", i+1, r.DocumentName, r.PageNumber, r.Index, r.Similarity, marker)
		cmd.Printf("      %s\n", textutil.Truncate(textutil.Clean(r.Text), snippetChars))
		cmd.Println()
	}
	return nil
}

func runChunk(cmd *cobra.Command, args []string) error {
	retrieval := current().Retrieval
	if retrieval == nil {
		return errNotConfigured("retrieval")
	}

	chunk, err := retrieval.GetChunk(cmd.Context(), args[0], chunkOwner)
	if err != nil {
		return err
	}

	cmd.Printf("Chunk:    %s\n", chunk.ID)
	cmd.Printf("Document: %s (%s)\n", chunk.DocumentName, chunk.DocumentID)
	cmd.Printf("Page:     %d\n", chunk.PageNumber)
	cmd.Printf("Index:    %d\n", chunk.Index)
	cmd.Printf("Offsets:  %d-%d\n", chunk.StartChar, chunk.EndChar)
	cmd.Println()
	cmd.Println(chunk.Text)
	return nil
}
