package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docuchat/internal/core/domain"
)

var (
	ingestDocID string
	ingestOwner string
	ingestName  string
	ingestJSON  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Extract, chunk and embed a document",
	Long: `Extracts text from a PDF, DOCX, PPTX, TXT or CSV file, splits it into
overlapping chunks and stores each chunk with its embedding.

The document is registered as pending first if no row with the given ID
exists. Scanned PDF pages fall back to OCR when tesseract is installed.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDocID, "id", "", "document ID (default: a new UUID)")
	ingestCmd.Flags().StringVar(&ingestOwner, "owner", "", "owning user ID (required)")
	ingestCmd.Flags().StringVar(&ingestName, "name", "", "display name (default: the file's base name)")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the result as JSON")
	_ = ingestCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ingestion := current().Ingestion
	if ingestion == nil {
		return errNotConfigured("ingestion")
	}

	path := args[0]
	docID := ingestDocID
	if docID == "" {
		docID = uuid.NewString()
	}
	name := ingestName
	if name == "" {
		name = filepath.Base(path)
	}

	ctx := cmd.Context()
	err := ingestion.Register(ctx, domain.Document{ID: docID, OwnerID: ingestOwner, FileName: name})
	if err != nil {
		return fmt.Errorf("registering document: %w", err)
	}

	result, procErr := ingestion.Process(ctx, docID, path, ingestOwner)
	if ingestJSON {
		data, err := json.MarshalIndent(struct {
			DocumentID string `json:"document_id"`
			*domain.IngestResult
		}{docID, result}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return procErr
	}

	if procErr != nil {
		return fmt.Errorf("document processing failed: %w", procErr)
	}

	cmd.Printf("Document: %s (%s)\n", name, docID)
	cmd.Printf("  %s\n", result.Message)
	cmd.Printf("  Pages:  %d\n", result.PageCount)
	cmd.Printf("  Chunks: %d/%d stored\n", result.ChunkCount, result.TotalChunks)
	if failed := result.FailedChunks(); failed > 0 {
		cmd.Printf("  Skipped: %d chunks failed (see log)\n", failed)
	}
	return nil
}
