package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docuchat/internal/core/domain"
)

var healthJSON bool

// errDegraded makes "docuchat health" exit non-zero when something is wrong.
var errDegraded = errors.New("pipeline is degraded")

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the store, embedding model and LLM providers",
	Long: `Pings the database, verifies the pgvector extension, loads the embedding
model and lists the LLM providers that have credentials.

Exits with an error when any check fails.`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().BoolVar(&healthJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	health := current().Health
	if health == nil {
		return errNotConfigured("health service")
	}

	report := health.Check(cmd.Context())

	if healthJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		cmd.Println(string(data))
	} else {
		printHealth(cmd, report)
	}

	if report.Status != domain.HealthHealthy {
		return errDegraded
	}
	return nil
}

func printHealth(cmd *cobra.Command, r domain.HealthReport) {
	cmd.Printf("Status: %s\n", r.Status)
	cmd.Println()
	cmd.Printf("  Store:          %s\n", r.Store)
	cmd.Printf("  Vector search:  %s\n", yesNo(r.VectorSupport))
	cmd.Printf("  Embedding:      %s (%s)\n", r.EmbeddingModel, readyText(r.EmbeddingReady))
	if len(r.Providers) == 0 {
		cmd.Printf("  LLM providers:  none\n")
	} else {
		for i, p := range r.Providers {
			label := "  LLM providers:  "
			if i > 0 {
				label = "                  "
			}
			cmd.Printf("%s%s\n", label, p.Description())
		}
	}

	if len(r.Problems) > 0 {
		cmd.Println()
		cmd.Println("Problems:")
		for _, p := range r.Problems {
			cmd.Printf("  - %s\n", p)
		}
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func readyText(b bool) string {
	if b {
		return "ready"
	}
	return "not ready"
}
