// Package cli implements the docuchat command line with cobra.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docuchat/internal/core/ports/driven"
	"github.com/custodia-labs/docuchat/internal/core/ports/driving"
	"github.com/custodia-labs/docuchat/internal/logger"
	"github.com/custodia-labs/docuchat/internal/metrics"
)

// version is set at build time via SetVersion.
var version = "dev"

// Options are the global flags every command sees.
type Options struct {
	DataDir string
	Verbose bool

	// ConfigOnly is set for "docuchat config" commands, which only need the
	// config store and must work while the rest of the configuration is broken.
	ConfigOnly bool
}

// Services holds everything the commands call into. Fields may be nil when
// the corresponding dependency could not be configured; commands that need
// one report that instead of failing at startup.
type Services struct {
	Ingestion driving.IngestionService
	Retrieval driving.RetrievalService
	Answer    driving.AnswerService
	Health    driving.HealthService

	// Config is the writable config.toml store.
	Config driven.ConfigStore

	// Migrate applies schema migrations in the given direction.
	Migrate func(direction string, steps int) error

	// Metrics holds the Prometheus collectors the services record into.
	Metrics *metrics.Metrics

	// MetricsAddr is the configured /metrics listener, used when
	// "mcp serve" is given no --metrics-addr.
	MetricsAddr string

	// Close releases connections once the command finishes.
	Close func() error
}

// Bootstrap builds the services for one invocation from the global flags.
type Bootstrap func(ctx context.Context, opts Options) (*Services, error)

var (
	opts      Options
	bootstrap Bootstrap
	services  *Services
)

var rootCmd = &cobra.Command{
	Use:   "docuchat",
	Short: "Chat with your documents",
	Long: `DocuChat ingests PDF, DOCX, PPTX, TXT and CSV files into a Postgres
vector store and answers questions about them with references.

Configuration is read from the environment, a .env file and
<data-dir>/config.toml. Use "docuchat config" to inspect and edit it.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return teardown()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "data directory (default ~/.docuchat)")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose logging")
}

// SetVersion sets the version string reported by "docuchat version".
func SetVersion(v string) {
	version = v
}

// SetBootstrap installs the function that builds services before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// Execute runs the root command. Command output goes to stdout and
// logs to stderr.
func Execute(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

// setup enables logging and builds services once per process.
func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(opts.Verbose)
	if services != nil || bootstrap == nil || cmd == versionCmd {
		return nil
	}
	opts.ConfigOnly = underCommand(cmd, configCmd)
	built, err := bootstrap(cmd.Context(), opts)
	if err != nil {
		return err
	}
	services = built
	return nil
}

func underCommand(cmd, parent *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c == parent {
			return true
		}
	}
	return false
}

func teardown() error {
	if services == nil || services.Close == nil {
		return nil
	}
	return services.Close()
}

// errNotConfigured reports a dependency the current configuration lacks.
func errNotConfigured(what string) error {
	return errors.New(what + " not configured; run \"docuchat health\" for details")
}

// current returns the services, never nil.
func current() *Services {
	if services == nil {
		return &Services{}
	}
	return services
}
