package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docuchat/internal/adapters/driving/mcp"
	"github.com/custodia-labs/docuchat/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Tools: ask, summarize_documents, search_chunks and ingest_document.

Use --port to start an HTTP server instead; Prometheus metrics are then
also served at /metrics on the same port. --metrics-addr exposes them on
a separate listener in either mode.

Examples:
  # Stdio mode (default, for Claude Desktop)
  docuchat mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  docuchat mcp serve --port 8080

  # Stdio with metrics on :9090
  docuchat mcp serve --metrics-addr :9090

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "docuchat": {
        "command": "/path/to/docuchat",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().String("metrics-addr", "", "address for a separate /metrics listener")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	metricsAddr, err := cmd.Flags().GetString("metrics-addr")
	if err != nil {
		return fmt.Errorf("getting metrics-addr flag: %w", err)
	}

	svc := current()
	if metricsAddr == "" {
		metricsAddr = svc.MetricsAddr
	}
	ports := &mcp.Ports{
		Answer:    svc.Answer,
		Retrieval: svc.Retrieval,
		Ingestion: svc.Ingestion,
		Health:    svc.Health,
	}

	var opts []mcp.Option
	if svc.Metrics != nil {
		opts = append(opts, mcp.WithMetrics(svc.Metrics.Handler()))
	}
	server, err := mcp.NewServer(ports, opts...)
	if err != nil {
		return err
	}

	if metricsAddr != "" && svc.Metrics != nil {
		metricsServer := svc.Metrics.Serve(metricsAddr)
		defer metricsServer.Close()
		logger.Info("Metrics listening on %s", metricsAddr)
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
