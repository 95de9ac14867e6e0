package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/formscan/internal/mcp"
	"github.com/MeKo-Tech/formscan/internal/pipeline"
	"github.com/MeKo-Tech/formscan/internal/version"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve form structuring as MCP tools over stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout.

Tools:
  structure_form - structure a form from inline tokens or a token file
  map_question   - map a raw label to its canonical key

Logs are written to stderr so they never corrupt the protocol stream.`,
		Args: cobra.NoArgs,
		RunE: runMCP,
	}
	addPipelineFlags(cmd.Flags())
	return cmd
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	pl, err := pipeline.NewBuilderWithConfig(pipelineConfigFrom(cfg, cmd)).Build()
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer func() {
		if err := pl.Close(); err != nil {
			slog.Error("Error closing pipeline", "error", err)
		}
	}()

	srv, err := mcp.NewServer("formscan", version.Version, pl)
	if err != nil {
		return err
	}
	slog.Info("Starting MCP server on stdio")
	return srv.Run(cmd.Context())
}
