package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brianwhu/xillium-sub000/internal/crud"
	"github.com/brianwhu/xillium-sub000/internal/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for action compilation",
	Long: `Start the Model Context Protocol (MCP) server that lets coding assistants
compile CRUD actions against the configured database.

The MCP server:
- Provides the crud_compile tool for ad hoc actions
- Provides the crud_action tool for the configured action catalog
- Communicates via stdio (standard MCP transport)

Example:
  crudc mcp`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	catalog, err := loadCatalog("")
	if err != nil {
		return err
	}
	registry := crud.NewRegistry(s.compiler, catalog)
	if err := registry.Precompile(ctx, precompileLimit); err != nil {
		return fmt.Errorf("failed to compile action catalog: %w", err)
	}
	logger.Info("action catalog ready", "actions", len(catalog))

	server := mcp.NewServer(Version, s.compiler, registry, logger)
	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
