package cmd

import (
	"github.com/huangsam/popilot/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the popilot MCP server",
	Long: `Launch an MCP server on stdio that allows AI agents to read sprints,
capacities, effort, velocity and work items via standard tools.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, client)
	},
}
