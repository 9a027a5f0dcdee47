package cmd

import (
	"fmt"
	"strconv"

	"github.com/huangsam/popilot/core"
	"github.com/huangsam/popilot/internal/contract"
	"github.com/spf13/cobra"
)

// workItemCmd shows a single work item.
var workItemCmd = &cobra.Command{
	Use:   "work-item <id>",
	Short: "Show a work item with its parent chain.",
	Long: `Show the fields of a single work item, the sprint it is planned in
and its chain of parents up to --parent-depth levels.

Examples:
  popilot work-item 4711
  popilot work-item 4711 --output json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		id, err := strconv.Atoi(args[0])
		if err != nil || id <= 0 {
			contract.LogFatal("Cannot show work item", fmt.Errorf("invalid work item id %q", args[0]))
		}
		if err := core.ExecuteWorkItem(rootCtx, cfg, client, id); err != nil {
			contract.LogFatal("Cannot show work item", err)
		}
	},
}

// inheritTagsCmd copies parent tags onto query results.
var inheritTagsCmd = &cobra.Command{
	Use:   "inherit-tags <query-id>",
	Short: "Copy relevant parent tags onto the items of a saved query.",
	Long: `Run a saved query and give every result that has none of --tags the
first of --tags found on its parents (matched case-insensitively).

Items that already carry one of the tags are left alone. Use --dry-run
to see what would change.

Examples:
  # Preview
  popilot inherit-tags 1b2c3d4e-0000-0000-0000-000000000000 --tags roadmap,maintenance --dry-run

  # Apply
  popilot inherit-tags 1b2c3d4e-0000-0000-0000-000000000000 --tags roadmap,maintenance`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteInheritTags(rootCtx, cfg, client, args[0]); err != nil {
			contract.LogFatal("Cannot inherit tags", err)
		}
	},
}
