package cmd

import (
	"github.com/huangsam/popilot/core"
	"github.com/huangsam/popilot/internal/contract"
	"github.com/spf13/cobra"
)

// sprintEffortCmd sums effort per tag group and area.
var sprintEffortCmd = &cobra.Command{
	Use:   "sprint-effort [path]",
	Short: "Sum estimated, remaining and completed hours per tag group and area.",
	Long: `Sum the estimated, remaining and completed hours of sprint items,
grouped by the first matching tag of --group-by-tags and by area path.

Without a path, every current and future sprint is included. Completed
hours of past sprints are the completed work; for other sprints the
remaining work is added, since it is expected to be done by the end.

Examples:
  # Upcoming sprints grouped by roadmap tags
  popilot sprint-effort --group-by-tags roadmap,maintenance

  # A single sprint, only items tagged 'backend'
  popilot sprint-effort 'Shop\2024\Sprint 5' --tag-filters backend`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		if err := core.ExecuteSprintEffort(rootCtx, cfg, client, path); err != nil {
			contract.LogFatal("Cannot compute sprint effort", err)
		}
	},
}
