package cmd

import (
	"github.com/huangsam/popilot/core"
	"github.com/huangsam/popilot/internal/contract"
	"github.com/spf13/cobra"
)

// capacitiesCmd compares capacity with the work done per member and day.
var capacitiesCmd = &cobra.Command{
	Use:   "capacities",
	Short: "Compare team capacity with completed and burned down work per day.",
	Long: `Compare the planned capacity of every team member with the work they
completed and burned down on each working day of a sprint.

Work deltas come from the update history of the sprint's items. Each delta
is attributed to a team member by the --attribution rule:
- changed-by: whoever made the change
- assigned-to: whoever the item was assigned to at that revision
- changed-by-assigned-to: the member made the change and was the assignee

In table output, days before today are green when the work kept up with
capacity and red when it did not.

Examples:
  # Current sprint
  popilot capacities

  # A specific sprint, counting only tasks
  popilot capacities --sprint 'Shop\2024\Sprint 5' --work-item-types Task

  # Chart as HTML
  popilot capacities --output html --output-file capacity.html`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCapacities(rootCtx, cfg, client); err != nil {
			contract.LogFatal("Cannot compute capacities", err)
		}
	},
}
