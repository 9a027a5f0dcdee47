package cmd

import (
	"github.com/huangsam/popilot/core"
	"github.com/huangsam/popilot/internal/contract"
	"github.com/spf13/cobra"
)

// sprintsCmd lists the sprints of the team.
var sprintsCmd = &cobra.Command{
	Use:   "sprints",
	Short: "List the sprints of the team.",
	Long: `List every sprint configured for the team with its time frame,
start and finish date and number of working days.

Examples:
  # List sprints of the configured team
  popilot sprints

  # Export sprints to YAML
  popilot sprints --output yaml --output-file sprints.yaml`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSprints(rootCtx, cfg, client); err != nil {
			contract.LogFatal("Cannot list sprints", err)
		}
	},
}

// currentSprintCmd lists the bugs and user stories of the current sprint.
var currentSprintCmd = &cobra.Command{
	Use:   "current-sprint",
	Short: "Show the bugs and user stories of the current sprint.",
	Long: `Show the bugs and user stories planned in the current sprint, ordered by stack rank.

Examples:
  # What is the team working on right now?
  popilot current-sprint

  # Share the sprint as a markdown table
  popilot current-sprint --output markdown`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSprintItems(rootCtx, cfg, client, ""); err != nil {
			contract.LogFatal("Cannot show current sprint", err)
		}
	},
}

// sprintCmd lists all items of a sprint.
var sprintCmd = &cobra.Command{
	Use:   "sprint <path>",
	Short: "Show all work items of a sprint.",
	Long: `Show all work items of the first sprint whose path starts with <path>,
ordered by stack rank.

Examples:
  # Items of a past sprint
  popilot sprint 'Shop\2024\Sprint 5'

  # Export to CSV
  popilot sprint 'Shop\2024\Sprint 5' --output csv --output-file sprint5.csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteSprintItems(rootCtx, cfg, client, args[0]); err != nil {
			contract.LogFatal("Cannot show sprint", err)
		}
	},
}
