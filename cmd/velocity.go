package cmd

import (
	"github.com/huangsam/popilot/core"
	"github.com/huangsam/popilot/internal/contract"
	"github.com/spf13/cobra"
)

// velocityCmd reports delivery over past sprints.
var velocityCmd = &cobra.Command{
	Use:   "velocity",
	Short: "Report delivered items and story points of past sprints.",
	Long: `Report the items, stories, bugs and story points delivered in the last
--take past sprints, whether each sprint goal was reached, and the health
of the current iteration (closed, committed and spillover shares).

When --history-backend is set, one snapshot per sprint is recorded so that
velocity can be tracked across runs (see 'popilot history').

Examples:
  # Last 10 sprints
  popilot velocity

  # Last 6 sprints, recorded in SQLite
  popilot velocity --take 6 --history-backend sqlite`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteVelocity(rootCtx, cfg, client, cacheManager); err != nil {
			contract.LogFatal("Cannot compute velocity", err)
		}
	},
}
