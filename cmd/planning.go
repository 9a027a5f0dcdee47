package cmd

import (
	"fmt"

	"github.com/huangsam/popilot/core"
	"github.com/huangsam/popilot/internal/contract"
	"github.com/huangsam/popilot/schema"
	"github.com/spf13/cobra"
)

// queriesCmd lists the saved queries of the project.
var queriesCmd = &cobra.Command{
	Use:   "queries",
	Short: "List the saved queries and query folders of the project.",
	Long: `List the saved queries and folders of the project two levels deep,
with the id that inherit-tags and priorities work with.

Examples:
  popilot queries
  popilot queries --output csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteQueries(rootCtx, cfg, client); err != nil {
			contract.LogFatal("Cannot list queries", err)
		}
	},
}

// prioritiesCmd reports the progress of the team's priority queries.
var prioritiesCmd = &cobra.Command{
	Use:   "priorities",
	Short: "Report the progress of every 'Priority - ' query against the current sprint.",
	Long: `Run every saved query whose name starts with 'Priority - ' and report how
many of its features, stories, bugs and tasks are closed and which of them
are planned in the current sprint.

Query folders named '<name> Team' are skipped unless <name> Team is --team.
Escalations also get a forecast when part of their work is planned later in
the current iteration. Releases show the target date of their root item.

The report ends with the sprint statistics and the iteration health of the
velocity report, unless --skip-statistics is given.

Examples:
  # Priorities sorted by name
  popilot priorities

  # Escalations first
  popilot priorities --priority-order 'Priority - Escalation - Acme,Priority - Release 5'`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecutePriorities(rootCtx, cfg, client); err != nil {
			contract.LogFatal("Cannot report priorities", err)
		}
	},
}

// createWorkItemCmd creates a work item in a sprint.
var createWorkItemCmd = &cobra.Command{
	Use:   "create-work-item <title>",
	Short: "Create a work item in a sprint of the team.",
	Long: `Create a work item in the team's default area and the one sprint whose
path contains --sprint (case-insensitive).

--assignee picks the one team member with capacity in that sprint whose
name contains the value. --effort sets the original estimate and the
remaining work. --parent links the new item to an existing one.

Examples:
  popilot create-work-item 'Update release notes' --sprint 'Sprint 5'
  popilot create-work-item 'Fix login' --type Bug --sprint 'Sprint 5' --assignee alice --effort 4 --parent 4711`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, args []string) {
		req, err := newWorkItemRequest(cmd, args[0])
		if err != nil {
			contract.LogFatal("Cannot create work item", err)
		}
		if err := core.ExecuteCreateWorkItem(rootCtx, cfg, client, req); err != nil {
			contract.LogFatal("Cannot create work item", err)
		}
	},
}

func addCreateWorkItemFlags(c *cobra.Command) {
	c.Flags().String("type", schema.TypeTask, "Work item type")
	c.Flags().String("sprint", "", "Part of the sprint path, must match exactly one sprint")
	c.Flags().String("assignee", "", "Part of the assignee's display name, must match exactly one team member")
	c.Flags().Float64("effort", 0, "Original estimate and remaining work in hours")
	c.Flags().Int("parent", 0, "Id of the parent work item")
}

// newWorkItemRequest reads the create-work-item flags.
// They are not bound to viper, since --sprint is already a capacities key there.
func newWorkItemRequest(cmd *cobra.Command, title string) (core.NewWorkItemRequest, error) {
	flags := cmd.Flags()
	req := core.NewWorkItemRequest{Title: title}
	var err error
	if req.Type, err = flags.GetString("type"); err != nil {
		return req, err
	}
	if req.Sprint, err = flags.GetString("sprint"); err != nil {
		return req, err
	}
	if req.Assignee, err = flags.GetString("assignee"); err != nil {
		return req, err
	}
	if flags.Changed("effort") {
		effort, err := flags.GetFloat64("effort")
		if err != nil {
			return req, err
		}
		req.Effort = schema.Float(effort)
	}
	if flags.Changed("parent") {
		parent, err := flags.GetInt("parent")
		if err != nil {
			return req, err
		}
		if parent <= 0 {
			return req, fmt.Errorf("invalid parent id %d", parent)
		}
		req.ParentID = schema.Int(parent)
	}
	return req, nil
}
