// Package cmd defines the command-line interface for popilot.
package cmd

import (
	"github.com/huangsam/popilot/internal/contract"
	"github.com/huangsam/popilot/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(sprintsCmd)
	rootCmd.AddCommand(currentSprintCmd)
	rootCmd.AddCommand(sprintCmd)
	rootCmd.AddCommand(capacitiesCmd)
	rootCmd.AddCommand(sprintEffortCmd)
	rootCmd.AddCommand(velocityCmd)
	rootCmd.AddCommand(workItemCmd)
	rootCmd.AddCommand(inheritTagsCmd)
	rootCmd.AddCommand(queriesCmd)
	rootCmd.AddCommand(prioritiesCmd)
	rootCmd.AddCommand(createWorkItemCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("base-url", "", "Organization url (e.g., https://dev.azure.com/my-org)")
	rootCmd.PersistentFlags().String("pat", "", "Personal access token (prefer the POPILOT_PAT env variable)")
	rootCmd.PersistentFlags().String("project", "", "Azure DevOps project")
	rootCmd.PersistentFlags().String("team", "", "Team within the project")
	rootCmd.PersistentFlags().String("non-roadmap-work-parent-title", "", "Parent title that marks work as non-roadmap")
	rootCmd.PersistentFlags().String("timeout", contract.DefaultTimeout.String(), "Timeout of a single API request")
	rootCmd.PersistentFlags().String("output", string(schema.TableOut), "Output format: table or csv or json or yaml or markdown or xml or html")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored cells in table output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent API requests")
	rootCmd.PersistentFlags().Int("parent-depth", contract.DefaultParentDepth, "Number of ancestor levels to resolve per work item")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("cache-ttl", contract.DefaultCacheTTL.String(), "How long cached API responses stay valid")
	rootCmd.PersistentFlags().String("history-backend", "", "Velocity history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for velocity history (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("log-level", contract.DefaultLogLevel, "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-format", contract.DefaultLogFormat, "Log format: console or json")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of capacitiesCmd to Viper
	capacitiesCmd.Flags().String("sprint", "", "Sprint path prefix (defaults to the current sprint)")
	capacitiesCmd.Flags().String("work-item-types", contract.DefaultWorkItemTypes, "Comma-separated work item types whose history counts")
	capacitiesCmd.Flags().String("attribution", string(schema.ChangedByAssignedTo), "Who a work delta belongs to: changed-by or assigned-to or changed-by-assigned-to")
	if err := viper.BindPFlags(capacitiesCmd.Flags()); err != nil {
		contract.LogFatal("Error binding capacities flags", err)
	}

	// Bind all flags of sprintEffortCmd to Viper
	sprintEffortCmd.Flags().String("group-by-tags", "", "Comma-separated tags that form the groups")
	sprintEffortCmd.Flags().String("tag-filters", "", "Comma-separated tags an item needs to be counted")
	if err := viper.BindPFlags(sprintEffortCmd.Flags()); err != nil {
		contract.LogFatal("Error binding sprint-effort flags", err)
	}

	// Bind all flags of velocityCmd to Viper
	velocityCmd.Flags().Int("take", contract.DefaultTake, "Number of past sprints to include")
	if err := viper.BindPFlags(velocityCmd.Flags()); err != nil {
		contract.LogFatal("Error binding velocity flags", err)
	}

	// Bind all flags of inheritTagsCmd to Viper
	inheritTagsCmd.Flags().String("tags", "", "Comma-separated tags to inherit from parents")
	inheritTagsCmd.Flags().Bool("dry-run", false, "Show what would be tagged without changing anything")
	if err := viper.BindPFlags(inheritTagsCmd.Flags()); err != nil {
		contract.LogFatal("Error binding inherit-tags flags", err)
	}

	// Bind all flags of prioritiesCmd to Viper
	prioritiesCmd.Flags().String("priority-order", "", "Comma-separated query names to list first, in this order")
	prioritiesCmd.Flags().Bool("skip-statistics", false, "Leave out the sprint statistics and iteration health")
	if err := viper.BindPFlags(prioritiesCmd.Flags()); err != nil {
		contract.LogFatal("Error binding priorities flags", err)
	}

	// The create-work-item flags are read from the command itself
	addCreateWorkItemFlags(createWorkItemCmd)
	if err := createWorkItemCmd.MarkFlagRequired("sprint"); err != nil {
		contract.LogFatal("Error marking create-work-item flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
