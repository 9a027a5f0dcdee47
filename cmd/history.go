package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/huangsam/popilot/internal/contract"
	"github.com/huangsam/popilot/internal/iocache"
	"github.com/huangsam/popilot/schema"
	"github.com/spf13/cobra"
)

// historySetup loads minimal configuration needed for history operations.
// This is used by commands that need history access without full shared setup.
func historySetup() error {
	if err := storeSetup(); err != nil {
		return err
	}
	if cfg.HistoryBackend == "" {
		cfg.HistoryBackend = schema.NoneBackend
	}

	// Initialize stores with the loaded config (no response cache for history commands)
	if err := iocache.InitStores(schema.NoneBackend, "", cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}
	return nil
}

// historySetupWrapper wraps historySetup to provide PreRunE for history commands.
func historySetupWrapper(_ *cobra.Command, _ []string) error {
	return historySetup()
}

// historyMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func historyMigrateSetup() error {
	if err := storeSetup(); err != nil {
		return err
	}
	if cfg.HistoryBackend == "" {
		cfg.HistoryBackend = schema.NoneBackend
	}

	// For SQLite backend with empty connection string, use default path
	if cfg.HistoryBackend == schema.SQLiteBackend && cfg.HistoryDBConnect == "" {
		cfg.HistoryDBConnect = contract.GetHistoryDBFilePath()
	}
	return nil
}

// historyMigrateSetupWrapper wraps historyMigrateSetup to provide PreRunE for migrate command.
func historyMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return historyMigrateSetup()
}

// historyCmd focused on velocity history management.
//
// Note: History subcommands use minimal initialization (historySetup) instead of
// the full sharedSetup used by report commands.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage recorded velocity history and exports",
	Long: `Manage the velocity snapshots recorded by 'popilot velocity'.

When --history-backend is set, every velocity run stores one snapshot per
sprint with the delivered items, stories, bugs and story points and whether
the sprint goal was reached. This enables tracking delivery over time and
exporting it for BI tools.

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show history statistics
  export  - Export snapshots to Parquet for analytics
  clear   - Remove all snapshots
  migrate - Run database schema migrations

Examples:
  # Check history status
  popilot history status --history-backend sqlite

  # Export for analysis in pandas/DuckDB
  popilot history export --history-backend sqlite --output-file velocity.parquet`,
}

// historyClearCmd clears the velocity history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded velocity snapshots",
	Long: `Delete all recorded velocity snapshots and the schema version.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  popilot history export --history-backend sqlite --output-file backup.parquet
  popilot history clear --history-backend sqlite`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if cfg.HistoryBackend == "" {
			contract.LogFatal("Failed to clear history", errors.New("--history-backend is required"))
		}
		dbFilePath := cfg.HistoryDBConnect
		if dbFilePath == "" {
			dbFilePath = contract.GetHistoryDBFilePath()
		}
		if err := iocache.ClearHistory(cfg.HistoryBackend, dbFilePath, cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear history", err)
		}
		fmt.Println("Velocity history cleared successfully.")
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display velocity history statistics and connection details",
	Long: `Show detailed information about the recorded velocity history.

Displays:
- Backend type and schema version
- Total number of snapshots and distinct sprints
- Last and oldest recording timestamps
- Database table sizes

Examples:
  popilot history status --history-backend sqlite`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetHistoryStore()
		if store == nil {
			contract.LogFatal("Failed to get history status", errors.New("history is disabled (set --history-backend)"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		iocache.PrintHistoryStatus(os.Stdout, status)
	},
}

// historyExportCmd exports velocity snapshots to a Parquet file.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export velocity snapshots to Parquet for BI tools and analytics",
	Long: `Export all recorded velocity snapshots to a Parquet file.

Requires: --output-file parameter

Examples:
  # Export all data
  popilot history export --history-backend sqlite --output-file velocity.parquet

  # Use with DuckDB for analysis
  duckdb -c "SELECT team, sprint_path, story_points FROM read_parquet('velocity.parquet')"`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteHistoryExport(os.Stdout, cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export velocity history", err)
		}
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the velocity history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  popilot history migrate --history-backend sqlite

  # Rollback to initial state
  popilot history migrate --history-backend sqlite --target-version 0`,
	PreRunE: historyMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		result, err := iocache.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, cfg.TargetVersion)
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		fmt.Println(result.String())
	},
}
