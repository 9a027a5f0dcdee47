package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/popilot/internal/parquet"
)

// ErrNoHistory is returned when there is nothing to export.
var ErrNoHistory = errors.New("no velocity history found to export")

// ExecuteHistoryExport writes every recorded velocity snapshot to a Parquet file.
func ExecuteHistoryExport(w io.Writer, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	store := Manager.GetHistoryStore()
	if store == nil {
		return errors.New("history store is not configured (set --history-backend)")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalSnapshots == 0 {
		return ErrNoHistory
	}
	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total snapshots: %d across %d sprints\n", status.TotalSnapshots, status.TotalSprints)

	snapshots, err := store.ListSnapshots()
	if err != nil {
		return fmt.Errorf("failed to retrieve velocity snapshots: %w", err)
	}

	rows := parquet.ConvertVelocitySnapshots(snapshots)
	if err := parquet.WriteVelocitySnapshotsParquet(rows, outputFile); err != nil {
		return fmt.Errorf("failed to write velocity snapshots: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d velocity snapshots to: %s\n", len(rows), outputFile)
	return nil
}
