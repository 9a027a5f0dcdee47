// Package parquet exports recorded velocity history to Parquet files
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/popilot/schema"
	"github.com/parquet-go/parquet-go"
)

// VelocitySnapshot is one sprint's delivery as recorded by a velocity run.
// This struct maps to the popilot_velocity_snapshots database table.
type VelocitySnapshot struct {
	// SnapshotID is the row id in the history store
	SnapshotID int64 `parquet:"snapshot_id,snappy"`

	// RecordedAt is when the velocity run happened (UTC)
	RecordedAt time.Time `parquet:"recorded_at,snappy"`

	Project    string `parquet:"project,snappy"`
	Team       string `parquet:"team,snappy"`
	SprintPath string `parquet:"sprint_path,snappy"`

	SprintStart time.Time `parquet:"sprint_start,snappy"`
	SprintEnd   time.Time `parquet:"sprint_end,snappy"`

	// Delivered counts
	Items       int32 `parquet:"items,snappy"`
	Stories     int32 `parquet:"stories,snappy"`
	Bugs        int32 `parquet:"bugs,snappy"`
	StoryPoints int32 `parquet:"story_points,snappy"`

	// GoalReached is null when the sprint name carries no goal marker
	GoalReached *bool `parquet:"goal_reached,optional,snappy"`
}

// WriteVelocitySnapshotsParquet writes a slice of VelocitySnapshot structs to a Parquet file.
func WriteVelocitySnapshotsParquet(data []VelocitySnapshot, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is derived from the struct tags
	writer := parquet.NewGenericWriter[VelocitySnapshot](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}

// ConvertVelocitySnapshots converts history rows to their Parquet form.
func ConvertVelocitySnapshots(records []schema.VelocitySnapshot) []VelocitySnapshot {
	result := make([]VelocitySnapshot, len(records))
	for i, r := range records {
		result[i] = VelocitySnapshot{
			SnapshotID:  r.SnapshotID,
			RecordedAt:  r.RecordedAt.UTC(),
			Project:     r.Project,
			Team:        r.Team,
			SprintPath:  r.SprintPath,
			SprintStart: r.SprintStart.UTC(),
			SprintEnd:   r.SprintEnd.UTC(),
			Items:       r.Items,
			Stories:     r.Stories,
			Bugs:        r.Bugs,
			StoryPoints: r.StoryPoints,
			GoalReached: r.GoalReached,
		}
	}
	return result
}
