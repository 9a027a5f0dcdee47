package schema

import "time"

// CacheStatus represents the status of the response cache.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// HistoryStatus represents the status of the velocity history store.
type HistoryStatus struct {
	Backend        string           `json:"backend"`
	Connected      bool             `json:"connected"`
	SchemaVersion  uint             `json:"schema_version"`
	Dirty          bool             `json:"dirty"`
	TotalSnapshots int              `json:"total_snapshots"`
	TotalSprints   int              `json:"total_sprints"`
	LastRecorded   time.Time        `json:"last_recorded"`
	OldestRecorded time.Time        `json:"oldest_recorded"`
	TableSizes     map[string]int64 `json:"table_sizes"`
}

// VelocitySnapshot represents a row from the popilot_velocity_snapshots table.
type VelocitySnapshot struct {
	SnapshotID  int64
	RecordedAt  time.Time
	Project     string
	Team        string
	SprintPath  string
	SprintStart time.Time
	SprintEnd   time.Time
	Items       int32
	Stories     int32
	Bugs        int32
	StoryPoints int32
	GoalReached *bool
}
