// Package contract provides interfaces and shared utilities for popilot's internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/popilot/schema"
)

// IterationSource supplies sprints and the work items planned in them.
type IterationSource interface {
	// GetIterations returns the team's sprints in calendar order.
	GetIterations(ctx context.Context, scope schema.ScopeContext) ([]schema.Iteration, error)

	// GetWorkItemsOfIterationPath returns the items of an iteration path with their parent chain resolved.
	GetWorkItemsOfIterationPath(ctx context.Context, scope schema.ScopeContext, path string) ([]schema.WorkItem, error)
}

// WorkItemHistorySource supplies the update history of a work item.
type WorkItemHistorySource interface {
	// GetWorkItemHistory returns the updates of a work item ordered by revision.
	GetWorkItemHistory(ctx context.Context, id int) ([]schema.FieldChange, error)
}

// CapacitySource supplies planned capacity and days off for a sprint.
type CapacitySource interface {
	GetCapacities(ctx context.Context, scope schema.ScopeContext, iteration schema.Iteration) (schema.TeamCapacity, error)
}

// WorkItemSource reads single items and saved queries.
type WorkItemSource interface {
	// GetWorkItems returns the given items with their parent chain resolved.
	GetWorkItems(ctx context.Context, ids []int) ([]schema.WorkItem, error)

	// RunQuery runs a saved query and returns the ids it yields.
	RunQuery(ctx context.Context, scope schema.ScopeContext, queryID string) ([]int, error)

	// GetQueries returns the saved queries and folders of the project, parents before children.
	GetQueries(ctx context.Context, scope schema.ScopeContext) ([]schema.QueryItem, error)
}

// WorkItemWriter changes work items.
type WorkItemWriter interface {
	// AddTag appends a tag to a work item.
	AddTag(ctx context.Context, id int, tag string) error

	// CreateWorkItem creates a work item and returns it as stored.
	CreateWorkItem(ctx context.Context, scope schema.ScopeContext, item schema.NewWorkItem) (schema.WorkItem, error)
}

// DevOpsClient is everything popilot needs from the project management system.
// This allows the core logic to be tested without a real server.
type DevOpsClient interface {
	IterationSource
	WorkItemHistorySource
	CapacitySource
	WorkItemSource
	WorkItemWriter
}

// CacheManager defines the interface for managing stores.
// This allows the storage layer to be mocked for testing.
type CacheManager interface {
	GetResponseStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for cached API responses.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore keeps velocity snapshots across runs.
type HistoryStore interface {
	// RecordSnapshot stores one sprint's delivery and returns the row id
	RecordSnapshot(recordedAt time.Time, scope schema.ScopeContext, sprint schema.SprintVelocity) (int64, error)

	// ListSnapshots returns all snapshots ordered by id
	ListSnapshots() ([]schema.VelocitySnapshot, error)

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// Close closes the underlying connection
	Close() error
}
