package contract

import (
	"context"

	"github.com/huangsam/popilot/schema"
	"github.com/stretchr/testify/mock"
)

// MockDevOpsClient is a mock implementation of DevOpsClient for testing.
type MockDevOpsClient struct {
	mock.Mock
}

var _ DevOpsClient = &MockDevOpsClient{} // Compile-time check

// GetIterations implements the DevOpsClient interface.
func (m *MockDevOpsClient) GetIterations(ctx context.Context, scope schema.ScopeContext) ([]schema.Iteration, error) {
	ret := m.Called(ctx, scope)
	iterations, _ := ret.Get(0).([]schema.Iteration)
	return iterations, ret.Error(1)
}

// GetWorkItemsOfIterationPath implements the DevOpsClient interface.
func (m *MockDevOpsClient) GetWorkItemsOfIterationPath(ctx context.Context, scope schema.ScopeContext, path string) ([]schema.WorkItem, error) {
	ret := m.Called(ctx, scope, path)
	items, _ := ret.Get(0).([]schema.WorkItem)
	return items, ret.Error(1)
}

// GetWorkItemHistory implements the DevOpsClient interface.
func (m *MockDevOpsClient) GetWorkItemHistory(ctx context.Context, id int) ([]schema.FieldChange, error) {
	ret := m.Called(ctx, id)
	changes, _ := ret.Get(0).([]schema.FieldChange)
	return changes, ret.Error(1)
}

// GetCapacities implements the DevOpsClient interface.
func (m *MockDevOpsClient) GetCapacities(ctx context.Context, scope schema.ScopeContext, iteration schema.Iteration) (schema.TeamCapacity, error) {
	ret := m.Called(ctx, scope, iteration)
	capacity, _ := ret.Get(0).(schema.TeamCapacity)
	return capacity, ret.Error(1)
}

// GetWorkItems implements the DevOpsClient interface.
func (m *MockDevOpsClient) GetWorkItems(ctx context.Context, ids []int) ([]schema.WorkItem, error) {
	ret := m.Called(ctx, ids)
	items, _ := ret.Get(0).([]schema.WorkItem)
	return items, ret.Error(1)
}

// RunQuery implements the DevOpsClient interface.
func (m *MockDevOpsClient) RunQuery(ctx context.Context, scope schema.ScopeContext, queryID string) ([]int, error) {
	ret := m.Called(ctx, scope, queryID)
	ids, _ := ret.Get(0).([]int)
	return ids, ret.Error(1)
}

// GetQueries implements the DevOpsClient interface.
func (m *MockDevOpsClient) GetQueries(ctx context.Context, scope schema.ScopeContext) ([]schema.QueryItem, error) {
	ret := m.Called(ctx, scope)
	queries, _ := ret.Get(0).([]schema.QueryItem)
	return queries, ret.Error(1)
}

// AddTag implements the DevOpsClient interface.
func (m *MockDevOpsClient) AddTag(ctx context.Context, id int, tag string) error {
	ret := m.Called(ctx, id, tag)
	return ret.Error(0)
}

// CreateWorkItem implements the DevOpsClient interface.
func (m *MockDevOpsClient) CreateWorkItem(ctx context.Context, scope schema.ScopeContext, item schema.NewWorkItem) (schema.WorkItem, error) {
	ret := m.Called(ctx, scope, item)
	created, _ := ret.Get(0).(schema.WorkItem)
	return created, ret.Error(1)
}
