package core

import (
	"context"
	"errors"
	"testing"

	"github.com/huangsam/popilot/internal/contract"
	"github.com/huangsam/popilot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetQueriesResults(t *testing.T) {
	client := &contract.MockDevOpsClient{}
	client.On("GetQueries", mock.Anything, testScope).Return([]schema.QueryItem{{ID: "q", Name: "Open bugs"}}, nil)

	list, err := GetQueriesResults(context.Background(), testConfig(), client)
	require.NoError(t, err)
	assert.Equal(t, []schema.QueryItem{{ID: "q", Name: "Open bugs"}}, list.Queries)

	failing := &contract.MockDevOpsClient{}
	failing.On("GetQueries", mock.Anything, testScope).Return(nil, errors.New("boom"))
	_, err = GetQueriesResults(context.Background(), testConfig(), failing)
	assert.Error(t, err)
}

func priorityQueries() []schema.QueryItem {
	return []schema.QueryItem{
		{ID: "f", Name: "Shared Queries", IsFolder: true},
		{ID: "rel", Name: "Priority - Release 5", Depth: 1},
		{ID: "esc", Name: "Priority - Escalation - Acme", Depth: 1},
		{ID: "other", Name: "Team B Team", IsFolder: true, Depth: 1},
		{ID: "hidden", Name: "Priority - Hidden", Depth: 2},
	}
}

func prioritiesClient() *contract.MockDevOpsClient {
	client := velocityClient()
	client.On("GetQueries", mock.Anything, testScope).Return(priorityQueries(), nil)
	client.On("RunQuery", mock.Anything, testScope, "rel").Return([]int{10, 11}, nil)
	client.On("RunQuery", mock.Anything, testScope, "esc").Return([]int{20}, nil)
	client.On("GetWorkItems", mock.Anything, []int{10, 11}).Return([]schema.WorkItem{
		{ID: 10, Type: schema.TypeEpic, Title: "Release 5"},
		{ID: 11, Type: schema.TypeUserStory, State: "Active", IterationPath: `Proj\R2\S1`, ParentID: schema.Int(10)},
	}, nil)
	client.On("GetWorkItems", mock.Anything, []int{20}).Return([]schema.WorkItem{
		{ID: 20, Type: schema.TypeBug, State: schema.StateClosed, IterationPath: `Proj\R1\S2 👎`},
	}, nil)
	return client
}

func TestGetPrioritiesResults(t *testing.T) {
	tests := []struct {
		name           string
		order          []string
		skipStatistics bool
		expected       []string
	}{
		{"by name", nil, false, []string{"Escalation Acme", "Release 5"}},
		{"configured order", []string{"Priority - Release 5"}, true, []string{"Release 5", "Escalation Acme"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := prioritiesClient()
			cfg := testConfig()
			cfg.PriorityOrder = tt.order
			cfg.SkipStatistics = tt.skipStatistics

			report, err := GetPrioritiesResults(context.Background(), cfg, client)
			require.NoError(t, err)
			assert.Equal(t, `Proj\R2\S1`, report.Sprint.Path)

			var names []string
			byName := make(map[string]schema.Priority)
			for _, p := range report.Priorities {
				names = append(names, p.Name)
				byName[p.Name] = p
			}
			assert.Equal(t, tt.expected, names)

			release := byName["Release 5"]
			assert.Equal(t, 1, release.Count)
			require.Len(t, release.SprintItems, 1)
			assert.Equal(t, 11, release.SprintItems[0].ID)
			require.NotNil(t, release.Root)
			assert.Equal(t, 10, release.Root.ID)

			escalation := byName["Escalation Acme"]
			assert.Equal(t, 1, escalation.CountClosed)
			assert.Empty(t, escalation.SprintItems)

			client.AssertNotCalled(t, "RunQuery", mock.Anything, testScope, "hidden")
			if tt.skipStatistics {
				assert.Nil(t, report.Statistics)
				client.AssertNotCalled(t, "GetWorkItemsOfIterationPath", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NotNil(t, report.Statistics)
			assert.Equal(t, 2, report.Statistics.Sprints)
			assert.NotNil(t, report.Iteration)
		})
	}
}

func TestGetPrioritiesResults_Errors(t *testing.T) {
	t.Run("no current sprint", func(t *testing.T) {
		client := &contract.MockDevOpsClient{}
		client.On("GetIterations", mock.Anything, testScope).Return(testIterations()[:2], nil)

		_, err := GetPrioritiesResults(context.Background(), testConfig(), client)
		assert.ErrorIs(t, err, ErrNoCurrentSprint)
	})

	t.Run("query fails", func(t *testing.T) {
		client := &contract.MockDevOpsClient{}
		client.On("GetIterations", mock.Anything, testScope).Return(testIterations(), nil)
		client.On("GetQueries", mock.Anything, testScope).Return(priorityQueries(), nil)
		client.On("RunQuery", mock.Anything, testScope, mock.Anything).Return(nil, errors.New("forbidden"))

		_, err := GetPrioritiesResults(context.Background(), testConfig(), client)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "forbidden")
	})

	t.Run("no past sprint keeps the priorities", func(t *testing.T) {
		client := &contract.MockDevOpsClient{}
		client.On("GetIterations", mock.Anything, testScope).Return(testIterations()[2:], nil)
		client.On("GetQueries", mock.Anything, testScope).Return([]schema.QueryItem{}, nil)

		report, err := GetPrioritiesResults(context.Background(), testConfig(), client)
		require.NoError(t, err)
		assert.Empty(t, report.Priorities)
		assert.Nil(t, report.Statistics)
	})
}

func TestMatchSprint(t *testing.T) {
	iterations := testIterations()
	tests := []struct {
		name     string
		part     string
		expected string
		err      error
	}{
		{"unique substring", `r2\s2`, `Proj\R2\S2`, nil},
		{"no match", "R9", "", ErrSprintNotFound},
		{"two matches", `R2\S`, "", ErrAmbiguousSprint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := matchSprint(iterations, tt.part)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.Path)
		})
	}
}

func TestGetCreateWorkItemResults(t *testing.T) {
	team := schema.TeamCapacity{Members: []schema.TeamMemberCapacity{
		{DisplayName: "Alice Smith", UniqueName: "alice@example.com"},
		{DisplayName: "Bob Smith"},
		{DisplayName: "Carol"},
	}}
	created := schema.WorkItem{ID: 42, Type: schema.TypeTask, Title: "Write docs", IterationPath: `Proj\R2\S2`}

	tests := []struct {
		name     string
		req      NewWorkItemRequest
		expected schema.NewWorkItem
		err      error
		errText  string
	}{
		{
			name:     "defaults to a task without assignee",
			req:      NewWorkItemRequest{Title: " Write docs ", Sprint: `R2\S2`},
			expected: schema.NewWorkItem{Type: schema.TypeTask, Title: "Write docs", IterationPath: `Proj\R2\S2`},
		},
		{
			name: "assignee by unique name with effort and parent",
			req:  NewWorkItemRequest{Type: schema.TypeBug, Title: "Write docs", Sprint: `r2\s2`, Assignee: "alice", Effort: schema.Float(3), ParentID: schema.Int(7)},
			expected: schema.NewWorkItem{
				Type: schema.TypeBug, Title: "Write docs", IterationPath: `Proj\R2\S2`,
				AssignedTo: "alice@example.com", Effort: schema.Float(3), ParentID: schema.Int(7),
			},
		},
		{
			name:     "assignee without unique name",
			req:      NewWorkItemRequest{Title: "Write docs", Sprint: `R2\S2`, Assignee: "carol"},
			expected: schema.NewWorkItem{Type: schema.TypeTask, Title: "Write docs", IterationPath: `Proj\R2\S2`, AssignedTo: "Carol"},
		},
		{name: "ambiguous assignee", req: NewWorkItemRequest{Title: "x", Sprint: `R2\S2`, Assignee: "smith"}, err: ErrAmbiguousMember},
		{name: "unknown assignee", req: NewWorkItemRequest{Title: "x", Sprint: `R2\S2`, Assignee: "dave"}, err: ErrMemberNotFound},
		{name: "ambiguous sprint", req: NewWorkItemRequest{Title: "x", Sprint: "R2"}, err: ErrAmbiguousSprint},
		{name: "missing title", req: NewWorkItemRequest{Sprint: "R2"}, errText: "title is required"},
		{name: "missing sprint", req: NewWorkItemRequest{Title: "x"}, errText: "sprint is required"},
		{name: "negative effort", req: NewWorkItemRequest{Title: "x", Sprint: `R2\S2`, Effort: schema.Float(-1)}, errText: "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &contract.MockDevOpsClient{}
			client.On("GetIterations", mock.Anything, testScope).Return(testIterations(), nil)
			client.On("GetCapacities", mock.Anything, testScope, mock.AnythingOfType("schema.Iteration")).Return(team, nil)
			client.On("CreateWorkItem", mock.Anything, testScope, mock.AnythingOfType("schema.NewWorkItem")).Return(created, nil)

			detail, err := GetCreateWorkItemResults(context.Background(), testConfig(), client, tt.req)
			switch {
			case tt.err != nil:
				assert.ErrorIs(t, err, tt.err)
				client.AssertNotCalled(t, "CreateWorkItem", mock.Anything, mock.Anything, mock.Anything)
				return
			case tt.errText != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errText)
				client.AssertNotCalled(t, "CreateWorkItem", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			client.AssertCalled(t, "CreateWorkItem", mock.Anything, testScope, tt.expected)
			assert.Equal(t, 42, detail.Item.ID)
			require.NotNil(t, detail.Sprint)
			assert.Equal(t, `Proj\R2\S2`, detail.Sprint.Path)
			if tt.req.Assignee == "" {
				client.AssertNotCalled(t, "GetCapacities", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestExecuteCreateWorkItem(t *testing.T) {
	client := &contract.MockDevOpsClient{}
	client.On("GetIterations", mock.Anything, testScope).Return(testIterations(), nil)
	client.On("CreateWorkItem", mock.Anything, testScope, mock.AnythingOfType("schema.NewWorkItem")).
		Return(schema.WorkItem{ID: 42, Title: "Write docs"}, nil)

	cfg := testConfig()
	cfg.OutputFile = t.TempDir() + "/created.json"
	require.NoError(t, ExecuteCreateWorkItem(context.Background(), cfg, client, NewWorkItemRequest{Title: "Write docs", Sprint: `R2\S2`}))
	assert.FileExists(t, cfg.OutputFile)
}
