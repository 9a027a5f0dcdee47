package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/huangsam/popilot/internal/contract"
	"github.com/huangsam/popilot/internal/iocache"
	"github.com/huangsam/popilot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testScope = schema.ScopeContext{Project: "Proj", Team: "Team A"}

func date(month time.Month, d int) time.Time {
	return time.Date(2024, month, d, 0, 0, 0, 0, time.UTC)
}

func sprint(path string, frame schema.TimeFrame, start, finish time.Time) schema.Iteration {
	return schema.Iteration{ID: path, Name: path, Path: path, TimeFrame: frame, StartDate: start, FinishDate: finish}
}

// testIterations are two releases of two sprints each, the current one being R2\S1.
func testIterations() []schema.Iteration {
	return []schema.Iteration{
		sprint(`Proj\R1\S1 👍`, schema.PastFrame, date(time.January, 1), date(time.January, 12)),
		sprint(`Proj\R1\S2 👎`, schema.PastFrame, date(time.January, 15), date(time.January, 26)),
		sprint(`Proj\R2\S1`, schema.CurrentFrame, date(time.March, 4), date(time.March, 8)),
		sprint(`Proj\R2\S2`, schema.FutureFrame, date(time.March, 11), date(time.March, 22)),
	}
}

func testConfig() *contract.Config {
	return &contract.Config{
		Scope:         testScope,
		Workers:       2,
		Take:          10,
		WorkItemTypes: []string{schema.TypeTask, schema.TypeBug},
		Attribution:   schema.ChangedByAssignedTo,
		Output:        schema.JSONOut,
	}
}

func TestSelectSprint(t *testing.T) {
	iterations := testIterations()
	tests := []struct {
		name     string
		path     string
		expected string
		err      error
	}{
		{"current sprint", "", `Proj\R2\S1`, nil},
		{"exact path", `Proj\R2\S2`, `Proj\R2\S2`, nil},
		{"prefix picks first", `Proj\R1`, `Proj\R1\S1 👍`, nil},
		{"path without marker", `Proj\R1\S2`, `Proj\R1\S2 👎`, nil},
		{"unknown", `Proj\R9`, "", ErrSprintNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectSprint(iterations, tt.path)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.Path)
		})
	}

	_, err := findCurrent(iterations[:2])
	assert.ErrorIs(t, err, ErrNoCurrentSprint)
}

func TestGetSprintItemsResults(t *testing.T) {
	items := []schema.WorkItem{
		{ID: 1, Type: schema.TypeTask, StackRank: schema.Float(1)},
		{ID: 2, Type: schema.TypeBug, StackRank: schema.Float(30)},
		{ID: 3, Type: schema.TypeUserStory, StackRank: schema.Float(20)},
		{ID: 4, Type: schema.TypeFeature},
	}
	tests := []struct {
		name     string
		path     string
		fetched  string
		expected []int
	}{
		{"current sprint keeps stories and bugs", "", `Proj\R2\S1`, []int{3, 2}},
		{"named sprint keeps all items", `Proj\R2\S2`, `Proj\R2\S2`, []int{1, 3, 2, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &contract.MockDevOpsClient{}
			client.On("GetIterations", mock.Anything, testScope).Return(testIterations(), nil)
			client.On("GetWorkItemsOfIterationPath", mock.Anything, testScope, tt.fetched).
				Return(append([]schema.WorkItem(nil), items...), nil)

			ctx := WithSuppressHeader(context.Background())
			result, err := GetSprintItemsResults(ctx, testConfig(), client, tt.path)
			require.NoError(t, err)

			var ids []int
			for _, w := range result.Items {
				ids = append(ids, w.ID)
			}
			assert.Equal(t, tt.expected, ids)
			assert.Equal(t, tt.fetched, result.Sprint.Path)
			client.AssertExpectations(t)
		})
	}
}

func TestGetSprintsResults_Error(t *testing.T) {
	client := &contract.MockDevOpsClient{}
	boom := errors.New("boom")
	client.On("GetIterations", mock.Anything, testScope).Return(nil, boom)

	_, err := GetSprintsResults(context.Background(), testConfig(), client)
	assert.ErrorIs(t, err, boom)
}

func TestGetCapacitiesResults(t *testing.T) {
	client := &contract.MockDevOpsClient{}
	client.On("GetIterations", mock.Anything, testScope).Return(testIterations(), nil)
	client.On("GetCapacities", mock.Anything, testScope, mock.MatchedBy(func(it schema.Iteration) bool {
		return it.Path == `Proj\R2\S1`
	})).Return(schema.TeamCapacity{
		Members: []schema.TeamMemberCapacity{{
			DisplayName: "Alice",
			Activities:  []schema.ActivityCapacity{{Name: "Development", CapacityPerDay: 6}},
		}},
	}, nil)
	client.On("GetWorkItemsOfIterationPath", mock.Anything, testScope, `Proj\R2\S1`).Return([]schema.WorkItem{
		{ID: 1, Type: schema.TypeTask, AssignedTo: "Alice"},
		{ID: 2, Type: schema.TypeUserStory, AssignedTo: "Alice"},
	}, nil)
	changedAt := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)
	client.On("GetWorkItemHistory", mock.Anything, 1).Return([]schema.FieldChange{{
		WorkItemID:    1,
		ChangedBy:     "Alice",
		ChangedAt:     &changedAt,
		CompletedWork: &schema.ValueChange{Old: schema.Float(0), New: schema.Float(3)},
	}}, nil)

	ctx := WithClock(WithSuppressHeader(context.Background()), func() time.Time {
		return time.Date(2024, time.March, 6, 12, 0, 0, 0, time.UTC)
	})
	result, err := GetCapacitiesResults(ctx, testConfig(), client)
	require.NoError(t, err)

	assert.Equal(t, `Proj\R2\S1`, result.Path)
	require.Len(t, result.TeamMembers, 1)
	row := result.TeamMembers[0]
	assert.Equal(t, 30.0, row.TotalCapacity)
	assert.Equal(t, 12.0, row.CapacityUntilToday)
	assert.Equal(t, 3.0, row.CompletedWorkDeltaUntilToday)
	// The user story is filtered out by type, so its history is never requested.
	client.AssertNotCalled(t, "GetWorkItemHistory", mock.Anything, 2)
	client.AssertExpectations(t)
}

func TestGetCapacitiesResults_SprintWithoutDates(t *testing.T) {
	client := &contract.MockDevOpsClient{}
	client.On("GetIterations", mock.Anything, testScope).Return([]schema.Iteration{
		{Path: `Proj\Backlog`, TimeFrame: schema.CurrentFrame},
	}, nil)

	_, err := GetCapacitiesResults(context.Background(), testConfig(), client)
	assert.ErrorContains(t, err, "no start and finish date")
}

func TestGetSprintEffortResults(t *testing.T) {
	client := &contract.MockDevOpsClient{}
	client.On("GetIterations", mock.Anything, testScope).Return(testIterations(), nil)
	client.On("GetWorkItemsOfIterationPath", mock.Anything, testScope, `Proj\R2\S1`).Return([]schema.WorkItem{
		{ID: 1, AreaPath: "Proj", Tags: []string{"ux"}, OriginalEstimate: schema.Float(4), CompletedWork: schema.Float(1), RemainingWork: schema.Float(3)},
	}, nil)
	client.On("GetWorkItemsOfIterationPath", mock.Anything, testScope, `Proj\R2\S2`).Return([]schema.WorkItem{
		{ID: 2, AreaPath: "Proj", OriginalEstimate: schema.Float(4), RemainingWork: schema.Float(4)},
	}, nil)

	cfg := testConfig()
	cfg.GroupByTags = []string{"ux"}
	report, err := GetSprintEffortResults(context.Background(), cfg, client, "")
	require.NoError(t, err)

	require.Len(t, report.Sprints, 2)
	assert.Equal(t, `Proj\R2\S1`, report.Sprints[0].Sprint.Path)
	assert.Equal(t, "ux", report.Sprints[0].Groups[0].Group)
	assert.Equal(t, schema.NoGroup, report.Sprints[1].Groups[0].Group)
	assert.Equal(t, 8.0, report.TotalEstimated)
	assert.Equal(t, 8.0, report.TotalCompleted)
	client.AssertExpectations(t)
}

func TestEffortSprints_NoOpenSprint(t *testing.T) {
	_, err := effortSprints(testIterations()[:2], "")
	assert.ErrorIs(t, err, ErrSprintNotFound)
}

// velocityClient serves the test iterations with one delivered story per past sprint.
func velocityClient() *contract.MockDevOpsClient {
	client := &contract.MockDevOpsClient{}
	client.On("GetIterations", mock.Anything, testScope).Return(testIterations(), nil)
	client.On("GetWorkItemsOfIterationPath", mock.Anything, testScope, `Proj\R1\S1 👍`).Return([]schema.WorkItem{
		{ID: 1, Type: schema.TypeUserStory, State: schema.StateClosed, IterationPath: `Proj\R1\S1 👍`, StoryPoints: schema.Int(3)},
		{ID: 2, Type: schema.TypeTask, State: schema.StateClosed, IterationPath: `Proj\R1\S1 👍`},
	}, nil)
	client.On("GetWorkItemsOfIterationPath", mock.Anything, testScope, `Proj\R1\S2 👎`).Return([]schema.WorkItem{
		{ID: 3, Type: schema.TypeBug, State: schema.StateClosed, IterationPath: `Proj\R1\S2 👎`},
		{ID: 4, Type: schema.TypeBug, State: "Active", IterationPath: `Proj\R1\S2 👎`},
	}, nil)
	client.On("GetWorkItemsOfIterationPath", mock.Anything, testScope, mock.AnythingOfType("string")).Return([]schema.WorkItem{}, nil)
	return client
}

func TestGetVelocityResults(t *testing.T) {
	client := velocityClient()

	report, err := GetVelocityResults(context.Background(), testConfig(), client)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Statistics.Sprints)
	assert.Equal(t, 2, report.Statistics.AllItems)
	assert.Equal(t, 1, report.Statistics.AllStories)
	assert.Equal(t, 1, report.Statistics.AllBugs)
	assert.Equal(t, 3, report.Statistics.AllStoryPoints)
	require.NotNil(t, report.Statistics.LastSprintGoalReached)
	assert.False(t, *report.Statistics.LastSprintGoalReached)

	require.Len(t, report.PerSprint, 2)
	assert.Equal(t, 1, report.PerSprint[0].Items)

	require.NotNil(t, report.Iteration)
	assert.Equal(t, `Proj\R2`, report.Iteration.Name)
	assert.Equal(t, `Proj\R1`, report.Iteration.PreviousIterationName)
	client.AssertCalled(t, "GetWorkItemsOfIterationPath", mock.Anything, testScope, `Proj\R2`)
	client.AssertCalled(t, "GetWorkItemsOfIterationPath", mock.Anything, testScope, `Proj\R1`)
}

func TestGetVelocityResults_NoPastSprint(t *testing.T) {
	client := &contract.MockDevOpsClient{}
	client.On("GetIterations", mock.Anything, testScope).Return(testIterations()[2:], nil)

	_, err := GetVelocityResults(context.Background(), testConfig(), client)
	assert.Error(t, err)
}

func TestGetVelocityResults_NoCurrentIteration(t *testing.T) {
	client := &contract.MockDevOpsClient{}
	client.On("GetIterations", mock.Anything, testScope).Return(testIterations()[:2], nil)
	client.On("GetWorkItemsOfIterationPath", mock.Anything, testScope, mock.AnythingOfType("string")).Return([]schema.WorkItem{}, nil)

	report, err := GetVelocityResults(context.Background(), testConfig(), client)
	require.NoError(t, err)
	assert.Nil(t, report.Iteration)
}

func TestExecuteVelocity_RecordsSnapshots(t *testing.T) {
	client := velocityClient()
	recordedAt := time.Date(2024, time.March, 6, 9, 0, 0, 0, time.UTC)

	history := &iocache.MockHistoryStore{}
	history.On("RecordSnapshot", recordedAt, testScope, mock.AnythingOfType("schema.SprintVelocity")).Return(int64(1), nil).Twice()
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetHistoryStore").Return(history)

	cfg := testConfig()
	cfg.OutputFile = t.TempDir() + "/velocity.json"
	ctx := WithClock(context.Background(), func() time.Time { return recordedAt })

	require.NoError(t, ExecuteVelocity(ctx, cfg, client, mgr))
	history.AssertExpectations(t)
	mgr.AssertExpectations(t)
	assert.FileExists(t, cfg.OutputFile)
}

func TestGetWorkItemResults(t *testing.T) {
	client := &contract.MockDevOpsClient{}
	client.On("GetWorkItems", mock.Anything, []int{7}).Return([]schema.WorkItem{{ID: 7, IterationPath: `Proj\R2\S2`}}, nil)
	client.On("GetIterations", mock.Anything, testScope).Return(testIterations(), nil)

	detail, err := GetWorkItemResults(context.Background(), testConfig(), client, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, detail.Item.ID)
	require.NotNil(t, detail.Sprint)
	assert.Equal(t, `Proj\R2\S2`, detail.Sprint.Path)
}

func TestGetWorkItemResults_NotFound(t *testing.T) {
	client := &contract.MockDevOpsClient{}
	client.On("GetWorkItems", mock.Anything, []int{7}).Return([]schema.WorkItem{}, nil)

	_, err := GetWorkItemResults(context.Background(), testConfig(), client, 7)
	assert.ErrorIs(t, err, ErrWorkItemNotFound)
}

func TestGetInheritTagsResults(t *testing.T) {
	items := []schema.WorkItem{
		{ID: 1, Title: "tagged", Tags: []string{"Committed"}, Parents: []schema.ParentRef{{ID: 10, Tags: []string{"spillover"}}}},
		{ID: 2, Title: "orphan"},
		{ID: 3, Title: "child", Tags: []string{"ux"}, Parents: []schema.ParentRef{
			{ID: 20, Tags: []string{"backend"}},
			{ID: 30, Tags: []string{"spillover", "committed"}},
		}},
	}
	tests := []struct {
		name     string
		dryRun   bool
		expected schema.TagAction
	}{
		{"writes tags", false, schema.TagInherited},
		{"dry run", true, schema.TagWouldInherit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &contract.MockDevOpsClient{}
			client.On("RunQuery", mock.Anything, testScope, "q-1").Return([]int{1, 2, 3}, nil)
			client.On("GetWorkItems", mock.Anything, []int{1, 2, 3}).Return(items, nil)
			if !tt.dryRun {
				client.On("AddTag", mock.Anything, 3, "spillover").Return(nil).Once()
			}

			cfg := testConfig()
			cfg.Tags = []string{"committed", "spillover"}
			cfg.DryRun = tt.dryRun
			report, err := GetInheritTagsResults(context.Background(), cfg, client, "q-1")
			require.NoError(t, err)

			require.Len(t, report.Results, 3)
			assert.Equal(t, schema.TagAlreadyPresent, report.Results[0].Action)
			assert.Equal(t, "Committed", report.Results[0].Tag)
			assert.Equal(t, schema.TagNotInherited, report.Results[1].Action)
			assert.Equal(t, tt.expected, report.Results[2].Action)
			assert.Equal(t, "spillover", report.Results[2].Tag)
			assert.Equal(t, []int{20, 30}, report.Results[2].ParentIDs)
			assert.Equal(t, tt.dryRun, report.DryRun)

			client.AssertExpectations(t)
			if tt.dryRun {
				client.AssertNotCalled(t, "AddTag", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestGetInheritTagsResults_Validation(t *testing.T) {
	client := &contract.MockDevOpsClient{}

	_, err := GetInheritTagsResults(context.Background(), testConfig(), client, "q-1")
	assert.ErrorContains(t, err, "tag")

	cfg := testConfig()
	cfg.Tags = []string{"committed"}
	_, err = GetInheritTagsResults(context.Background(), cfg, client, " ")
	assert.ErrorContains(t, err, "query id")
	client.AssertNotCalled(t, "RunQuery", mock.Anything, mock.Anything, mock.Anything)
}
