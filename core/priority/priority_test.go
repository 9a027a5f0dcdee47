package priority

import (
	"testing"

	"github.com/huangsam/popilot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func query(id, name string, depth int, folder bool) schema.QueryItem {
	return schema.QueryItem{ID: id, Name: name, Depth: depth, IsFolder: folder}
}

func names(queries []schema.QueryItem) []string {
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		out = append(out, q.Name)
	}
	return out
}

func TestSelect(t *testing.T) {
	queries := []schema.QueryItem{
		query("f1", "Shared Queries", 0, true),
		query("q1", "Priority - Release 5", 1, false),
		query("f2", "Team B Team", 1, true),
		query("q2", "Priority - Team B only", 2, false),
		query("f3", "Team A Team", 1, true),
		query("q3", "Priority - Escalation - Acme", 2, false),
		query("q4", "Untagged items", 1, false),
		query("f4", "Priority - Folder", 1, true),
		query("f5", "My Queries", 0, true),
		query("q5", "Priority - Mine", 1, false),
	}

	tests := []struct {
		name     string
		team     string
		expected []string
	}{
		{"own team folder kept", "Team A Team", []string{"Priority - Release 5", "Priority - Escalation - Acme", "Priority - Mine"}},
		{"other team folder kept", "Team B Team", []string{"Priority - Release 5", "Priority - Team B only", "Priority - Mine"}},
		{"no team folder matches", "Team C", []string{"Priority - Release 5", "Priority - Mine"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, names(Select(queries, tt.team)))
		})
	}
}

func TestOrder(t *testing.T) {
	queries := []schema.QueryItem{
		query("1", "Priority - Zeta", 0, false),
		query("2", "Priority - Alpha", 0, false),
		query("3", "Priority - Release 5", 0, false),
		query("4", "Priority - Escalation - Acme", 0, false),
	}
	Order(queries, []string{"Priority - Escalation - Acme", "Priority - Release 5"})
	assert.Equal(t, []string{
		"Priority - Escalation - Acme", "Priority - Release 5", "Priority - Alpha", "Priority - Zeta",
	}, names(queries))
}

func TestKindAndDisplayName(t *testing.T) {
	tests := []struct {
		query string
		kind  schema.PriorityKind
		name  string
	}{
		{"Priority - Release 5", schema.ReleasePriority, "Release 5"},
		{"Priority - Escalation - Acme", schema.EscalationPriority, "Escalation Acme"},
		{"Priority - Checkout", schema.RegularPriority, "Priority - Checkout"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.query))
			assert.Equal(t, tt.name, DisplayName(tt.query))
		})
	}
}

func TestBacklog(t *testing.T) {
	items := []schema.WorkItem{
		{ID: 1, Type: schema.TypeEpic},
		{ID: 2, Type: schema.TypeFeature, ChildrenIDs: []int{3}},
		{ID: 3, Type: schema.TypeUserStory, State: "Active"},
		{ID: 4, Type: schema.TypeFeature},
		{ID: 5, Type: schema.TypeBug, State: schema.StateRemoved},
		{ID: 6, Type: schema.TypeTask, State: schema.StateClosed},
	}
	var ids []int
	for _, w := range Backlog(items) {
		ids = append(ids, w.ID)
	}
	assert.Equal(t, []int{3, 4, 6}, ids)
}

func TestRoot(t *testing.T) {
	items := []schema.WorkItem{
		{ID: 2, Type: schema.TypeFeature, ParentID: schema.Int(1)},
		{ID: 1, Type: schema.TypeEpic, ParentID: schema.Int(99), Title: "Release 5"},
	}
	root := Root(items)
	require.NotNil(t, root)
	assert.Equal(t, 1, root.ID)
	assert.Equal(t, "Release 5", root.Title)

	assert.Nil(t, Root(nil))
}

func TestSummarize(t *testing.T) {
	sprint := schema.Iteration{Path: `Proj\R2\S1`}
	item := func(id int, state, path string) schema.WorkItem {
		return schema.WorkItem{ID: id, Type: schema.TypeUserStory, State: state, IterationPath: path, ParentID: schema.Int(100)}
	}

	t.Run("escalation with work later in the iteration", func(t *testing.T) {
		items := []schema.WorkItem{
			item(1, schema.StateClosed, `Proj\R1\S2`),
			item(2, "Active", `Proj\R2\S1`),
			item(3, "New", `Proj\R2\S2`),
			item(4, "New", `Proj\Backlog`),
			item(5, schema.StateRemoved, `Proj\R2\S1`),
		}
		p := Summarize(schema.QueryItem{ID: "q", Name: "Priority - Escalation - Acme"}, items, sprint)

		assert.Equal(t, "Escalation Acme", p.Name)
		assert.Equal(t, schema.EscalationPriority, p.Kind)
		assert.Equal(t, 4, p.Count)
		assert.Equal(t, 1, p.CountClosed)
		require.NotNil(t, p.FractionClosed)
		assert.InDelta(t, 0.25, *p.FractionClosed, 1e-9)
		require.Len(t, p.SprintItems, 1)
		assert.Equal(t, 2, p.SprintItems[0].ID)
		require.NotNil(t, p.Forecast)
		assert.Equal(t, 3, p.Forecast.ClosedOrPlanned)
		assert.InDelta(t, 0.75, p.Forecast.Fraction, 1e-9)
		require.NotNil(t, p.Root)
		assert.Equal(t, 1, p.Root.ID)
	})

	t.Run("escalation planned only in the sprint", func(t *testing.T) {
		items := []schema.WorkItem{item(1, "Active", `Proj\R2\S1`)}
		p := Summarize(schema.QueryItem{Name: "Priority - Escalation - Acme"}, items, sprint)
		assert.Nil(t, p.Forecast)
	})

	t.Run("release without backlog items", func(t *testing.T) {
		items := []schema.WorkItem{{ID: 9, Type: schema.TypeEpic, TargetDate: nil}}
		p := Summarize(schema.QueryItem{Name: "Priority - Release 5"}, items, sprint)
		assert.Equal(t, "Release 5", p.Name)
		assert.Zero(t, p.Count)
		assert.Nil(t, p.FractionClosed)
		assert.Empty(t, p.SprintItems)
		assert.Nil(t, p.Forecast)
	})
}
