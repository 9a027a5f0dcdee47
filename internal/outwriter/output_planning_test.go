package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/popilot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQueries() schema.QueryList {
	return schema.QueryList{Queries: []schema.QueryItem{
		{ID: "f-1", Name: "Shared Queries", Path: "Shared Queries", IsFolder: true},
		{ID: "q-1", Name: "Priority - Release 5", Path: "Shared Queries/Priority - Release 5", QueryType: "tree", Depth: 1},
	}}
}

func TestPrintQueries(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		cfg := testConfig(t, schema.TableOut)
		require.NoError(t, PrintQueries(sampleQueries(), cfg, time.Second))

		out := readOutput(t, cfg)
		assert.Contains(t, out, "Priority - Release 5")
		assert.Contains(t, out, "folder")
		assert.Contains(t, out, "2 queries and folders")
	})

	t.Run("csv", func(t *testing.T) {
		cfg := testConfig(t, schema.CSVOut)
		require.NoError(t, PrintQueries(sampleQueries(), cfg, time.Second))

		records, err := csv.NewReader(strings.NewReader(readOutput(t, cfg))).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, []string{"id", "name", "path", "kind", "depth"}, records[0])
		assert.Equal(t, []string{"q-1", "Priority - Release 5", "Shared Queries/Priority - Release 5", "tree", "1"}, records[2])
	})

	t.Run("html is unsupported", func(t *testing.T) {
		cfg := testConfig(t, schema.HTMLOut)
		assert.ErrorIs(t, PrintQueries(sampleQueries(), cfg, time.Second), ErrUnsupportedOutput)
	})
}

func samplePriorities(withStatistics bool) schema.PrioritiesReport {
	target := day(29)
	report := schema.PrioritiesReport{
		Sprint: schema.Iteration{Path: `Proj\2024\Sprint 2`},
		Priorities: []schema.Priority{
			{
				QueryID: "q-1", QueryName: "Priority - Release 5", Name: "Release 5", Kind: schema.ReleasePriority,
				Root:  &schema.ParentRef{ID: 1, Type: schema.TypeEpic, TargetDate: &target},
				Count: 4, CountClosed: 1, FractionClosed: ptr(0.25),
				SprintItems: []schema.WorkItem{{ID: 11, Type: schema.TypeUserStory, Title: "Checkout button", State: "Active", AssignedTo: "Alice"}},
			},
			{
				QueryID: "q-2", QueryName: "Priority - Escalation - Acme", Name: "Escalation Acme", Kind: schema.EscalationPriority,
				Count: 2, CountClosed: 0, FractionClosed: ptr(0.0),
				SprintItems: []schema.WorkItem{},
				Forecast:    &schema.PriorityForecast{ClosedOrPlanned: 1, Fraction: 0.5},
			},
			{QueryID: "q-3", QueryName: "Priority - Empty", Name: "Priority - Empty", Kind: schema.RegularPriority, SprintItems: []schema.WorkItem{}},
		},
	}
	if withStatistics {
		velocity := sampleVelocity(true)
		report.Statistics = &velocity.Statistics
		report.Iteration = velocity.Iteration
	}
	return report
}

func TestPrintPriorities(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		cfg := testConfig(t, schema.TableOut)
		require.NoError(t, PrintPriorities(samplePriorities(false), cfg, time.Second))

		out := readOutput(t, cfg)
		assert.Contains(t, out, `Priorities in sprint Proj\2024\Sprint 2`)
		assert.Contains(t, out, "25.0% (1/4)")
		assert.Contains(t, out, "50.0% (1/2)")
		assert.Contains(t, out, "- (0/0)")
		assert.Contains(t, out, "2024-03-29")
		assert.Contains(t, out, "Release 5 in this sprint")
		assert.Contains(t, out, "Checkout button")
		assert.NotContains(t, out, "Escalation Acme in this sprint")
		assert.NotContains(t, out, "story points (average")
	})

	t.Run("markdown with statistics", func(t *testing.T) {
		cfg := testConfig(t, schema.MarkdownOut)
		require.NoError(t, PrintPriorities(samplePriorities(true), cfg, time.Second))

		out := readOutput(t, cfg)
		assert.Contains(t, out, "5 items closed in the last sprint (average 4.5), 13 story points (average 10.5). Last sprint goal: reached")
		assert.Contains(t, out, "## Iteration 2024")
	})

	t.Run("csv", func(t *testing.T) {
		cfg := testConfig(t, schema.CSVOut)
		require.NoError(t, PrintPriorities(samplePriorities(false), cfg, time.Second))

		records, err := csv.NewReader(strings.NewReader(readOutput(t, cfg))).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 4)
		assert.Equal(t, []string{"Release 5", "release", "q-1", "4", "1", "0.25", "1", "", "", "2024-03-29"}, records[1])
		assert.Equal(t, []string{"Escalation Acme", "escalation", "q-2", "2", "0", "0", "0", "1", "0.5", ""}, records[2])
		assert.Equal(t, []string{"Priority - Empty", "priority", "q-3", "0", "0", "", "0", "", "", ""}, records[3])
	})

	t.Run("json keeps a missing fraction as null", func(t *testing.T) {
		cfg := testConfig(t, schema.JSONOut)
		require.NoError(t, PrintPriorities(samplePriorities(false), cfg, time.Second))

		var decoded struct {
			Priorities []map[string]any `json:"priorities"`
		}
		require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg)), &decoded))
		require.Len(t, decoded.Priorities, 3)
		assert.Nil(t, decoded.Priorities[2]["fractionClosed"])
		assert.Equal(t, "escalation", decoded.Priorities[1]["kind"])
	})

	t.Run("html", func(t *testing.T) {
		cfg := testConfig(t, schema.HTMLOut)
		require.NoError(t, PrintPriorities(samplePriorities(false), cfg, time.Second))
		assert.Contains(t, readOutput(t, cfg), "Priority Progress")
	})
}
