package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/huangsam/popilot/internal/contract"
	"github.com/huangsam/popilot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

func testConfig(t *testing.T, mode schema.OutputMode) *contract.Config {
	t.Helper()
	return &contract.Config{
		Output:     mode,
		OutputFile: filepath.Join(t.TempDir(), "out"),
		Precision:  1,
		Width:      120,
		Workers:    4,
	}
}

func readOutput(t *testing.T, cfg *contract.Config) string {
	t.Helper()
	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	return string(data)
}

// withColors turns on ANSI colors for one test.
func withColors(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = prev })
}

func sampleSprints() schema.SprintList {
	return schema.SprintList{Sprints: []schema.Iteration{
		{ID: "a1", Name: "Sprint 1", Path: `Proj\2024\Sprint 1`, TimeFrame: schema.PastFrame, StartDate: day(4), FinishDate: day(15)},
		{ID: "b2", Name: "Sprint 2", Path: `Proj\2024\Sprint 2`, TimeFrame: schema.CurrentFrame, StartDate: day(18), FinishDate: day(29)},
	}}
}

func TestPrintSprints_OutputModes(t *testing.T) {
	list := sampleSprints()

	t.Run("json", func(t *testing.T) {
		cfg := testConfig(t, schema.JSONOut)
		require.NoError(t, PrintSprints(list, cfg, time.Second))

		var got schema.SprintList
		require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg)), &got))
		require.Len(t, got.Sprints, 2)
		assert.Equal(t, "Sprint 2", got.Sprints[1].Name)
		assert.Equal(t, schema.CurrentFrame, got.Sprints[1].TimeFrame)
		assert.True(t, got.Sprints[0].StartDate.Equal(day(4)))
	})

	t.Run("yaml", func(t *testing.T) {
		cfg := testConfig(t, schema.YAMLOut)
		require.NoError(t, PrintSprints(list, cfg, time.Second))

		var got schema.SprintList
		require.NoError(t, yaml.Unmarshal([]byte(readOutput(t, cfg)), &got))
		require.Len(t, got.Sprints, 2)
		assert.Equal(t, `Proj\2024\Sprint 1`, got.Sprints[0].Path)
	})

	t.Run("xml", func(t *testing.T) {
		cfg := testConfig(t, schema.XMLOut)
		require.NoError(t, PrintSprints(list, cfg, time.Second))

		out := readOutput(t, cfg)
		assert.True(t, strings.HasPrefix(out, "<?xml"))
		assert.Contains(t, out, "<sprints>")
		assert.Contains(t, out, `<sprint id="a1">`)
	})

	t.Run("csv", func(t *testing.T) {
		cfg := testConfig(t, schema.CSVOut)
		require.NoError(t, PrintSprints(list, cfg, time.Second))

		records, err := csv.NewReader(strings.NewReader(readOutput(t, cfg))).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, []string{"id", "name", "path", "time_frame", "start", "finish", "working_days"}, records[0])
		assert.Equal(t, []string{"a1", "Sprint 1", `Proj\2024\Sprint 1`, "past", "2024-03-04", "2024-03-15", "10"}, records[1])
	})

	t.Run("markdown", func(t *testing.T) {
		cfg := testConfig(t, schema.MarkdownOut)
		require.NoError(t, PrintSprints(list, cfg, time.Second))

		out := readOutput(t, cfg)
		assert.Contains(t, out, "|")
		assert.Contains(t, out, "2024-03-18")
		assert.Contains(t, out, "Showing 2 sprints")
		assert.NotContains(t, out, "Report completed")
	})

	t.Run("table", func(t *testing.T) {
		cfg := testConfig(t, schema.TableOut)
		require.NoError(t, PrintSprints(list, cfg, 1500*time.Millisecond))

		out := readOutput(t, cfg)
		assert.Contains(t, out, `Proj\2024\Sprint 2`)
		assert.Contains(t, out, "Report completed in 1.5s with 4 workers. Cache backend: none")
	})

	t.Run("html is not supported", func(t *testing.T) {
		cfg := testConfig(t, schema.HTMLOut)
		err := PrintSprints(list, cfg, time.Second)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnsupportedOutput)
	})
}

func TestPrintSprints_BadOutputFile(t *testing.T) {
	cfg := testConfig(t, schema.JSONOut)
	cfg.OutputFile = filepath.Join(t.TempDir(), "missing", "out.json")

	err := PrintSprints(sampleSprints(), cfg, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error writing json output")
}

func TestPrintSprintWorkItems(t *testing.T) {
	result := schema.SprintWorkItems{
		Sprint: sampleSprints().Sprints[1],
		Items: []schema.WorkItem{
			{ID: 7, Type: schema.TypeUserStory, Title: "Login | SSO", State: schema.StateClosed, StoryPoints: ptr(3), RemainingWork: ptr(0.0)},
			{ID: 9, Type: schema.TypeBug, Title: "Crash on start", State: "Active", AssignedTo: "Ana", RemainingWork: ptr(4.5),
				Tags: []string{"ui", "p1"}, Parents: []schema.ParentRef{{ID: 1, Title: "Auth"}}},
		},
	}

	t.Run("markdown escapes pipes", func(t *testing.T) {
		cfg := testConfig(t, schema.MarkdownOut)
		require.NoError(t, PrintSprintWorkItems(result, cfg, time.Second))

		out := readOutput(t, cfg)
		assert.Contains(t, out, "## "+`Proj\2024\Sprint 2`+" (2024-03-18 to 2024-03-29)")
		assert.Contains(t, out, "SSO")
		assert.NotContains(t, out, "Login | SSO")
		assert.Contains(t, out, "Showing 2 items (story points: 3, remaining work: 4.5h)")
	})

	t.Run("csv", func(t *testing.T) {
		cfg := testConfig(t, schema.CSVOut)
		require.NoError(t, PrintSprintWorkItems(result, cfg, time.Second))

		records, err := csv.NewReader(strings.NewReader(readOutput(t, cfg))).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Len(t, records[0], 13)
		assert.Equal(t, "2", records[2][0])
		assert.Equal(t, "ui|p1", records[2][10])
		assert.Equal(t, "Auth", records[2][11])
	})
}

func sampleCapacities() schema.SprintCapacityAndWork {
	return schema.SprintCapacityAndWork{
		Path:  `Proj\2024\Sprint 2`,
		Start: day(18),
		End:   day(20),
		Days:  []time.Time{day(18), day(19), day(20)},
		TeamMembers: []schema.MemberCapacityAndWork{{
			DisplayName:                  "Ana",
			TotalCapacity:                12,
			CapacityUntilToday:           6,
			CompletedWorkDeltaUntilToday: 7,
			RemainingWorkDeltaUntilToday: -2,
			Days: []schema.CapacityDay{
				{SprintDay: day(18), Capacity: ptr(6.0), CompletedWorkDelta: ptr(7.0), RemainingWorkDelta: ptr(-2.0)},
				{SprintDay: day(19), IsDayOff: true},
				{SprintDay: day(20), Capacity: ptr(6.0)},
			},
		}},
	}
}

func TestPrintCapacities(t *testing.T) {
	result := sampleCapacities()

	t.Run("table", func(t *testing.T) {
		cfg := testConfig(t, schema.TableOut)
		require.NoError(t, PrintCapacities(result, day(19), cfg, time.Second))

		out := readOutput(t, cfg)
		assert.Contains(t, out, "03-19")
		assert.Contains(t, out, dayOffLabel)
		assert.Contains(t, out, "Showing 1 team members over 3 working days")
	})

	t.Run("csv", func(t *testing.T) {
		cfg := testConfig(t, schema.CSVOut)
		require.NoError(t, PrintCapacities(result, day(19), cfg, time.Second))

		records, err := csv.NewReader(strings.NewReader(readOutput(t, cfg))).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 4)
		assert.Equal(t, []string{"Ana", "2024-03-18", "6.0", "7.0", "-2.0", "false"}, records[1])
		assert.Equal(t, []string{"Ana", "2024-03-19", "", "", "", "true"}, records[2])
	})

	t.Run("html", func(t *testing.T) {
		cfg := testConfig(t, schema.HTMLOut)
		require.NoError(t, PrintCapacities(result, day(19), cfg, time.Second))

		out := readOutput(t, cfg)
		assert.Contains(t, out, "<html")
		assert.Contains(t, out, "Capacity and Work")
		assert.Contains(t, out, "Remaining burned until today")
	})
}

func TestDeltaCell(t *testing.T) {
	withColors(t)
	fmtFloat, _ := createFormatters(1)
	style := tableStyle{colors: true}
	today := day(19)

	tests := []struct {
		name     string
		day      schema.CapacityDay
		delta    *float64
		inverse  bool
		expected string
	}{
		{
			name:     "completed kept up",
			day:      schema.CapacityDay{SprintDay: day(18), Capacity: ptr(6.0)},
			delta:    ptr(6.0),
			expected: contract.ColorAgainst("6.0", true),
		},
		{
			name:     "completed behind",
			day:      schema.CapacityDay{SprintDay: day(18), Capacity: ptr(6.0)},
			delta:    ptr(2.0),
			expected: contract.ColorAgainst("2.0", false),
		},
		{
			name:     "missing delta before today counts as zero",
			day:      schema.CapacityDay{SprintDay: day(18), Capacity: ptr(6.0)},
			expected: contract.ColorAgainst("0.0", false),
		},
		{
			name:     "remaining burned down",
			day:      schema.CapacityDay{SprintDay: day(18), Capacity: ptr(6.0)},
			delta:    ptr(-8.0),
			inverse:  true,
			expected: contract.ColorAgainst("-8.0", true),
		},
		{
			name:     "today is not colored",
			day:      schema.CapacityDay{SprintDay: day(19), Capacity: ptr(6.0)},
			delta:    ptr(1.0),
			expected: "1.0",
		},
		{
			name:     "future without delta is blank",
			day:      schema.CapacityDay{SprintDay: day(20), Capacity: ptr(6.0)},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, deltaCell(style, tt.day, tt.delta, tt.inverse, today, fmtFloat))
		})
	}
}

func TestTableStyle(t *testing.T) {
	withColors(t)

	plain := tableStyle{}
	assert.Equal(t, "text", plain.paint(contract.OnTrackColor, "text"))
	assert.Equal(t, "text", plain.against("text", false))

	colored := tableStyle{colors: true}
	assert.Equal(t, contract.OnTrackColor.Sprint("text"), colored.paint(contract.OnTrackColor, "text"))
	assert.Empty(t, colored.paint(contract.OnTrackColor, ""))

	var buf bytes.Buffer
	require.NoError(t, tableStyle{markdown: true}.headline(&buf, "Sprint %d", 3))
	assert.Equal(t, "\n## Sprint 3\n\n", buf.String())

	assert.Equal(t, `a \| b`, escapeCell(tableStyle{markdown: true}, "a | b"))
	assert.Equal(t, "a | b", escapeCell(plain, "a | b"))
}

func TestTextWidth(t *testing.T) {
	tests := []struct {
		name      string
		termWidth int
		reserved  int
		expected  int
	}{
		{"wide terminal is capped", 300, 50, maxTextWidth},
		{"narrow terminal keeps a minimum", 40, 60, minTextWidth},
		{"in between", 120, 50, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, textWidth(tt.termWidth, tt.reserved))
		})
	}
}

func TestTerminalWidth_Override(t *testing.T) {
	assert.Equal(t, 132, terminalWidth(&contract.Config{Width: 132}))
	assert.Positive(t, terminalWidth(&contract.Config{}))
}

func TestCreateFormatters(t *testing.T) {
	tests := []struct {
		name      string
		precision int
		value     float64
		expected  string
	}{
		{"precision 2", 2, 3.14159, "3.14"},
		{"precision 0", 0, 3.14159, "3"},
		{"negative value", 1, -42.56, "-42.6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fmtFloat, fmtOptional := createFormatters(tt.precision)
			assert.Equal(t, tt.expected, fmtFloat(tt.value))
			assert.Equal(t, tt.expected, fmtOptional(&tt.value))
			assert.Empty(t, fmtOptional(nil))
		})
	}
}

func TestFooterBackendLabel(t *testing.T) {
	assert.Equal(t, schema.NoneBackend, cacheBackendLabel(&contract.Config{}))
	assert.Equal(t, schema.SQLiteBackend, cacheBackendLabel(&contract.Config{CacheBackend: schema.SQLiteBackend}))

	var buf bytes.Buffer
	require.NoError(t, writeFooter(&buf, &contract.Config{Workers: 2, CacheBackend: schema.MySQLBackend}, 1234*time.Microsecond))
	assert.Equal(t, "Report completed in 1ms with 2 workers. Cache backend: mysql\n", buf.String())
}
