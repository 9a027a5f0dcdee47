package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/huangsam/popilot/internal/contract"
	"github.com/huangsam/popilot/schema"
)

// PrintVelocity outputs the sprint statistics, the per-sprint delivery and the iteration health.
func PrintVelocity(report schema.VelocityReport, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)
	return printReport("velocity", report, renderers{
		table: func(w io.Writer, style tableStyle) error {
			return writeVelocityTables(w, style, report, fmtFloat)
		},
		csvHeader: []string{"sprint", "start", "end", "items", "stories", "bugs", "story_points", "goal_reached"},
		csvRows: func(w *csv.Writer) error {
			for _, s := range report.PerSprint {
				goal := ""
				if s.GoalReached != nil {
					goal = strconv.FormatBool(*s.GoalReached)
				}
				if err := w.Write([]string{
					s.Path, formatDate(s.Start), formatDate(s.End),
					strconv.Itoa(s.Items), strconv.Itoa(s.Stories), strconv.Itoa(s.Bugs), strconv.Itoa(s.StoryPoints),
					goal,
				}); err != nil {
					return err
				}
			}
			return nil
		},
		html: func(w io.Writer) error {
			return writeVelocityCharts(w, report)
		},
	}, cfg, duration)
}

// goalLabel shows whether a sprint goal was reached.
func goalLabel(style tableStyle, reached *bool) string {
	switch {
	case reached == nil:
		return "-"
	case *reached:
		return style.paint(contract.OnTrackColor, "reached")
	default:
		return style.paint(contract.BehindColor, "missed")
	}
}

// percentOf renders a fraction as a percentage.
func percentOf(fraction float64, fmtFloat func(float64) string) string {
	return fmtFloat(fraction*100) + "%"
}

func writeVelocityTables(w io.Writer, style tableStyle, report schema.VelocityReport, fmtFloat func(float64) string) error {
	stats := report.Statistics
	if err := style.headline(w, "Velocity of %d sprints (%s to %s)", stats.Sprints, formatDate(stats.Start), formatDate(stats.End)); err != nil {
		return err
	}

	var rows [][]string
	for _, s := range report.PerSprint {
		rows = append(rows, []string{
			escapeCell(style, s.Path),
			formatDate(s.Start),
			formatDate(s.End),
			strconv.Itoa(s.Items),
			strconv.Itoa(s.Stories),
			strconv.Itoa(s.Bugs),
			strconv.Itoa(s.StoryPoints),
			goalLabel(style, s.GoalReached),
		})
	}
	if err := renderTable(newTable(w, style, 0),
		[]string{"Sprint", "Start", "End", "Items", "Stories", "Bugs", "SP", "Goal"}, rows); err != nil {
		return err
	}

	summary := [][]string{
		{"Items", humanize.Comma(int64(stats.AllItems)), strconv.Itoa(stats.ItemsInLastSprint), fmtFloat(stats.ItemsPerSprint)},
		{"Story points", humanize.Comma(int64(stats.AllStoryPoints)), strconv.Itoa(stats.StoryPointsInLastSprint), fmtFloat(stats.StoryPointsPerSprint)},
		{"Stories", humanize.Comma(int64(stats.AllStories)), strconv.Itoa(stats.StoriesInLastSprint), fmtFloat(stats.StoriesPerSprint)},
		{"Bugs", humanize.Comma(int64(stats.AllBugs)), strconv.Itoa(stats.BugsInLastSprint), fmtFloat(stats.BugsPerSprint)},
	}
	if err := renderTable(newTable(w, style, 0), []string{"Delivered", "All", "Last Sprint", "Per Sprint"}, summary); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Last sprint goal: %s\n", goalLabel(style, stats.LastSprintGoalReached)); err != nil {
		return err
	}

	if report.Iteration == nil {
		return nil
	}
	return writeIterationTables(w, style, *report.Iteration, fmtFloat)
}

func writeIterationTables(w io.Writer, style tableStyle, it schema.IterationStatistics, fmtFloat func(float64) string) error {
	if err := style.headline(w, "Iteration %s (%s to %s)", it.Name, formatDate(it.Start), formatDate(it.End)); err != nil {
		return err
	}
	rows := [][]string{
		{"Closed", percentOf(it.FractionClosedWorkItems, fmtFloat), percentOf(it.FractionClosedFeatures, fmtFloat)},
		{"Committed", percentOf(it.FractionCommittedWorkItems, fmtFloat), percentOf(it.FractionCommittedFeatures, fmtFloat)},
		{"Closed of committed", percentOf(it.FractionClosedCommittedWorkItems, fmtFloat), percentOf(it.FractionClosedCommittedFeatures, fmtFloat)},
		{"Spillover", percentOf(it.FractionSpilloverWorkItems, fmtFloat), percentOf(it.FractionSpilloverFeatures, fmtFloat)},
	}
	if err := renderTable(newTable(w, style, 0), []string{"Share", "Work Items", "Features"}, rows); err != nil {
		return err
	}

	var works [][]string
	for _, s := range it.SprintWorks {
		works = append(works, []string{escapeCell(style, s.Name), fmtFloat(s.RoadmapWork), fmtFloat(s.NonRoadmapWork)})
	}
	if err := renderTable(newTable(w, style, 0), []string{"Sprint", "Roadmap", "Non-Roadmap"}, works); err != nil {
		return err
	}

	previous := it.PreviousIterationName
	if previous == "" {
		previous = "none"
	}
	_, err := fmt.Fprintf(w, "Non-roadmap work: %s (previous iteration: %s)\n", percentOf(it.FractionNonRoadmapWork, fmtFloat), previous)
	return err
}

func writeVelocityCharts(w io.Writer, report schema.VelocityReport) error {
	labels := make([]string, len(report.PerSprint))
	items := make([]float64, len(report.PerSprint))
	stories := make([]float64, len(report.PerSprint))
	bugs := make([]float64, len(report.PerSprint))
	points := make([]float64, len(report.PerSprint))
	for i, s := range report.PerSprint {
		labels[i] = s.Path
		items[i] = float64(s.Items)
		stories[i] = float64(s.Stories)
		bugs[i] = float64(s.Bugs)
		points[i] = float64(s.StoryPoints)
	}

	subtitle := fmt.Sprintf("%s to %s", formatDate(report.Statistics.Start), formatDate(report.Statistics.End))
	bars := []*charts.Bar{
		newBarChart("Delivered Items", subtitle, "Items", labels, []barSeries{
			{name: "Items", values: items},
			{name: "Stories", values: stories},
			{name: "Bugs", values: bugs},
		}),
		newBarChart("Delivered Story Points", subtitle, "Story points", labels, []barSeries{
			{name: "Story points", values: points},
		}),
	}

	if it := report.Iteration; it != nil {
		names := make([]string, len(it.SprintWorks))
		roadmap := make([]float64, len(it.SprintWorks))
		nonRoadmap := make([]float64, len(it.SprintWorks))
		for i, s := range it.SprintWorks {
			names[i] = s.Name
			roadmap[i] = s.RoadmapWork
			nonRoadmap[i] = s.NonRoadmapWork
		}
		bars = append(bars, newBarChart("Roadmap Work", it.Name, "Hours", names, []barSeries{
			{name: "Roadmap", values: roadmap, stack: "work"},
			{name: "Non-roadmap", values: nonRoadmap, stack: "work"},
		}))
	}
	return renderCharts(w, "Velocity", bars...)
}
