package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/popilot/internal/contract"
	"github.com/huangsam/popilot/schema"
)

// queryKind shows whether a query entry is a folder or which result shape it has.
func queryKind(q schema.QueryItem) string {
	if q.IsFolder {
		return "folder"
	}
	return q.QueryType
}

// PrintQueries outputs the saved query tree of the project.
func PrintQueries(list schema.QueryList, cfg *contract.Config, duration time.Duration) error {
	return printReport("queries", list, renderers{
		table: func(w io.Writer, style tableStyle) error {
			return writeQueriesTable(w, style, list)
		},
		csvHeader: []string{"id", "name", "path", "kind", "depth"},
		csvRows: func(w *csv.Writer) error {
			for _, q := range list.Queries {
				if err := w.Write([]string{q.ID, q.Name, q.Path, queryKind(q), strconv.Itoa(q.Depth)}); err != nil {
					return err
				}
			}
			return nil
		},
	}, cfg, duration)
}

func writeQueriesTable(w io.Writer, style tableStyle, list schema.QueryList) error {
	nameWidth := textWidth(style.width, 50)
	var rows [][]string
	for _, q := range list.Queries {
		name := strings.Repeat("  ", q.Depth) + contract.Truncate(q.Name, nameWidth)
		if q.IsFolder {
			name = style.paint(contract.HeadlineColor, name)
		}
		rows = append(rows, []string{escapeCell(style, name), queryKind(q), q.ID})
	}
	if err := renderTable(newTable(w, style, 0, 1, 2), []string{"Name", "Kind", "ID"}, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d queries and folders\n", len(list.Queries))
	return err
}

// PrintPriorities outputs the progress of every priority query and, when computed, the sprint statistics.
func PrintPriorities(report schema.PrioritiesReport, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)
	return printReport("priorities", report, renderers{
		table: func(w io.Writer, style tableStyle) error {
			return writePrioritiesTables(w, style, report, fmtFloat)
		},
		csvHeader: []string{
			"name", "kind", "query_id", "count", "count_closed", "fraction_closed",
			"sprint_items", "closed_or_planned", "forecast_fraction", "target_date",
		},
		csvRows: func(w *csv.Writer) error {
			for _, p := range report.Priorities {
				fraction := ""
				if p.FractionClosed != nil {
					fraction = strconv.FormatFloat(*p.FractionClosed, 'f', -1, 64)
				}
				planned, forecast := "", ""
				if p.Forecast != nil {
					planned = strconv.Itoa(p.Forecast.ClosedOrPlanned)
					forecast = strconv.FormatFloat(p.Forecast.Fraction, 'f', -1, 64)
				}
				if err := w.Write([]string{
					p.Name, string(p.Kind), p.QueryID, strconv.Itoa(p.Count), strconv.Itoa(p.CountClosed), fraction,
					strconv.Itoa(len(p.SprintItems)), planned, forecast, formatOptionalDate(p.TargetDate()),
				}); err != nil {
					return err
				}
			}
			return nil
		},
		html: func(w io.Writer) error {
			return writePriorityChart(w, report)
		},
	}, cfg, duration)
}

// closedShare renders "25.0% (1/4)".
func closedShare(p schema.Priority, fmtFloat func(float64) string) string {
	if p.FractionClosed == nil {
		return fmt.Sprintf("- (%d/%d)", p.CountClosed, p.Count)
	}
	return fmt.Sprintf("%s (%d/%d)", percentOf(*p.FractionClosed, fmtFloat), p.CountClosed, p.Count)
}

func writePrioritiesTables(w io.Writer, style tableStyle, report schema.PrioritiesReport, fmtFloat func(float64) string) error {
	if err := style.headline(w, "Priorities in sprint %s", report.Sprint.Path); err != nil {
		return err
	}
	nameWidth := textWidth(style.width, 70)
	var rows [][]string
	for _, p := range report.Priorities {
		forecast := ""
		if p.Forecast != nil {
			forecast = fmt.Sprintf("%s (%d/%d)", percentOf(p.Forecast.Fraction, fmtFloat), p.Forecast.ClosedOrPlanned, p.Count)
		}
		rows = append(rows, []string{
			escapeCell(style, contract.Truncate(p.Name, nameWidth)),
			closedShare(p, fmtFloat),
			strconv.Itoa(len(p.SprintItems)),
			forecast,
			formatOptionalDate(p.TargetDate()),
		})
	}
	if err := renderTable(newTable(w, style, 0), []string{"Priority", "Closed", "In Sprint", "Forecast", "Target Date"}, rows); err != nil {
		return err
	}

	titleWidth := textWidth(style.width, 40)
	for _, p := range report.Priorities {
		if len(p.SprintItems) == 0 {
			continue
		}
		if err := style.headline(w, "%s in this sprint", p.Name); err != nil {
			return err
		}
		var items [][]string
		for _, it := range p.SprintItems {
			items = append(items, []string{
				strconv.Itoa(it.ID),
				it.Type,
				escapeCell(style, contract.Truncate(it.Title, titleWidth)),
				stateLabel(style, it.State),
				it.AssignedTo,
			})
		}
		if err := renderTable(newTable(w, style, 1, 2, 3, 4), []string{"ID", "Type", "Title", "State", "Assigned To"}, items); err != nil {
			return err
		}
	}

	if report.Statistics != nil {
		stats := report.Statistics
		if _, err := fmt.Fprintf(w, "%d items closed in the last sprint (average %s), %d story points (average %s). Last sprint goal: %s\n",
			stats.ItemsInLastSprint, fmtFloat(stats.ItemsPerSprint),
			stats.StoryPointsInLastSprint, fmtFloat(stats.StoryPointsPerSprint),
			goalLabel(style, stats.LastSprintGoalReached)); err != nil {
			return err
		}
	}
	if report.Iteration != nil {
		return writeIterationTables(w, style, *report.Iteration, fmtFloat)
	}
	return nil
}

func writePriorityChart(w io.Writer, report schema.PrioritiesReport) error {
	labels := make([]string, len(report.Priorities))
	closed := make([]float64, len(report.Priorities))
	open := make([]float64, len(report.Priorities))
	for i, p := range report.Priorities {
		labels[i] = p.Name
		closed[i] = float64(p.CountClosed)
		open[i] = float64(p.Count - p.CountClosed)
	}
	bar := newBarChart("Priority Progress", report.Sprint.Path, "Items", labels, []barSeries{
		{name: "Closed", values: closed, stack: "items"},
		{name: "Open", values: open, stack: "items"},
	})
	return renderCharts(w, "Priorities", bar)
}
