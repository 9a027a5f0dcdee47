package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/huangsam/popilot/core/effort"
	"github.com/huangsam/popilot/internal/contract"
	"github.com/huangsam/popilot/schema"
)

// PrintEffort outputs the grouped effort of a sprint scope.
func PrintEffort(report schema.EffortReport, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, fmtOptional := createFormatters(cfg.Precision)
	return printReport("sprint effort", report, renderers{
		table: func(w io.Writer, style tableStyle) error {
			return writeEffortTables(w, style, report, fmtFloat)
		},
		csvHeader: []string{
			"sprint", "time_frame", "group", "area", "estimated", "remaining", "completed",
			"estimated_percent", "completed_percent", "items",
		},
		csvRows: func(w *csv.Writer) error {
			for _, s := range report.Sprints {
				for _, g := range s.Groups {
					if err := w.Write([]string{
						s.Sprint.Path, string(s.Sprint.TimeFrame), g.Group, g.Area,
						fmtFloat(g.Estimated), fmtFloat(g.Remaining), fmtFloat(g.Completed),
						fmtOptional(g.EstimatedPercent), fmtOptional(g.CompletedPercent),
						fmt.Sprint(len(g.Items)),
					}); err != nil {
						return err
					}
				}
			}
			return nil
		},
		html: func(w io.Writer) error {
			return writeEffortCharts(w, report)
		},
	}, cfg, duration)
}

// formatPercent renders a share as "12.5%", or "-" when the total was zero.
func formatPercent(p *float64, fmtFloat func(float64) string) string {
	if p == nil {
		return "-"
	}
	return fmtFloat(*p) + "%"
}

func writeEffortTables(w io.Writer, style tableStyle, report schema.EffortReport, fmtFloat func(float64) string) error {
	areaWidth := textWidth(style.width, 70)
	for _, s := range report.Sprints {
		if err := style.headline(w, "%s [%s]", s.Sprint.Path, s.Sprint.TimeFrame); err != nil {
			return err
		}
		var rows [][]string
		for _, g := range s.Groups {
			rows = append(rows, []string{
				escapeCell(style, g.Group),
				escapeCell(style, contract.Truncate(g.Area, areaWidth)),
				fmtFloat(g.Estimated),
				fmtFloat(g.Remaining),
				fmtFloat(g.Completed),
				formatPercent(g.EstimatedPercent, fmtFloat),
				formatPercent(g.CompletedPercent, fmtFloat),
			})
		}
		table := newTable(w, style, 0, 1)
		headers := []string{"Group", "Area", "Estimated", "Remaining", "Completed", "Est %", "Compl %"}
		if err := renderTable(table, headers, rows); err != nil {
			return err
		}
	}

	if err := writeEffortPivot(w, style, report, effort.CompletedMetric, fmtFloat); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Totals: estimated %sh, remaining %sh, completed %sh over %d sprints\n",
		fmtFloat(report.TotalEstimated), fmtFloat(report.TotalRemaining), fmtFloat(report.TotalCompleted), len(report.Sprints))
	return err
}

// writeEffortPivot prints one row per group and one column per area for the whole scope.
func writeEffortPivot(w io.Writer, style tableStyle, report schema.EffortReport, metric effort.Metric, fmtFloat func(float64) string) error {
	pivot := effort.Table(report, metric)
	if len(pivot.Areas) < 2 {
		return nil
	}
	if err := style.headline(w, "%s hours by group and area", metric); err != nil {
		return err
	}

	headers := append([]string{"Group"}, pivot.Areas...)
	var rows [][]string
	for _, r := range pivot.Rows {
		row := []string{escapeCell(style, r.Group)}
		for _, c := range r.Cells {
			row = append(row, fmt.Sprintf("%s (%s)", fmtFloat(c.Value), formatPercent(c.Percent, fmtFloat)))
		}
		rows = append(rows, row)
	}
	return renderTable(newTable(w, style, 0), headers, rows)
}

func writeEffortCharts(w io.Writer, report schema.EffortReport) error {
	subtitle := fmt.Sprintf("%d sprints", len(report.Sprints))
	return renderCharts(w, "Sprint Effort",
		effortChart(report, effort.CompletedMetric, "Completed Effort", subtitle),
		effortChart(report, effort.EstimatedMetric, "Estimated Effort", subtitle),
	)
}

// effortChart stacks the groups of every area.
func effortChart(report schema.EffortReport, metric effort.Metric, title, subtitle string) *charts.Bar {
	pivot := effort.Table(report, metric)
	series := make([]barSeries, len(pivot.Rows))
	for i, r := range pivot.Rows {
		values := make([]float64, len(r.Cells))
		for j, c := range r.Cells {
			values[j] = c.Value
		}
		series[i] = barSeries{name: r.Group, values: values, stack: "groups"}
	}
	return newBarChart(title, subtitle, "Hours", pivot.Areas, series)
}
