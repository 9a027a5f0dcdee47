package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/popilot/internal/contract"
	"github.com/huangsam/popilot/schema"
)

const dayOffLabel = "off"

// PrintCapacities outputs the capacity and work report of a sprint.
// Days before today are colored by whether the work kept up with capacity.
func PrintCapacities(result schema.SprintCapacityAndWork, today time.Time, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, fmtOptional := createFormatters(cfg.Precision)
	return printReport("capacities", result, renderers{
		table: func(w io.Writer, style tableStyle) error {
			return writeCapacityTable(w, style, result, schema.DateOf(today), fmtFloat)
		},
		csvHeader: []string{"member", "day", "capacity", "completed_work_delta", "remaining_work_delta", "is_day_off"},
		csvRows: func(w *csv.Writer) error {
			for _, m := range result.TeamMembers {
				for _, d := range m.Days {
					if err := w.Write([]string{
						m.DisplayName, formatDate(d.SprintDay), fmtOptional(d.Capacity),
						fmtOptional(d.CompletedWorkDelta), fmtOptional(d.RemainingWorkDelta),
						strconv.FormatBool(d.IsDayOff),
					}); err != nil {
						return err
					}
				}
			}
			return nil
		},
		html: func(w io.Writer) error {
			return writeCapacityChart(w, result)
		},
	}, cfg, duration)
}

func writeCapacityTable(w io.Writer, style tableStyle, result schema.SprintCapacityAndWork, today time.Time, fmtFloat func(float64) string) error {
	if err := style.headline(w, "%s (%s to %s)", result.Path, formatDate(result.Start), formatDate(result.End)); err != nil {
		return err
	}

	headers := []string{"Member", "Work"}
	for _, d := range result.Days {
		label := d.Format("Mon 01-02")
		if d.Equal(today) {
			label += " *"
		}
		headers = append(headers, label)
	}
	headers = append(headers, "Total", "Until Today")

	var rows [][]string
	for _, m := range result.TeamMembers {
		capacity := []string{m.DisplayName, "Capacity"}
		completed := []string{"", "Completed"}
		remaining := []string{"", "Remaining"}
		for _, d := range m.Days {
			if d.IsDayOff {
				capacity = append(capacity, style.paint(contract.DayOffColor, dayOffLabel))
			} else {
				capacity = append(capacity, fmtFloat(schema.Value(d.Capacity)))
			}
			completed = append(completed, deltaCell(style, d, d.CompletedWorkDelta, false, today, fmtFloat))
			remaining = append(remaining, deltaCell(style, d, d.RemainingWorkDelta, true, today, fmtFloat))
		}

		untilToday := schema.Float(m.CapacityUntilToday)
		capacity = append(capacity, fmtFloat(m.TotalCapacity), fmtFloat(m.CapacityUntilToday))
		completed = append(completed, "", style.against(fmtFloat(m.CompletedWorkDeltaUntilToday),
			contract.KeepsUpWith(m.CompletedWorkDeltaUntilToday, untilToday, false)))
		remaining = append(remaining, "", style.against(fmtFloat(m.RemainingWorkDeltaUntilToday),
			contract.KeepsUpWith(m.RemainingWorkDeltaUntilToday, untilToday, true)))
		rows = append(rows, capacity, completed, remaining)
	}

	table := newTable(w, style, 0, 1)
	if err := renderTable(table, headers, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d team members over %d working days\n", len(result.TeamMembers), len(result.Days))
	return err
}

// deltaCell formats one work delta. Days before today are always shown and colored.
func deltaCell(style tableStyle, d schema.CapacityDay, delta *float64, inverse bool, today time.Time, fmtFloat func(float64) string) string {
	if !schema.DateOf(d.SprintDay).Before(today) {
		if delta == nil {
			return ""
		}
		return fmtFloat(*delta)
	}
	value := schema.Value(delta)
	return style.against(fmtFloat(value), contract.KeepsUpWith(value, d.Capacity, inverse))
}

func writeCapacityChart(w io.Writer, result schema.SprintCapacityAndWork) error {
	members := make([]string, len(result.TeamMembers))
	total := make([]float64, len(result.TeamMembers))
	untilToday := make([]float64, len(result.TeamMembers))
	completed := make([]float64, len(result.TeamMembers))
	burned := make([]float64, len(result.TeamMembers))
	for i, m := range result.TeamMembers {
		members[i] = m.DisplayName
		total[i] = m.TotalCapacity
		untilToday[i] = m.CapacityUntilToday
		completed[i] = m.CompletedWorkDeltaUntilToday
		burned[i] = -m.RemainingWorkDeltaUntilToday
	}

	bar := newBarChart("Capacity and Work", result.Path, "Hours", members, []barSeries{
		{name: "Total capacity", values: total},
		{name: "Capacity until today", values: untilToday},
		{name: "Completed until today", values: completed},
		{name: "Remaining burned until today", values: burned},
	})
	return renderCharts(w, "Capacities", bar)
}
