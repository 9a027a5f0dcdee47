package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/popilot/internal/contract"
	"github.com/huangsam/popilot/schema"
)

// PrintSprints outputs the team iterations, dispatching based on the output format configured.
func PrintSprints(list schema.SprintList, cfg *contract.Config, duration time.Duration) error {
	return printReport("sprints", list, renderers{
		table: func(w io.Writer, style tableStyle) error {
			return writeSprintsTable(w, style, list)
		},
		csvHeader: []string{"id", "name", "path", "time_frame", "start", "finish", "working_days"},
		csvRows: func(w *csv.Writer) error {
			for _, it := range list.Sprints {
				if err := w.Write([]string{
					it.ID, it.Name, it.Path, string(it.TimeFrame),
					formatDate(it.StartDate), formatDate(it.FinishDate),
					strconv.Itoa(len(it.WorkingDays())),
				}); err != nil {
					return err
				}
			}
			return nil
		},
	}, cfg, duration)
}

func writeSprintsTable(w io.Writer, style tableStyle, list schema.SprintList) error {
	var rows [][]string
	for _, it := range list.Sprints {
		frame := string(it.TimeFrame)
		if it.TimeFrame == schema.CurrentFrame {
			frame = style.paint(contract.OnTrackColor, frame)
		}
		rows = append(rows, []string{
			escapeCell(style, it.Path),
			frame,
			formatDate(it.StartDate),
			formatDate(it.FinishDate),
			strconv.Itoa(len(it.WorkingDays())),
		})
	}
	table := newTable(w, style, 0, 1)
	if err := renderTable(table, []string{"Path", "Time Frame", "Start", "Finish", "Days"}, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d sprints\n", len(list.Sprints))
	return err
}

// PrintSprintWorkItems outputs the items of a sprint in stack rank order.
func PrintSprintWorkItems(result schema.SprintWorkItems, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, fmtOptional := createFormatters(cfg.Precision)
	return printReport("sprint work items", result, renderers{
		table: func(w io.Writer, style tableStyle) error {
			return writeSprintItemsTable(w, style, result, fmtFloat, fmtOptional)
		},
		csvHeader: []string{
			"rank", "id", "type", "title", "state", "assigned_to", "story_points",
			"original_estimate", "remaining_work", "completed_work", "tags", "parent", "url",
		},
		csvRows: func(w *csv.Writer) error {
			for i, item := range result.Items {
				if err := w.Write([]string{
					strconv.Itoa(i + 1), strconv.Itoa(item.ID), item.Type, item.Title, item.State, item.AssignedTo,
					formatOptionalInt(item.StoryPoints), fmtOptional(item.OriginalEstimate),
					fmtOptional(item.RemainingWork), fmtOptional(item.CompletedWork),
					strings.Join(item.Tags, "|"), item.ParentTitle(), item.HumanURL(),
				}); err != nil {
					return err
				}
			}
			return nil
		},
	}, cfg, duration)
}

func writeSprintItemsTable(w io.Writer, style tableStyle, result schema.SprintWorkItems, fmtFloat func(float64) string, fmtOptional func(*float64) string) error {
	if err := style.headline(w, "%s (%s to %s)", result.Sprint.Path,
		formatDate(result.Sprint.StartDate), formatDate(result.Sprint.FinishDate)); err != nil {
		return err
	}

	titleWidth := textWidth(style.width, 75)
	var rows [][]string
	var points int
	var remaining float64
	for i, item := range result.Items {
		points += schema.IntValue(item.StoryPoints)
		remaining += schema.Value(item.RemainingWork)
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(item.ID),
			item.Type,
			escapeCell(style, contract.Truncate(item.Title, titleWidth)),
			stateLabel(style, item.State),
			item.AssignedTo,
			formatOptionalInt(item.StoryPoints),
			fmtOptional(item.RemainingWork),
		})
	}
	table := newTable(w, style, 2, 3, 4, 5)
	if err := renderTable(table, []string{"Rank", "ID", "Type", "Title", "State", "Assigned To", "SP", "Remaining"}, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %s items (story points: %s, remaining work: %sh)\n",
		humanize.Comma(int64(len(result.Items))), humanize.Comma(int64(points)), fmtFloat(remaining))
	return err
}

// stateLabel colors closed items green.
func stateLabel(style tableStyle, state string) string {
	if state == schema.StateClosed {
		return style.paint(contract.OnTrackColor, state)
	}
	return state
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(contract.DateFormat)
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
