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

// workItemFields lists the field/value pairs shown for a single work item.
func workItemFields(detail schema.WorkItemDetail, fmtOptional func(*float64) string) [][]string {
	item := detail.Item
	sprint := item.IterationPath
	if detail.Sprint != nil && detail.Sprint.HasDates() {
		sprint = fmt.Sprintf("%s (%s to %s, %s)", item.IterationPath,
			formatDate(detail.Sprint.StartDate), formatDate(detail.Sprint.FinishDate), detail.Sprint.TimeFrame)
	}
	return [][]string{
		{"ID", strconv.Itoa(item.ID)},
		{"Type", item.Type},
		{"Title", item.Title},
		{"State", item.State},
		{"Reason", item.Reason},
		{"Assigned To", item.AssignedTo},
		{"Area", item.AreaPath},
		{"Iteration", sprint},
		{"Story Points", formatOptionalInt(item.StoryPoints)},
		{"Original Estimate", fmtOptional(item.OriginalEstimate)},
		{"Remaining Work", fmtOptional(item.RemainingWork)},
		{"Completed Work", fmtOptional(item.CompletedWork)},
		{"Tags", strings.Join(item.Tags, ", ")},
		{"Created", formatDate(item.CreatedDate)},
		{"Changed", formatDate(item.ChangedDate)},
		{"Closed", formatOptionalDate(item.ClosedDate)},
		{"Target Date", formatOptionalDate(item.TargetDate)},
		{"URL", item.HumanURL()},
	}
}

// PrintWorkItemDetail outputs one work item with its parent chain.
func PrintWorkItemDetail(detail schema.WorkItemDetail, cfg *contract.Config, duration time.Duration) error {
	_, fmtOptional := createFormatters(cfg.Precision)
	return printReport("work item", detail, renderers{
		table: func(w io.Writer, style tableStyle) error {
			return writeWorkItemTables(w, style, detail, fmtOptional)
		},
		csvHeader: []string{"field", "value"},
		csvRows: func(w *csv.Writer) error {
			for _, f := range workItemFields(detail, fmtOptional) {
				if err := w.Write(f); err != nil {
					return err
				}
			}
			for i, p := range detail.Item.Parents {
				value := fmt.Sprintf("%d %s: %s [%s]", p.ID, p.Type, p.Title, p.State)
				if err := w.Write([]string{fmt.Sprintf("Parent %d", i+1), value}); err != nil {
					return err
				}
			}
			return nil
		},
	}, cfg, duration)
}

func writeWorkItemTables(w io.Writer, style tableStyle, detail schema.WorkItemDetail, fmtOptional func(*float64) string) error {
	if err := style.headline(w, "%s %d", detail.Item.Type, detail.Item.ID); err != nil {
		return err
	}
	valueWidth := textWidth(style.width, 20) + 30
	var rows [][]string
	for _, f := range workItemFields(detail, fmtOptional) {
		if f[1] == "" {
			continue
		}
		value := f[1]
		if f[0] != "URL" {
			value = contract.Truncate(value, valueWidth)
		}
		if f[0] == "State" {
			value = stateLabel(style, value)
		}
		rows = append(rows, []string{f[0], escapeCell(style, value)})
	}
	if err := renderTable(newTable(w, style, 0, 1), []string{"Field", "Value"}, rows); err != nil {
		return err
	}

	if len(detail.Item.Parents) == 0 {
		return nil
	}
	if err := style.headline(w, "Parents"); err != nil {
		return err
	}
	titleWidth := textWidth(style.width, 60)
	var parents [][]string
	for i, p := range detail.Item.Parents {
		parents = append(parents, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(p.ID),
			p.Type,
			escapeCell(style, contract.Truncate(p.Title, titleWidth)),
			stateLabel(style, p.State),
			strings.Join(p.Tags, ", "),
		})
	}
	return renderTable(newTable(w, style, 2, 3, 4, 5), []string{"Level", "ID", "Type", "Title", "State", "Tags"}, parents)
}

// PrintTagInheritance outputs what inherit-tags did with every query result.
func PrintTagInheritance(report schema.TagInheritanceReport, cfg *contract.Config, duration time.Duration) error {
	return printReport("tag inheritance", report, renderers{
		table: func(w io.Writer, style tableStyle) error {
			return writeTagInheritanceTable(w, style, report)
		},
		csvHeader: []string{"id", "title", "action", "tag", "parent_ids"},
		csvRows: func(w *csv.Writer) error {
			for _, r := range report.Results {
				if err := w.Write([]string{
					strconv.Itoa(r.ID), r.Title, string(r.Action), r.Tag, joinInts(r.ParentIDs, "|"),
				}); err != nil {
					return err
				}
			}
			return nil
		},
	}, cfg, duration)
}

func writeTagInheritanceTable(w io.Writer, style tableStyle, report schema.TagInheritanceReport) error {
	mode := ""
	if report.DryRun {
		mode = " (dry run)"
	}
	if err := style.headline(w, "Query %s, tags %s%s", report.QueryID, strings.Join(report.Tags, ", "), mode); err != nil {
		return err
	}

	titleWidth := textWidth(style.width, 70)
	var rows [][]string
	for _, r := range report.Results {
		action := string(r.Action)
		switch r.Action {
		case schema.TagInherited, schema.TagWouldInherit:
			action = style.paint(contract.OnTrackColor, action)
		case schema.TagNotInherited:
			action = style.paint(contract.BehindColor, action)
		}
		rows = append(rows, []string{
			strconv.Itoa(r.ID),
			escapeCell(style, contract.Truncate(r.Title, titleWidth)),
			action,
			r.Tag,
			joinInts(r.ParentIDs, ", "),
		})
	}
	if err := renderTable(newTable(w, style, 1, 2, 3), []string{"ID", "Title", "Action", "Tag", "Parents"}, rows); err != nil {
		return err
	}

	counts := report.Counts()
	_, err := fmt.Fprintf(w, "%d items: %d inherited, %d would inherit, %d already tagged, %d without parent tag\n",
		len(report.Results), counts[schema.TagInherited], counts[schema.TagWouldInherit],
		counts[schema.TagAlreadyPresent], counts[schema.TagNotInherited])
	return err
}

func joinInts(values []int, sep string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, sep)
}
