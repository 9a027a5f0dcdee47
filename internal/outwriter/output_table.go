package outwriter

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/popilot/internal/contract"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// tableStyle tells a table renderer how to draw.
type tableStyle struct {
	markdown bool
	colors   bool
	width    int
}

// paint applies c when colors are on.
func (s tableStyle) paint(c *color.Color, text string) string {
	if !s.colors || text == "" {
		return text
	}
	return c.Sprint(text)
}

// against colors text by whether work kept up with capacity.
func (s tableStyle) against(text string, keptUp bool) string {
	if !s.colors || text == "" {
		return text
	}
	return contract.ColorAgainst(text, keptUp)
}

// headline writes a section title above a table.
func (s tableStyle) headline(w io.Writer, format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if s.markdown {
		_, err := fmt.Fprintf(w, "\n## %s\n\n", text)
		return err
	}
	_, err := fmt.Fprintf(w, "%s\n", s.paint(contract.HeadlineColor, text))
	return err
}

// newTable creates a console table, or a pipe table for markdown.
// Columns listed in leftColumns are left aligned in console tables; the rest are right aligned.
func newTable(w io.Writer, style tableStyle, leftColumns ...int) *tablewriter.Table {
	if style.markdown {
		return tablewriter.NewTable(w, tablewriter.WithRenderer(renderer.NewMarkdown()))
	}
	table := tablewriter.NewWriter(w)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
		if len(leftColumns) > 0 {
			perColumn := make([]tw.Align, slices.Max(leftColumns)+1)
			for i := range perColumn {
				perColumn[i] = tw.AlignRight
			}
			for _, c := range leftColumns {
				perColumn[c] = tw.AlignLeft
			}
			cfg.Row.Alignment.PerColumn = perColumn
		}
	})
	return table
}

// renderTable writes headers and rows in one go.
func renderTable(table *tablewriter.Table, headers []string, rows [][]string) error {
	table.Header(headers)
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// escapeCell keeps pipe characters from breaking markdown rows.
func escapeCell(style tableStyle, text string) string {
	if !style.markdown {
		return text
	}
	return strings.ReplaceAll(text, "|", `\|`)
}
