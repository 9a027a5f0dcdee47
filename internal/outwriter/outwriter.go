// Package outwriter has output and writer logic.
package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/popilot/internal/contract"
	"github.com/huangsam/popilot/schema"
)

// ErrUnsupportedOutput is returned when a report has no renderer for the chosen output mode.
var ErrUnsupportedOutput = errors.New("unsupported output mode")

// renderers are the report specific parts of an output.
// JSON, YAML and XML are derived from the report value itself.
type renderers struct {
	table     func(w io.Writer, style tableStyle) error
	csvHeader []string
	csvRows   func(w *csv.Writer) error
	html      func(w io.Writer) error // nil when the report has no chart
}

// printReport writes a report in the configured output mode to stdout or cfg.OutputFile.
func printReport(name string, data any, r renderers, cfg *contract.Config, duration time.Duration) error {
	var err error
	switch cfg.Output {
	case schema.JSONOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, data)
		}, "Wrote JSON "+name)
	case schema.YAMLOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeYAML(w, data)
		}, "Wrote YAML "+name)
	case schema.XMLOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeXML(w, data)
		}, "Wrote XML "+name)
	case schema.CSVOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, r.csvHeader, r.csvRows)
		}, "Wrote CSV "+name)
	case schema.HTMLOut:
		if r.html == nil {
			return fmt.Errorf("%w: %s has no %s rendering", ErrUnsupportedOutput, name, cfg.Output)
		}
		err = writeWithFile(cfg.OutputFile, r.html, "Wrote HTML "+name)
	case schema.MarkdownOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return r.table(w, tableStyle{markdown: true, width: terminalWidth(cfg)})
		}, "Wrote Markdown "+name)
	default:
		// Default to human-readable table
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if err := r.table(w, tableStyle{colors: cfg.UseColors, width: terminalWidth(cfg)}); err != nil {
				return err
			}
			return writeFooter(w, cfg, duration)
		}, "Wrote table "+name)
	}
	if err != nil {
		return fmt.Errorf("error writing %s output: %w", cfg.Output, err)
	}
	return nil
}

// writeFooter prints the run summary under console tables.
func writeFooter(w io.Writer, cfg *contract.Config, duration time.Duration) error {
	_, err := fmt.Fprintf(w, "Report completed in %v with %d workers. Cache backend: %s\n",
		duration.Round(time.Millisecond), cfg.Workers, cacheBackendLabel(cfg))
	return err
}

func cacheBackendLabel(cfg *contract.Config) schema.DatabaseBackend {
	if cfg.CacheBackend == "" {
		return schema.NoneBackend
	}
	return cfg.CacheBackend
}
