package iocache

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/popilot/schema"
)

const statusTimeLayout = "2006-01-02 15:04:05"

// PrintCacheStatus prints cache status information.
func PrintCacheStatus(w io.Writer, status schema.CacheStatus) {
	_, _ = fmt.Fprintf(w, "Cache Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Entries: %s\n", humanize.Comma(int64(status.TotalEntries)))
	if status.TotalEntries > 0 {
		_, _ = fmt.Fprintf(w, "Last Entry: %s (%s)\n", status.LastEntryTime.Format(statusTimeLayout), humanize.Time(status.LastEntryTime))
		_, _ = fmt.Fprintf(w, "Oldest Entry: %s (%s)\n", status.OldestEntryTime.Format(statusTimeLayout), humanize.Time(status.OldestEntryTime))
	}
	_, _ = fmt.Fprintf(w, "Table Size: %s\n", humanize.Bytes(uint64(max(status.TableSizeBytes, 0))))
}

// PrintHistoryStatus prints velocity history status information.
func PrintHistoryStatus(w io.Writer, status schema.HistoryStatus) {
	_, _ = fmt.Fprintf(w, "History Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	if status.SchemaVersion > 0 {
		dirty := ""
		if status.Dirty {
			dirty = " (dirty)"
		}
		_, _ = fmt.Fprintf(w, "Schema Version: %d%s\n", status.SchemaVersion, dirty)
	}
	_, _ = fmt.Fprintf(w, "Total Snapshots: %s\n", humanize.Comma(int64(status.TotalSnapshots)))
	if status.TotalSnapshots > 0 {
		_, _ = fmt.Fprintf(w, "Distinct Sprints: %d\n", status.TotalSprints)
		_, _ = fmt.Fprintf(w, "Last Recorded: %s (%s)\n", status.LastRecorded.Format(statusTimeLayout), humanize.Time(status.LastRecorded))
		_, _ = fmt.Fprintf(w, "Oldest Recorded: %s (%s)\n", status.OldestRecorded.Format(statusTimeLayout), humanize.Time(status.OldestRecorded))
	}
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	for _, table := range slices.Sorted(maps.Keys(status.TableSizes)) {
		_, _ = fmt.Fprintf(w, "  %s: %d rows\n", table, status.TableSizes[table])
	}
}
