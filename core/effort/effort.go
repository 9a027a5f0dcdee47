// Package effort groups sprint work items by tag and area and sums their hours.
package effort

import (
	"errors"
	"sort"
	"strings"

	"github.com/huangsam/popilot/schema"
)

// ErrEmptyScope is returned when no work item is left to group.
var ErrEmptyScope = errors.New("effort scope has no work items")

// CompletedFunc returns the completed hours of an item in a sprint.
type CompletedFunc func(schema.Iteration, schema.WorkItem) float64

// CompletedWorkOnly counts the completed work field.
func CompletedWorkOnly(_ schema.Iteration, w schema.WorkItem) float64 {
	return schema.Value(w.CompletedWork)
}

// ByTimeFrame counts completed work for past sprints and
// completed plus remaining work for current and future sprints.
func ByTimeFrame(it schema.Iteration, w schema.WorkItem) float64 {
	if it.TimeFrame == schema.PastFrame {
		return schema.Value(w.CompletedWork)
	}
	return schema.Value(w.CompletedWork) + schema.Value(w.RemainingWork)
}

// SprintItems is a sprint with its fetched work items.
type SprintItems struct {
	Sprint schema.Iteration
	Items  []schema.WorkItem
}

// Options controls grouping and filtering.
type Options struct {
	GroupTags []string // ordered, first match wins
	Filters   []string // "tag" or "!tag", all must hold
	Completed CompletedFunc
}

// GroupOf returns the first of groupTags found in tags, or schema.NoGroup.
func GroupOf(tags, groupTags []string) string {
	for _, g := range groupTags {
		if schema.ContainsFold(tags, g) {
			return g
		}
	}
	return schema.NoGroup
}

// Filter is a single tag condition.
type Filter struct {
	Tag    string
	Negate bool
}

// ParseFilters reads "tag" and "!tag" expressions. Blank entries are ignored.
func ParseFilters(exprs []string) []Filter {
	var filters []Filter
	for _, e := range exprs {
		e = strings.TrimSpace(e)
		negate := strings.HasPrefix(e, "!")
		tag := strings.TrimSpace(strings.TrimPrefix(e, "!"))
		if tag == "" {
			continue
		}
		filters = append(filters, Filter{Tag: tag, Negate: negate})
	}
	return filters
}

// Holds reports whether tags satisfy the filter.
func (f Filter) Holds(tags []string) bool {
	return schema.ContainsFold(tags, f.Tag) != f.Negate
}

// MatchesAll reports whether tags satisfy every filter.
func MatchesAll(filters []Filter, tags []string) bool {
	for _, f := range filters {
		if !f.Holds(tags) {
			return false
		}
	}
	return true
}

type groupKey struct {
	group string
	area  string
}

// Group sums estimated, remaining and completed hours per sprint and (group, area).
// Percentages are taken against the totals of the whole scope.
func Group(scope []SprintItems, opts Options) (schema.EffortReport, error) {
	completed := opts.Completed
	if completed == nil {
		completed = ByTimeFrame
	}
	filters := ParseFilters(opts.Filters)

	report := schema.EffortReport{GroupTags: opts.GroupTags}
	var seen int
	for _, s := range scope {
		items := make([]schema.WorkItem, len(s.Items))
		copy(items, s.Items)
		schema.SortByStackRank(items)

		groups := make(map[groupKey]*schema.EffortGroup)
		for _, w := range items {
			tags := w.EffectiveTags()
			if !MatchesAll(filters, tags) {
				continue
			}
			seen++
			key := groupKey{group: GroupOf(tags, opts.GroupTags), area: w.AreaPath}
			g, ok := groups[key]
			if !ok {
				g = &schema.EffortGroup{Group: key.group, Area: key.area}
				groups[key] = g
			}
			g.Estimated += schema.Value(w.OriginalEstimate)
			g.Remaining += schema.Value(w.RemainingWork)
			g.Completed += completed(s.Sprint, w)
			g.Items = append(g.Items, w)
		}

		effort := schema.SprintEffort{Sprint: s.Sprint, Groups: make([]schema.EffortGroup, 0, len(groups))}
		for _, g := range groups {
			report.TotalEstimated += g.Estimated
			report.TotalRemaining += g.Remaining
			report.TotalCompleted += g.Completed
			effort.Groups = append(effort.Groups, *g)
		}
		sortGroups(effort.Groups)
		report.Sprints = append(report.Sprints, effort)
	}
	if seen == 0 {
		return schema.EffortReport{}, ErrEmptyScope
	}

	for i := range report.Sprints {
		for j := range report.Sprints[i].Groups {
			g := &report.Sprints[i].Groups[j]
			g.EstimatedPercent = percent(g.Estimated, report.TotalEstimated)
			g.CompletedPercent = percent(g.Completed, report.TotalCompleted)
		}
	}
	return report, nil
}

// percent returns part as a share of total in percent, or nil for an empty total.
func percent(part, total float64) *float64 {
	if total == 0 {
		return nil
	}
	return schema.Float(part / total * 100)
}

// lessGroup orders schema.NoGroup first and the rest by name.
func lessGroup(a, b string) bool {
	if a == b {
		return false
	}
	if a == schema.NoGroup {
		return true
	}
	if b == schema.NoGroup {
		return false
	}
	return a < b
}

func sortGroups(groups []schema.EffortGroup) {
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Group != groups[j].Group {
			return lessGroup(groups[i].Group, groups[j].Group)
		}
		return groups[i].Area < groups[j].Area
	})
}
