// Package priority turns saved "Priority - " queries into progress summaries.
package priority

import (
	"slices"
	"sort"
	"strings"

	"github.com/huangsam/popilot/schema"
)

// teamFolderSuffix marks query folders that belong to a single team.
const teamFolderSuffix = " Team"

// Select returns the priority queries of a flattened query tree.
// Entries named "<name> Team" that are not team are skipped with everything below them.
func Select(queries []schema.QueryItem, team string) []schema.QueryItem {
	var selected []schema.QueryItem
	skipBelow := -1
	for _, q := range queries {
		if skipBelow >= 0 {
			if q.Depth > skipBelow {
				continue
			}
			skipBelow = -1
		}
		if strings.HasSuffix(q.Name, teamFolderSuffix) && q.Name != team {
			skipBelow = q.Depth
			continue
		}
		if !q.IsFolder && strings.HasPrefix(q.Name, schema.PriorityPrefix) {
			selected = append(selected, q)
		}
	}
	return selected
}

// Order sorts queries named in order first, in that order, and the rest by name.
func Order(queries []schema.QueryItem, order []string) {
	rank := func(q schema.QueryItem) int {
		if i := slices.Index(order, q.Name); i >= 0 {
			return i
		}
		return len(order)
	}
	sort.SliceStable(queries, func(i, j int) bool {
		ri, rj := rank(queries[i]), rank(queries[j])
		if ri != rj {
			return ri < rj
		}
		return queries[i].Name < queries[j].Name
	})
}

// KindOf classifies a priority by its query name.
func KindOf(queryName string) schema.PriorityKind {
	switch {
	case strings.HasPrefix(queryName, schema.ReleasePriorityPrefix):
		return schema.ReleasePriority
	case strings.HasPrefix(queryName, schema.EscalationPriorityPrefix):
		return schema.EscalationPriority
	default:
		return schema.RegularPriority
	}
}

// DisplayName shortens release and escalation query names.
func DisplayName(queryName string) string {
	if rest, ok := strings.CutPrefix(queryName, schema.EscalationPriorityPrefix+" - "); ok {
		return "Escalation " + rest
	}
	if rest, ok := strings.CutPrefix(queryName, schema.ReleasePriorityPrefix); ok {
		return "Release" + rest
	}
	return queryName
}

// isBacklogItem reports whether w is a leaf of planned work.
func isBacklogItem(w schema.WorkItem) bool {
	if w.State == schema.StateRemoved {
		return false
	}
	switch w.Type {
	case schema.TypeFeature:
		return len(w.ChildrenIDs) == 0
	case schema.TypeUserStory, schema.TypeBug, schema.TypeTask:
		return true
	default:
		return false
	}
}

// Backlog keeps the features without children and the stories, bugs and tasks that were not removed.
func Backlog(items []schema.WorkItem) []schema.WorkItem {
	return schema.FilterItems(items, isBacklogItem)
}

// Root returns the first item whose parent is not part of items.
func Root(items []schema.WorkItem) *schema.ParentRef {
	ids := make(map[int]struct{}, len(items))
	for _, w := range items {
		ids[w.ID] = struct{}{}
	}
	for _, w := range items {
		if w.ParentID != nil {
			if _, ok := ids[*w.ParentID]; ok {
				continue
			}
		}
		return &schema.ParentRef{
			ID:         w.ID,
			Type:       w.Type,
			Title:      w.Title,
			State:      w.State,
			Tags:       w.Tags,
			TargetDate: w.TargetDate,
		}
	}
	return nil
}

// Summarize computes the progress of one priority query against the current sprint.
// Escalations get a forecast when some of their work is planned later in the same iteration.
func Summarize(query schema.QueryItem, items []schema.WorkItem, sprint schema.Iteration) schema.Priority {
	p := schema.Priority{
		QueryID:     query.ID,
		QueryName:   query.Name,
		Name:        DisplayName(query.Name),
		Kind:        KindOf(query.Name),
		Root:        Root(items),
		SprintItems: []schema.WorkItem{},
	}

	backlog := Backlog(items)
	p.Count = len(backlog)
	for _, w := range backlog {
		if w.State == schema.StateClosed {
			p.CountClosed++
		}
		if w.IterationPath == sprint.Path {
			p.SprintItems = append(p.SprintItems, w)
		}
	}
	if p.Count > 0 {
		p.FractionClosed = schema.Float(float64(p.CountClosed) / float64(p.Count))
	}

	if p.Kind == schema.EscalationPriority {
		p.Forecast = forecast(backlog, sprint)
	}
	return p
}

// forecast counts the items that are closed or planned in the iteration of sprint.
// It is nil when nothing is planned in the iteration outside of sprint.
func forecast(backlog []schema.WorkItem, sprint schema.Iteration) *schema.PriorityForecast {
	parent := sprint.ParentPath()
	if parent == "" || len(backlog) == 0 {
		return nil
	}
	inIteration := func(w schema.WorkItem) bool {
		return strings.HasPrefix(w.IterationPath, parent+`\`)
	}
	later := false
	closedOrPlanned := 0
	for _, w := range backlog {
		if w.IterationPath != sprint.Path && inIteration(w) {
			later = true
		}
		if w.State == schema.StateClosed || inIteration(w) {
			closedOrPlanned++
		}
	}
	if !later {
		return nil
	}
	return &schema.PriorityForecast{
		ClosedOrPlanned: closedOrPlanned,
		Fraction:        float64(closedOrPlanned) / float64(len(backlog)),
	}
}
