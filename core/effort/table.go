package effort

import (
	"sort"

	"github.com/huangsam/popilot/schema"
)

// Metric selects which sum an effort table shows.
type Metric string

// All table metrics.
const (
	EstimatedMetric Metric = "estimated"
	RemainingMetric Metric = "remaining"
	CompletedMetric Metric = "completed"
)

func (m Metric) value(g schema.EffortGroup) float64 {
	switch m {
	case RemainingMetric:
		return g.Remaining
	case CompletedMetric:
		return g.Completed
	default:
		return g.Estimated
	}
}

func (m Metric) total(r schema.EffortReport) float64 {
	switch m {
	case RemainingMetric:
		return r.TotalRemaining
	case CompletedMetric:
		return r.TotalCompleted
	default:
		return r.TotalEstimated
	}
}

// Table pivots a report into one row per group and one column per area,
// summed over all sprints of the report.
func Table(report schema.EffortReport, metric Metric) schema.EffortTable {
	areaSet := map[string]struct{}{}
	groupSet := map[string]struct{}{}
	sums := map[groupKey]float64{}
	for _, s := range report.Sprints {
		for _, g := range s.Groups {
			areaSet[g.Area] = struct{}{}
			groupSet[g.Group] = struct{}{}
			sums[groupKey{group: g.Group, area: g.Area}] += metric.value(g)
		}
	}

	table := schema.EffortTable{Areas: sortedKeys(areaSet)}
	groups := sortedKeys(groupSet)
	sort.SliceStable(groups, func(i, j int) bool { return lessGroup(groups[i], groups[j]) })

	total := metric.total(report)
	for _, group := range groups {
		row := schema.EffortRow{Group: group, Cells: make([]schema.EffortCell, len(table.Areas))}
		for i, area := range table.Areas {
			v := sums[groupKey{group: group, area: area}]
			row.Cells[i] = schema.EffortCell{Value: v, Percent: percent(v, total)}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
