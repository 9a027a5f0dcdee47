package capacity

import (
	"strings"
	"time"

	"github.com/huangsam/popilot/schema"
)

// Input is a sprint with everything fetched for its capacity report.
type Input struct {
	Sprint   schema.Iteration
	Capacity schema.TeamCapacity
	Items    []schema.WorkItem
	History  map[int][]schema.FieldChange
	Rule     schema.AttributionRule
}

// TypeFilter keeps items whose type is one of types, ignoring case.
// An empty list keeps everything.
func TypeFilter(types []string) func(schema.WorkItem) bool {
	return func(w schema.WorkItem) bool {
		if len(types) == 0 {
			return true
		}
		for _, t := range types {
			if strings.EqualFold(strings.TrimSpace(t), w.Type) {
				return true
			}
		}
		return false
	}
}

// Aggregate builds the capacity and work table of a sprint.
// Sums "until today" cover the sprint days strictly before today.
func Aggregate(in Input, today time.Time) (schema.SprintCapacityAndWork, error) {
	days := in.Sprint.WorkingDays()
	deltas, err := AttributeDeltas(DeltaInput{
		Days:    days,
		Items:   in.Items,
		History: in.History,
		Members: in.Capacity.MemberNames(),
		Rule:    in.Rule,
	})
	if err != nil {
		return schema.SprintCapacityAndWork{}, err
	}

	result := schema.SprintCapacityAndWork{
		Path:        in.Sprint.Path,
		Start:       in.Sprint.StartDate,
		End:         in.Sprint.FinishDate,
		Days:        days,
		TeamMembers: make([]schema.MemberCapacityAndWork, 0, len(in.Capacity.Members)),
	}

	cutoff := schema.DateOf(today)
	for _, member := range in.Capacity.Members {
		row := schema.MemberCapacityAndWork{
			DisplayName: member.DisplayName,
			Days:        make([]schema.CapacityDay, len(days)),
		}
		memberDeltas := deltas[member.DisplayName]
		daily := member.DailyCapacity()

		for i, d := range days {
			cell := schema.CapacityDay{
				SprintDay:          d,
				CompletedWorkDelta: memberDeltas[i].CompletedValue(),
				RemainingWorkDelta: memberDeltas[i].RemainingValue(),
				IsDayOff:           member.IsDayOff(d, in.Capacity.TeamDaysOff),
			}
			if !cell.IsDayOff {
				cell.Capacity = schema.Float(daily)
			}
			row.Days[i] = cell

			row.TotalCapacity += schema.Value(cell.Capacity)
			if d.Before(cutoff) {
				row.CapacityUntilToday += schema.Value(cell.Capacity)
				row.CompletedWorkDeltaUntilToday += schema.Value(cell.CompletedWorkDelta)
				row.RemainingWorkDeltaUntilToday += schema.Value(cell.RemainingWorkDelta)
			}
		}
		result.TeamMembers = append(result.TeamMembers, row)
	}
	return result, nil
}
