// Package capacity reconstructs per-day work deltas from work item history
// and joins them with team capacity into a sprint table.
package capacity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/popilot/schema"
)

// ErrMissingHistory is returned when an input item has no history entry.
var ErrMissingHistory = errors.New("missing work item history")

// DeltaInput holds everything needed to attribute work deltas.
type DeltaInput struct {
	Days    []time.Time                  // working days of the sprint
	Items   []schema.WorkItem            // already filtered by the caller
	History map[int][]schema.FieldChange // item id to its updates
	Members []string                     // display names
	Rule    schema.AttributionRule
}

// DayDelta is the sum of all work deltas attributed to a member on one day.
type DayDelta struct {
	Events    int
	Completed float64
	Remaining float64
}

// CompletedValue returns the completed delta or nil when nothing was attributed.
func (d DayDelta) CompletedValue() *float64 {
	if d.Events == 0 {
		return nil
	}
	return schema.Float(d.Completed)
}

// RemainingValue returns the remaining delta or nil when nothing was attributed.
func (d DayDelta) RemainingValue() *float64 {
	if d.Events == 0 {
		return nil
	}
	return schema.Float(d.Remaining)
}

// MemberDeltas maps a member display name to one DayDelta per sprint day.
type MemberDeltas map[string][]DayDelta

// Matches reports whether an update belongs to member under rule.
// assignedTo is the item's current assignee.
func Matches(rule schema.AttributionRule, changedBy, assignedTo, member string) bool {
	switch rule {
	case schema.ChangedBy:
		return changedBy == member
	case schema.AssignedTo:
		return assignedTo == member
	case schema.ChangedByAssignedTo:
		return changedBy == assignedTo && assignedTo == member
	default:
		return false
	}
}

// event is a relevant update positioned on a sprint day.
type event struct {
	day        int
	changedBy  string
	assignedTo string
	completed  float64
	remaining  float64
}

// dayKey is the lookup key of a calendar date.
func dayKey(t time.Time) string {
	return schema.DateOf(t).Format(time.DateOnly)
}

// collectEvents turns the history of all items into events on sprint days.
// Updates without a work delta or outside the sprint are dropped.
func collectEvents(in DeltaInput) ([]event, error) {
	dayIndex := make(map[string]int, len(in.Days))
	for i, d := range in.Days {
		dayIndex[dayKey(d)] = i
	}

	var events []event
	for _, item := range in.Items {
		updates, ok := in.History[item.ID]
		if !ok {
			return nil, fmt.Errorf("work item %d: %w", item.ID, ErrMissingHistory)
		}
		for _, u := range updates {
			completed := u.CompletedWork.Delta()
			remaining := u.RemainingWork.Delta()
			if completed == 0 && remaining == 0 {
				continue
			}
			if u.ChangedAt == nil {
				continue
			}
			idx, ok := dayIndex[dayKey(*u.ChangedAt)]
			if !ok {
				continue
			}
			events = append(events, event{
				day:        idx,
				changedBy:  strings.TrimSpace(u.ChangedBy),
				assignedTo: strings.TrimSpace(item.AssignedTo),
				completed:  completed,
				remaining:  remaining,
			})
		}
	}
	return events, nil
}

// AttributeDeltas sums the work deltas per member and sprint day.
// Every member gets one DayDelta per day, in the order of in.Days.
func AttributeDeltas(in DeltaInput) (MemberDeltas, error) {
	events, err := collectEvents(in)
	if err != nil {
		return nil, err
	}

	result := make(MemberDeltas, len(in.Members))
	for _, member := range in.Members {
		days := make([]DayDelta, len(in.Days))
		for _, e := range events {
			if !Matches(in.Rule, e.changedBy, e.assignedTo, member) {
				continue
			}
			days[e.day].Events++
			days[e.day].Completed += e.completed
			days[e.day].Remaining += e.remaining
		}
		result[member] = days
	}
	return result, nil
}
