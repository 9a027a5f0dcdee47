// Package velocity computes cross-sprint delivery statistics and the health
// of the current iteration.
package velocity

import (
	"errors"
	"strings"

	"github.com/huangsam/popilot/schema"
)

// ErrEmptyScope is returned when there is no sprint to compute statistics for.
var ErrEmptyScope = errors.New("velocity scope has no sprints")

// DefaultTake is the number of past sprints looked at by default.
const DefaultTake = 10

// SprintItems is a sprint with the items it delivered.
type SprintItems struct {
	Sprint schema.Iteration
	Items  []schema.WorkItem
}

// GoalReached reads the sprint goal marker at the end of an iteration path.
// It returns nil when the path carries no marker.
func GoalReached(path string) *bool {
	var reached bool
	switch {
	case strings.HasSuffix(path, schema.GoalReachedMarker):
		reached = true
	case strings.HasSuffix(path, schema.GoalNotReachedMarker):
		reached = false
	default:
		return nil
	}
	return &reached
}

// DeliveredIn reports whether w is a closed bug or user story of sprint.
func DeliveredIn(sprint schema.Iteration, w schema.WorkItem) bool {
	return (w.Type == schema.TypeBug || w.Type == schema.TypeUserStory) &&
		w.State == schema.StateClosed &&
		w.IterationPath == sprint.Path
}

// LastPast returns the last take past sprints in source order.
func LastPast(sprints []schema.Iteration, take int) []schema.Iteration {
	if take <= 0 {
		take = DefaultTake
	}
	var past []schema.Iteration
	for _, s := range sprints {
		if s.TimeFrame == schema.PastFrame {
			past = append(past, s)
		}
	}
	if len(past) > take {
		past = past[len(past)-take:]
	}
	return past
}

// Summarize returns the counts of one sprint.
func Summarize(s SprintItems) schema.SprintVelocity {
	v := schema.SprintVelocity{
		Path:        s.Sprint.Path,
		Start:       s.Sprint.StartDate,
		End:         s.Sprint.FinishDate,
		Items:       len(s.Items),
		GoalReached: GoalReached(s.Sprint.Path),
	}
	for _, w := range s.Items {
		v.StoryPoints += schema.IntValue(w.StoryPoints)
		switch w.Type {
		case schema.TypeUserStory:
			v.Stories++
		case schema.TypeBug:
			v.Bugs++
		}
	}
	return v
}

// PerSprint summarises every sprint in order.
func PerSprint(sprints []SprintItems) []schema.SprintVelocity {
	out := make([]schema.SprintVelocity, 0, len(sprints))
	for _, s := range sprints {
		out = append(out, Summarize(s))
	}
	return out
}

// SprintStatistics computes totals, last-sprint values and per-sprint averages.
func SprintStatistics(sprints []SprintItems) (schema.SprintStatistics, error) {
	if len(sprints) == 0 {
		return schema.SprintStatistics{}, ErrEmptyScope
	}

	per := PerSprint(sprints)
	first, last := sprints[0].Sprint, per[len(per)-1]
	stats := schema.SprintStatistics{
		Start:                   first.StartDate,
		End:                     sprints[len(sprints)-1].Sprint.FinishDate,
		Sprints:                 len(sprints),
		ItemsInLastSprint:       last.Items,
		StoryPointsInLastSprint: last.StoryPoints,
		StoriesInLastSprint:     last.Stories,
		BugsInLastSprint:        last.Bugs,
		LastSprintGoalReached:   last.GoalReached,
	}
	for _, v := range per {
		stats.AllItems += v.Items
		stats.AllStoryPoints += v.StoryPoints
		stats.AllStories += v.Stories
		stats.AllBugs += v.Bugs
	}

	n := float64(len(sprints))
	stats.ItemsPerSprint = float64(stats.AllItems) / n
	stats.StoryPointsPerSprint = float64(stats.AllStoryPoints) / n
	stats.StoriesPerSprint = float64(stats.AllStories) / n
	stats.BugsPerSprint = float64(stats.AllBugs) / n
	return stats, nil
}
