package velocity

import (
	"errors"
	"strings"

	"github.com/huangsam/popilot/schema"
)

// ErrNoCurrentIteration is returned when no sprint is marked current.
var ErrNoCurrentIteration = errors.New("no current iteration")

// IterationGroup is a multi-sprint iteration: the sprints sharing a parent path.
type IterationGroup struct {
	Path    string
	Sprints []schema.Iteration
}

// GroupByParentPath groups sprints by parent path, keeping first-seen order.
func GroupByParentPath(sprints []schema.Iteration) []IterationGroup {
	var groups []IterationGroup
	index := map[string]int{}
	for _, s := range sprints {
		key := s.ParentPath()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, IterationGroup{Path: key})
		}
		groups[i].Sprints = append(groups[i].Sprints, s)
	}
	return groups
}

// CurrentAndPrevious finds the group holding the current sprint and the group before it.
// previous is nil when the current group is the first one.
func CurrentAndPrevious(groups []IterationGroup) (current IterationGroup, previous *IterationGroup, err error) {
	for i, g := range groups {
		for _, s := range g.Sprints {
			if s.TimeFrame != schema.CurrentFrame {
				continue
			}
			if i > 0 {
				previous = &groups[i-1]
			}
			return g, previous, nil
		}
	}
	return IterationGroup{}, nil, ErrNoCurrentIteration
}

// ChildOfParentFeature keeps user stories, and bugs and tasks below a feature, unless removed.
func ChildOfParentFeature(w schema.WorkItem) bool {
	typeOK := w.Type == schema.TypeUserStory ||
		((w.Type == schema.TypeBug || w.Type == schema.TypeTask) && w.ParentType() == schema.TypeFeature)
	return typeOK && w.State != schema.StateRemoved
}

// IsActiveFeature keeps features that are not removed.
func IsActiveFeature(w schema.WorkItem) bool {
	return w.Type == schema.TypeFeature && w.State != schema.StateRemoved
}

// IsWorked keeps closed bugs and tasks below a root parent that carry hours.
// Obsolete or cut items count only if work was completed on them.
func IsWorked(w schema.WorkItem) bool {
	if w.Type != schema.TypeBug && w.Type != schema.TypeTask {
		return false
	}
	if w.State != schema.StateClosed {
		return false
	}
	if _, ok := w.RootParent(); !ok {
		return false
	}
	cancelled := w.Reason == schema.ReasonObsolete || w.Reason == schema.ReasonCut
	if cancelled && schema.Value(w.CompletedWork) <= 0 {
		return false
	}
	return w.CompletedWork != nil || w.OriginalEstimate != nil
}

// IsNonRoadmap reports whether the root parent title contains title.
// A blank title makes every item roadmap work.
func IsNonRoadmap(w schema.WorkItem, title string) bool {
	if strings.TrimSpace(title) == "" {
		return false
	}
	root, ok := w.RootParent()
	if !ok {
		return true
	}
	return strings.Contains(root.Title, title)
}

// WorkHours returns completed work, falling back to the original estimate.
func WorkHours(w schema.WorkItem) float64 {
	if w.CompletedWork != nil {
		return *w.CompletedWork
	}
	return schema.Value(w.OriginalEstimate)
}

// IterationInput holds the fetched items of the current and previous iteration.
type IterationInput struct {
	Current  IterationGroup
	Previous *IterationGroup

	CurrentItems     []schema.WorkItem // items of every sprint in the current group
	CurrentFeatures  []schema.WorkItem // items on the current group path
	PreviousItems    []schema.WorkItem
	PreviousFeatures []schema.WorkItem

	NonRoadmapParentTitle string
}

func countIf(items []schema.WorkItem, keep func(schema.WorkItem) bool) int {
	var n int
	for _, w := range items {
		if keep(w) {
			n++
		}
	}
	return n
}

func closed(w schema.WorkItem) bool { return w.State == schema.StateClosed }

func parentTagged(tag string) func(schema.WorkItem) bool {
	return func(w schema.WorkItem) bool { return schema.ContainsFold(w.ParentTags(), tag) }
}

func tagged(tag string) func(schema.WorkItem) bool {
	return func(w schema.WorkItem) bool { return schema.ContainsFold(w.Tags, tag) }
}

// IterationStatistics computes the health ratios of the current iteration.
// Every ratio with an empty denominator is 0.
func IterationStatistics(in IterationInput) schema.IterationStatistics {
	workItems := schema.FilterItems(in.CurrentItems, ChildOfParentFeature)
	features := schema.FilterItems(in.CurrentFeatures, IsActiveFeature)
	previousItems := schema.FilterItems(in.PreviousItems, ChildOfParentFeature)
	previousFeatures := schema.FilterItems(in.PreviousFeatures, IsActiveFeature)

	committedItems := schema.FilterItems(workItems, parentTagged(schema.CommittedTag))
	committedFeatures := schema.FilterItems(features, tagged(schema.CommittedTag))
	spilloverItems := countIf(workItems, parentTagged(schema.SpilloverTag))
	spilloverFeatures := countIf(features, tagged(schema.SpilloverTag))

	stats := schema.IterationStatistics{
		Name:                             in.Current.Path,
		FractionClosedWorkItems:          ratio(countIf(workItems, closed), len(workItems)),
		FractionClosedFeatures:           ratio(countIf(features, closed), len(features)),
		FractionCommittedWorkItems:       ratio(len(committedItems), len(workItems)),
		FractionCommittedFeatures:        ratio(len(committedFeatures), len(features)),
		FractionClosedCommittedWorkItems: ratio(countIf(committedItems, closed), len(committedItems)),
		FractionClosedCommittedFeatures:  ratio(countIf(committedFeatures, closed), len(committedFeatures)),
		FractionSpilloverWorkItems:       ratio(spilloverItems, spilloverItems+len(previousItems)),
		FractionSpilloverFeatures:        ratio(spilloverFeatures, spilloverFeatures+len(previousFeatures)),
	}
	if n := len(in.Current.Sprints); n > 0 {
		stats.Start = in.Current.Sprints[0].StartDate
		stats.End = in.Current.Sprints[n-1].FinishDate
	}
	if in.Previous != nil {
		stats.PreviousIterationName = in.Previous.Path
	}

	stats.SprintWorks = sprintWorks(schema.FilterItems(in.CurrentItems, IsWorked), in.NonRoadmapParentTitle)
	var nonRoadmap, total float64
	for _, s := range stats.SprintWorks {
		nonRoadmap += s.NonRoadmapWork
		total += s.NonRoadmapWork + s.RoadmapWork
	}
	stats.FractionNonRoadmapWork = schema.Ratio(nonRoadmap, total)
	return stats
}

// sprintWorks splits the hours of worked items per iteration path, in first-seen order.
func sprintWorks(worked []schema.WorkItem, title string) []schema.SprintWork {
	works := []schema.SprintWork{}
	index := map[string]int{}
	for _, w := range worked {
		i, ok := index[w.IterationPath]
		if !ok {
			i = len(works)
			index[w.IterationPath] = i
			works = append(works, schema.SprintWork{Name: w.IterationPath})
		}
		if IsNonRoadmap(w, title) {
			works[i].NonRoadmapWork += WorkHours(w)
		} else {
			works[i].RoadmapWork += WorkHours(w)
		}
	}
	return works
}

func ratio(n, d int) float64 {
	return schema.Ratio(float64(n), float64(d))
}
