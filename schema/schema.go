// Package schema has the models, constants and report records shared by all parts of popilot.
package schema

import (
	"strings"
	"time"
)

// Iteration is a sprint as configured for a team.
type Iteration struct {
	ID         string    `json:"id" yaml:"id" xml:"id,attr"`
	Name       string    `json:"name" yaml:"name" xml:"name"`
	Path       string    `json:"path" yaml:"path" xml:"path"`
	TimeFrame  TimeFrame `json:"timeFrame" yaml:"timeFrame" xml:"timeFrame"`
	StartDate  time.Time `json:"startDate" yaml:"startDate" xml:"startDate"`
	FinishDate time.Time `json:"finishDate" yaml:"finishDate" xml:"finishDate"`
}

// WorkingDays returns the calendar days from start to finish (inclusive) without weekends.
func (it Iteration) WorkingDays() []time.Time {
	return WorkingDays(it.StartDate, it.FinishDate)
}

// ParentPath returns the path without its last segment.
func (it Iteration) ParentPath() string {
	idx := strings.LastIndex(it.Path, `\`)
	if idx < 0 {
		return ""
	}
	return it.Path[:idx]
}

// HasDates reports whether the iteration carries a start and finish date.
func (it Iteration) HasDates() bool {
	return !it.StartDate.IsZero() && !it.FinishDate.IsZero()
}

// ParentRef is a cached copy of an ancestor work item.
type ParentRef struct {
	ID         int        `json:"id" yaml:"id" xml:"id,attr"`
	Type       string     `json:"type" yaml:"type" xml:"type"`
	Title      string     `json:"title" yaml:"title" xml:"title"`
	State      string     `json:"state" yaml:"state" xml:"state"`
	Tags       []string   `json:"tags,omitempty" yaml:"tags,omitempty" xml:"tags>tag,omitempty"`
	TargetDate *time.Time `json:"targetDate,omitempty" yaml:"targetDate,omitempty" xml:"targetDate,omitempty"`
}

// WorkItem is a snapshot of a work item with its ancestor chain.
type WorkItem struct {
	ID               int         `json:"id" yaml:"id" xml:"id,attr"`
	Type             string      `json:"type" yaml:"type" xml:"type"`
	Title            string      `json:"title" yaml:"title" xml:"title"`
	AssignedTo       string      `json:"assignedTo,omitempty" yaml:"assignedTo,omitempty" xml:"assignedTo,omitempty"`
	State            string      `json:"state" yaml:"state" xml:"state"`
	Reason           string      `json:"reason,omitempty" yaml:"reason,omitempty" xml:"reason,omitempty"`
	TeamProject      string      `json:"teamProject,omitempty" yaml:"teamProject,omitempty" xml:"teamProject,omitempty"`
	AreaPath         string      `json:"areaPath" yaml:"areaPath" xml:"areaPath"`
	IterationPath    string      `json:"iterationPath" yaml:"iterationPath" xml:"iterationPath"`
	StoryPoints      *int        `json:"storyPoints,omitempty" yaml:"storyPoints,omitempty" xml:"storyPoints,omitempty"`
	OriginalEstimate *float64    `json:"originalEstimate,omitempty" yaml:"originalEstimate,omitempty" xml:"originalEstimate,omitempty"`
	RemainingWork    *float64    `json:"remainingWork,omitempty" yaml:"remainingWork,omitempty" xml:"remainingWork,omitempty"`
	CompletedWork    *float64    `json:"completedWork,omitempty" yaml:"completedWork,omitempty" xml:"completedWork,omitempty"`
	StackRank        *float64    `json:"stackRank,omitempty" yaml:"stackRank,omitempty" xml:"stackRank,omitempty"`
	CreatedDate      time.Time   `json:"createdDate" yaml:"createdDate" xml:"createdDate"`
	ChangedDate      time.Time   `json:"changedDate" yaml:"changedDate" xml:"changedDate"`
	ResolvedDate     *time.Time  `json:"resolvedDate,omitempty" yaml:"resolvedDate,omitempty" xml:"resolvedDate,omitempty"`
	ClosedDate       *time.Time  `json:"closedDate,omitempty" yaml:"closedDate,omitempty" xml:"closedDate,omitempty"`
	TargetDate       *time.Time  `json:"targetDate,omitempty" yaml:"targetDate,omitempty" xml:"targetDate,omitempty"`
	Tags             []string    `json:"tags,omitempty" yaml:"tags,omitempty" xml:"tags>tag,omitempty"`
	ParentID         *int        `json:"parentId,omitempty" yaml:"parentId,omitempty" xml:"parentId,omitempty"`
	Parents          []ParentRef `json:"parents,omitempty" yaml:"parents,omitempty" xml:"parents>parent,omitempty"`
	ChildrenIDs      []int       `json:"childrenIds,omitempty" yaml:"childrenIds,omitempty" xml:"childrenIds>id,omitempty"`
	URL              string      `json:"url,omitempty" yaml:"url,omitempty" xml:"url,omitempty"`
}

// Parent returns the direct parent, if one was resolved.
func (w WorkItem) Parent() (ParentRef, bool) {
	if len(w.Parents) == 0 {
		return ParentRef{}, false
	}
	return w.Parents[0], true
}

// ParentTitle returns the title of the direct parent or "".
func (w WorkItem) ParentTitle() string {
	p, _ := w.Parent()
	return p.Title
}

// ParentType returns the type of the direct parent or "".
func (w WorkItem) ParentType() string {
	p, _ := w.Parent()
	return p.Type
}

// ParentTags returns the tags of the direct parent.
func (w WorkItem) ParentTags() []string {
	p, _ := w.Parent()
	return p.Tags
}

// RootParent returns the deepest resolved ancestor.
func (w WorkItem) RootParent() (ParentRef, bool) {
	if len(w.Parents) == 0 {
		return ParentRef{}, false
	}
	return w.Parents[len(w.Parents)-1], true
}

// EffectiveTags returns own tags followed by all ancestor tags, deduplicated case-insensitively.
func (w WorkItem) EffectiveTags() []string {
	seen := make(map[string]struct{}, len(w.Tags))
	var tags []string
	add := func(list []string) {
		for _, t := range list {
			key := strings.ToLower(t)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			tags = append(tags, t)
		}
	}
	add(w.Tags)
	for _, p := range w.Parents {
		add(p.Tags)
	}
	return tags
}

// HumanURL turns the API url into the browser url.
func (w WorkItem) HumanURL() string {
	return strings.Replace(w.URL, "/_apis/wit/workItems/", "/_workitems/edit/", 1)
}

// ValueChange is the old and new value of a numeric field in one update.
type ValueChange struct {
	Old *float64 `json:"old,omitempty" yaml:"old,omitempty"`
	New *float64 `json:"new,omitempty" yaml:"new,omitempty"`
}

// Delta returns new minus old with missing values as zero.
// A nil change has a zero delta.
func (c *ValueChange) Delta() float64 {
	if c == nil {
		return 0
	}
	return Value(c.New) - Value(c.Old)
}

// FieldChange is a single history update of a work item.
type FieldChange struct {
	WorkItemID    int          `json:"workItemId" yaml:"workItemId"`
	Rev           int          `json:"rev" yaml:"rev"`
	ChangedBy     string       `json:"changedBy" yaml:"changedBy"`
	ChangedAt     *time.Time   `json:"changedAt,omitempty" yaml:"changedAt,omitempty"`
	CompletedWork *ValueChange `json:"completedWork,omitempty" yaml:"completedWork,omitempty"`
	RemainingWork *ValueChange `json:"remainingWork,omitempty" yaml:"remainingWork,omitempty"`
}

// ScopeContext identifies the project and team a request is made for.
type ScopeContext struct {
	Project string `json:"project" yaml:"project"`
	Team    string `json:"team" yaml:"team"`
}
