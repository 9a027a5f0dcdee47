package schema

import "encoding/xml"

// SprintList is the output of the sprints command.
type SprintList struct {
	XMLName xml.Name    `json:"-" yaml:"-" xml:"sprints"`
	Sprints []Iteration `json:"sprints" yaml:"sprints" xml:"sprint"`
}

// SprintWorkItems is a sprint with its items ordered by stack rank.
type SprintWorkItems struct {
	XMLName xml.Name   `json:"-" yaml:"-" xml:"sprintWorkItems"`
	Sprint  Iteration  `json:"sprint" yaml:"sprint" xml:"sprint"`
	Items   []WorkItem `json:"items" yaml:"items" xml:"items>item"`
}

// WorkItemDetail is a single work item with the sprint it is planned in.
type WorkItemDetail struct {
	XMLName xml.Name   `json:"-" yaml:"-" xml:"workItem"`
	Item    WorkItem   `json:"item" yaml:"item" xml:"item"`
	Sprint  *Iteration `json:"sprint,omitempty" yaml:"sprint,omitempty" xml:"sprint,omitempty"`
}

// TagAction is what inherit-tags did with one item.
type TagAction string

// All tag actions.
const (
	TagAlreadyPresent TagAction = "already-tagged"
	TagNotInherited   TagAction = "no-parent-tag"
	TagInherited      TagAction = "inherited"
	TagWouldInherit   TagAction = "would-inherit" // dry run
)

// TagInheritance is the outcome for one query result.
type TagInheritance struct {
	ID        int       `json:"id" yaml:"id" xml:"id,attr"`
	Title     string    `json:"title" yaml:"title" xml:"title"`
	Action    TagAction `json:"action" yaml:"action" xml:"action"`
	Tag       string    `json:"tag,omitempty" yaml:"tag,omitempty" xml:"tag,omitempty"`
	ParentIDs []int     `json:"parentIds,omitempty" yaml:"parentIds,omitempty" xml:"parentIds>id,omitempty"`
}

// TagInheritanceReport is the output of the inherit-tags command.
type TagInheritanceReport struct {
	XMLName xml.Name         `json:"-" yaml:"-" xml:"tagInheritance"`
	QueryID string           `json:"queryId" yaml:"queryId" xml:"queryId,attr"`
	DryRun  bool             `json:"dryRun" yaml:"dryRun" xml:"dryRun,attr"`
	Tags    []string         `json:"tags" yaml:"tags" xml:"tags>tag"`
	Results []TagInheritance `json:"results" yaml:"results" xml:"results>result"`
}

// Counts returns how many results ended with each action.
func (r TagInheritanceReport) Counts() map[TagAction]int {
	counts := make(map[TagAction]int)
	for _, res := range r.Results {
		counts[res.Action]++
	}
	return counts
}
