package schema

import (
	"encoding/xml"
	"time"
)

// QueryItem is a saved query or a query folder.
type QueryItem struct {
	ID        string `json:"id" yaml:"id" xml:"id,attr"`
	Name      string `json:"name" yaml:"name" xml:"name"`
	Path      string `json:"path" yaml:"path" xml:"path"`
	IsFolder  bool   `json:"isFolder" yaml:"isFolder" xml:"isFolder,attr"`
	QueryType string `json:"queryType,omitempty" yaml:"queryType,omitempty" xml:"queryType,omitempty"` // flat, tree or oneHop
	Depth     int    `json:"depth" yaml:"depth" xml:"depth,attr"`
}

// QueryList is the output of the queries command.
type QueryList struct {
	XMLName xml.Name    `json:"-" yaml:"-" xml:"queries"`
	Queries []QueryItem `json:"queries" yaml:"queries" xml:"query"`
}

// NewWorkItem describes a work item to create.
type NewWorkItem struct {
	Type          string
	Title         string
	AreaPath      string
	IterationPath string
	AssignedTo    string   // unique name of the assignee, empty for none
	Effort        *float64 // original estimate and remaining work
	ParentID      *int
}


// PriorityKind tells release and escalation priorities apart from the rest.
type PriorityKind string

// All priority kinds.
const (
	RegularPriority    PriorityKind = "priority"
	ReleasePriority    PriorityKind = "release"
	EscalationPriority PriorityKind = "escalation"
)

// Saved query name prefixes that mark priorities.
const (
	PriorityPrefix           = "Priority - "
	ReleasePriorityPrefix    = "Priority - Release"
	EscalationPriorityPrefix = "Priority - Escalation"
)

// PriorityForecast is how much of an escalation the current iteration will probably cover.
type PriorityForecast struct {
	ClosedOrPlanned int     `json:"closedOrPlanned" yaml:"closedOrPlanned" xml:"closedOrPlanned"`
	Fraction        float64 `json:"fraction" yaml:"fraction" xml:"fraction"`
}

// Priority is the progress of one priority query.
type Priority struct {
	QueryID        string            `json:"queryId" yaml:"queryId" xml:"queryId,attr"`
	QueryName      string            `json:"queryName" yaml:"queryName" xml:"queryName"`
	Name           string            `json:"name" yaml:"name" xml:"name"`
	Kind           PriorityKind      `json:"kind" yaml:"kind" xml:"kind,attr"`
	Root           *ParentRef        `json:"root,omitempty" yaml:"root,omitempty" xml:"root,omitempty"`
	Count          int               `json:"count" yaml:"count" xml:"count"`
	CountClosed    int               `json:"countClosed" yaml:"countClosed" xml:"countClosed"`
	FractionClosed *float64          `json:"fractionClosed" yaml:"fractionClosed" xml:"fractionClosed,omitempty"`
	SprintItems    []WorkItem        `json:"sprintItems" yaml:"sprintItems" xml:"sprintItems>item"`
	Forecast       *PriorityForecast `json:"forecast,omitempty" yaml:"forecast,omitempty" xml:"forecast,omitempty"`
}

// TargetDate returns the target date of a release, if its root item has one.
func (p Priority) TargetDate() *time.Time {
	if p.Kind != ReleasePriority || p.Root == nil {
		return nil
	}
	return p.Root.TargetDate
}

// PrioritiesReport is the output of the priorities command.
type PrioritiesReport struct {
	XMLName    xml.Name             `json:"-" yaml:"-" xml:"priorities"`
	Sprint     Iteration            `json:"sprint" yaml:"sprint" xml:"sprint"`
	Priorities []Priority           `json:"priorities" yaml:"priorities" xml:"priority"`
	Statistics *SprintStatistics    `json:"statistics,omitempty" yaml:"statistics,omitempty" xml:"statistics,omitempty"`
	Iteration  *IterationStatistics `json:"iteration,omitempty" yaml:"iteration,omitempty" xml:"iteration,omitempty"`
}
