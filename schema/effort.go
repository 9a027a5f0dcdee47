package schema

import "encoding/xml"

// EffortGroup is the effort of one (group, area) pair in one sprint.
type EffortGroup struct {
	Group            string     `json:"group" yaml:"group" xml:"group,attr"`
	Area             string     `json:"area" yaml:"area" xml:"area,attr"`
	Estimated        float64    `json:"estimated" yaml:"estimated" xml:"estimated"`
	Remaining        float64    `json:"remaining" yaml:"remaining" xml:"remaining"`
	Completed        float64    `json:"completed" yaml:"completed" xml:"completed"`
	EstimatedPercent *float64   `json:"estimatedPercent" yaml:"estimatedPercent" xml:"estimatedPercent,omitempty"`
	CompletedPercent *float64   `json:"completedPercent" yaml:"completedPercent" xml:"completedPercent,omitempty"`
	Items            []WorkItem `json:"items,omitempty" yaml:"items,omitempty" xml:"-"`
}

// SprintEffort is the grouped effort of one sprint.
type SprintEffort struct {
	Sprint Iteration     `json:"sprint" yaml:"sprint" xml:"sprint"`
	Groups []EffortGroup `json:"groups" yaml:"groups" xml:"groups>group"`
}

// EffortReport is the grouped effort of a multi-sprint scope.
type EffortReport struct {
	XMLName        xml.Name       `json:"-" yaml:"-" xml:"effortReport"`
	GroupTags      []string       `json:"groupTags,omitempty" yaml:"groupTags,omitempty" xml:"groupTags>tag,omitempty"`
	TotalEstimated float64        `json:"totalEstimated" yaml:"totalEstimated" xml:"totalEstimated"`
	TotalCompleted float64        `json:"totalCompleted" yaml:"totalCompleted" xml:"totalCompleted"`
	TotalRemaining float64        `json:"totalRemaining" yaml:"totalRemaining" xml:"totalRemaining"`
	Sprints        []SprintEffort `json:"sprints" yaml:"sprints" xml:"sprints>sprint"`
}

// EffortCell is one value of an effort table with its share of the grand total.
type EffortCell struct {
	Value   float64  `json:"value" yaml:"value"`
	Percent *float64 `json:"percent" yaml:"percent"`
}

// EffortRow is one group of an effort table.
type EffortRow struct {
	Group string       `json:"group" yaml:"group"`
	Cells []EffortCell `json:"cells" yaml:"cells"`
}

// EffortTable is a group by area pivot of an effort report.
type EffortTable struct {
	Areas []string    `json:"areas" yaml:"areas"`
	Rows  []EffortRow `json:"rows" yaml:"rows"`
}
