package schema

import (
	"encoding/xml"
	"time"
)

// SprintStatistics summarises the delivery of a run of past sprints.
type SprintStatistics struct {
	Start                   time.Time `json:"start" yaml:"start" xml:"start"`
	End                     time.Time `json:"end" yaml:"end" xml:"end"`
	Sprints                 int       `json:"sprints" yaml:"sprints" xml:"sprints"`
	AllItems                int       `json:"allItems" yaml:"allItems" xml:"allItems"`
	ItemsInLastSprint       int       `json:"itemsInLastSprint" yaml:"itemsInLastSprint" xml:"itemsInLastSprint"`
	ItemsPerSprint          float64   `json:"itemsPerSprint" yaml:"itemsPerSprint" xml:"itemsPerSprint"`
	AllStoryPoints          int       `json:"allStoryPoints" yaml:"allStoryPoints" xml:"allStoryPoints"`
	StoryPointsInLastSprint int       `json:"storyPointsInLastSprint" yaml:"storyPointsInLastSprint" xml:"storyPointsInLastSprint"`
	StoryPointsPerSprint    float64   `json:"storyPointsPerSprint" yaml:"storyPointsPerSprint" xml:"storyPointsPerSprint"`
	AllStories              int       `json:"allStories" yaml:"allStories" xml:"allStories"`
	StoriesInLastSprint     int       `json:"storiesInLastSprint" yaml:"storiesInLastSprint" xml:"storiesInLastSprint"`
	StoriesPerSprint        float64   `json:"storiesPerSprint" yaml:"storiesPerSprint" xml:"storiesPerSprint"`
	AllBugs                 int       `json:"allBugs" yaml:"allBugs" xml:"allBugs"`
	BugsInLastSprint        int       `json:"bugsInLastSprint" yaml:"bugsInLastSprint" xml:"bugsInLastSprint"`
	BugsPerSprint           float64   `json:"bugsPerSprint" yaml:"bugsPerSprint" xml:"bugsPerSprint"`
	LastSprintGoalReached   *bool     `json:"lastSprintGoalReached" yaml:"lastSprintGoalReached" xml:"lastSprintGoalReached,omitempty"`
}

// SprintWork is the roadmap and non-roadmap hours of one sprint.
type SprintWork struct {
	Name           string  `json:"name" yaml:"name" xml:"name,attr"`
	NonRoadmapWork float64 `json:"nonRoadmapWork" yaml:"nonRoadmapWork" xml:"nonRoadmapWork"`
	RoadmapWork    float64 `json:"roadmapWork" yaml:"roadmapWork" xml:"roadmapWork"`
}

// IterationStatistics describes the health of the current iteration (a group of sprints).
type IterationStatistics struct {
	Name                             string       `json:"name" yaml:"name" xml:"name"`
	Start                            time.Time    `json:"start" yaml:"start" xml:"start"`
	End                              time.Time    `json:"end" yaml:"end" xml:"end"`
	PreviousIterationName            string       `json:"previousIterationName,omitempty" yaml:"previousIterationName,omitempty" xml:"previousIterationName,omitempty"`
	FractionClosedWorkItems          float64      `json:"fractionClosedWorkItems" yaml:"fractionClosedWorkItems" xml:"fractionClosedWorkItems"`
	FractionClosedFeatures           float64      `json:"fractionClosedFeatures" yaml:"fractionClosedFeatures" xml:"fractionClosedFeatures"`
	FractionCommittedWorkItems       float64      `json:"fractionCommittedWorkItems" yaml:"fractionCommittedWorkItems" xml:"fractionCommittedWorkItems"`
	FractionCommittedFeatures        float64      `json:"fractionCommittedFeatures" yaml:"fractionCommittedFeatures" xml:"fractionCommittedFeatures"`
	FractionClosedCommittedWorkItems float64      `json:"fractionClosedCommittedWorkItems" yaml:"fractionClosedCommittedWorkItems" xml:"fractionClosedCommittedWorkItems"`
	FractionClosedCommittedFeatures  float64      `json:"fractionClosedCommittedFeatures" yaml:"fractionClosedCommittedFeatures" xml:"fractionClosedCommittedFeatures"`
	FractionSpilloverWorkItems       float64      `json:"fractionSpilloverWorkItems" yaml:"fractionSpilloverWorkItems" xml:"fractionSpilloverWorkItems"`
	FractionSpilloverFeatures        float64      `json:"fractionSpilloverFeatures" yaml:"fractionSpilloverFeatures" xml:"fractionSpilloverFeatures"`
	FractionNonRoadmapWork           float64      `json:"fractionNonRoadmapWork" yaml:"fractionNonRoadmapWork" xml:"fractionNonRoadmapWork"`
	SprintWorks                      []SprintWork `json:"sprintWorks" yaml:"sprintWorks" xml:"sprintWorks>sprint"`
}

// SprintVelocity is the delivery of a single past sprint.
type SprintVelocity struct {
	Path        string    `json:"path" yaml:"path" xml:"path,attr"`
	Start       time.Time `json:"start" yaml:"start" xml:"start"`
	End         time.Time `json:"end" yaml:"end" xml:"end"`
	Items       int       `json:"items" yaml:"items" xml:"items"`
	Stories     int       `json:"stories" yaml:"stories" xml:"stories"`
	Bugs        int       `json:"bugs" yaml:"bugs" xml:"bugs"`
	StoryPoints int       `json:"storyPoints" yaml:"storyPoints" xml:"storyPoints"`
	GoalReached *bool     `json:"goalReached" yaml:"goalReached" xml:"goalReached,omitempty"`
}

// VelocityReport combines sprint statistics with the per-sprint breakdown and iteration health.
type VelocityReport struct {
	XMLName    xml.Name             `json:"-" yaml:"-" xml:"velocityReport"`
	Statistics SprintStatistics     `json:"statistics" yaml:"statistics" xml:"statistics"`
	PerSprint  []SprintVelocity     `json:"perSprint" yaml:"perSprint" xml:"perSprint>sprint"`
	Iteration  *IterationStatistics `json:"iteration,omitempty" yaml:"iteration,omitempty" xml:"iteration,omitempty"`
}
