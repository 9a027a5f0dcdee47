package schema

import (
	"encoding/xml"
	"time"
)

// DateRange is a span of calendar days, inclusive on both ends.
type DateRange struct {
	Start time.Time `json:"start" yaml:"start" xml:"start"`
	End   time.Time `json:"end" yaml:"end" xml:"end"`
}

// Contains reports whether the calendar date of d falls in the range.
func (r DateRange) Contains(d time.Time) bool {
	day := DateOf(d)
	return !day.Before(DateOf(r.Start)) && !day.After(DateOf(r.End))
}

// ActivityCapacity is the planned hours per day for one activity.
type ActivityCapacity struct {
	Name           string  `json:"name" yaml:"name" xml:"name"`
	CapacityPerDay float64 `json:"capacityPerDay" yaml:"capacityPerDay" xml:"capacityPerDay"`
}

// TeamMemberCapacity is the planned capacity of a team member in one sprint.
type TeamMemberCapacity struct {
	DisplayName string             `json:"displayName" yaml:"displayName" xml:"displayName"`
	UniqueName  string             `json:"uniqueName,omitempty" yaml:"uniqueName,omitempty" xml:"uniqueName,omitempty"`
	Activities  []ActivityCapacity `json:"activities,omitempty" yaml:"activities,omitempty" xml:"activities>activity,omitempty"`
	DaysOff     []DateRange        `json:"daysOff,omitempty" yaml:"daysOff,omitempty" xml:"daysOff>range,omitempty"`
}

// DailyCapacity returns the sum of capacity over all activities.
func (m TeamMemberCapacity) DailyCapacity() float64 {
	var total float64
	for _, a := range m.Activities {
		total += a.CapacityPerDay
	}
	return total
}

// IsDayOff reports whether d falls in one of the member's ranges or in extra.
func (m TeamMemberCapacity) IsDayOff(d time.Time, extra []DateRange) bool {
	for _, r := range m.DaysOff {
		if r.Contains(d) {
			return true
		}
	}
	for _, r := range extra {
		if r.Contains(d) {
			return true
		}
	}
	return false
}

// TeamCapacity is what the capacity source returns for one sprint.
type TeamCapacity struct {
	Members     []TeamMemberCapacity `json:"members" yaml:"members" xml:"members>member"`
	TeamDaysOff []DateRange          `json:"teamDaysOff,omitempty" yaml:"teamDaysOff,omitempty" xml:"teamDaysOff>range,omitempty"`
}

// MemberNames returns the display names in source order.
func (c TeamCapacity) MemberNames() []string {
	names := make([]string, 0, len(c.Members))
	for _, m := range c.Members {
		names = append(names, m.DisplayName)
	}
	return names
}

// CapacityDay is one cell of the capacity report.
type CapacityDay struct {
	SprintDay          time.Time `json:"sprintDay" yaml:"sprintDay" xml:"sprintDay"`
	Capacity           *float64  `json:"capacity" yaml:"capacity" xml:"capacity,omitempty"`
	CompletedWorkDelta *float64  `json:"completedWorkDelta" yaml:"completedWorkDelta" xml:"completedWorkDelta,omitempty"`
	RemainingWorkDelta *float64  `json:"remainingWorkDelta" yaml:"remainingWorkDelta" xml:"remainingWorkDelta,omitempty"`
	IsDayOff           bool      `json:"isDayOff" yaml:"isDayOff" xml:"isDayOff"`
}

// MemberCapacityAndWork is one row of the capacity report.
type MemberCapacityAndWork struct {
	DisplayName                  string        `json:"displayName" yaml:"displayName" xml:"displayName,attr"`
	TotalCapacity                float64       `json:"totalCapacity" yaml:"totalCapacity" xml:"totalCapacity"`
	CapacityUntilToday           float64       `json:"capacityUntilToday" yaml:"capacityUntilToday" xml:"capacityUntilToday"`
	CompletedWorkDeltaUntilToday float64       `json:"completedWorkDeltaUntilToday" yaml:"completedWorkDeltaUntilToday" xml:"completedWorkDeltaUntilToday"`
	RemainingWorkDeltaUntilToday float64       `json:"remainingWorkDeltaUntilToday" yaml:"remainingWorkDeltaUntilToday" xml:"remainingWorkDeltaUntilToday"`
	Days                         []CapacityDay `json:"days" yaml:"days" xml:"days>day"`
}

// SprintCapacityAndWork is the capacity report of one sprint.
type SprintCapacityAndWork struct {
	XMLName     xml.Name                `json:"-" yaml:"-" xml:"sprintCapacityAndWork"`
	Path        string                  `json:"path" yaml:"path" xml:"path,attr"`
	Start       time.Time               `json:"start" yaml:"start" xml:"start"`
	End         time.Time               `json:"end" yaml:"end" xml:"end"`
	Days        []time.Time             `json:"days" yaml:"days" xml:"days>day"`
	TeamMembers []MemberCapacityAndWork `json:"teamMembers" yaml:"teamMembers" xml:"teamMembers>member"`
}
