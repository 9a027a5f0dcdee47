package azdo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/huangsam/popilot/schema"
)

type iterationList struct {
	Value []iterationDTO `json:"value"`
}

type iterationDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Path       string `json:"path"`
	Attributes struct {
		StartDate  *time.Time `json:"startDate"`
		FinishDate *time.Time `json:"finishDate"`
		TimeFrame  string     `json:"timeFrame"`
	} `json:"attributes"`
}

func (d iterationDTO) toIteration() schema.Iteration {
	it := schema.Iteration{
		ID:        d.ID,
		Name:      d.Name,
		Path:      d.Path,
		TimeFrame: schema.TimeFrame(strings.ToLower(d.Attributes.TimeFrame)),
	}
	if d.Attributes.StartDate != nil {
		it.StartDate = schema.DateOf(*d.Attributes.StartDate)
	}
	if d.Attributes.FinishDate != nil {
		it.FinishDate = schema.DateOf(*d.Attributes.FinishDate)
	}
	return it
}

// GetIterations returns the team's sprints ordered by start date. Undated sprints come last.
func (c *Client) GetIterations(ctx context.Context, scope schema.ScopeContext) ([]schema.Iteration, error) {
	var list iterationList
	u := c.teamURL(scope, "/_apis/work/teamsettings/iterations", nil)
	if err := c.doJSON(ctx, http.MethodGet, u, "", nil, &list); err != nil {
		return nil, fmt.Errorf("get iterations of %s/%s: %w", scope.Project, scope.Team, err)
	}

	iterations := make([]schema.Iteration, 0, len(list.Value))
	for _, d := range list.Value {
		iterations = append(iterations, d.toIteration())
	}
	sort.SliceStable(iterations, func(i, j int) bool {
		a, b := iterations[i].StartDate, iterations[j].StartDate
		if a.IsZero() || b.IsZero() {
			return !a.IsZero() && b.IsZero()
		}
		return a.Before(b)
	})
	c.log.Debug().Str("project", scope.Project).Str("team", scope.Team).Int("count", len(iterations)).Msg("iterations fetched")
	return iterations, nil
}

type dateRangeDTO struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func toDateRanges(in []dateRangeDTO) []schema.DateRange {
	if len(in) == 0 {
		return nil
	}
	out := make([]schema.DateRange, 0, len(in))
	for _, r := range in {
		out = append(out, schema.DateRange{Start: schema.DateOf(r.Start), End: schema.DateOf(r.End)})
	}
	return out
}

type capacityList struct {
	TeamMembers []struct {
		TeamMember struct {
			DisplayName string `json:"displayName"`
			UniqueName  string `json:"uniqueName"`
		} `json:"teamMember"`
		Activities []struct {
			Name           string  `json:"name"`
			CapacityPerDay float64 `json:"capacityPerDay"`
		} `json:"activities"`
		DaysOff []dateRangeDTO `json:"daysOff"`
	} `json:"teamMembers"`
}

type teamDaysOff struct {
	DaysOff []dateRangeDTO `json:"daysOff"`
}

// GetCapacities returns the planned capacity of every team member plus the team days off.
func (c *Client) GetCapacities(ctx context.Context, scope schema.ScopeContext, iteration schema.Iteration) (schema.TeamCapacity, error) {
	if iteration.ID == "" {
		return schema.TeamCapacity{}, fmt.Errorf("iteration %q has no id", iteration.Path)
	}
	base := "/_apis/work/teamsettings/iterations/" + url.PathEscape(iteration.ID)

	var caps capacityList
	if err := c.doJSON(ctx, http.MethodGet, c.teamURL(scope, base+"/capacities", nil), "", nil, &caps); err != nil {
		return schema.TeamCapacity{}, fmt.Errorf("get capacities of %s: %w", iteration.Path, err)
	}
	var off teamDaysOff
	if err := c.doJSON(ctx, http.MethodGet, c.teamURL(scope, base+"/teamdaysoff", nil), "", nil, &off); err != nil {
		return schema.TeamCapacity{}, fmt.Errorf("get team days off of %s: %w", iteration.Path, err)
	}

	team := schema.TeamCapacity{TeamDaysOff: toDateRanges(off.DaysOff)}
	for _, m := range caps.TeamMembers {
		member := schema.TeamMemberCapacity{
			DisplayName: m.TeamMember.DisplayName,
			UniqueName:  m.TeamMember.UniqueName,
			DaysOff:     toDateRanges(m.DaysOff),
		}
		for _, a := range m.Activities {
			member.Activities = append(member.Activities, schema.ActivityCapacity{Name: a.Name, CapacityPerDay: a.CapacityPerDay})
		}
		team.Members = append(team.Members, member)
	}
	return team, nil
}
