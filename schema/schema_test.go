package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIteration(t *testing.T) {
	it := Iteration{Path: `Shop\2024\Sprint 2`, StartDate: day(18), FinishDate: day(29)}
	assert.Equal(t, `Shop\2024`, it.ParentPath())
	assert.True(t, it.HasDates())
	assert.Len(t, it.WorkingDays(), 10)

	root := Iteration{Path: "Shop"}
	assert.Equal(t, "", root.ParentPath())
	assert.False(t, root.HasDates())
	assert.Empty(t, root.WorkingDays())
}

func TestWorkItemParents(t *testing.T) {
	w := WorkItem{
		ID:   7,
		Tags: []string{"Checkout"},
		Parents: []ParentRef{
			{ID: 5, Type: TypeFeature, Title: "Payments", Tags: []string{"checkout", "Q2"}},
			{ID: 1, Type: "Epic", Title: "Revenue", Tags: []string{"q2", "Strategic"}},
		},
		URL: "https://dev.azure.com/org/_apis/wit/workItems/7",
	}

	assert.Equal(t, "Payments", w.ParentTitle())
	assert.Equal(t, TypeFeature, w.ParentType())
	assert.Equal(t, []string{"checkout", "Q2"}, w.ParentTags())
	root, ok := w.RootParent()
	assert.True(t, ok)
	assert.Equal(t, 1, root.ID)
	assert.Equal(t, []string{"Checkout", "Q2", "Strategic"}, w.EffectiveTags())
	assert.Equal(t, "https://dev.azure.com/org/_workitems/edit/7", w.HumanURL())

	orphan := WorkItem{ID: 8}
	_, ok = orphan.Parent()
	assert.False(t, ok)
	_, ok = orphan.RootParent()
	assert.False(t, ok)
	assert.Equal(t, "", orphan.ParentTitle())
	assert.Nil(t, orphan.EffectiveTags())
}

func TestValueChangeDelta(t *testing.T) {
	tests := []struct {
		name     string
		change   *ValueChange
		expected float64
	}{
		{"nil change", nil, 0},
		{"both set", &ValueChange{Old: Float(2), New: Float(5)}, 3},
		{"first value", &ValueChange{New: Float(4)}, 4},
		{"cleared", &ValueChange{Old: Float(6)}, -6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.change.Delta())
		})
	}
}

func TestTeamMemberCapacity(t *testing.T) {
	m := TeamMemberCapacity{
		DisplayName: "Ada",
		Activities:  []ActivityCapacity{{Name: "Development", CapacityPerDay: 5}, {Name: "Testing", CapacityPerDay: 1.5}},
		DaysOff:     []DateRange{{Start: day(19), End: day(20)}},
	}
	team := []DateRange{{Start: day(22), End: day(22)}}

	assert.Equal(t, 6.5, m.DailyCapacity())
	assert.False(t, m.IsDayOff(day(18), team))
	assert.True(t, m.IsDayOff(day(20), team))
	assert.True(t, m.IsDayOff(day(22), team))
	assert.False(t, m.IsDayOff(day(22), nil))

	c := TeamCapacity{Members: []TeamMemberCapacity{m, {DisplayName: "Grace"}}}
	assert.Equal(t, []string{"Ada", "Grace"}, c.MemberNames())
}

func TestTagInheritanceReportCounts(t *testing.T) {
	r := TagInheritanceReport{Results: []TagInheritance{
		{ID: 1, Action: TagInherited},
		{ID: 2, Action: TagInherited},
		{ID: 3, Action: TagAlreadyPresent},
		{ID: 4, Action: TagNotInherited},
	}}
	counts := r.Counts()
	assert.Equal(t, 2, counts[TagInherited])
	assert.Equal(t, 1, counts[TagAlreadyPresent])
	assert.Equal(t, 0, counts[TagWouldInherit])
}
