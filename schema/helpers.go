package schema

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Value returns the pointed-to number or zero.
func Value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// IntValue returns the pointed-to integer or zero.
func IntValue(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}

// DateOf returns the calendar date of t as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WorkingDays returns the days from start to finish (inclusive) without Saturdays and Sundays.
func WorkingDays(start, finish time.Time) []time.Time {
	if start.IsZero() || finish.IsZero() {
		return nil
	}
	last := DateOf(finish)
	var days []time.Time
	for d := DateOf(start); !d.After(last); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		days = append(days, d)
	}
	return days
}

// ContainsFold reports whether tags contains tag, ignoring case.
func ContainsFold(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Rank returns the stack rank or NaN when unranked.
func (w WorkItem) Rank() float64 {
	if w.StackRank == nil {
		return math.NaN()
	}
	return *w.StackRank
}

// SortByStackRank orders items by stack rank, keeping unranked items first.
func SortByStackRank(items []WorkItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Rank(), items[j].Rank()
		if math.IsNaN(a) {
			return !math.IsNaN(b)
		}
		if math.IsNaN(b) {
			return false
		}
		return a < b
	})
}

// FilterItems returns the items that satisfy keep.
func FilterItems(items []WorkItem, keep func(WorkItem) bool) []WorkItem {
	var out []WorkItem
	for _, w := range items {
		if keep(w) {
			out = append(out, w)
		}
	}
	return out
}

// Ratio divides n by d and returns 0 for an empty denominator.
func Ratio(n, d float64) float64 {
	if d == 0 {
		return 0
	}
	return n / d
}
