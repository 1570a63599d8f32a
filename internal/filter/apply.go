package filter

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/sadopc/planr/internal/task"
)

// noEnd stands in for a missing end date so open-ended tasks sort after
// every real date.
var noEnd = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// Match reports whether t passes every filter in s. Within the tag
// filter all selected tags must be present.
func Match(s State, t task.Task) bool {
	if len(s.Statuses) > 0 && !slices.Contains(s.Statuses, t.Status) {
		return false
	}
	if len(s.Priorities) > 0 && !slices.Contains(s.Priorities, t.Priority) {
		return false
	}
	for _, tag := range s.Tags {
		if !t.HasTag(tag) {
			return false
		}
	}
	if s.Query != "" {
		q := strings.ToLower(s.Query)
		if !strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	return true
}

// ApplyFilters returns the tasks that match s, in input order.
func ApplyFilters(s State, tasks []task.Task) []task.Task {
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if Match(s, t) {
			out = append(out, t)
		}
	}
	return out
}

// ApplySort returns a sorted copy of tasks. Equal keys fall back to
// created ascending whatever the direction, so the order is total.
func ApplySort(s State, tasks []task.Task) []task.Task {
	out := slices.Clone(tasks)
	mult := 1
	if s.SortDir == Desc {
		mult = -1
	}
	by := comparator(s.SortColumn)
	slices.SortStableFunc(out, func(a, b task.Task) int {
		if c := by(a, b) * mult; c != 0 {
			return c
		}
		return a.Created.Compare(b.Created)
	})
	return out
}

func endKey(t task.Task) time.Time {
	if !t.HasEnd() {
		return noEnd
	}
	return t.End
}

func comparator(c SortColumn) func(a, b task.Task) int {
	switch c {
	case SortTitle:
		return func(a, b task.Task) int { return strings.Compare(a.Title, b.Title) }
	case SortStatus:
		return func(a, b task.Task) int { return strings.Compare(string(a.Status), string(b.Status)) }
	case SortPriority:
		return func(a, b task.Task) int { return cmp.Compare(a.Priority.Weight(), b.Priority.Weight()) }
	case SortStart:
		return func(a, b task.Task) int { return a.Start.Compare(b.Start) }
	case SortEnd:
		return func(a, b task.Task) int { return endKey(a).Compare(endKey(b)) }
	default:
		return func(a, b task.Task) int { return cmp.Compare(a.Order, b.Order) }
	}
}
