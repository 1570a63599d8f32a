package filter

import "github.com/sadopc/planr/internal/task"

type SortColumn string

const (
	SortTitle    SortColumn = "title"
	SortStatus   SortColumn = "status"
	SortPriority SortColumn = "priority"
	SortStart    SortColumn = "start"
	SortEnd      SortColumn = "end"
	SortOrder    SortColumn = "order"
)

var SortColumns = []SortColumn{SortTitle, SortStatus, SortPriority, SortStart, SortEnd, SortOrder}

func ParseSortColumn(v string) (SortColumn, bool) {
	for _, c := range SortColumns {
		if string(c) == v {
			return c, true
		}
	}
	return SortColumn(v), false
}

type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// State is the view configuration. Empty filter sets mean "no filter".
type State struct {
	Statuses   []task.Status   `json:"status_filter"`
	Priorities []task.Priority `json:"priority_filter"`
	Tags       []string        `json:"tag_filter"`
	Query      string          `json:"search_query"`
	SortColumn SortColumn      `json:"sort_column"`
	SortDir    SortDirection   `json:"sort_direction"`
}

// DefaultState has no filters and sorts by order ascending.
func DefaultState() State {
	return State{SortColumn: SortOrder, SortDir: Asc}
}

// Clone returns a copy that shares no slices with s.
func (s State) Clone() State {
	s.Statuses = append([]task.Status(nil), s.Statuses...)
	s.Priorities = append([]task.Priority(nil), s.Priorities...)
	s.Tags = append([]string(nil), s.Tags...)
	return s
}

// Active reports whether any filter (not sort) is set.
func (s State) Active() bool {
	return len(s.Statuses) > 0 || len(s.Priorities) > 0 || len(s.Tags) > 0 || s.Query != ""
}

// Option sets one field of a State. Fields without an option keep their
// previous value.
type Option func(*State)

func WithStatuses(v ...task.Status) Option {
	return func(s *State) { s.Statuses = append([]task.Status(nil), v...) }
}

func WithPriorities(v ...task.Priority) Option {
	return func(s *State) { s.Priorities = append([]task.Priority(nil), v...) }
}

func WithTags(v ...string) Option {
	return func(s *State) { s.Tags = append([]string(nil), v...) }
}

func WithQuery(q string) Option {
	return func(s *State) { s.Query = q }
}

func WithSort(c SortColumn, d SortDirection) Option {
	return func(s *State) {
		s.SortColumn = c
		s.SortDir = d
	}
}

// toggle adds v to set when absent and removes it when present.
func toggle[T comparable](set []T, v T) []T {
	out := make([]T, 0, len(set)+1)
	found := false
	for _, x := range set {
		if x == v {
			found = true
			continue
		}
		out = append(out, x)
	}
	if !found {
		out = append(out, v)
	}
	return out
}
