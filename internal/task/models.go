package task

import (
	"strings"
	"time"
)

// DateLayout is the on-disk format of start and end dates.
const DateLayout = "2006-01-02"

// MaxTitleLength bounds Task.Title in characters.
const MaxTitleLength = 200

type Status string

const (
	StatusBacklog    Status = "backlog"
	StatusInProgress Status = "in-progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
	StatusArchived   Status = "archived"
)

// AllStatuses lists every status in workflow order.
var AllStatuses = []Status{StatusBacklog, StatusInProgress, StatusReview, StatusDone, StatusArchived}

// KanbanStatuses are the board columns. Archived tasks are not shown.
var KanbanStatuses = []Status{StatusBacklog, StatusInProgress, StatusReview, StatusDone}

var statusLabels = map[Status]string{
	StatusBacklog:    "Backlog",
	StatusInProgress: "In Progress",
	StatusReview:     "Review",
	StatusDone:       "Done",
	StatusArchived:   "Archived",
}

func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// ParseStatus is case-insensitive.
func ParseStatus(v string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(v)))
	return s, s.Valid()
}

type Priority string

const (
	PriorityP0 Priority = "p0"
	PriorityP1 Priority = "p1"
	PriorityP2 Priority = "p2"
	PriorityP3 Priority = "p3"
)

var AllPriorities = []Priority{PriorityP0, PriorityP1, PriorityP2, PriorityP3}

var priorityLabels = map[Priority]string{
	PriorityP0: "P0 Critical",
	PriorityP1: "P1 High",
	PriorityP2: "P2 Medium",
	PriorityP3: "P3 Low",
}

func (p Priority) Label() string {
	if l, ok := priorityLabels[p]; ok {
		return l
	}
	return string(p)
}

func (p Priority) Valid() bool {
	_, ok := priorityLabels[p]
	return ok
}

// Weight is the sort weight of a priority; lower is more urgent.
// Unknown priorities sort after p3.
func (p Priority) Weight() int {
	for i, q := range AllPriorities {
		if q == p {
			return i
		}
	}
	return len(AllPriorities)
}

func ParsePriority(v string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(v)))
	return p, p.Valid()
}

// Task is a unit of work backed by one record in a project directory.
// Start and End are calendar dates at UTC midnight; a zero End means
// the task has no end date.
type Task struct {
	ID          string
	Title       string
	Description string
	Status      Status
	Priority    Priority
	Start       time.Time
	End         time.Time
	Tags        []string
	Order       int
	Created     time.Time
	Updated     time.Time
}

func (t Task) HasEnd() bool { return !t.End.IsZero() }

// HasTag reports whether tag is one of the task's tags.
func (t Task) HasTag(tag string) bool {
	for _, x := range t.Tags {
		if x == tag {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with t.
func (t Task) Clone() Task {
	if t.Tags != nil {
		t.Tags = append([]string(nil), t.Tags...)
	}
	return t
}

// IsOverdue reports whether the task ended strictly before today and is
// still open. Done and archived tasks are never overdue.
func (t Task) IsOverdue(today time.Time) bool {
	if !t.HasEnd() {
		return false
	}
	if t.Status == StatusDone || t.Status == StatusArchived {
		return false
	}
	return t.End.Before(Day(today))
}

// Project is a named collection of tasks backed by one directory.
// TaskCount is derived from the directory listing and not authoritative.
type Project struct {
	Name      string
	Path      string
	TaskCount int
}

// Zoom is a Gantt zoom level.
type Zoom string

const (
	ZoomWeek    Zoom = "week"
	ZoomMonth   Zoom = "month"
	ZoomQuarter Zoom = "quarter"
)

var AllZooms = []Zoom{ZoomWeek, ZoomMonth, ZoomQuarter}

func ParseZoom(v string) (Zoom, bool) {
	z := Zoom(strings.ToLower(strings.TrimSpace(v)))
	switch z {
	case ZoomWeek, ZoomMonth, ZoomQuarter:
		return z, true
	}
	return z, false
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp, whose date part is kept.
func ParseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if d, err := time.Parse(DateLayout, v); err == nil {
		return d, nil
	}
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, err
	}
	return Day(ts), nil
}

// FormatDate renders a date in DateLayout; the zero time renders as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
