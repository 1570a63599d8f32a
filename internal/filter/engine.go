package filter

import (
	"sync"

	"github.com/sadopc/planr/internal/task"
)

// Engine owns one live State and notifies observers on every change.
// Observers run synchronously, in registration order, with a snapshot of
// the new state.
type Engine struct {
	mu        sync.Mutex
	state     State
	observers []observer
	nextID    int
}

type observer struct {
	id int
	fn func(State)
}

func NewEngine() *Engine {
	return &Engine{state: DefaultState()}
}

// NewEngineWith starts from a previously saved state.
func NewEngineWith(s State) *Engine {
	if s.SortColumn == "" {
		s.SortColumn = SortOrder
	}
	if s.SortDir == "" {
		s.SortDir = Asc
	}
	return &Engine{state: s.Clone()}
}

// State returns a snapshot of the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Subscribe registers fn and returns a function that removes it.
func (e *Engine) Subscribe(fn func(State)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.observers = append(e.observers, observer{id: id, fn: fn})
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, o := range e.observers {
			if o.id == id {
				e.observers = append(e.observers[:i:i], e.observers[i+1:]...)
				return
			}
		}
	}
}

// Set applies all options to a copy of the current state and commits the
// result in one step.
func (e *Engine) Set(opts ...Option) State {
	return e.mutate(func(s *State) {
		for _, opt := range opts {
			opt(s)
		}
	})
}

// Reset restores the default state.
func (e *Engine) Reset() State {
	return e.mutate(func(s *State) { *s = DefaultState() })
}

func (e *Engine) ToggleStatus(v task.Status) State {
	return e.mutate(func(s *State) { s.Statuses = toggle(s.Statuses, v) })
}

func (e *Engine) TogglePriority(v task.Priority) State {
	return e.mutate(func(s *State) { s.Priorities = toggle(s.Priorities, v) })
}

func (e *Engine) ToggleTag(v string) State {
	return e.mutate(func(s *State) { s.Tags = toggle(s.Tags, v) })
}

func (e *Engine) SetQuery(q string) State {
	return e.mutate(func(s *State) { s.Query = q })
}

func (e *Engine) SetSort(c SortColumn, d SortDirection) State {
	return e.mutate(func(s *State) {
		s.SortColumn = c
		s.SortDir = d
	})
}

// ToggleSort flips the direction when c is already the sort column and
// otherwise switches to c ascending.
func (e *Engine) ToggleSort(c SortColumn) State {
	return e.mutate(func(s *State) {
		if s.SortColumn == c {
			if s.SortDir == Asc {
				s.SortDir = Desc
			} else {
				s.SortDir = Asc
			}
			return
		}
		s.SortColumn = c
		s.SortDir = Asc
	})
}

// Filter applies the current filters to tasks.
func (e *Engine) Filter(tasks []task.Task) []task.Task {
	return ApplyFilters(e.State(), tasks)
}

// Sort orders a copy of tasks by the current sort.
func (e *Engine) Sort(tasks []task.Task) []task.Task {
	return ApplySort(e.State(), tasks)
}

// FilterAndSort filters then sorts tasks with the current state.
func (e *Engine) FilterAndSort(tasks []task.Task) []task.Task {
	s := e.State()
	return ApplySort(s, ApplyFilters(s, tasks))
}

func (e *Engine) mutate(fn func(*State)) State {
	e.mu.Lock()
	next := e.state.Clone()
	fn(&next)
	e.state = next
	observers := append([]observer(nil), e.observers...)
	e.mu.Unlock()

	for _, o := range observers {
		o.fn(next.Clone())
	}
	return next.Clone()
}
