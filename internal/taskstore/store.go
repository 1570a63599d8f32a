// Package taskstore holds the in-memory task collection of the active
// project and keeps it in step with the record files on disk.
package taskstore

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sadopc/planr/internal/task"
)

// ErrNoProject is returned by mutations before any directory was loaded.
var ErrNoProject = errors.New("no project loaded")

// Records is the persistence layer the store delegates to.
type Records interface {
	Read(dir string) ([]task.Task, []error)
	Write(t task.Task, dir string) (string, error)
	Delete(id, dir string) error
	GenerateID(title, dir string) (string, error)
	Slug(title string) string
}

// Input describes a task to create. Zero Status and Priority select
// backlog and p3.
type Input struct {
	Title       string
	Description string
	Status      task.Status
	Priority    task.Priority
	Start       time.Time
	End         time.Time
	Tags        []string
}

// Patch lists the fields an update changes; nil fields are left alone.
// A non-nil End pointing at the zero time clears the end date.
type Patch struct {
	Title       *string
	Description *string
	Status      *task.Status
	Priority    *task.Priority
	Start       *time.Time
	End         *time.Time
	Tags        *[]string
	Order       *int
}

// Store owns the task collection of one project directory. Every public
// method is atomic with respect to the others; observers run after the
// change is committed, outside the lock.
type Store struct {
	mu        sync.Mutex
	records   Records
	log       *zap.Logger
	now       func() time.Time
	dir       string
	tasks     []task.Task
	observers []observer
	nextID    int
}

type observer struct {
	id int
	fn func([]task.Task)
}

type Option func(*Store)

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(records Records, opts ...Option) *Store {
	s := &Store{
		records: records,
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the collection with the records in dir. Records that
// could not be read are reported in the returned errors; everything else
// is loaded.
func (s *Store) Load(dir string) []error {
	tasks, errs := s.records.Read(dir)

	s.mu.Lock()
	s.dir = dir
	s.tasks = cloneAll(tasks)
	snap, observers := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Info("loaded project",
		zap.String("dir", dir),
		zap.Int("tasks", len(tasks)),
		zap.Int("errors", len(errs)),
	)
	for _, err := range errs {
		s.log.Warn("record skipped or defaulted", zap.Error(err))
	}
	notify(observers, snap)
	return errs
}

// Dir is the directory of the loaded project, or "" before Load.
func (s *Store) Dir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir
}

// Tasks returns a snapshot of the collection in load order.
func (s *Store) Tasks() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.tasks)
}

// Task returns the task with the given id.
func (s *Store) Task(id string) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return task.Task{}, &task.NotFoundError{ID: id}
	}
	return s.tasks[i].Clone(), nil
}

// AllTags returns the distinct tags across the collection, sorted.
func (s *Store) AllTags() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return task.AllTags(s.tasks)
}

// Overdue returns the open tasks whose end date is before today.
func (s *Store) Overdue(today time.Time) []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []task.Task
	for _, t := range s.tasks {
		if t.IsOverdue(today) {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Subscribe registers fn to receive the full collection after every
// committed change and returns a function that removes it.
func (s *Store) Subscribe(fn func([]task.Task)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.observers = append(s.observers, observer{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, o := range s.observers {
			if o.id == id {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// Create validates in, assigns a fresh id and writes the record before
// adding the task to the collection.
func (s *Store) Create(in Input) (task.Task, error) {
	s.mu.Lock()
	if s.dir == "" {
		s.mu.Unlock()
		return task.Task{}, ErrNoProject
	}

	now := s.now().UTC()
	t := task.Task{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		Start:       dayOrZero(in.Start),
		End:         dayOrZero(in.End),
		Tags:        cloneTags(in.Tags),
		Order:       len(s.tasks),
		Created:     now,
		Updated:     now,
	}
	if t.Status == "" {
		t.Status = task.StatusBacklog
	}
	if t.Priority == "" {
		t.Priority = task.PriorityP3
	}
	if err := checkTask(t); err != nil {
		s.mu.Unlock()
		return task.Task{}, err
	}

	id, err := s.records.GenerateID(t.Title, s.dir)
	if err != nil {
		s.mu.Unlock()
		return task.Task{}, &task.PersistenceError{Op: "generate id", ID: t.Title, Err: err}
	}
	t.ID = id
	if _, err := s.records.Write(t, s.dir); err != nil {
		s.mu.Unlock()
		s.log.Warn("create failed", zap.String("id", id), zap.Error(err))
		return task.Task{}, &task.PersistenceError{Op: "write", ID: id, Err: err}
	}

	s.tasks = append(s.tasks, t)
	snap, observers := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Debug("task created", zap.String("id", id))
	notify(observers, snap)
	return t.Clone(), nil
}

// Update applies p to the task with the given id. Status changes must be
// valid transitions. A title change whose slug differs from the current
// id moves the task to a new id: the new record is written first and the
// old one deleted, and if the delete fails the new record is removed
// again so the task stays reachable under its old id.
func (s *Store) Update(id string, p Patch) (task.Task, error) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return task.Task{}, &task.NotFoundError{ID: id}
	}
	cur := s.tasks[i]
	next, err := applyPatch(cur, p)
	if err != nil {
		s.mu.Unlock()
		return task.Task{}, err
	}
	next.Updated = s.now().UTC()

	if s.needsRename(cur, next) {
		err = s.renameLocked(cur, &next)
	} else if _, werr := s.records.Write(next, s.dir); werr != nil {
		err = &task.PersistenceError{Op: "write", ID: id, Err: werr}
	}
	if err != nil {
		s.mu.Unlock()
		s.log.Warn("update failed", zap.String("id", id), zap.Error(err))
		return task.Task{}, err
	}

	s.tasks[i] = next
	snap, observers := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Debug("task updated", zap.String("id", id), zap.String("new_id", next.ID))
	notify(observers, snap)
	return next.Clone(), nil
}

// Reorder sets the manual order of a task.
func (s *Store) Reorder(id string, order int) (task.Task, error) {
	return s.Update(id, Patch{Order: &order})
}

// Advance moves a task one step along the workflow, skipping archive.
func (s *Store) Advance(id string) (task.Task, error) {
	cur, err := s.Task(id)
	if err != nil {
		return task.Task{}, err
	}
	next, ok := task.Advance(cur.Status)
	if !ok {
		return task.Task{}, task.CheckTransition(cur.Status, task.StatusBacklog)
	}
	return s.Update(id, Patch{Status: &next})
}

// Archive moves a task to archived.
func (s *Store) Archive(id string) (task.Task, error) {
	st := task.StatusArchived
	return s.Update(id, Patch{Status: &st})
}

// Delete removes the record and the in-memory task together.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return &task.NotFoundError{ID: id}
	}
	if err := s.records.Delete(id, s.dir); err != nil {
		s.mu.Unlock()
		s.log.Warn("delete failed", zap.String("id", id), zap.Error(err))
		return &task.PersistenceError{Op: "delete", ID: id, Err: err}
	}
	s.tasks = slices.Delete(s.tasks, i, i+1)
	snap, observers := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Debug("task deleted", zap.String("id", id))
	notify(observers, snap)
	return nil
}

// needsRename reports whether a title change moves the task to a new id.
// Titles that slug to the current id or to the old title's slug keep it.
func (s *Store) needsRename(cur, next task.Task) bool {
	if next.Title == cur.Title {
		return false
	}
	slug := s.records.Slug(next.Title)
	return slug != cur.ID && slug != s.records.Slug(cur.Title)
}

func (s *Store) renameLocked(cur task.Task, next *task.Task) error {
	newID, err := s.records.GenerateID(next.Title, s.dir)
	if err != nil {
		return &task.PersistenceError{Op: "generate id", ID: cur.ID, Err: err}
	}
	next.ID = newID
	if _, err := s.records.Write(*next, s.dir); err != nil {
		return &task.PersistenceError{Op: "write", ID: newID, Err: err}
	}
	if err := s.records.Delete(cur.ID, s.dir); err != nil {
		if rerr := s.records.Delete(newID, s.dir); rerr != nil {
			s.log.Error("rename rollback failed",
				zap.String("old_id", cur.ID),
				zap.String("new_id", newID),
				zap.Error(rerr),
			)
		}
		return &task.PersistenceError{Op: "rename", ID: cur.ID, Err: err}
	}
	return nil
}

func (s *Store) indexLocked(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() ([]task.Task, []observer) {
	return cloneAll(s.tasks), append([]observer(nil), s.observers...)
}

func notify(observers []observer, snap []task.Task) {
	for _, o := range observers {
		o.fn(cloneAll(snap))
	}
}

func applyPatch(cur task.Task, p Patch) (task.Task, error) {
	next := cur.Clone()
	if p.Title != nil {
		next.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.Status != nil && *p.Status != cur.Status {
		if err := task.CheckTransition(cur.Status, *p.Status); err != nil {
			return task.Task{}, err
		}
		next.Status = *p.Status
	}
	if p.Priority != nil {
		next.Priority = *p.Priority
	}
	if p.Start != nil {
		next.Start = dayOrZero(*p.Start)
	}
	if p.End != nil {
		next.End = dayOrZero(*p.End)
	}
	if p.Tags != nil {
		next.Tags = cloneTags(*p.Tags)
	}
	if p.Order != nil {
		next.Order = *p.Order
	}
	if err := checkTask(next); err != nil {
		return task.Task{}, err
	}
	return next, nil
}

// checkTask returns the first violation of the stored-task invariants.
func checkTask(t task.Task) error {
	if !t.Status.Valid() {
		return &task.ValidationError{Field: "status", Value: string(t.Status),
			Message: "invalid status " + string(t.Status)}
	}
	if !t.Priority.Valid() {
		return &task.ValidationError{Field: "priority", Value: string(t.Priority),
			Message: "invalid priority " + string(t.Priority)}
	}
	if errs := task.Validate(t, ""); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func dayOrZero(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return task.Day(t)
}

func cloneTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return append([]string{}, tags...)
}

func cloneAll(tasks []task.Task) []task.Task {
	out := make([]task.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
