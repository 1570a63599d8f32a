package taskstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/planr/internal/filter"
	"github.com/sadopc/planr/internal/record"
	"github.com/sadopc/planr/internal/task"
)

var (
	clock   = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	day0    = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	errDisk = errors.New("disk failure")
)

// memRecords is an in-memory record layer with failure injection.
type memRecords struct {
	files     map[string]task.Task
	readErrs  []error
	writeErr  map[string]error
	deleteErr map[string]error
	writes    int
	deletes   []string
}

func newMemRecords(tasks ...task.Task) *memRecords {
	m := &memRecords{
		files:     map[string]task.Task{},
		writeErr:  map[string]error{},
		deleteErr: map[string]error{},
	}
	for _, t := range tasks {
		m.files[t.ID] = t
	}
	return m
}

func (m *memRecords) Read(dir string) ([]task.Task, []error) {
	var out []task.Task
	for _, t := range m.files {
		out = append(out, t)
	}
	return out, m.readErrs
}

func (m *memRecords) Write(t task.Task, dir string) (string, error) {
	if err := m.writeErr[t.ID]; err != nil {
		return "", err
	}
	m.writes++
	m.files[t.ID] = t.Clone()
	return filepath.Join(dir, t.ID+".md"), nil
}

func (m *memRecords) Delete(id, dir string) error {
	if err := m.deleteErr[id]; err != nil {
		return err
	}
	if _, ok := m.files[id]; !ok {
		return os.ErrNotExist
	}
	delete(m.files, id)
	m.deletes = append(m.deletes, id)
	return nil
}

func (m *memRecords) GenerateID(title, dir string) (string, error) {
	base := record.Slug(title)
	if base == "" {
		base = "untitled"
	}
	id := base
	for n := 2; ; n++ {
		if _, ok := m.files[id]; !ok {
			return id, nil
		}
		id = fmt.Sprintf("%s-%d", base, n)
	}
}

func (m *memRecords) Slug(title string) string { return record.Slug(title) }

func newTestStore(t *testing.T, tasks ...task.Task) (*Store, *memRecords) {
	t.Helper()
	recs := newMemRecords(tasks...)
	s := New(recs, WithClock(func() time.Time { return clock }))
	if errs := s.Load("/proj"); len(errs) != 0 {
		t.Fatalf("load: %v", errs)
	}
	return s, recs
}

func seeded(id, title string, st task.Status, order int) task.Task {
	return task.Task{
		ID:       id,
		Title:    title,
		Status:   st,
		Priority: task.PriorityP2,
		Start:    day0,
		Tags:     []string{},
		Order:    order,
		Created:  day0.Add(time.Duration(order) * time.Hour),
		Updated:  day0,
	}
}

func ptr[T any](v T) *T { return &v }

// ============================================================
// Load
// ============================================================

func TestLoadPartialFailure(t *testing.T) {
	recs := newMemRecords(seeded("a", "A", task.StatusDone, 0))
	recs.readErrs = []error{&task.ValidationError{Record: "bad.md", Message: "title is required"}}
	s := New(recs)

	errs := s.Load("/proj")
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	if len(s.Tasks()) != 1 || s.Dir() != "/proj" {
		t.Fatalf("tasks=%d dir=%q", len(s.Tasks()), s.Dir())
	}
}

func TestLoadFromRecordFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("wip.md", "---\ntitle: Wip\nstatus: wip\nstart: 2024-01-01\n---\n")
	write("ok.md", "---\ntitle: Ok\nstatus: done\nstart: 2024-01-01\n---\n")

	s := New(record.Files{})
	errs := s.Load(dir)
	if len(errs) != 1 {
		t.Fatalf("expected one defaulting error, got %v", errs)
	}
	var ve *task.ValidationError
	if !errors.As(errs[0], &ve) || !ve.Defaulted || ve.Value != "wip" {
		t.Fatalf("unexpected error %v", errs[0])
	}
	wip, err := s.Task("wip")
	if err != nil || wip.Status != task.StatusBacklog {
		t.Fatalf("wip = %+v, %v", wip, err)
	}
	if len(s.Tasks()) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(s.Tasks()))
	}
}

func TestLoadReplacesCollection(t *testing.T) {
	s, recs := newTestStore(t, seeded("a", "A", task.StatusBacklog, 0))
	delete(recs.files, "a")
	recs.files["b"] = seeded("b", "B", task.StatusBacklog, 0)
	s.Load("/other")
	if _, err := s.Task("a"); err == nil {
		t.Fatal("old task should be gone after reload")
	}
	if _, err := s.Task("b"); err != nil {
		t.Fatal(err)
	}
}

// ============================================================
// Create
// ============================================================

func TestCreateDefaults(t *testing.T) {
	s, recs := newTestStore(t, seeded("a", "A", task.StatusBacklog, 0))
	got, err := s.Create(Input{Title: "  New Thing ", Start: day0.Add(5 * time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "new-thing" || got.Title != "New Thing" {
		t.Fatalf("id/title: %q %q", got.ID, got.Title)
	}
	if got.Status != task.StatusBacklog || got.Priority != task.PriorityP3 {
		t.Fatalf("defaults: %s %s", got.Status, got.Priority)
	}
	if got.Order != 1 {
		t.Fatalf("order should be collection length, got %d", got.Order)
	}
	if !got.Created.Equal(clock) || !got.Updated.Equal(clock) {
		t.Fatalf("timestamps: %v %v", got.Created, got.Updated)
	}
	if !got.Start.Equal(day0) {
		t.Fatalf("start should be truncated to a date: %v", got.Start)
	}
	if _, ok := recs.files["new-thing"]; !ok {
		t.Fatal("record not written")
	}
}

func TestCreateCollisionSuffix(t *testing.T) {
	s, _ := newTestStore(t, seeded("fix-bug", "Fix bug", task.StatusBacklog, 0))
	got, err := s.Create(Input{Title: "Fix bug", Start: day0})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "fix-bug-2" {
		t.Fatalf("id = %q", got.ID)
	}
}

func TestCreateWriteFailureLeavesCollection(t *testing.T) {
	s, recs := newTestStore(t)
	recs.writeErr["doomed"] = errDisk

	_, err := s.Create(Input{Title: "Doomed", Start: day0})
	var pe *task.PersistenceError
	if !errors.As(err, &pe) || !errors.Is(err, errDisk) {
		t.Fatalf("expected PersistenceError wrapping disk failure, got %v", err)
	}
	if len(s.Tasks()) != 0 {
		t.Fatal("failed create must not commit")
	}
}

func TestCreateValidation(t *testing.T) {
	s, recs := newTestStore(t)
	tests := []struct {
		name  string
		in    Input
		field string
	}{
		{"empty title", Input{Title: "  ", Start: day0}, "title"},
		{"no start", Input{Title: "x"}, "start"},
		{"inverted", Input{Title: "x", Start: day0, End: day0.AddDate(0, 0, -1)}, "end"},
		{"bad status", Input{Title: "x", Start: day0, Status: "wip"}, "status"},
		{"bad priority", Input{Title: "x", Start: day0, Priority: "p9"}, "priority"},
	}
	for _, tt := range tests {
		_, err := s.Create(tt.in)
		var ve *task.ValidationError
		if !errors.As(err, &ve) || ve.Field != tt.field {
			t.Errorf("%s: expected %s validation error, got %v", tt.name, tt.field, err)
		}
	}
	if recs.writes != 0 {
		t.Fatalf("invalid input reached the writer %d times", recs.writes)
	}
}

func TestCreateWithoutProject(t *testing.T) {
	s := New(newMemRecords())
	if _, err := s.Create(Input{Title: "x", Start: day0}); !errors.Is(err, ErrNoProject) {
		t.Fatalf("expected ErrNoProject, got %v", err)
	}
}

// ============================================================
// Update
// ============================================================

func TestUpdateRejectsInvalidTransition(t *testing.T) {
	s, recs := newTestStore(t, seeded("a", "A", task.StatusBacklog, 0))
	before, _ := s.Task("a")

	_, err := s.Update("a", Patch{Status: ptr(task.StatusDone), Title: ptr("Renamed")})
	var te *task.TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if te.From != task.StatusBacklog || te.To != task.StatusDone {
		t.Fatalf("from/to: %s %s", te.From, te.To)
	}
	if len(te.Allowed) != 2 || te.Allowed[0] != task.StatusInProgress || te.Allowed[1] != task.StatusArchived {
		t.Fatalf("allowed = %v", te.Allowed)
	}

	after, _ := s.Task("a")
	if after.Status != before.Status || after.Title != before.Title || !after.Updated.Equal(before.Updated) {
		t.Fatalf("task changed after rejected update: %+v", after)
	}
	if recs.writes != 0 {
		t.Fatal("rejected update reached the writer")
	}
}

func TestUpdateFields(t *testing.T) {
	s, recs := newTestStore(t, seeded("a", "A", task.StatusBacklog, 0))
	end := day0.AddDate(0, 0, 3)
	got, err := s.Update("a", Patch{
		Status:      ptr(task.StatusInProgress),
		Priority:    ptr(task.PriorityP0),
		Description: ptr("details"),
		End:         &end,
		Tags:        ptr([]string{"x", "y"}),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "a" || got.Status != task.StatusInProgress || got.Priority != task.PriorityP0 ||
		got.Description != "details" || !got.End.Equal(end) || len(got.Tags) != 2 {
		t.Fatalf("unexpected task %+v", got)
	}
	if !got.Updated.Equal(clock) || !got.Created.Equal(day0) {
		t.Fatalf("timestamps: created %v updated %v", got.Created, got.Updated)
	}
	if recs.files["a"].Description != "details" {
		t.Fatal("update not persisted")
	}

	got, err = s.Update("a", Patch{End: &time.Time{}})
	if err != nil || got.HasEnd() {
		t.Fatalf("clearing end failed: %+v %v", got, err)
	}
}

func TestUpdateSameStatusIsNoTransition(t *testing.T) {
	s, _ := newTestStore(t, seeded("a", "A", task.StatusDone, 0))
	if _, err := s.Update("a", Patch{Status: ptr(task.StatusDone)}); err != nil {
		t.Fatalf("identity status change should pass: %v", err)
	}
}

func TestUpdateValidation(t *testing.T) {
	s, _ := newTestStore(t, seeded("a", "A", task.StatusBacklog, 0))
	before := day0.AddDate(0, 0, -2)
	_, err := s.Update("a", Patch{End: &before})
	var ve *task.ValidationError
	if !errors.As(err, &ve) || ve.Field != "end" {
		t.Fatalf("expected end validation error, got %v", err)
	}
	if got, _ := s.Task("a"); got.HasEnd() {
		t.Fatal("invalid update committed")
	}
}

func TestUpdateNotFound(t *testing.T) {
	s, _ := newTestStore(t)
	var nf *task.NotFoundError
	if _, err := s.Update("ghost", Patch{}); !errors.As(err, &nf) || nf.ID != "ghost" {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestUpdateWriteFailure(t *testing.T) {
	s, recs := newTestStore(t, seeded("a", "A", task.StatusBacklog, 0))
	recs.writeErr["a"] = errDisk
	_, err := s.Update("a", Patch{Description: ptr("changed")})
	var pe *task.PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if got, _ := s.Task("a"); got.Description != "" {
		t.Fatal("failed write must not commit")
	}
}

// ============================================================
// Rename
// ============================================================

func TestRenameMovesRecord(t *testing.T) {
	s, recs := newTestStore(t, seeded("old-title", "Old title", task.StatusBacklog, 0))
	got, err := s.Update("old-title", Patch{Title: ptr("New title")})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "new-title" {
		t.Fatalf("id = %q", got.ID)
	}
	if _, err := s.Task("old-title"); err == nil {
		t.Fatal("old id still present")
	}
	if _, ok := recs.files["old-title"]; ok {
		t.Fatal("old record not deleted")
	}
	if recs.files["new-title"].Title != "New title" {
		t.Fatal("new record not written")
	}
	if !got.Created.Equal(day0) {
		t.Fatal("created must survive a rename")
	}
}

func TestRenameSameSlugKeepsID(t *testing.T) {
	s, recs := newTestStore(t, seeded("fix-bug", "Fix bug", task.StatusBacklog, 0))
	got, err := s.Update("fix-bug", Patch{Title: ptr("Fix  BUG!")})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "fix-bug" || len(recs.deletes) != 0 {
		t.Fatalf("expected edit in place, got id %q deletes %v", got.ID, recs.deletes)
	}
}

func TestRenameDeleteFailureRollsBack(t *testing.T) {
	s, recs := newTestStore(t, seeded("old", "Old", task.StatusBacklog, 0))
	recs.deleteErr["old"] = errDisk

	_, err := s.Update("old", Patch{Title: ptr("Brand new")})
	var pe *task.PersistenceError
	if !errors.As(err, &pe) || pe.Op != "rename" {
		t.Fatalf("expected rename PersistenceError, got %v", err)
	}
	if _, err := s.Task("old"); err != nil {
		t.Fatal("task must stay reachable under its old id")
	}
	if _, ok := recs.files["old"]; !ok {
		t.Fatal("old record must still exist")
	}
	if _, ok := recs.files["brand-new"]; ok {
		t.Fatal("new record should have been rolled back")
	}
}

func TestRenameWriteFailure(t *testing.T) {
	s, recs := newTestStore(t, seeded("old", "Old", task.StatusBacklog, 0))
	recs.writeErr["brand-new"] = errDisk
	if _, err := s.Update("old", Patch{Title: ptr("Brand new")}); err == nil {
		t.Fatal("expected error")
	}
	if got, _ := s.Task("old"); got.Title != "Old" {
		t.Fatal("task changed after failed rename")
	}
	if len(recs.deletes) != 0 {
		t.Fatal("old record deleted despite failed write")
	}
}

// ============================================================
// Delete, reorder, workflow
// ============================================================

func TestDelete(t *testing.T) {
	s, recs := newTestStore(t, seeded("a", "A", task.StatusBacklog, 0), seeded("b", "B", task.StatusBacklog, 1))
	if err := s.Delete("a"); err != nil {
		t.Fatal(err)
	}
	if len(s.Tasks()) != 1 || len(recs.files) != 1 {
		t.Fatal("delete did not remove both record and task")
	}
	var nf *task.NotFoundError
	if err := s.Delete("a"); !errors.As(err, &nf) {
		t.Fatalf("second delete should be NotFound, got %v", err)
	}
}

func TestDeleteFailureKeepsTask(t *testing.T) {
	s, recs := newTestStore(t, seeded("a", "A", task.StatusBacklog, 0))
	recs.deleteErr["a"] = errDisk
	var pe *task.PersistenceError
	if err := s.Delete("a"); !errors.As(err, &pe) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if _, err := s.Task("a"); err != nil {
		t.Fatal("task removed despite failed delete")
	}
}

func TestReorderThenSortByOrder(t *testing.T) {
	s, _ := newTestStore(t,
		seeded("t0", "T0", task.StatusBacklog, 0),
		seeded("t1", "T1", task.StatusBacklog, 1),
		seeded("t2", "T2", task.StatusBacklog, 2),
	)
	if _, err := s.Reorder("t2", -1); err != nil {
		t.Fatal(err)
	}
	sorted := filter.ApplySort(filter.DefaultState(), s.Tasks())
	if sorted[0].ID != "t2" {
		t.Fatalf("expected t2 first, got %s", sorted[0].ID)
	}
}

func TestAdvanceAndArchive(t *testing.T) {
	s, _ := newTestStore(t, seeded("a", "A", task.StatusBacklog, 0))
	want := []task.Status{task.StatusInProgress, task.StatusReview, task.StatusDone}
	for _, w := range want {
		got, err := s.Advance("a")
		if err != nil || got.Status != w {
			t.Fatalf("advance: %s, %v; want %s", got.Status, err, w)
		}
	}
	var te *task.TransitionError
	if _, err := s.Advance("a"); !errors.As(err, &te) {
		t.Fatalf("advance past done should fail, got %v", err)
	}
	if got, err := s.Archive("a"); err != nil || got.Status != task.StatusArchived {
		t.Fatalf("archive: %+v %v", got, err)
	}
}

// ============================================================
// Derived reads and observers
// ============================================================

func TestAllTagsAndOverdue(t *testing.T) {
	a := seeded("a", "A", task.StatusInProgress, 0)
	a.Tags = []string{"ops", "bug"}
	a.End = day0.AddDate(0, 0, 2)
	b := seeded("b", "B", task.StatusDone, 1)
	b.Tags = []string{"bug"}
	b.End = day0.AddDate(0, 0, 1)
	s, _ := newTestStore(t, a, b)

	if got := strings.Join(s.AllTags(), ","); got != "bug,ops" {
		t.Fatalf("tags = %q", got)
	}
	over := s.Overdue(day0.AddDate(0, 0, 10))
	if len(over) != 1 || over[0].ID != "a" {
		t.Fatalf("overdue = %+v", over)
	}
	if len(s.Overdue(day0.AddDate(0, 0, 2))) != 0 {
		t.Fatal("a task ending today is not overdue")
	}
}

func TestObserversReceiveCommittedSnapshot(t *testing.T) {
	s, recs := newTestStore(t)
	var calls []int
	unsub := s.Subscribe(func(tasks []task.Task) {
		calls = append(calls, len(tasks))
		if len(tasks) > 0 {
			tasks[0].Title = "mutated by observer"
		}
	})

	created, err := s.Create(Input{Title: "One", Start: day0})
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Task(created.ID); got.Title != "One" {
		t.Fatal("observer mutation leaked into the store")
	}
	recs.writeErr["two"] = errDisk
	s.Create(Input{Title: "Two", Start: day0})
	s.Delete(created.ID)
	unsub()
	s.Create(Input{Title: "Three", Start: day0})

	if fmt.Sprint(calls) != "[1 0]" {
		t.Fatalf("calls = %v", calls)
	}
}

func TestObserverMayReadStore(t *testing.T) {
	s, _ := newTestStore(t)
	var seen int
	s.Subscribe(func([]task.Task) { seen = len(s.Tasks()) })
	s.Create(Input{Title: "x", Start: day0})
	if seen != 1 {
		t.Fatalf("observer saw %d tasks", seen)
	}
}

func TestTasksReturnsCopy(t *testing.T) {
	a := seeded("a", "A", task.StatusBacklog, 0)
	a.Tags = []string{"x"}
	s, _ := newTestStore(t, a)
	got := s.Tasks()
	got[0].Tags[0] = "changed"
	if tk, _ := s.Task("a"); tk.Tags[0] != "x" {
		t.Fatal("Tasks leaked internal state")
	}
}
