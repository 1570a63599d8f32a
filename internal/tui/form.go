package tui

import (
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/sadopc/planr/internal/filter"
	"github.com/sadopc/planr/internal/task"
	"github.com/sadopc/planr/internal/taskstore"
)

type formKind int

const (
	formNone formKind = iota
	formNewTask
	formEditTask
	formFilter
)

// taskFields backs the task form. Pointers survive model value copies.
type taskFields struct {
	title       *string
	description *string
	status      *task.Status
	priority    *task.Priority
	start       *string
	end         *string
	tags        *string
}

func newTaskFields() taskFields {
	var (
		title, description, start, end, tags string
		st                                   = task.StatusBacklog
		pr                                   = task.PriorityP3
	)
	return taskFields{&title, &description, &st, &pr, &start, &end, &tags}
}

func (f taskFields) reset(t task.Task) {
	*f.title = t.Title
	*f.description = t.Description
	*f.status = t.Status
	*f.priority = t.Priority
	*f.start = task.FormatDate(t.Start)
	*f.end = task.FormatDate(t.End)
	*f.tags = strings.Join(t.Tags, ", ")
}

func (f taskFields) input() taskstore.Input {
	start, _ := task.ParseDate(*f.start)
	end, _ := optionalDate(*f.end)
	return taskstore.Input{
		Title:       *f.title,
		Description: *f.description,
		Status:      *f.status,
		Priority:    *f.priority,
		Start:       start,
		End:         end,
		Tags:        splitTags(*f.tags),
	}
}

// patch describes every form field; the store skips a rename when the
// title is unchanged.
func (f taskFields) patch() taskstore.Patch {
	in := f.input()
	return taskstore.Patch{
		Title:       &in.Title,
		Description: &in.Description,
		Status:      &in.Status,
		Priority:    &in.Priority,
		Start:       &in.Start,
		End:         &in.End,
		Tags:        &in.Tags,
	}
}

func (f taskFields) form(editing bool, from task.Status) *huh.Form {
	statuses := task.AllStatuses
	if editing {
		statuses = append([]task.Status{from}, task.AllowedTransitions(from)...)
	}
	statusOpts := make([]huh.Option[task.Status], len(statuses))
	for i, s := range statuses {
		statusOpts[i] = huh.NewOption(s.Label(), s)
	}
	prioOpts := make([]huh.Option[task.Priority], len(task.AllPriorities))
	for i, p := range task.AllPriorities {
		prioOpts[i] = huh.NewOption(p.Label(), p)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(f.title).Validate(requireTitle),
			huh.NewText().Title("Description").Value(f.description).Lines(3),
			huh.NewSelect[task.Status]().Title("Status").Options(statusOpts...).Value(f.status),
			huh.NewSelect[task.Priority]().Title("Priority").Options(prioOpts...).Value(f.priority),
		),
		huh.NewGroup(
			huh.NewInput().Title("Start (YYYY-MM-DD)").Value(f.start).Validate(requireDate),
			huh.NewInput().Title("End (optional)").Value(f.end).Validate(func(s string) error {
				end, err := optionalDate(s)
				if err != nil || end.IsZero() {
					return err
				}
				if start, err := task.ParseDate(*f.start); err == nil && start.After(end) {
					return errors.New("end must not be before start")
				}
				return nil
			}),
			huh.NewInput().Title("Tags (comma-separated)").Value(f.tags),
		),
	).WithShowHelp(true).WithShowErrors(true)
}

func requireTitle(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("title is required")
	}
	if len([]rune(s)) > task.MaxTitleLength {
		return errors.New("title is too long")
	}
	return nil
}

func requireDate(s string) error {
	if _, err := task.ParseDate(s); err != nil {
		return errors.New("use YYYY-MM-DD")
	}
	return nil
}

func optionalDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	d, err := task.ParseDate(s)
	if err != nil {
		return time.Time{}, errors.New("use YYYY-MM-DD or leave empty")
	}
	return d, nil
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// filterFields backs the filter form.
type filterFields struct {
	statuses   *[]task.Status
	priorities *[]task.Priority
	tags       *[]string
}

func newFilterFields() filterFields {
	var (
		st []task.Status
		pr []task.Priority
		tg []string
	)
	return filterFields{&st, &pr, &tg}
}

func (f filterFields) form(s filter.State, allTags []string) *huh.Form {
	*f.statuses = append([]task.Status(nil), s.Statuses...)
	*f.priorities = append([]task.Priority(nil), s.Priorities...)
	*f.tags = append([]string(nil), s.Tags...)

	statusOpts := make([]huh.Option[task.Status], len(task.AllStatuses))
	for i, st := range task.AllStatuses {
		statusOpts[i] = huh.NewOption(st.Label(), st)
	}
	prioOpts := make([]huh.Option[task.Priority], len(task.AllPriorities))
	for i, p := range task.AllPriorities {
		prioOpts[i] = huh.NewOption(p.Label(), p)
	}
	fields := []huh.Field{
		huh.NewMultiSelect[task.Status]().Title("Status").Options(statusOpts...).Value(f.statuses),
		huh.NewMultiSelect[task.Priority]().Title("Priority").Options(prioOpts...).Value(f.priorities),
	}
	if len(allTags) > 0 {
		fields = append(fields, huh.NewMultiSelect[string]().Title("Tags").
			Options(huh.NewOptions(allTags...)...).Value(f.tags))
	}
	return huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(true)
}

func (f filterFields) options() []filter.Option {
	return []filter.Option{
		filter.WithStatuses(*f.statuses...),
		filter.WithPriorities(*f.priorities...),
		filter.WithTags(*f.tags...),
	}
}

// runForm steps form with msg and reports whether it finished or was
// aborted.
func runForm(form *huh.Form, msg tea.Msg) (*huh.Form, tea.Cmd, huh.FormState) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		return form, nil, huh.StateAborted
	}
	m, cmd := form.Update(msg)
	if f, ok := m.(*huh.Form); ok {
		form = f
	}
	return form, cmd, form.State
}
