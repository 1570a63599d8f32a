package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/planr/internal/filter"
	"github.com/sadopc/planr/internal/task"
)

// backlogModel is the sortable, filterable task list.
type backlogModel struct {
	ws     *workspace
	width  int
	height int

	tasks  []task.Task
	total  int
	cursor int
	offset int

	search    textinput.Model
	searching bool

	confirmDelete bool
}

func newBacklogModel(ws *workspace) backlogModel {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "title or description"
	ti.CharLimit = 120
	return backlogModel{ws: ws, search: ti}
}

func (b *backlogModel) setSize(w, h int) {
	b.width = w
	b.height = h
	b.search.Width = max(10, w-10)
}

func (b *backlogModel) refresh() {
	all := b.ws.tasks.Tasks()
	b.total = len(all)
	b.tasks = b.ws.engine.FilterAndSort(all)
	b.cursor = cursorIn(b.cursor, len(b.tasks))
	b.scroll()
}

func (b *backlogModel) rows() int {
	return max(1, b.height-9)
}

func (b *backlogModel) scroll() {
	rows := b.rows()
	if b.cursor < b.offset {
		b.offset = b.cursor
	}
	if b.cursor >= b.offset+rows {
		b.offset = b.cursor - rows + 1
	}
	b.offset = max(0, min(b.offset, len(b.tasks)-rows))
}

func (b backlogModel) selected() (task.Task, bool) {
	if len(b.tasks) == 0 {
		return task.Task{}, false
	}
	return b.tasks[b.cursor], true
}

// capturing reports whether keys go to the search box or a confirmation.
func (b backlogModel) capturing() bool {
	return b.searching || b.confirmDelete
}

func (b backlogModel) update(msg tea.Msg) (backlogModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tasksChangedMsg, projectOpenedMsg:
		b.refresh()
		return b, nil
	case tea.KeyMsg:
		if b.searching {
			return b.updateSearch(msg)
		}
		if b.confirmDelete {
			b.confirmDelete = false
			if t, ok := b.selected(); ok && msg.String() == "y" {
				id := t.ID
				return b, b.ws.mutate("Deleted "+id, func() error { return b.ws.tasks.Delete(id) })
			}
			return b, nil
		}
		return b.updateList(msg)
	}
	return b, nil
}

func (b backlogModel) updateList(msg tea.KeyMsg) (backlogModel, tea.Cmd) {
	t, ok := b.selected()
	switch {
	case key.Matches(msg, keys.Up):
		if b.cursor > 0 {
			b.cursor--
		}
	case key.Matches(msg, keys.Down):
		if b.cursor < len(b.tasks)-1 {
			b.cursor++
		}
	case key.Matches(msg, keys.New):
		return b, emit(openTaskFormMsg{})
	case key.Matches(msg, keys.Edit):
		if ok {
			return b, emit(openTaskFormMsg{task: &t})
		}
	case key.Matches(msg, keys.Advance):
		if ok {
			return b, b.ws.mutate("Advanced "+t.ID, func() error {
				_, err := b.ws.tasks.Advance(t.ID)
				return err
			})
		}
	case key.Matches(msg, keys.Archive):
		if ok {
			return b, b.ws.mutate("Archived "+t.ID, func() error {
				_, err := b.ws.tasks.Archive(t.ID)
				return err
			})
		}
	case key.Matches(msg, keys.Delete):
		b.confirmDelete = ok
	case key.Matches(msg, keys.MoveUp):
		return b.move(-1)
	case key.Matches(msg, keys.MoveDown):
		return b.move(1)
	case key.Matches(msg, keys.Search):
		b.searching = true
		b.search.SetValue(b.ws.engine.State().Query)
		b.search.CursorEnd()
		return b, b.search.Focus()
	case key.Matches(msg, keys.Filter):
		return b, emit(openFilterFormMsg{})
	case key.Matches(msg, keys.Sort):
		b.ws.engine.SetSort(nextSortColumn(b.ws.engine.State().SortColumn), filter.Asc)
		b.refresh()
	case key.Matches(msg, keys.Reverse):
		b.ws.engine.ToggleSort(b.ws.engine.State().SortColumn)
		b.refresh()
	case key.Matches(msg, keys.Reset):
		b.ws.engine.Reset()
		b.refresh()
	}
	b.scroll()
	return b, nil
}

func (b backlogModel) updateSearch(msg tea.KeyMsg) (backlogModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		b.searching = false
		b.search.Blur()
		return b, nil
	case "esc":
		b.searching = false
		b.search.Blur()
		b.search.SetValue("")
		b.ws.engine.SetQuery("")
		b.refresh()
		return b, nil
	}
	var cmd tea.Cmd
	b.search, cmd = b.search.Update(msg)
	if b.search.Value() != b.ws.engine.State().Query {
		b.ws.engine.SetQuery(b.search.Value())
		b.refresh()
	}
	return b, cmd
}

// move swaps the manual order of the selected task with its neighbour in
// the visible list and keeps the cursor on it.
func (b backlogModel) move(delta int) (backlogModel, tea.Cmd) {
	j := b.cursor + delta
	if len(b.tasks) == 0 || j < 0 || j >= len(b.tasks) {
		return b, nil
	}
	a, c := b.tasks[b.cursor], b.tasks[j]
	ao, co := a.Order, c.Order
	if ao == co {
		co += delta
	}
	b.cursor = j
	return b, b.ws.mutate("Moved "+a.ID, func() error {
		if _, err := b.ws.tasks.Reorder(a.ID, co); err != nil {
			return err
		}
		_, err := b.ws.tasks.Reorder(c.ID, ao)
		return err
	})
}

func nextSortColumn(c filter.SortColumn) filter.SortColumn {
	i := slices.Index(filter.SortColumns, c)
	return filter.SortColumns[(i+1)%len(filter.SortColumns)]
}

func (b backlogModel) view() string {
	w := b.width - 4
	if !b.ws.hasProject() {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Backlog"),
			"",
			mutedStyle.Render("No project open. Press 4 to pick one."),
		))
	}

	st := b.ws.engine.State()
	title := titleStyle.Render(fmt.Sprintf("%s  %d/%d", b.ws.project.Name, len(b.tasks), b.total))
	rows := []string{title, b.renderViewLine(st)}

	switch {
	case b.searching:
		rows = append(rows, b.search.View())
	case b.confirmDelete:
		t, _ := b.selected()
		rows = append(rows, errorStyle.Render(fmt.Sprintf("Delete %q? y/n", t.Title)))
	default:
		rows = append(rows, "")
	}

	if len(b.tasks) == 0 {
		msg := "No tasks yet. Press n to create one."
		if st.Active() {
			msg = "No tasks match. Press r to reset the view."
		}
		rows = append(rows, mutedStyle.Render(msg))
		return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
	}

	titleW := max(12, w-64)
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %s %-12s %-4s %-10s %-10s %s",
		pad("Title", titleW), "Status", "Pri", "Start", "End", "Tags")))

	today := b.ws.now()
	end := min(len(b.tasks), b.offset+b.rows())
	for i := b.offset; i < end; i++ {
		t := b.tasks[i]
		cursor := "  "
		style := normalItemStyle
		if i == b.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		endCol := pad(dateOrDash(t.End), 10)
		if t.IsOverdue(today) {
			endCol = overdueStyle.Render(endCol)
		}
		rows = append(rows, cursor+style.Render(pad(t.Title, titleW))+" "+
			statusStyle(t.Status).Render(pad(t.Status.Label(), 12))+" "+
			priorityStyle(t.Priority).Render(pad(string(t.Priority), 4))+" "+
			pad(dateOrDash(t.Start), 10)+" "+endCol+" "+
			mutedStyle.Render(truncate(strings.Join(t.Tags, ","), 16)))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (b backlogModel) renderViewLine(st filter.State) string {
	arrow := "↑"
	if st.SortDir == filter.Desc {
		arrow = "↓"
	}
	parts := []string{"sort: " + string(st.SortColumn) + " " + arrow}
	if len(st.Statuses) > 0 {
		parts = append(parts, "status: "+joinAny(st.Statuses))
	}
	if len(st.Priorities) > 0 {
		parts = append(parts, "priority: "+joinAny(st.Priorities))
	}
	if len(st.Tags) > 0 {
		parts = append(parts, "tags: "+strings.Join(st.Tags, ","))
	}
	if st.Query != "" {
		parts = append(parts, fmt.Sprintf("search: %q", st.Query))
	}
	if st.Active() {
		return highlightStyle.Render(strings.Join(parts, "  "))
	}
	return mutedStyle.Render(strings.Join(parts, "  "))
}

func joinAny[T ~string](vs []T) string {
	ss := make([]string, len(vs))
	for i, v := range vs {
		ss[i] = string(v)
	}
	return strings.Join(ss, ",")
}
