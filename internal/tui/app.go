package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/sadopc/planr/internal/task"
)

// App is the root Bubble Tea model.
type App struct {
	ws     *workspace
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	backlog  backlogModel
	board    boardModel
	gantt    ganttModel
	projects projectsModel

	// Task and filter forms, shared by every view.
	formKind formKind
	form     *huh.Form
	fields   taskFields
	filters  filterFields
	editing  task.Task

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(opts Options) App {
	h := help.New()
	h.ShowAll = false

	ws := newWorkspace(opts)
	return App{
		ws:         ws,
		activeView: viewBacklog,
		backlog:    newBacklogModel(ws),
		board:      newBoardModel(ws),
		gantt:      newGanttModel(ws),
		projects:   newProjectsModel(ws),
		fields:     newTaskFields(),
		filters:    newFilterFields(),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.ws.waitForChange(),
		a.ws.openActive(),
		a.projects.refresh(),
	)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.backlog.setSize(a.width, contentHeight)
		a.board.setSize(a.width, contentHeight)
		a.gantt.setSize(a.width, contentHeight)
		a.projects.setSize(a.width, contentHeight)
		a.refreshViews()
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}
		// A form or text input captures every key.
		if a.form != nil {
			return a.updateForm(msg)
		}
		if a.isCapturing() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			if a.ws.hasProject() {
				a.exportPicking = true
				a.exportCursor = 0
			}
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchTo(viewBacklog)
		case key.Matches(msg, keys.Tab2):
			return a.switchTo(viewBoard)
		case key.Matches(msg, keys.Tab3):
			return a.switchTo(viewGantt)
		case key.Matches(msg, keys.Tab4):
			return a.switchTo(viewProjects)
		case key.Matches(msg, keys.Tab):
			return a.switchTo((a.activeView + 1) % viewState(len(viewNames)))
		}

	case tasksChangedMsg:
		a.refreshViews()
		return a, a.ws.waitForChange()

	case projectOpenedMsg:
		a.ws.useProject(msg.project)
		a.gantt.anchored = false
		a.backlog.cursor = 0
		a.refreshViews()
		a.setStatus(fmt.Sprintf("Opened %s (%d tasks)", msg.project.Name, len(a.ws.tasks.Tasks())), false)
		if len(msg.errs) > 0 {
			for _, err := range msg.errs {
				a.ws.log.Warn("record skipped", zap.Error(err))
			}
			a.setStatus(fmt.Sprintf("Opened %s: %d record problems, see log", msg.project.Name, len(msg.errs)), true)
		}
		if a.activeView == viewProjects {
			a.activeView = viewBacklog
		}
		return a, a.projects.refresh()

	case projectsDataMsg:
		a.projects.projects = msg.projects
		a.projects.cursor = cursorIn(a.projects.cursor, len(msg.projects))
		return a, nil

	case noProjectMsg:
		a.activeView = viewProjects
		a.setStatus("Pick or create a project", false)
		return a, nil

	case openTaskFormMsg:
		return a.openTaskForm(msg.task)

	case openFilterFormMsg:
		a.formKind = formFilter
		a.form = a.filters.form(a.ws.engine.State(), a.ws.tasks.AllTags())
		return a, a.form.Init()

	case statusMsg:
		a.setStatus(msg.text, msg.isError)
		return a, nil

	case exportDoneMsg:
		a.setStatus("Exported to "+msg.path, false)
		a.exportPicking = false
		return a, nil
	}

	if a.form != nil {
		return a.updateForm(msg)
	}
	return a.updateActiveView(msg)
}

func (a *App) setStatus(text string, isError bool) {
	a.status = text
	a.statusErr = isError
}

func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	if v == viewProjects {
		return a, a.projects.refresh()
	}
	a.refreshViews()
	return a, nil
}

// refreshViews re-reads the store through the current filter.
func (a *App) refreshViews() {
	a.backlog.refresh()
	a.board.refresh()
	a.gantt.refresh()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewBacklog:
		a.backlog, cmd = a.backlog.update(msg)
		if _, ok := msg.(tea.KeyMsg); ok {
			a.board.refresh()
			a.gantt.refresh()
		}
	case viewBoard:
		a.board, cmd = a.board.update(msg)
	case viewGantt:
		a.gantt, cmd = a.gantt.update(msg)
	case viewProjects:
		a.projects, cmd = a.projects.update(msg)
	}
	return a, cmd
}

func (a App) isCapturing() bool {
	switch a.activeView {
	case viewBacklog:
		return a.backlog.capturing()
	case viewProjects:
		return a.projects.formActive
	}
	return false
}

func (a App) openTaskForm(t *task.Task) (tea.Model, tea.Cmd) {
	if !a.ws.hasProject() {
		a.setStatus("Open a project first", true)
		return a, nil
	}
	if t == nil {
		a.formKind = formNewTask
		a.fields.reset(task.Task{
			Status:   task.StatusBacklog,
			Priority: task.PriorityP3,
			Start:    task.Day(a.ws.now()),
		})
		a.form = a.fields.form(false, "")
	} else {
		a.formKind = formEditTask
		a.editing = *t
		a.fields.reset(*t)
		a.form = a.fields.form(true, t.Status)
	}
	return a, a.form.Init()
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd, state := runForm(a.form, msg)
	a.form = form

	switch state {
	case huh.StateAborted:
		a.form = nil
		a.formKind = formNone
		return a, nil
	case huh.StateCompleted:
		kind := a.formKind
		a.form = nil
		a.formKind = formNone
		return a.submit(kind)
	}
	return a, cmd
}

func (a App) submit(kind formKind) (tea.Model, tea.Cmd) {
	ws := a.ws
	switch kind {
	case formNewTask:
		in := a.fields.input()
		return a, func() tea.Msg {
			t, err := ws.tasks.Create(in)
			if err != nil {
				return statusMsg{text: err.Error(), isError: true}
			}
			return statusMsg{text: "Created " + t.ID}
		}
	case formEditTask:
		id, p := a.editing.ID, a.fields.patch()
		return a, func() tea.Msg {
			t, err := ws.tasks.Update(id, p)
			if err != nil {
				return statusMsg{text: err.Error(), isError: true}
			}
			return statusMsg{text: "Saved " + t.ID}
		}
	case formFilter:
		ws.engine.Set(a.filters.options()...)
		a.refreshViews()
	}
	return a, nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewBacklog:
		content = a.backlog.view()
	case viewBoard:
		content = a.board.view()
	case viewGantt:
		content = a.gantt.view()
	case viewProjects:
		content = a.projects.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(1, a.height-headerHeight-footerHeight)

	switch {
	case a.exportPicking:
		content = a.renderExportPicker()
	case a.form != nil:
		content = a.renderForm()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("planr")
	if a.ws.hasProject() {
		title += mutedStyle.Render(" · " + a.ws.project.Name)
	}
	gap := max(1, a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	overdue := ""
	if a.ws.hasProject() {
		if n := len(a.ws.tasks.Overdue(a.ws.now())); n > 0 {
			overdue = warningStyle.Render(fmt.Sprintf(" ! %d overdue", n))
		}
	}

	left := footerStyle.Render(helpView)
	right := overdue + status

	gap := max(1, a.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderForm() string {
	title := "New Task"
	switch a.formKind {
	case formEditTask:
		title = "Edit " + a.editing.ID
	case formFilter:
		title = "Filter"
	}
	content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", a.form.View())
	return activePanelStyle.Width(a.width - 4).Render(content)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.ws.export(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}
