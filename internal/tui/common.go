package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/planr/internal/task"
)

// viewState represents the currently active view.
type viewState int

const (
	viewBacklog viewState = iota
	viewBoard
	viewGantt
	viewProjects
)

var viewNames = []string{"Backlog", "Board", "Gantt", "Projects"}

// --- Messages ---

// tasksChangedMsg is delivered after the task store committed a change.
type tasksChangedMsg struct{}

type projectOpenedMsg struct {
	project task.Project
	errs    []error
}

type projectsDataMsg struct {
	projects []task.Project
}

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

// openTaskFormMsg asks the app for the task form; a nil task means new.
type openTaskFormMsg struct {
	task *task.Task
}

type openFilterFormMsg struct{}

// noProjectMsg reports that no project is active yet.
type noProjectMsg struct{}

// --- Helpers ---

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}

func pad(s string, width int) string {
	s = truncate(s, width)
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func dateOrDash(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return task.FormatDate(t)
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

func cursorIn(cursor, n int) int {
	if n == 0 {
		return 0
	}
	return max(0, min(cursor, n-1))
}
