package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/planr/internal/task"
)

var (
	colorPrimary   = lipgloss.Color("#6C63FF")
	colorSecondary = lipgloss.Color("#2EC4B6")
	colorMuted     = lipgloss.Color("#666666")
	colorSuccess   = lipgloss.Color("#2ECC71")
	colorWarning   = lipgloss.Color("#F39C12")
	colorError     = lipgloss.Color("#E74C3C")
	colorFg        = lipgloss.Color("#C0CAF5")
	colorSubtle    = lipgloss.Color("#414868")
	colorHighlight = lipgloss.Color("#7AA2F7")
)

var statusStyles = map[task.Status]lipgloss.Style{
	task.StatusBacklog:    lipgloss.NewStyle().Foreground(colorMuted),
	task.StatusInProgress: lipgloss.NewStyle().Foreground(colorHighlight),
	task.StatusReview:     lipgloss.NewStyle().Foreground(colorWarning),
	task.StatusDone:       lipgloss.NewStyle().Foreground(colorSuccess),
	task.StatusArchived:   lipgloss.NewStyle().Foreground(colorSubtle).Faint(true),
}

var priorityStyles = map[task.Priority]lipgloss.Style{
	task.PriorityP0: lipgloss.NewStyle().Foreground(colorError).Bold(true),
	task.PriorityP1: lipgloss.NewStyle().Foreground(colorWarning),
	task.PriorityP2: lipgloss.NewStyle().Foreground(colorSecondary),
	task.PriorityP3: lipgloss.NewStyle().Foreground(colorMuted),
}

var (
	// Tabs
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 2)

	// Panels
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(1, 2)

	activePanelStyle = panelStyle.
				BorderForeground(colorPrimary)

	// Board columns
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(0, 1)

	activeColumnStyle = columnStyle.
				BorderForeground(colorPrimary)

	// Text
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorFg)
	successStyle   = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle   = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle     = lipgloss.NewStyle().Foreground(colorError)
	overdueStyle   = errorStyle.Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	highlightStyle = lipgloss.NewStyle().Foreground(colorHighlight)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1)

	selectedItemStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	normalItemStyle   = lipgloss.NewStyle().Foreground(colorFg)

	// Gantt cells
	gridStyle  = lipgloss.NewStyle().Foreground(colorSubtle)
	todayStyle = lipgloss.NewStyle().Foreground(colorError).Bold(true)
)

func statusStyle(s task.Status) lipgloss.Style {
	if st, ok := statusStyles[s]; ok {
		return st
	}
	return mutedStyle
}

func priorityStyle(p task.Priority) lipgloss.Style {
	if st, ok := priorityStyles[p]; ok {
		return st
	}
	return mutedStyle
}
