package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/planr/internal/task"
)

// boardModel is the kanban board: one column per workflow status.
type boardModel struct {
	ws     *workspace
	width  int
	height int

	columns [][]task.Task
	col     int
	rows    []int

	chart barchart.Model
}

func newBoardModel(ws *workspace) boardModel {
	return boardModel{
		ws:      ws,
		columns: make([][]task.Task, len(task.KanbanStatuses)),
		rows:    make([]int, len(task.KanbanStatuses)),
		chart:   barchart.New(40, 8),
	}
}

func (b *boardModel) setSize(w, h int) {
	b.width = w
	b.height = h
	b.buildChart()
}

// refresh groups the visible tasks by status. Archived tasks are not shown.
func (b *boardModel) refresh() {
	for i := range b.columns {
		b.columns[i] = nil
	}
	for _, t := range b.ws.visible() {
		for i, s := range task.KanbanStatuses {
			if t.Status == s {
				b.columns[i] = append(b.columns[i], t)
			}
		}
	}
	for i := range b.rows {
		b.rows[i] = cursorIn(b.rows[i], len(b.columns[i]))
	}
	b.buildChart()
}

func (b boardModel) selected() (task.Task, bool) {
	c := b.columns[b.col]
	if len(c) == 0 {
		return task.Task{}, false
	}
	return c[b.rows[b.col]], true
}

func (b boardModel) update(msg tea.Msg) (boardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tasksChangedMsg, projectOpenedMsg:
		b.refresh()
		return b, nil
	case tea.KeyMsg:
		t, ok := b.selected()
		switch {
		case key.Matches(msg, keys.Left):
			if b.col > 0 {
				b.col--
			}
		case key.Matches(msg, keys.Right):
			if b.col < len(b.columns)-1 {
				b.col++
			}
		case key.Matches(msg, keys.Up):
			if b.rows[b.col] > 0 {
				b.rows[b.col]--
			}
		case key.Matches(msg, keys.Down):
			if b.rows[b.col] < len(b.columns[b.col])-1 {
				b.rows[b.col]++
			}
		case key.Matches(msg, keys.New):
			return b, emit(openTaskFormMsg{})
		case key.Matches(msg, keys.Edit):
			if ok {
				return b, emit(openTaskFormMsg{task: &t})
			}
		case key.Matches(msg, keys.Advance):
			if ok {
				if b.col < len(b.columns)-1 {
					b.col++
				}
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
		}
	}
	return b, nil
}

func (b *boardModel) buildChart() {
	chartWidth := max(20, b.width-8)
	b.chart = barchart.New(chartWidth, 8)

	var bars []barchart.BarData
	for i, s := range task.KanbanStatuses {
		bars = append(bars, barchart.BarData{
			Label: s.Label(),
			Values: []barchart.BarValue{{
				Name:  s.Label(),
				Value: float64(len(b.columns[i])),
				Style: statusStyle(s),
			}},
		})
	}
	b.chart.PushAll(bars)
	b.chart.Draw()
}

func (b boardModel) view() string {
	if !b.ws.hasProject() {
		return panelStyle.Width(b.width - 4).Render(mutedStyle.Render("No project open. Press 4 to pick one."))
	}

	n := len(task.KanbanStatuses)
	colW := max(16, (b.width-2)/n-2)
	chartH := lipgloss.Height(b.chart.View()) + 1
	maxRows := max(1, (b.height-chartH-5)/2)

	var cols []string
	for i, s := range task.KanbanStatuses {
		style := columnStyle
		if i == b.col {
			style = activeColumnStyle
		}
		header := statusStyle(s).Bold(true).Render(fmt.Sprintf("%s (%d)", s.Label(), len(b.columns[i])))
		lines := []string{header, ""}

		tasks := b.columns[i]
		start := 0
		if r := b.rows[i]; r >= maxRows {
			start = r - maxRows + 1
		}
		for j := start; j < len(tasks) && j < start+maxRows; j++ {
			lines = append(lines, b.renderCard(tasks[j], colW-2, i == b.col && j == b.rows[i])...)
		}
		if len(tasks) == 0 {
			lines = append(lines, mutedStyle.Render("empty"))
		}
		cols = append(cols, style.Width(colW).Render(strings.Join(lines, "\n")))
	}

	board := lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	return lipgloss.JoinVertical(lipgloss.Left, board, b.chart.View())
}

func (b boardModel) renderCard(t task.Task, w int, selected bool) []string {
	cursor := "  "
	style := normalItemStyle
	if selected {
		cursor = "> "
		style = selectedItemStyle
	}
	meta := priorityStyle(t.Priority).Render(string(t.Priority))
	if t.HasEnd() {
		due := " " + task.FormatDate(t.End)
		if t.IsOverdue(b.ws.now()) {
			meta += overdueStyle.Render(due)
		} else {
			meta += mutedStyle.Render(due)
		}
	}
	return []string{cursor + style.Render(truncate(t.Title, w-2)), "  " + meta}
}
