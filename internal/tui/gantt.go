package tui

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/planr/internal/gantt"
	"github.com/sadopc/planr/internal/task"
)

const ganttLabelWidth = 24

// Terminal cells per grid unit. Quarter units are twice as wide already.
var cellsPerUnit = map[task.Zoom]int{
	task.ZoomWeek:    6,
	task.ZoomMonth:   7,
	task.ZoomQuarter: 5,
}

type cellKind int

const (
	cellEmpty cellKind = iota
	cellGrid
	cellBar
	cellToday
)

// ganttModel renders the chart layout as text, one row per bar.
type ganttModel struct {
	ws     *workspace
	width  int
	height int

	chart    gantt.Chart
	cursor   int
	offset   int
	scroll   int
	anchored bool
}

func newGanttModel(ws *workspace) ganttModel {
	return ganttModel{ws: ws}
}

func (g *ganttModel) setSize(w, h int) {
	g.width = w
	g.height = h
}

func (g *ganttModel) refresh() {
	g.chart = gantt.Build(g.ws.visible(), g.ws.zoom, float64(g.ws.gantt.UnitWidth), g.ws.gantt.PaddingDays)
	g.cursor = cursorIn(g.cursor, len(g.chart.Bars))
	if !g.anchored {
		g.anchored = true
		g.scroll = max(0, g.col(g.chart.X(g.ws.now()))-g.viewWidth()/3)
	}
	g.clampScroll()
}

// scale converts chart pixels to terminal cells.
func (g ganttModel) scale() float64 {
	return float64(cellsPerUnit[g.chart.Zoom]) / float64(g.ws.gantt.UnitWidth)
}

func (g ganttModel) col(px float64) int {
	return int(math.Round(px * g.scale()))
}

func (g ganttModel) viewWidth() int {
	return max(10, g.width-ganttLabelWidth-8)
}

func (g ganttModel) rows() int {
	return max(1, g.height-8)
}

func (g *ganttModel) clampScroll() {
	limit := max(0, g.col(g.chart.Width)-g.viewWidth())
	g.scroll = max(0, min(g.scroll, limit))
	rows := g.rows()
	if g.cursor < g.offset {
		g.offset = g.cursor
	}
	if g.cursor >= g.offset+rows {
		g.offset = g.cursor - rows + 1
	}
}

func (g ganttModel) update(msg tea.Msg) (ganttModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tasksChangedMsg:
		g.refresh()
		return g, nil
	case projectOpenedMsg:
		g.anchored = false
		g.refresh()
		return g, nil
	case tea.KeyMsg:
		step := cellsPerUnit[g.chart.Zoom]
		switch {
		case key.Matches(msg, keys.Left):
			g.scroll -= step
		case key.Matches(msg, keys.Right):
			g.scroll += step
		case key.Matches(msg, keys.Up):
			if g.cursor > 0 {
				g.cursor--
			}
		case key.Matches(msg, keys.Down):
			if g.cursor < len(g.chart.Bars)-1 {
				g.cursor++
			}
		case key.Matches(msg, keys.Zoom):
			i := slices.Index(task.AllZooms, g.ws.zoom)
			g.ws.setZoom(task.AllZooms[(i+1)%len(task.AllZooms)])
			g.anchored = false
			g.refresh()
			return g, emit(statusMsg{text: "Zoom: " + string(g.ws.zoom)})
		case key.Matches(msg, keys.New):
			return g, emit(openTaskFormMsg{})
		case key.Matches(msg, keys.Edit):
			if len(g.chart.Bars) > 0 {
				t := g.chart.Bars[g.cursor].Task
				return g, emit(openTaskFormMsg{task: &t})
			}
		}
		g.clampScroll()
	}
	return g, nil
}

func (g ganttModel) view() string {
	w := g.width - 4
	if !g.ws.hasProject() {
		return panelStyle.Width(w).Render(mutedStyle.Render("No project open. Press 4 to pick one."))
	}

	c := g.chart
	title := titleStyle.Render("Gantt") + "  " + mutedStyle.Render(fmt.Sprintf("zoom: %s  %s → %s",
		c.Zoom, task.FormatDate(c.Min), task.FormatDate(c.Max)))
	lines := []string{title, "", strings.Repeat(" ", ganttLabelWidth+2) + g.renderScale()}

	if len(c.Bars) == 0 {
		lines = append(lines, "", mutedStyle.Render("No tasks to chart."))
		return panelStyle.Width(w).Render(strings.Join(lines, "\n"))
	}

	end := min(len(c.Bars), g.offset+g.rows())
	for i := g.offset; i < end; i++ {
		bar := c.Bars[i]
		cursor := "  "
		style := normalItemStyle
		if i == g.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		lines = append(lines, cursor+style.Render(pad(bar.Task.Title, ganttLabelWidth))+g.renderBar(bar))
	}
	lines = append(lines, "", mutedStyle.Render("  ←/→: scroll  z: zoom  enter: edit"))
	return panelStyle.Width(w).Render(strings.Join(lines, "\n"))
}

// renderScale draws the unit labels visible in the current window.
func (g ganttModel) renderScale() string {
	var sb strings.Builder
	for _, u := range g.chart.Units {
		n := g.col(u.Width)
		sb.WriteString(pad(u.Label, n))
	}
	line := []rune(sb.String())
	from := min(g.scroll, len(line))
	to := min(from+g.viewWidth(), len(line))
	return mutedStyle.Render(string(line[from:to]))
}

func (g ganttModel) renderBar(bar gantt.Bar) string {
	vw := g.viewWidth()
	cells := make([]cellKind, vw)

	x := 0.0
	for _, u := range g.chart.Units {
		if c := g.col(x) - g.scroll; c >= 0 && c < vw {
			cells[c] = cellGrid
		}
		x += u.Width
	}
	if c := g.col(g.chart.X(g.ws.now())) - g.scroll; c >= 0 && c < vw {
		cells[c] = cellToday
	}
	from := g.col(bar.X) - g.scroll
	to := g.col(bar.X+bar.Width) - g.scroll
	if to <= from {
		to = from + 1
	}
	for c := max(0, from); c < min(vw, to); c++ {
		cells[c] = cellBar
	}

	barStyle := statusStyle(bar.Task.Status)
	if bar.Task.IsOverdue(g.ws.now()) {
		barStyle = overdueStyle
	}
	var sb strings.Builder
	for i := 0; i < len(cells); {
		j := i
		for j < len(cells) && cells[j] == cells[i] {
			j++
		}
		n := j - i
		switch cells[i] {
		case cellGrid:
			sb.WriteString(gridStyle.Render(strings.Repeat("┊", n)))
		case cellToday:
			sb.WriteString(todayStyle.Render(strings.Repeat("│", n)))
		case cellBar:
			sb.WriteString(barStyle.Render(strings.Repeat("█", n)))
		default:
			sb.WriteString(strings.Repeat(" ", n))
		}
		i = j
	}
	return sb.String()
}
