package gantt

import (
	"cmp"
	"slices"
	"time"

	"github.com/sadopc/planr/internal/task"
)

const (
	BarHeight        = 28.0
	BarGap           = 6.0
	RowHeight        = BarHeight + BarGap
	LabelColumnWidth = 200.0
	MinBarWidth      = 20.0
)

// Bar is the geometry of one task on the chart. Y is the top of the row.
type Bar struct {
	TaskID string
	X      float64
	Y      float64
	Width  float64
	Height float64
	Task   task.Task
}

// CalculateBars lays out one bar per task. Rows are ordered by start date
// then order, independent of any view sort. A task without an end date
// is drawn one day long.
func CalculateBars(tasks []task.Task, minDate time.Time, total time.Duration, totalWidth float64) []Bar {
	sorted := slices.Clone(tasks)
	slices.SortStableFunc(sorted, func(a, b task.Task) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.Order, b.Order)
	})

	bars := make([]Bar, 0, len(sorted))
	for i, t := range sorted {
		end := t.End
		if !t.HasEnd() {
			end = t.Start.AddDate(0, 0, 1)
		}
		x := DateToPixel(t.Start, minDate, total, totalWidth)
		width := DateToPixel(end, minDate, total, totalWidth) - x
		if width < MinBarWidth {
			width = MinBarWidth
		}
		bars = append(bars, Bar{
			TaskID: t.ID,
			X:      x,
			Y:      float64(i) * RowHeight,
			Width:  width,
			Height: BarHeight,
			Task:   t,
		})
	}
	return bars
}

// TotalHeight is the chart height needed for barCount rows.
func TotalHeight(barCount int) float64 {
	return float64(barCount)*RowHeight + BarGap
}

// Chart is a complete Gantt layout for a task set.
type Chart struct {
	Zoom   task.Zoom
	Min    time.Time
	Max    time.Time
	Units  []TimeUnit
	Width  float64
	Height float64
	Total  time.Duration
	Bars   []Bar
}

// Origin is the date at pixel 0.
func (c Chart) Origin() time.Time {
	if len(c.Units) == 0 {
		return c.Min
	}
	return c.Units[0].Start
}

// X places an arbitrary date on the chart's pixel axis.
func (c Chart) X(d time.Time) float64 {
	return DateToPixel(d, c.Origin(), c.Total, c.Width)
}

// Build frames tasks, generates the grid for zoom and lays out the bars.
func Build(tasks []task.Task, zoom task.Zoom, unitWidth float64, paddingDays int) Chart {
	starts := make([]time.Time, 0, len(tasks))
	ends := make([]time.Time, 0, len(tasks))
	for _, t := range tasks {
		starts = append(starts, t.Start)
		ends = append(ends, t.End)
	}
	min, max := CalculateDateRange(starts, ends, paddingDays)
	units := GenerateTimeUnits(min, max, zoom, unitWidth)

	c := Chart{
		Zoom:   zoom,
		Min:    min,
		Max:    max,
		Units:  units,
		Width:  TimelineWidth(units),
		Height: TotalHeight(len(tasks)),
	}
	if len(units) > 0 {
		c.Total = units[len(units)-1].End.Sub(units[0].Start)
	}
	c.Bars = CalculateBars(tasks, c.Origin(), c.Total, c.Width)
	return c
}
