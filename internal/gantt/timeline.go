package gantt

import (
	"time"

	"github.com/sadopc/planr/internal/task"
)

const (
	DefaultUnitWidth   = 40.0
	DefaultPaddingDays = 7
)

// TimeUnit is one grid column covering the half-open range [Start, End).
type TimeUnit struct {
	Label string
	Start time.Time
	End   time.Time
	Width float64
}

// CalculateDateRange returns the earliest and latest of the given dates,
// each widened by paddingDays. Zero dates are ignored. With no dates at
// all the range is centred on now.
func CalculateDateRange(starts, ends []time.Time, paddingDays int) (min, max time.Time) {
	return dateRange(time.Now(), starts, ends, paddingDays)
}

func dateRange(now time.Time, starts, ends []time.Time, paddingDays int) (min, max time.Time) {
	found := false
	for _, set := range [][]time.Time{starts, ends} {
		for _, d := range set {
			if d.IsZero() {
				continue
			}
			if !found {
				min, max, found = d, d, true
				continue
			}
			if d.Before(min) {
				min = d
			}
			if d.After(max) {
				max = d
			}
		}
	}
	if !found {
		min, max = now, now
	}
	pad := time.Duration(paddingDays) * 24 * time.Hour
	return min.Add(-pad), max.Add(pad)
}

// GenerateTimeUnits splits [min, max] into contiguous calendar buckets:
// days for week zoom, Monday-aligned weeks for month zoom and calendar
// months for quarter zoom. Buckets start at UTC midnight; the first one
// contains min and the last one contains max.
func GenerateTimeUnits(min, max time.Time, zoom task.Zoom, unitWidth float64) []TimeUnit {
	if unitWidth <= 0 {
		unitWidth = DefaultUnitWidth
	}
	cur := task.Day(min.UTC())
	var (
		next  func(time.Time) time.Time
		label func(time.Time) string
		width = unitWidth
	)
	switch zoom {
	case task.ZoomMonth:
		cur = cur.AddDate(0, 0, -((int(cur.Weekday()) + 6) % 7))
		next = func(t time.Time) time.Time { return t.AddDate(0, 0, 7) }
		label = dayLabel
	case task.ZoomQuarter:
		cur = time.Date(cur.Year(), cur.Month(), 1, 0, 0, 0, 0, time.UTC)
		next = func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }
		label = monthLabel
		width = 2 * unitWidth
	default:
		next = func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }
		label = dayLabel
	}

	var units []TimeUnit
	for !cur.After(max) {
		end := next(cur)
		units = append(units, TimeUnit{Label: label(cur), Start: cur, End: end, Width: width})
		cur = end
	}
	return units
}

// TimelineWidth is the total pixel width of units.
func TimelineWidth(units []TimeUnit) float64 {
	var w float64
	for _, u := range units {
		w += u.Width
	}
	return w
}

// DateToPixel maps date linearly onto [0, totalWidth] where min is 0 and
// min+total is totalWidth.
func DateToPixel(date, min time.Time, total time.Duration, totalWidth float64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(date.Sub(min)) / float64(total) * totalWidth
}

func dayLabel(t time.Time) string   { return t.Format("Jan 2") }
func monthLabel(t time.Time) string { return t.Format("Jan 2006") }
