package record

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sadopc/planr/internal/task"
)

// fromFrontmatter validates decoded frontmatter and builds a task with
// defaults applied. Invalid status and priority values fall back to
// backlog and p3 and are reported as defaulted errors; any other error
// means the record must not be loaded.
func fromFrontmatter(data map[string]any, filename string, now time.Time) (task.Task, []*task.ValidationError) {
	var errs []*task.ValidationError
	t := task.Task{
		Status:   task.StatusBacklog,
		Priority: task.PriorityP3,
		Tags:     []string{},
	}

	t.Title, _ = data["title"].(string)
	t.Title = strings.TrimSpace(t.Title)

	if v, ok := data["status"]; ok && v != nil {
		raw := fmt.Sprint(v)
		if s, valid := task.ParseStatus(raw); valid {
			t.Status = s
		} else {
			errs = append(errs, &task.ValidationError{Record: filename, Field: "status", Value: raw, Defaulted: true,
				Message: fmt.Sprintf("invalid status %q, defaulting to %s", raw, task.StatusBacklog)})
		}
	}

	if v, ok := data["priority"]; ok && v != nil {
		raw := fmt.Sprint(v)
		if p, valid := task.ParsePriority(raw); valid {
			t.Priority = p
		} else {
			errs = append(errs, &task.ValidationError{Record: filename, Field: "priority", Value: raw, Defaulted: true,
				Message: fmt.Sprintf("invalid priority %q, defaulting to %s", raw, task.PriorityP3)})
		}
	}

	start, startErr := dateField(data, "start", filename)
	if startErr != nil {
		errs = append(errs, startErr)
	}
	end, endErr := dateField(data, "end", filename)
	if endErr != nil {
		errs = append(errs, endErr)
	}
	t.Start, t.End = start, end

	if list, ok := data["tags"].([]any); ok {
		for _, v := range list {
			t.Tags = append(t.Tags, fmt.Sprint(v))
		}
	}

	switch v := data["order"].(type) {
	case int:
		t.Order = v
	case float64:
		t.Order = int(math.Round(v))
	}

	t.Created = timestampField(data, "created", now)
	t.Updated = timestampField(data, "updated", now)

	for _, e := range task.Validate(t, filename) {
		if e.Field == "start" && startErr != nil {
			continue
		}
		errs = append(errs, e)
	}
	return t, errs
}

func dateField(data map[string]any, key, filename string) (time.Time, *task.ValidationError) {
	switch v := data[key].(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return task.Day(v), nil
	case string:
		if strings.TrimSpace(v) == "" {
			return time.Time{}, nil
		}
		d, err := task.ParseDate(v)
		if err != nil {
			return time.Time{}, &task.ValidationError{Record: filename, Field: key, Value: v,
				Message: fmt.Sprintf("%s date %q is not YYYY-MM-DD", key, v)}
		}
		return d, nil
	default:
		raw := fmt.Sprint(v)
		return time.Time{}, &task.ValidationError{Record: filename, Field: key, Value: raw,
			Message: fmt.Sprintf("%s date %q is not YYYY-MM-DD", key, raw)}
	}
}

func timestampField(data map[string]any, key string, fallback time.Time) time.Time {
	switch v := data[key].(type) {
	case time.Time:
		return v.UTC()
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return ts.UTC()
		}
		if d, err := time.Parse(task.DateLayout, v); err == nil {
			return d
		}
	}
	return fallback
}
