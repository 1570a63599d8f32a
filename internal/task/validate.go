package task

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Validate checks the invariants every stored task must satisfy: a
// non-empty title of at most MaxTitleLength characters, a start date and
// start ≤ end when an end date is present. record names the source in
// error messages and may be empty.
func Validate(t Task, record string) []*ValidationError {
	var errs []*ValidationError
	title := strings.TrimSpace(t.Title)
	switch {
	case title == "":
		errs = append(errs, &ValidationError{Record: record, Field: "title",
			Message: "title is required and must be non-empty"})
	case utf8.RuneCountInString(title) > MaxTitleLength:
		errs = append(errs, &ValidationError{Record: record, Field: "title",
			Message: fmt.Sprintf("title exceeds %d characters", MaxTitleLength)})
	}
	if t.Start.IsZero() {
		errs = append(errs, &ValidationError{Record: record, Field: "start",
			Message: "start date is required"})
	}
	if !t.Start.IsZero() && t.HasEnd() && t.Start.After(t.End) {
		errs = append(errs, &ValidationError{Record: record, Field: "end",
			Value:   FormatDate(t.End),
			Message: fmt.Sprintf("start date (%s) must be <= end date (%s)", FormatDate(t.Start), FormatDate(t.End))})
	}
	return errs
}

// AllTags returns the distinct tags of tasks in alphabetical order.
func AllTags(tasks []Task) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, t := range tasks {
		for _, tag := range t.Tags {
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	sort.Strings(tags)
	return tags
}
