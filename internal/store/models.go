package store

import (
	"time"

	"github.com/sadopc/planr/internal/filter"
)

// Project is a registry row for one project directory.
type Project struct {
	Name       string
	Path       string
	TaskCount  int
	LastOpened *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Setting struct {
	Key   string
	Value string
}

// View is the filter state last used for a project.
type View struct {
	Project   string
	State     filter.State
	UpdatedAt time.Time
}
