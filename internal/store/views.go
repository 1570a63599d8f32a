package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sadopc/planr/internal/filter"
)

// SaveView stores the filter state for a registered project.
func (s *Store) SaveView(project string, state filter.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode view: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.Exec(
		`INSERT INTO views (project, state, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(project) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		project, string(data), now,
	)
	if err != nil {
		return fmt.Errorf("save view %q: %w", project, err)
	}
	return nil
}

// LoadView returns the saved view of a project. ok is false when none was
// saved.
func (s *Store) LoadView(project string) (v View, ok bool, err error) {
	var data, updatedAt string
	err = s.db.QueryRow(`SELECT state, updated_at FROM views WHERE project = ?`, project).Scan(&data, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return View{}, false, nil
	}
	if err != nil {
		return View{}, false, fmt.Errorf("load view %q: %w", project, err)
	}
	v.Project = project
	if err := json.Unmarshal([]byte(data), &v.State); err != nil {
		return View{}, false, fmt.Errorf("decode view %q: %w", project, err)
	}
	v.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return v, true, nil
}
