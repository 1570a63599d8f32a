package store

import (
	"database/sql"
	"fmt"
	"time"
)

const projectColumns = `name, path, task_count, last_opened, created_at, updated_at`

// UpsertProject records a project directory, refreshing its path and
// task count when it is already known.
func (s *Store) UpsertProject(name, path string, taskCount int) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO projects (name, path, task_count, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET path = excluded.path, task_count = excluded.task_count, updated_at = excluded.updated_at`,
		name, path, taskCount, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert project %q: %w", name, err)
	}
	return nil
}

func (s *Store) GetProject(name string) (*Project, error) {
	row := s.db.QueryRow(`SELECT `+projectColumns+` FROM projects WHERE name = ?`, name)
	p, err := scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("get project %q: %w", name, err)
	}
	return p, nil
}

// ListProjects returns the registry sorted by name.
func (s *Store) ListProjects() ([]Project, error) {
	rows, err := s.db.Query(`SELECT ` + projectColumns + ` FROM projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// RecentProjects returns opened projects, most recent first.
func (s *Store) RecentProjects(limit int) ([]Project, error) {
	rows, err := s.db.Query(
		`SELECT `+projectColumns+` FROM projects WHERE last_opened IS NOT NULL ORDER BY last_opened DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// TouchProject marks a project as opened at the given time.
func (s *Store) TouchProject(name string, at time.Time) error {
	res, err := s.db.Exec(
		`UPDATE projects SET last_opened = ? WHERE name = ?`, at.UTC().Format(time.RFC3339Nano), name,
	)
	if err != nil {
		return fmt.Errorf("touch project %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("touch project %q: %w", name, sql.ErrNoRows)
	}
	return nil
}

// DeleteProject forgets a project and its saved view. The directory is
// left alone.
func (s *Store) DeleteProject(name string) error {
	_, err := s.db.Exec(`DELETE FROM projects WHERE name = ?`, name)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(sc scanner) (*Project, error) {
	p := &Project{}
	var lastOpened sql.NullString
	var createdAt, updatedAt string
	if err := sc.Scan(&p.Name, &p.Path, &p.TaskCount, &lastOpened, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if lastOpened.Valid {
		if t, err := time.Parse(time.RFC3339Nano, lastOpened.String); err == nil {
			p.LastOpened = &t
		}
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return p, nil
}
