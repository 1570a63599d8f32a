// Package record reads and writes task records: one markdown file per
// task with a YAML frontmatter header, named after the task id.
package record

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sadopc/planr/internal/task"
)

// Files is the file-backed record layer. The zero value is ready to use.
type Files struct {
	// Now stamps records missing created/updated. Defaults to time.Now.
	Now func() time.Time
}

func (f Files) now() time.Time {
	if f.Now != nil {
		return f.Now().UTC()
	}
	return time.Now().UTC()
}

// Read parses every record in dir. Unparsable records contribute to errs
// and are left out of tasks; records with defaulted fields are kept.
func (f Files) Read(dir string) (tasks []task.Task, errs []error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, []error{&task.PersistenceError{Op: "read directory", ID: dir, Err: err}}
	}
	now := f.now()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			errs = append(errs, &task.PersistenceError{Op: "read", ID: e.Name(), Err: err})
			continue
		}
		t, ok, perrs := Parse(content, e.Name(), now)
		errs = append(errs, perrs...)
		if ok {
			tasks = append(tasks, t)
		}
	}
	return tasks, errs
}

// Write stores t as <dir>/<id>.md, creating dir when needed and replacing
// any existing record with the same id. The file is written to a
// temporary name first and renamed into place.
func (f Files) Write(t task.Task, dir string) (string, error) {
	if t.ID == "" {
		return "", fmt.Errorf("write record: empty id")
	}
	data, err := Marshal(t)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create project directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+t.ID+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp record: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write record %s: %w", t.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close record %s: %w", t.ID, err)
	}

	path := Path(dir, t.ID)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename record %s: %w", t.ID, err)
	}
	return path, nil
}

// Delete removes the record with the given id. It fails when the record
// does not exist.
func (f Files) Delete(id, dir string) error {
	if err := os.Remove(Path(dir, id)); err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	return nil
}

func (f Files) GenerateID(title, dir string) (string, error) {
	return GenerateID(title, dir)
}

func (f Files) Slug(title string) string {
	return Slug(title)
}

// Count returns the number of records in dir.
func Count(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ext) {
			n++
		}
	}
	return n, nil
}
