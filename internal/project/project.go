// Package project discovers project directories under the planner root
// and remembers which one is active.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sadopc/planr/internal/filter"
	"github.com/sadopc/planr/internal/logging"
	"github.com/sadopc/planr/internal/record"
	"github.com/sadopc/planr/internal/store"
	"github.com/sadopc/planr/internal/task"
)

var (
	ErrInvalidName = errors.New("project name has no usable characters")
	ErrExists      = errors.New("project already exists")
	ErrNoActive    = errors.New("no active project")
)

// Scan lists the projects under root, creating root when missing. Every
// non-hidden subdirectory is a project.
func Scan(root string) ([]task.Project, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create root: %w", err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read root: %w", err)
	}
	var projects []task.Project
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		path := filepath.Join(root, e.Name())
		n, err := record.Count(path)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", e.Name(), err)
		}
		projects = append(projects, task.Project{Name: e.Name(), Path: path, TaskCount: n})
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].Name < projects[j].Name })
	return projects, nil
}

// Create makes a new project directory named after the slug of name.
func Create(root, name string) (task.Project, error) {
	slug := record.Slug(name)
	if slug == "" {
		return task.Project{}, ErrInvalidName
	}
	path := filepath.Join(root, slug)
	if _, err := os.Stat(path); err == nil {
		return task.Project{}, fmt.Errorf("%s: %w", slug, ErrExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return task.Project{}, err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return task.Project{}, fmt.Errorf("create project: %w", err)
	}
	return task.Project{Name: slug, Path: path}, nil
}

// Registry mirrors the projects under one root into the workspace
// database and tracks the active project and its saved view.
type Registry struct {
	root string
	db   *store.Store
	log  *zap.Logger
	now  func() time.Time
}

func NewRegistry(root string, db *store.Store, log *zap.Logger) *Registry {
	return &Registry{root: root, db: db, log: logging.OrNop(log), now: time.Now}
}

func (r *Registry) Root() string { return r.root }

// Scan lists the projects on disk and refreshes their registry rows.
func (r *Registry) Scan() ([]task.Project, error) {
	projects, err := Scan(r.root)
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		if err := r.db.UpsertProject(p.Name, p.Path, p.TaskCount); err != nil {
			return nil, err
		}
	}
	r.log.Debug("scanned projects", zap.String("root", r.root), zap.Int("count", len(projects)))
	return projects, nil
}

func (r *Registry) Create(name string) (task.Project, error) {
	p, err := Create(r.root, name)
	if err != nil {
		return task.Project{}, err
	}
	if err := r.db.UpsertProject(p.Name, p.Path, 0); err != nil {
		return task.Project{}, err
	}
	r.log.Info("project created", zap.String("name", p.Name))
	return p, nil
}

// Get resolves name to its directory and refreshes its registry row
// without changing the active project.
func (r *Registry) Get(name string) (task.Project, error) {
	path := filepath.Join(r.root, name)
	info, err := os.Stat(path)
	if err != nil {
		return task.Project{}, fmt.Errorf("open project %q: %w", name, err)
	}
	if !info.IsDir() {
		return task.Project{}, fmt.Errorf("open project %q: not a directory", name)
	}
	n, err := record.Count(path)
	if err != nil {
		return task.Project{}, err
	}
	if err := r.db.UpsertProject(name, path, n); err != nil {
		return task.Project{}, err
	}
	return task.Project{Name: name, Path: path, TaskCount: n}, nil
}

// Open makes name the active project.
func (r *Registry) Open(name string) (task.Project, error) {
	p, err := r.Get(name)
	if err != nil {
		return task.Project{}, err
	}
	if err := r.db.TouchProject(name, r.now()); err != nil {
		return task.Project{}, err
	}
	if err := r.db.SetSetting(store.KeyActiveProject, name); err != nil {
		return task.Project{}, err
	}
	r.log.Debug("project opened", zap.String("name", name))
	return p, nil
}

// Active returns the active project. The path falls back to <root>/<name>
// when the registry has no row for it.
func (r *Registry) Active() (task.Project, error) {
	name, err := r.db.GetSettingOr(store.KeyActiveProject, "")
	if err != nil {
		return task.Project{}, err
	}
	if name == "" {
		return task.Project{}, ErrNoActive
	}
	p := task.Project{Name: name, Path: filepath.Join(r.root, name)}
	if row, err := r.db.GetProject(name); err == nil {
		p.Path = row.Path
		p.TaskCount = row.TaskCount
	}
	return p, nil
}

// View returns the saved filter state of a project, or the default.
func (r *Registry) View(name string) filter.State {
	v, ok, err := r.db.LoadView(name)
	if err != nil {
		r.log.Warn("load view", zap.String("project", name), zap.Error(err))
	}
	if !ok {
		return filter.DefaultState()
	}
	return v.State
}

func (r *Registry) SaveView(name string, s filter.State) error {
	return r.db.SaveView(name, s)
}
