package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/sadopc/planr/internal/config"
	"github.com/sadopc/planr/internal/export"
	"github.com/sadopc/planr/internal/filter"
	"github.com/sadopc/planr/internal/gantt"
	"github.com/sadopc/planr/internal/logging"
	"github.com/sadopc/planr/internal/project"
	"github.com/sadopc/planr/internal/store"
	"github.com/sadopc/planr/internal/task"
	"github.com/sadopc/planr/internal/taskstore"
)

// Options wires the app to its collaborators.
type Options struct {
	Tasks    *taskstore.Store
	Registry *project.Registry
	DB       *store.Store
	Gantt    config.GanttConfig
	Log      *zap.Logger
	// ExportDir receives exports. Defaults to the home directory.
	ExportDir string
	Now       func() time.Time
}

// workspace is the state shared by every view: the task store, the live
// filter engine of the open project and the chart settings.
type workspace struct {
	tasks     *taskstore.Store
	registry  *project.Registry
	db        *store.Store
	engine    *filter.Engine
	unsubView func()
	project   task.Project
	zoom      task.Zoom
	gantt     config.GanttConfig
	log       *zap.Logger
	exportDir string
	now       func() time.Time
	changed   chan struct{}
}

func newWorkspace(opts Options) *workspace {
	w := &workspace{
		tasks:     opts.Tasks,
		registry:  opts.Registry,
		db:        opts.DB,
		engine:    filter.NewEngine(),
		zoom:      opts.Gantt.Zoom,
		gantt:     opts.Gantt,
		log:       logging.OrNop(opts.Log),
		exportDir: opts.ExportDir,
		now:       opts.Now,
		changed:   make(chan struct{}, 1),
	}
	if w.now == nil {
		w.now = time.Now
	}
	if w.zoom == "" {
		w.zoom = task.ZoomMonth
	}
	if w.gantt.UnitWidth <= 0 {
		w.gantt.UnitWidth = gantt.DefaultUnitWidth
	}
	if w.db != nil {
		if v, err := w.db.GetSettingOr(store.KeyZoom, ""); err == nil {
			if z, ok := task.ParseZoom(v); ok {
				w.zoom = z
			}
		}
	}
	w.tasks.Subscribe(func([]task.Task) {
		select {
		case w.changed <- struct{}{}:
		default:
		}
	})
	return w
}

// waitForChange blocks until the task store commits a change.
func (w *workspace) waitForChange() tea.Cmd {
	return func() tea.Msg {
		<-w.changed
		return tasksChangedMsg{}
	}
}

func (w *workspace) hasProject() bool { return w.project.Path != "" }

// openProject makes name active and loads its records.
func (w *workspace) openProject(name string) tea.Cmd {
	return func() tea.Msg {
		p, err := w.registry.Open(name)
		if err != nil {
			return statusMsg{text: err.Error(), isError: true}
		}
		errs := w.tasks.Load(p.Path)
		return projectOpenedMsg{project: p, errs: errs}
	}
}

// openActive reopens the project that was active last session.
func (w *workspace) openActive() tea.Cmd {
	return func() tea.Msg {
		p, err := w.registry.Active()
		if err != nil {
			return noProjectMsg{}
		}
		return w.openProject(p.Name)()
	}
}

// useProject swaps in the saved view of p and persists later changes.
func (w *workspace) useProject(p task.Project) {
	if w.unsubView != nil {
		w.unsubView()
	}
	w.project = p
	w.engine = filter.NewEngineWith(w.registry.View(p.Name))
	name := p.Name
	w.unsubView = w.engine.Subscribe(func(s filter.State) {
		if err := w.registry.SaveView(name, s); err != nil {
			w.log.Warn("save view", zap.String("project", name), zap.Error(err))
		}
	})
}

// visible is the open project's tasks through the current filter and sort.
func (w *workspace) visible() []task.Task {
	return w.engine.FilterAndSort(w.tasks.Tasks())
}

func (w *workspace) setZoom(z task.Zoom) {
	w.zoom = z
	if w.db == nil {
		return
	}
	if err := w.db.SetSetting(store.KeyZoom, string(z)); err != nil {
		w.log.Warn("save zoom", zap.Error(err))
	}
}

// mutate runs fn off the update loop and reports the outcome. The store
// observer triggers the refresh.
func (w *workspace) mutate(done string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return statusMsg{text: err.Error(), isError: true}
		}
		return statusMsg{text: done}
	}
}

func (w *workspace) export(format int) tea.Cmd {
	tasks := w.visible()
	name := w.project.Name
	return func() tea.Msg {
		dir := w.exportDir
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
			}
			dir = home
		}
		now := w.now()
		dateStr := now.Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(dir, fmt.Sprintf("planr-%s-%s.csv", name, dateStr))
			if err := export.ToCSV(tasks, now, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(dir, fmt.Sprintf("planr-%s-%s.json", name, dateStr))
			if err := export.ToJSON(tasks, name, now, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}
		return exportDoneMsg{path: path}
	}
}
