package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/sadopc/planr/internal/config"
	"github.com/sadopc/planr/internal/logging"
	"github.com/sadopc/planr/internal/project"
	"github.com/sadopc/planr/internal/record"
	"github.com/sadopc/planr/internal/store"
	"github.com/sadopc/planr/internal/task"
	"github.com/sadopc/planr/internal/taskstore"
)

// env is everything a command needs, built from the loaded config.
type env struct {
	cfg      *config.Config
	log      *zap.Logger
	db       *store.Store
	registry *project.Registry
	tasks    *taskstore.Store
	now      func() time.Time
}

func setup(o *options) (*env, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Logger, o.verbose)
	if err != nil {
		return nil, err
	}
	db, err := store.New(cfg.DBPath)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	log.Debug("config loaded",
		zap.String("file", cfg.File),
		zap.String("root", cfg.Root),
		zap.String("db", cfg.DBPath))

	now := time.Now
	return &env{
		cfg:      cfg,
		log:      log,
		db:       db,
		registry: project.NewRegistry(cfg.Root, db, log),
		tasks:    taskstore.New(record.Files{Now: now}, taskstore.WithLogger(log), taskstore.WithClock(now)),
		now:      now,
	}, nil
}

func (e *env) close() {
	if err := e.db.Close(); err != nil {
		e.log.Warn("close database", zap.Error(err))
	}
	_ = e.log.Sync()
}

// open loads the project named by --project, or the active one. The
// flag does not change the active project. Records
// that fail to parse are reported on warn and skipped.
func (e *env) open(o *options, warn io.Writer) (task.Project, error) {
	var (
		p   task.Project
		err error
	)
	if o.project != "" {
		p, err = e.registry.Get(o.project)
	} else {
		p, err = e.registry.Active()
	}
	if err != nil {
		if errors.Is(err, project.ErrNoActive) {
			return p, fmt.Errorf("%w: pass --project or run 'planr projects open <name>'", err)
		}
		return p, err
	}
	for _, rerr := range e.tasks.Load(p.Path) {
		e.log.Warn("record skipped", zap.String("project", p.Name), zap.Error(rerr))
		fmt.Fprintln(warn, "warning:", rerr)
	}
	return p, nil
}
