package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/sadopc/planr/internal/tui"
)

func runTUI(o *options) error {
	e, err := setup(o)
	if err != nil {
		return err
	}
	defer e.close()

	// The app reopens the active project itself.
	if o.project != "" {
		if _, err := e.registry.Open(o.project); err != nil {
			return err
		}
	}

	app := tui.NewApp(tui.Options{
		Tasks:    e.tasks,
		Registry: e.registry,
		DB:       e.db,
		Gantt:    e.cfg.Gantt,
		Log:      e.log,
		Now:      e.now,
	})
	e.log.Info("starting ui", zap.String("root", e.cfg.Root))
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
