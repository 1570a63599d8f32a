package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/sadopc/planr/internal/project"
	"github.com/sadopc/planr/internal/record"
	"github.com/sadopc/planr/internal/task"
)

type projectsModel struct {
	ws     *workspace
	width  int
	height int

	projects []task.Project
	cursor   int

	formActive bool
	form       *huh.Form
	// Form field pointer (survives value copies)
	formName *string
}

func newProjectsModel(ws *workspace) projectsModel {
	name := ""
	return projectsModel{ws: ws, formName: &name}
}

func (p *projectsModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

func (p projectsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		projects, err := p.ws.registry.Scan()
		if err != nil {
			return statusMsg{text: err.Error(), isError: true}
		}
		return projectsDataMsg{projects: projects}
	}
}

func (p projectsModel) update(msg tea.Msg) (projectsModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case projectsDataMsg:
		p.projects = msg.projects
		p.cursor = cursorIn(p.cursor, len(p.projects))
		return p, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if p.cursor > 0 {
				p.cursor--
			}
		case key.Matches(msg, keys.Down):
			if p.cursor < len(p.projects)-1 {
				p.cursor++
			}
		case key.Matches(msg, keys.Enter):
			if len(p.projects) > 0 {
				return p, p.ws.openProject(p.projects[p.cursor].Name)
			}
		case key.Matches(msg, keys.New):
			return p.showNewProjectForm()
		case key.Matches(msg, keys.Reset):
			return p, p.refresh()
		}
	}
	return p, nil
}

func (p projectsModel) showNewProjectForm() (projectsModel, tea.Cmd) {
	*p.formName = ""
	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Project Name").
				Description("Stored as a folder under "+p.ws.registry.Root()).
				Value(p.formName).
				Validate(validProjectName),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

// validProjectName accepts names that turn into a non-empty folder slug.
func validProjectName(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("name is required")
	}
	if record.Slug(s) == "" {
		return project.ErrInvalidName
	}
	return nil
}

func (p projectsModel) updateForm(msg tea.Msg) (projectsModel, tea.Cmd) {
	form, cmd, state := runForm(p.form, msg)
	p.form = form

	switch state {
	case huh.StateAborted:
		p.formActive = false
		p.form = nil
		return p, nil
	case huh.StateCompleted:
		p.formActive = false
		p.form = nil
		name := *p.formName
		ws := p.ws
		return p, func() tea.Msg {
			proj, err := ws.registry.Create(name)
			if err != nil {
				ws.log.Warn("create project", zap.String("name", name), zap.Error(err))
				return statusMsg{text: err.Error(), isError: true}
			}
			return ws.openProject(proj.Name)()
		}
	}
	return p, cmd
}

func (p projectsModel) view() string {
	w := p.width - 4
	if p.formActive && p.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("New Project"), "", p.form.View())
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Projects") + "  " + mutedStyle.Render(p.ws.registry.Root())
	if len(p.projects) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No projects yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("    %-32s %6s  %s", "Name", "Tasks", "Folder")))

	folderWidth := max(8, w-50)
	for i, proj := range p.projects {
		marker := " "
		if proj.Name == p.ws.project.Name {
			marker = successStyle.Render("●")
		}
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		line := style.Render(fmt.Sprintf("%-32s %6d", truncate(proj.Name, 32), proj.TaskCount))
		rows = append(rows, cursor+marker+" "+line+"  "+mutedStyle.Render(truncate(proj.Path, folderWidth)))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  enter: open  r: rescan"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
