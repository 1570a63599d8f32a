package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newProjectsCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List projects under the root directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(o)
			if err != nil {
				return err
			}
			defer e.close()

			projects, err := e.registry.Scan()
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Fprintf(stdout(cmd), "No projects in %s. Create one with 'planr projects new <name>'.\n", e.registry.Root())
				return nil
			}
			active, _ := e.registry.Active()

			tbl := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("", "NAME", "TASKS", "LAST OPENED").
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return headerStyle
					}
					return cellStyle
				})
			for _, p := range projects {
				marker, opened := "", "-"
				if p.Name == active.Name {
					marker = "*"
				}
				if row, err := e.db.GetProject(p.Name); err == nil && row.LastOpened != nil {
					opened = row.LastOpened.Local().Format("2006-01-02 15:04")
				}
				tbl.Row(marker, p.Name, fmt.Sprint(p.TaskCount), opened)
			}
			fmt.Fprintln(stdout(cmd), tbl.String())
			return nil
		},
	}
	cmd.AddCommand(newProjectsNewCmd(o))
	cmd.AddCommand(newProjectsOpenCmd(o))
	cmd.AddCommand(newProjectsRecentCmd(o))
	return cmd
}

func newProjectsNewCmd(o *options) *cobra.Command {
	var open bool
	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a project folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(o)
			if err != nil {
				return err
			}
			defer e.close()

			p, err := e.registry.Create(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout(cmd), "Created project %s at %s\n", p.Name, p.Path)
			if open {
				if _, err := e.registry.Open(p.Name); err != nil {
					return err
				}
				fmt.Fprintf(stdout(cmd), "Active project is now %s\n", p.Name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&open, "open", true, "Make the new project active")
	return cmd
}

func newProjectsOpenCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "open <name>",
		Short: "Make a project the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(o)
			if err != nil {
				return err
			}
			defer e.close()

			p, err := e.registry.Open(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout(cmd), "Active project is now %s (%d tasks)\n", p.Name, p.TaskCount)
			return nil
		},
	}
}

func newProjectsRecentCmd(o *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recently opened projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(o)
			if err != nil {
				return err
			}
			defer e.close()

			recent, err := e.db.RecentProjects(limit)
			if err != nil {
				return err
			}
			if len(recent) == 0 {
				fmt.Fprintln(stdout(cmd), "No projects opened yet.")
				return nil
			}
			for _, p := range recent {
				fmt.Fprintf(stdout(cmd), "  %s  %s\n", p.LastOpened.Local().Format("2006-01-02 15:04"), p.Name)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of projects to show")
	return cmd
}
