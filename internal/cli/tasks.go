package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sadopc/planr/internal/export"
	"github.com/sadopc/planr/internal/filter"
	"github.com/sadopc/planr/internal/task"
	"github.com/sadopc/planr/internal/taskstore"
)

// viewFlags selects and orders tasks for list and export.
type viewFlags struct {
	statuses   []string
	priorities []string
	tags       []string
	query      string
	sort       string
	desc       bool
	saved      bool
	overdue    bool
}

func (f *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.statuses, "status", nil, "Only these statuses (backlog, in-progress, review, done, archived)")
	cmd.Flags().StringSliceVar(&f.priorities, "priority", nil, "Only these priorities (p0-p3)")
	cmd.Flags().StringSliceVarP(&f.tags, "tag", "t", nil, "Only tasks carrying one of these tags")
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "Search title and description")
	cmd.Flags().StringVarP(&f.sort, "sort", "s", "", "Sort column (title, status, priority, start, end, order)")
	cmd.Flags().BoolVar(&f.desc, "desc", false, "Sort descending")
	cmd.Flags().BoolVar(&f.saved, "saved", false, "Start from the project's saved view")
	cmd.Flags().BoolVar(&f.overdue, "overdue", false, "Only overdue tasks")
}

// state builds the filter state: the saved view when asked for, with
// every given flag applied on top.
func (f *viewFlags) state(e *env, p task.Project) (filter.State, error) {
	st := filter.DefaultState()
	if f.saved {
		st = e.registry.View(p.Name)
	}

	var opts []filter.Option
	if len(f.statuses) > 0 {
		ss := make([]task.Status, 0, len(f.statuses))
		for _, v := range f.statuses {
			s, ok := task.ParseStatus(v)
			if !ok {
				return st, fmt.Errorf("unknown status %q", v)
			}
			ss = append(ss, s)
		}
		opts = append(opts, filter.WithStatuses(ss...))
	}
	if len(f.priorities) > 0 {
		ps := make([]task.Priority, 0, len(f.priorities))
		for _, v := range f.priorities {
			pr, ok := task.ParsePriority(v)
			if !ok {
				return st, fmt.Errorf("unknown priority %q", v)
			}
			ps = append(ps, pr)
		}
		opts = append(opts, filter.WithPriorities(ps...))
	}
	if len(f.tags) > 0 {
		opts = append(opts, filter.WithTags(f.tags...))
	}
	if f.query != "" {
		opts = append(opts, filter.WithQuery(f.query))
	}
	if f.sort != "" || f.desc {
		col := st.SortColumn
		if f.sort != "" {
			c, ok := filter.ParseSortColumn(f.sort)
			if !ok {
				return st, fmt.Errorf("unknown sort column %q", f.sort)
			}
			col = c
		}
		dir := filter.Asc
		if f.desc {
			dir = filter.Desc
		}
		opts = append(opts, filter.WithSort(col, dir))
	}
	return filter.NewEngineWith(st).Set(opts...), nil
}

func (f *viewFlags) apply(e *env, p task.Project) ([]task.Task, error) {
	st, err := f.state(e, p)
	if err != nil {
		return nil, err
	}
	tasks := filter.NewEngineWith(st).FilterAndSort(e.tasks.Tasks())
	if f.overdue {
		today := e.now()
		kept := tasks[:0]
		for _, t := range tasks {
			if t.IsOverdue(today) {
				kept = append(kept, t)
			}
		}
		tasks = kept
	}
	return tasks, nil
}

func newListCmd(o *options) *cobra.Command {
	var (
		vf     viewFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the tasks of a project",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(o)
			if err != nil {
				return err
			}
			defer e.close()
			p, err := e.open(o, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			tasks, err := vf.apply(e, p)
			if err != nil {
				return err
			}
			if asJSON {
				return export.WriteJSON(stdout(cmd), tasks, p.Name, e.now())
			}
			if len(tasks) == 0 {
				fmt.Fprintln(stdout(cmd), "No tasks found.")
				return nil
			}
			fmt.Fprintln(stdout(cmd), renderTasks(tasks, e))
			return nil
		},
	}
	vf.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	overdueStyle = cellStyle.Foreground(lipgloss.Color("#E74C3C"))
)

func renderTasks(tasks []task.Task, e *env) string {
	today := e.now()
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			t.ID,
			t.Title,
			t.Status.Label(),
			string(t.Priority),
			task.FormatDate(t.Start),
			task.FormatDate(t.End),
			strings.Join(t.Tags, ","),
		})
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "TITLE", "STATUS", "PRI", "START", "END", "TAGS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 5 && row >= 0 && row < len(tasks) && tasks[row].IsOverdue(today):
				return overdueStyle
			}
			return cellStyle
		})
	return tbl.String()
}

func newAddCmd(o *options) *cobra.Command {
	var (
		desc, status, priority, start, end string
		tags                               []string
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(o)
			if err != nil {
				return err
			}
			defer e.close()
			if _, err := e.open(o, cmd.ErrOrStderr()); err != nil {
				return err
			}

			in := taskstore.Input{Title: strings.Join(args, " "), Description: desc, Tags: tags}
			if in.Status, err = parseStatus(status); err != nil {
				return err
			}
			if in.Priority, err = parsePriority(priority); err != nil {
				return err
			}
			in.Start = task.Day(e.now())
			if start != "" {
				if in.Start, err = parseDate("start", start); err != nil {
					return err
				}
			}
			if end != "" {
				if in.End, err = parseDate("end", end); err != nil {
					return err
				}
			}

			t, err := e.tasks.Create(in)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout(cmd), "Created %s\n", t.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&desc, "description", "d", "", "Description (markdown body)")
	cmd.Flags().StringVar(&status, "status", "", "Initial status (default backlog)")
	cmd.Flags().StringVar(&priority, "priority", "", "Priority (default p3)")
	cmd.Flags().StringVar(&start, "start", "", "Start date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&end, "end", "", "End date YYYY-MM-DD")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Tag (repeatable)")
	return cmd
}

func newEditCmd(o *options) *cobra.Command {
	var (
		title, desc, priority, start, end string
		tags                              []string
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task; a new title moves it to a new id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(o)
			if err != nil {
				return err
			}
			defer e.close()
			if _, err := e.open(o, cmd.ErrOrStderr()); err != nil {
				return err
			}

			var p taskstore.Patch
			flags := cmd.Flags()
			if flags.Changed("title") {
				p.Title = &title
			}
			if flags.Changed("description") {
				p.Description = &desc
			}
			if flags.Changed("priority") {
				pr, err := parsePriority(priority)
				if err != nil {
					return err
				}
				p.Priority = &pr
			}
			if flags.Changed("start") {
				d, err := parseDate("start", start)
				if err != nil {
					return err
				}
				p.Start = &d
			}
			if flags.Changed("end") {
				// An empty value clears the end date.
				var d time.Time
				if end != "" {
					if d, err = parseDate("end", end); err != nil {
						return err
					}
				}
				p.End = &d
			}
			if flags.Changed("tag") {
				p.Tags = &tags
			}

			t, err := e.tasks.Update(args[0], p)
			if err != nil {
				return err
			}
			if t.ID != args[0] {
				fmt.Fprintf(stdout(cmd), "Updated %s (now %s)\n", args[0], t.ID)
				return nil
			}
			fmt.Fprintf(stdout(cmd), "Updated %s\n", t.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVarP(&desc, "description", "d", "", "New description")
	cmd.Flags().StringVar(&priority, "priority", "", "New priority")
	cmd.Flags().StringVar(&start, "start", "", "New start date")
	cmd.Flags().StringVar(&end, "end", "", "New end date, empty to clear")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Replace the tags")
	return cmd
}

func newMoveCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <status|next|archive>",
		Short: "Change the status of a task",
		Long: `Change the status of a task along the workflow:

  backlog -> in-progress -> review -> done
  any status -> archived, archived -> backlog, review -> in-progress

"next" advances one step; "archive" archives.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(o)
			if err != nil {
				return err
			}
			defer e.close()
			if _, err := e.open(o, cmd.ErrOrStderr()); err != nil {
				return err
			}

			var t task.Task
			switch args[1] {
			case "next":
				t, err = e.tasks.Advance(args[0])
			case "archive":
				t, err = e.tasks.Archive(args[0])
			default:
				st, perr := parseStatus(args[1])
				if perr != nil {
					return perr
				}
				t, err = e.tasks.Update(args[0], taskstore.Patch{Status: &st})
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout(cmd), "%s is now %s\n", t.ID, t.Status.Label())
			return nil
		},
	}
}

func newRemoveCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete tasks and their records",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(o)
			if err != nil {
				return err
			}
			defer e.close()
			if _, err := e.open(o, cmd.ErrOrStderr()); err != nil {
				return err
			}
			for _, id := range args {
				if err := e.tasks.Delete(id); err != nil {
					return err
				}
				fmt.Fprintf(stdout(cmd), "Deleted %s\n", id)
			}
			return nil
		},
	}
}

func newReorderCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <id> <order>",
		Short: "Set the manual order of a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("order must be an integer: %w", err)
			}
			e, err := setup(o)
			if err != nil {
				return err
			}
			defer e.close()
			if _, err := e.open(o, cmd.ErrOrStderr()); err != nil {
				return err
			}
			t, err := e.tasks.Reorder(args[0], order)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout(cmd), "%s order %d\n", t.ID, t.Order)
			return nil
		},
	}
}

func newTagsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List the distinct tags of a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(o)
			if err != nil {
				return err
			}
			defer e.close()
			if _, err := e.open(o, cmd.ErrOrStderr()); err != nil {
				return err
			}
			for _, tag := range e.tasks.AllTags() {
				fmt.Fprintln(stdout(cmd), tag)
			}
			return nil
		},
	}
}

func parseStatus(v string) (task.Status, error) {
	if v == "" {
		return "", nil
	}
	s, ok := task.ParseStatus(v)
	if !ok {
		return "", fmt.Errorf("unknown status %q", v)
	}
	return s, nil
}

func parsePriority(v string) (task.Priority, error) {
	if v == "" {
		return "", nil
	}
	p, ok := task.ParsePriority(v)
	if !ok {
		return "", fmt.Errorf("unknown priority %q", v)
	}
	return p, nil
}

func parseDate(field, v string) (time.Time, error) {
	d, err := task.ParseDate(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s date %q (want YYYY-MM-DD)", field, v)
	}
	return d, nil
}
