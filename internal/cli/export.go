package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sadopc/planr/internal/export"
)

func newExportCmd(o *options) *cobra.Command {
	var (
		vf     viewFlags
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the filtered task list as CSV or JSON",
		Long: `Export the tasks of a project. The same filter and sort flags as list apply.

Without --out the export is written to stdout. The format defaults to the
extension of --out, then to csv.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = strings.TrimPrefix(filepath.Ext(out), ".")
			}
			if format == "" {
				format = "csv"
			}
			if format != "csv" && format != "json" {
				return fmt.Errorf("unknown format %q (want csv or json)", format)
			}

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

			now := e.now()
			switch {
			case out == "" && format == "json":
				return export.WriteJSON(stdout(cmd), tasks, p.Name, now)
			case out == "":
				return export.WriteCSV(stdout(cmd), tasks, now)
			case format == "json":
				err = export.ToJSON(tasks, p.Name, now, out)
			default:
				err = export.ToCSV(tasks, now, out)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d tasks to %s\n", len(tasks), out)
			return nil
		},
	}
	vf.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "", "csv or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}
