// Package cli is the planr command tree. Without a subcommand planr runs
// the terminal UI.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// options holds the persistent flags shared by every command.
type options struct {
	configFile string
	project    string
	verbose    bool
}

// Execute runs the root command.
func Execute(version string) error {
	root := newRootCmd(version)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func newRootCmd(version string) *cobra.Command {
	o := &options{}
	rootCmd := &cobra.Command{
		Use:   "planr",
		Short: "planr - a terminal planner for markdown task folders",
		Long: `planr keeps tasks as markdown files with YAML frontmatter, one folder per project.

Run without arguments to open the backlog, board and Gantt views.`,
		Version: version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(o)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&o.configFile, "config", "c", "", "Config file (default planr.yaml in . or the user config dir)")
	rootCmd.PersistentFlags().StringVarP(&o.project, "project", "p", "", "Project to use instead of the active one")
	rootCmd.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "Log at debug level to stderr")

	rootCmd.AddCommand(newListCmd(o))
	rootCmd.AddCommand(newAddCmd(o))
	rootCmd.AddCommand(newEditCmd(o))
	rootCmd.AddCommand(newMoveCmd(o))
	rootCmd.AddCommand(newRemoveCmd(o))
	rootCmd.AddCommand(newReorderCmd(o))
	rootCmd.AddCommand(newTagsCmd(o))
	rootCmd.AddCommand(newExportCmd(o))
	rootCmd.AddCommand(newProjectsCmd(o))
	return rootCmd
}

func stdout(cmd *cobra.Command) io.Writer { return cmd.OutOrStdout() }
