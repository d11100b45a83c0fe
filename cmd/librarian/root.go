package main

import (
	"github.com/spf13/cobra"

	"github.com/five82/librarian/internal/app"
)

// globalFlags are shared by every command.
type globalFlags struct {
	config   string
	prefs    string
	api      string
	pageSize int
	verbose  bool
}

func (g *globalFlags) options() app.Options {
	return app.Options{
		ConfigPath: g.config,
		PrefsPath:  g.prefs,
		APIBase:    g.api,
		PageSize:   g.pageSize,
		Verbose:    g.verbose,
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "librarian",
		Short: "Terminal client for the library catalogue",
		Long: `librarian browses and edits the books, topics, members and issues of a
library API. Without a subcommand it opens the interactive interface.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), flags.options())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.config, "config", "", "config file (default ~/.config/librarian/config.toml)")
	pf.StringVar(&flags.prefs, "prefs", "", "preferences file (default ~/.config/librarian/prefs.toml)")
	pf.StringVar(&flags.api, "api", "", "API base URL, overrides the config")
	pf.IntVar(&flags.pageSize, "page-size", 0, "items per page, overrides the config")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newLoginCmd(flags),
		newLogoutCmd(flags),
		newListCmd(flags),
		newGetCmd(flags),
		newDeleteCmd(flags),
		newIssueCmd(flags),
		newReturnCmd(flags),
		newStatsCmd(flags),
	)
	return root
}

// openEnv loads the environment for a one-shot command. The caller closes it.
func openEnv(flags *globalFlags) (*app.Env, error) {
	return app.Open(flags.options())
}
