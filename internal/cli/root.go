package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/foilwatch/internal/app"
)

// Version is set at build time via ldflags.
var Version = "dev"

// globalFlags holds the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	apiBase    string
	poll       time.Duration
	logPath    string
	verbose    bool
}

// options maps the persistent flags onto app.Options. Zero values leave the
// config file in charge.
func (g *globalFlags) options(cmd *cobra.Command) app.Options {
	opts := app.Options{
		ConfigPath: g.configPath,
		APIBase:    g.apiBase,
		PollEvery:  g.poll,
		LogPath:    g.logPath,
	}
	if g.verbose {
		opts.Console = cmd.ErrOrStderr()
	}
	return opts
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "foilwatch",
		Short: "Submit and watch airfoil optimisation jobs",
		Long: `foilwatch submits jobs to an airfoil optimisation server, polls it for
fitness progress and, once the run completes, saves the optimised airfoil
rotated to its angle of attack.

Without a subcommand it opens the terminal UI.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := g.options(cmd)
			// The TUI owns the terminal.
			opts.Console = nil
			return app.Run(cmd.Context(), opts)
		},
	}
	cmd.Version = Version
	cmd.SetVersionTemplate("foilwatch version {{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "config file (default ~/.config/foilwatch/config.toml)")
	pf.StringVar(&g.apiBase, "api", "", "optimizer address, host:port or URL")
	pf.DurationVar(&g.poll, "poll", 0, "status poll interval, e.g. 2s")
	pf.StringVar(&g.logPath, "log", "", "log file")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "copy the log to stderr (run and status only)")

	cmd.AddCommand(newRunCmd(g), newStatusCmd(g))
	return cmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}
