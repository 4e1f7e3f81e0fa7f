// Package cli implements scorectl, the operator command line for the score store.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Clark-Hu/trimscore/internal/app"
	"github.com/Clark-Hu/trimscore/internal/config"
	"github.com/Clark-Hu/trimscore/internal/logging"
	"github.com/Clark-Hu/trimscore/internal/score"
)

// AppFactory builds the application a command runs against.
type AppFactory func(ctx context.Context, verbose bool) (*app.App, error)

// ErrResolveFailed is returned by resolve when at least one id had no score.
var ErrResolveFailed = errors.New("one or more ids could not be resolved")

// LoadApp reads configuration from the environment and wires the application.
// Logs go to stderr so stdout stays parseable.
func LoadApp(ctx context.Context, verbose bool) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger := logging.NewWithWriter(os.Stderr, level, "console")
	return app.New(ctx, cfg, logger)
}

// NewRootCommand assembles scorectl. A nil factory means LoadApp.
func NewRootCommand(factory AppFactory) *cobra.Command {
	if factory == nil {
		factory = LoadApp
	}
	var verbose bool

	root := &cobra.Command{
		Use:   "scorectl",
		Short: "Inspect and maintain trimmed IMDb scores",
		Long: `scorectl works against the same store the server uses, configured through
the same environment variables (or a .env file).

Examples:
  scorectl resolve tt0111161 tt0068646
  scorectl refresh
  scorectl migrate`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	withApp := func(cmd *cobra.Command, run func(*app.App) error) error {
		a, err := factory(cmd.Context(), verbose)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(a)
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "resolve <id>...",
			Short: "Resolve scores, recomputing stale ones",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(a *app.App) error {
					return runResolve(cmd.Context(), cmd.OutOrStdout(), a, args)
				})
			},
		},
		&cobra.Command{
			Use:   "refresh",
			Short: "Recompute one batch of stale scores",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(a *app.App) error {
					report, err := a.Refresh.Run(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "listed %d, refreshed %d, failed %d\n",
						report.Listed, report.Refreshed, report.Failed)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(a *app.App) error {
					if err := a.Migrate(cmd.Context()); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
					return nil
				})
			},
		},
	)
	return root
}

func runResolve(ctx context.Context, out io.Writer, a *app.App, ids []string) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	failed := false
	for _, id := range ids {
		res, err := a.Resolver.Resolve(ctx, id)
		if err != nil {
			failed = true
			fmt.Fprintf(tw, "%s\t-\t%v\n", id, err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", id, score.Format(res.Score), res.State)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if failed {
		return ErrResolveFailed
	}
	return nil
}
