package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"nbadata/ingestion/internal/app"
	"nbadata/ingestion/internal/config"
	"nbadata/ingestion/internal/odds"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewRootCommand creates the nbasync command tree
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nbasync",
		Short: "Synchronize the local NBA stats mirror",
		Long: `Synchronize the local NBA stats mirror.

Without a subcommand, runs one game sync: a full backfill of every team when
no checkpoint exists, otherwise an incremental fetch of games since the last
checkpoint.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runGames,
	}

	cmd.AddCommand(newGamesCommand())
	cmd.AddCommand(newStatsCommand())
	cmd.AddCommand(newStaticCommand())
	cmd.AddCommand(newInactiveCommand())
	cmd.AddCommand(newLeadersCommand())
	cmd.AddCommand(newOddsCommand())

	return cmd
}

func newGamesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "games",
		Short: "Run one game sync",
		Args:  cobra.NoArgs,
		RunE:  runGames,
	}
}

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Download league player stats and shot profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.SyncStats(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %d player stat rows and %d shot profile rows for the current season\n",
					res.CurrentStats, res.CurrentShots)
				if res.Backfilled {
					fmt.Fprintf(cmd.OutOrStdout(), "Backfilled %d past player stat rows and %d past shot profile rows\n",
						res.PastStats, res.PastShots)
				}
				return nil
			})
		},
	}
}

func newStaticCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "static",
		Short: "Write the static team and player lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				n, err := a.SyncTeams(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %d teams\n", n)

				res, err := a.SyncPlayerLists(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %d active and %d inactive players\n", res.Active, res.Inactive)
				return nil
			})
		},
	}
}

func newInactiveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inactive",
		Short: "Download career stats of every inactive player",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				n, err := a.SyncInactivePlayers(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %d inactive player season rows\n", n)
				return nil
			})
		},
	}
}

func newLeadersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "leaders",
		Short: "Download the all-time leader grids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				n, err := a.SyncAllTimeLeaders(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %d all-time leader rows\n", n)
				return nil
			})
		},
	}
}

func newOddsCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "odds <odds>",
		Short: "Print the probability implied by betting odds",
		Example: `  nbasync odds -- -150
  nbasync odds 2.5 --format decimal
  nbasync odds 3/2 --format fractional`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := odds.ParseFormat(format)
			if err != nil {
				return err
			}
			p, err := odds.ImpliedProbability(args[0], f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.4f\n", p)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "american", "odds format (american|decimal|fractional)")
	return cmd
}

func runGames(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		res, err := a.SyncGames(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Summary())
		return nil
	})
}

// withApp loads configuration, opens the store and runs fn. The store is
// closed on every exit path. SIGINT and SIGTERM cancel the context.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	app.SetupLogger(cfg, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close store")
		}
	}()

	return fn(ctx, a)
}
