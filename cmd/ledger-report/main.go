package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/radieske/sports-bet-ledger/internal/ledger/bootstrap"
	"github.com/radieske/sports-bet-ledger/internal/ledger/engine"
	"github.com/radieske/sports-bet-ledger/internal/ledger/oracle"
	"github.com/radieske/sports-bet-ledger/internal/ledger/rollup"
	"github.com/radieske/sports-bet-ledger/internal/report"
	"github.com/radieske/sports-bet-ledger/internal/shared/config"
	"github.com/radieske/sports-bet-ledger/internal/shared/logger"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "ledger-report",
		Short:        "Print ledger tables (platform, matches, bets, users)",
		SilenceUsage: true,
	}

	var matchID string
	bets := &cobra.Command{
		Use:   "bets",
		Short: "List bets, optionally filtered by match",
		RunE: withReporter(out, func(ctx context.Context, r *report.Reporter) error {
			return r.Bets(ctx, matchID)
		}),
	}
	bets.Flags().StringVar(&matchID, "match", "", "match id")

	root.AddCommand(
		&cobra.Command{
			Use:   "platform",
			Short: "Show platform config and totals",
			RunE:  withReporter(out, func(ctx context.Context, r *report.Reporter) error { return r.Platform(ctx) }),
		},
		&cobra.Command{
			Use:   "matches",
			Short: "List matches",
			RunE:  withReporter(out, func(ctx context.Context, r *report.Reporter) error { return r.Matches(ctx) }),
		},
		bets,
		&cobra.Command{
			Use:   "users",
			Short: "List user accounts",
			RunE:  withReporter(out, func(ctx context.Context, r *report.Reporter) error { return r.Users(ctx) }),
		},
	)
	return root
}

// withReporter abre o store do config e roda fn sobre um engine somente leitura.
func withReporter(out io.Writer, fn func(context.Context, *report.Reporter) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.StoreDriver == config.StoreMemory {
			return fmt.Errorf("store driver %q has nothing to report", cfg.StoreDriver)
		}
		log, err := logger.New("ledger-report", cfg.Env, cfg.LogLevel)
		if err != nil {
			return err
		}
		defer log.Sync()

		st, _, err := bootstrap.Store(cmd.Context(), cfg, log)
		if err != nil {
			log.Error("ledger store", zap.Error(err))
			return err
		}
		defer st.Close()

		// Relatórios só leem registros: oráculo e rollup nunca são consultados
		eng, err := engine.New(engine.Deps{
			Store:  st,
			Oracle: oracle.NewStatic(decimal.Zero),
			Rollup: rollup.NewMemoryContext(nil),
			Log:    log,
		})
		if err != nil {
			return err
		}
		return fn(cmd.Context(), report.New(eng, out))
	}
}
