package main

import (
	"context"
	"fmt"

	"chitfund/internal/cli"
	"chitfund/internal/config"
	"chitfund/internal/core"
	"chitfund/internal/log"
	"chitfund/internal/services"
	"chitfund/internal/storage"

	"github.com/spf13/cobra"
)

// app is the state shared by every subcommand once the ledger is open.
type app struct {
	dbPath   string
	logLevel string
	settings core.Settings

	repo *storage.SQLiteRepository
	svc  *services.LedgerService
}

// newRootCmd builds the command tree. The caller closes the returned app
// after Execute, since cobra skips post-run hooks when a command fails.
func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	cfg := config.Load()

	root := &cobra.Command{
		Use:           "chitctl",
		Short:         "Record payments and inspect a chit fund ledger",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cli.SetupLogger(a.logLevel, log.ComponentCLI)
			a.settings = cfg.Settings()
			return a.open(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.dbPath, "db", cfg.SQLiteDBPath, "SQLite database file.")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level (debug, info, warn, error).")

	root.AddCommand(
		newInitCmd(a),
		newRecordCmd(a),
		newMemberCmd(a),
		newTotalsCmd(a),
		newSummaryCmd(a),
		newSeriesCmd(a),
		newExportCmd(a, cfg),
	)
	return root, a
}

func (a *app) open(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := a.settings.Validate(); err != nil {
		return fmt.Errorf("chit settings: %w", err)
	}
	repo, err := storage.NewSQLiteRepository(a.dbPath)
	if err != nil {
		return err
	}
	svc, err := services.NewLedgerService(a.settings, repo, nil)
	if err == nil {
		err = svc.Hydrate(ctx)
	}
	if err != nil {
		repo.Close()
		return err
	}
	a.repo, a.svc = repo, svc
	return nil
}

func (a *app) close() error {
	if a.svc == nil {
		return nil
	}
	err := a.svc.Close()
	a.svc, a.repo = nil, nil
	return err
}
