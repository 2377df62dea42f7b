package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/blogful/internal/database"
	"github.com/sakif/blogful/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the articles table and exit",
	Long: `Create the blogful_articles table if it does not exist yet.

The statement is idempotent, so running it against an existing database is safe.
"serve" runs the same migration on startup.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	if err := ensureDataDir(cfg.Database); err != nil {
		return err
	}

	// database.Open migrates as part of opening.
	db, err := database.Open(cmd.Context(), cfg.Database.PoolConfig())
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("schema up to date",
		slog.String("driver", cfg.Database.Driver),
		slog.String("table", repository.ArticlesTable),
	)
	return nil
}
