package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/blogful/internal/database"
	"github.com/sakif/blogful/internal/server"
	"github.com/sakif/blogful/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long:  "Open the database, create the schema if needed, and serve the article API until SIGINT or SIGTERM.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	// === TRACING ===
	// Spans go to stdout when enabled; otherwise the global provider stays a no-op.
	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
	}, os.Stdout)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("flushing traces failed", slog.String("error", err.Error()))
		}
	}()

	// === DATABASE ===
	if err := ensureDataDir(cfg.Database); err != nil {
		return err
	}
	db, err := database.Open(ctx, cfg.Database.PoolConfig())
	if err != nil {
		return err
	}
	// Closed after the server has drained, so in-flight requests can finish.
	defer db.Close()

	// === SERVER ===
	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	return server.New(cfg.HTTP, db, logger).Start(ctx)
}
