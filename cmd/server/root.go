package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/blogful/internal/config"
	"github.com/sakif/blogful/internal/database"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:     "blogful",
	Short:   "Blogful - a small blog article service",
	Long:    "Blogful serves a JSON API for creating, reading, updating and deleting blog articles.",
	Version: version,
	// Running the bare binary starts the server.
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a config file (default: ./blogful.{yaml,json,toml} if present)")
}

// setup loads the config and builds the logger every command starts with.
func setup(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := newLogger(cfg.Log, cmd.ErrOrStderr())
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// newLogger creates the slog logger described by cfg.
//
// Log levels (from least to most severe): Debug → Info → Warn → Error.
// "text" gives human-readable key=value lines, "json" one object per line
// for log shippers.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ensureDataDir creates the parent directory of a file-backed SQLite database.
// os.MkdirAll creates all parent directories if needed (like `mkdir -p`).
func ensureDataDir(cfg config.DatabaseConfig) error {
	if cfg.Driver != database.DriverSQLite || strings.Contains(cfg.DSN, ":memory:") {
		return nil
	}
	path := strings.TrimPrefix(cfg.DSN, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating database directory %s: %w", dir, err)
	}
	return nil
}
