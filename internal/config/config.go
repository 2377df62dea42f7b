// Package config loads the service configuration.
//
// SOURCES, LOWEST PRIORITY FIRST:
//  1. Defaults (SetDefault below)
//  2. An optional config file (YAML, JSON or TOML; viper picks the parser
//     from the extension)
//  3. Environment variables: BLOGFUL_ + the key upper-cased with dots
//     turned into underscores, e.g. database.dsn → BLOGFUL_DATABASE_DSN
//
// The result is a plain Config struct; nothing else in the app imports viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sakif/blogful/internal/database"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "BLOGFUL"

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

type HTTPConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LogConfig selects the slog handler: Format is "text" or "json",
// Level one of debug, info, warn, error.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// Load reads the configuration.
//
// With path == "" it looks for an optional "blogful.{yaml,json,toml}" in the
// working directory and carries on with defaults if there is none. An
// explicit path must exist.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("blogful")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key. AutomaticEnv only overrides keys viper
// already knows about when unmarshalling, so a key without a default here
// could never be set from the environment.
func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 15*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.shutdown_timeout", 30*time.Second)

	v.SetDefault("database.driver", database.DriverSQLite)
	v.SetDefault("database.dsn", "data/blogful.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "blogful")
}

// FieldError reports one invalid configuration value.
type FieldError struct {
	Key     string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Message)
}

// Validate checks the values Load can't type-check on its own.
// All problems are reported together via errors.Join.
func (c Config) Validate() error {
	var errs []error

	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		errs = append(errs, &FieldError{"http.port", fmt.Sprintf("%d is not a valid port", c.HTTP.Port)})
	}

	switch c.Database.Driver {
	case database.DriverSQLite, database.DriverPostgres:
	default:
		errs = append(errs, &FieldError{"database.driver", fmt.Sprintf("unsupported driver %q (want %q or %q)",
			c.Database.Driver, database.DriverSQLite, database.DriverPostgres)})
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		errs = append(errs, &FieldError{"database.dsn", "must not be empty"})
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, &FieldError{"log.level", fmt.Sprintf("unknown level %q", c.Log.Level)})
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, &FieldError{"log.format", fmt.Sprintf("unknown format %q", c.Log.Format)})
	}

	return errors.Join(errs...)
}

// PoolConfig converts to the form database.Open takes.
func (d DatabaseConfig) PoolConfig() database.Config {
	return database.Config{
		Driver:          d.Driver,
		DSN:             d.DSN,
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
	}
}
