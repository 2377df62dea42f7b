// Package database opens the connection pool and creates the schema.
//
// TWO BACKENDS:
//   - "sqlite": modernc.org/sqlite, a pure Go translation of SQLite. No C
//     compiler, no server; the default for local runs and for tests
//     (DSN ":memory:" gives every test its own throwaway database).
//   - "pgx": jackc/pgx through its database/sql adapter, for PostgreSQL.
//
// Both are registered with database/sql by blank imports below and wrapped
// in *sqlx.DB, which is what the repository package takes as its Conn.
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// Driver names as registered with database/sql.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

func init() {
	// sqlx knows "sqlite3" (mattn) but not modernc's "sqlite"; tell it that
	// this driver also uses ? placeholders so Rebind leaves them alone.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Config holds everything needed to open a pool.
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Open creates the pool, applies pool settings, verifies the connection and
// runs Migrate.
//
// sqlx.Open does not dial anything; PingContext forces the first real
// connection so a bad DSN fails here instead of on the first request.
func Open(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	switch cfg.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("database: unsupported driver %q", cfg.Driver)
	}

	dsn := cfg.DSN
	if cfg.Driver == DriverSQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("database: opening %s: %w", cfg.Driver, err)
	}

	configurePool(db, cfg)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database: pinging %s: %w", cfg.Driver, err)
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func configurePool(db *sqlx.DB, cfg Config) {
	// An in-memory SQLite database lives and dies with ONE connection.
	// A second pooled connection would see a different, empty database,
	// and recycling the only connection would wipe the data.
	if cfg.Driver == DriverSQLite && isMemory(cfg.DSN) {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
		return
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

// busyTimeout is how long a SQLite connection waits for another
// connection's write lock before giving up with SQLITE_BUSY.
const busyTimeout = 5 * time.Second

// sqliteDSN adds the per-connection pragmas a pooled file database needs.
//
// WHY IN THE DSN?
// A PRAGMA run through db.ExecContext reaches just ONE pooled connection.
// modernc runs every _pragma query parameter on each connection it opens,
// so all of them get:
//   - busy_timeout: SQLite allows one writer at a time, even in WAL mode.
//     Without a timeout a second concurrent INSERT fails immediately with
//     "database is locked"; with it, the writer waits its turn.
//   - journal_mode(WAL): readers proceed while a write is in progress.
//
// Parameters the caller already set are left alone. In-memory DSNs are
// returned unchanged: their pool is a single connection (see configurePool).
func sqliteDSN(dsn string) string {
	if isMemory(dsn) {
		return dsn
	}

	var params []string
	if !strings.Contains(dsn, "busy_timeout") {
		params = append(params, fmt.Sprintf("_pragma=busy_timeout(%d)", busyTimeout.Milliseconds()))
	}
	if !strings.Contains(dsn, "journal_mode") {
		params = append(params, "_pragma=journal_mode(WAL)")
	}
	if len(params) == 0 {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

func isMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
