package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// The schema differs only in how each engine spells "auto-assigned integer
// key" and "timestamp".
const (
	sqliteArticlesDDL = `
		CREATE TABLE IF NOT EXISTS blogful_articles (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			title          TEXT NOT NULL,
			content        TEXT NOT NULL,
			date_published TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`

	postgresArticlesDDL = `
		CREATE TABLE IF NOT EXISTS blogful_articles (
			id             BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
			title          TEXT NOT NULL,
			content        TEXT NOT NULL,
			date_published TIMESTAMPTZ NOT NULL DEFAULT now()
		)`
)

// Migrate creates the blogful_articles table if it does not exist.
// CREATE TABLE IF NOT EXISTS makes it safe to run on every start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	ddl := sqliteArticlesDDL
	if db.DriverName() == DriverPostgres {
		ddl = postgresArticlesDDL
	}

	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("database: creating blogful_articles table: %w", err)
	}
	return nil
}
