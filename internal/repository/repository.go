// Package repository is the Articles data-access layer.
//
// FUNCTIONS, NOT A STRUCT WITH A HIDDEN CONNECTION:
// Every operation takes the connection as an explicit argument:
//
//	articles, err := repository.GetAllArticles(ctx, db)
//
// Nothing in this package holds a *sqlx.DB. The caller decides which pool
// (or transaction) a call runs on, so a test can hand each case its own
// in-memory database and production code can hand in the server's pool.
//
// ONE PACKAGE, TWO DIALECTS:
// Statements are built with squirrel using "?" placeholders and then passed
// through conn.Rebind(), which rewrites them for the connection's driver:
//
//	sqlite: SELECT ... WHERE id = ?
//	pgx:    SELECT ... WHERE id = $1
//
// So the same five functions run unchanged on SQLite and PostgreSQL.
package repository

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// ArticlesTable is the table every function in this package reads and writes.
const ArticlesTable = "blogful_articles"

// Conn is the connection handle the data layer needs: run a statement,
// scan rows, and know its own placeholder dialect.
//
// *sqlx.DB and *sqlx.Tx both satisfy it. Tests wrap a go-sqlmock *sql.DB
// with sqlx.NewDb(db, "pgx") to get one.
type Conn interface {
	sqlx.ExtContext
}

// articleColumns is the SELECT list, in model.Article field order.
var articleColumns = []string{"id", "title", "content", "date_published"}

// builder produces "?" placeholders; Conn.Rebind converts them per driver.
// A StatementBuilder is an immutable value, so sharing it is safe.
var builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)
