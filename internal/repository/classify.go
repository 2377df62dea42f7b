package repository

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/blogful/internal/apperror"
)

// PostgreSQL SQLSTATE codes (class 23, integrity constraint violation).
const (
	pgNotNullViolation = "23502"
	pgUniqueViolation  = "23505"
	pgCheckViolation   = "23514"
)

// sqliteColumn pulls the column out of SQLite's constraint text, e.g.
// "NOT NULL constraint failed: blogful_articles.title".
var sqliteColumn = regexp.MustCompile(`constraint failed: ` + ArticlesTable + `\.(\w+)`)

// classify turns a driver error into an *apperror.AppError.
//
// Constraint violations the backend reports about the data itself become
// ErrValidation (or ErrConflict for duplicate keys); everything else
// (connection loss, syntax errors, timeouts) is ErrStorage.
//
// Validation and conflict messages go back to the client, so they describe
// the data, not the operation. op stays in the cause chain next to the
// driver error, which errors.As can still reach.
func classify(op string, err error) error {
	cause := fmt.Errorf("%s: %w", op, err)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgNotNullViolation:
			return required(pgErr.ColumnName).WithCause(cause)
		case pgCheckViolation:
			return apperror.ValidationFailed(pgErr.ColumnName,
				fmt.Sprintf("value violates constraint %s", pgErr.ConstraintName)).WithCause(cause)
		case pgUniqueViolation:
			return apperror.Conflict("article already exists").WithCause(cause)
		}
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		var column string
		if m := sqliteColumn.FindStringSubmatch(liteErr.Error()); m != nil {
			column = m[1]
		}

		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return required(column).WithCause(cause)
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return apperror.ValidationFailed(column, "value violates a check constraint").WithCause(cause)
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return apperror.Conflict("article already exists").WithCause(cause)
		}
	}

	return apperror.Storage(op, err)
}

func required(column string) *apperror.AppError {
	if column == "" {
		return apperror.ValidationFailed("", "a required field is missing")
	}
	return apperror.ValidationFailed(column, column+" is required")
}
