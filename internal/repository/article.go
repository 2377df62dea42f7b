package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/sakif/blogful/internal/apperror"
	"github.com/sakif/blogful/internal/model"
)

// GetAllArticles returns every article in insertion order.
//
// An empty table yields an empty (non-nil) slice, never an error, so the
// JSON encoding is [] rather than null.
func GetAllArticles(ctx context.Context, conn Conn) ([]model.Article, error) {
	query, args, err := builder.
		Select(articleColumns...).
		From(ArticlesTable).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("repository: building list query: %w", err)
	}

	// sqlx.SelectContext runs the query, loops rows.Next(), scans each row into
	// a model.Article via its `db` tags, and closes rows for us.
	articles := []model.Article{}
	if err := sqlx.SelectContext(ctx, conn, &articles, conn.Rebind(query), args...); err != nil {
		return nil, classify("listing articles", err)
	}

	for i := range articles {
		articles[i].DatePublished = articles[i].DatePublished.UTC()
	}
	return articles, nil
}

// InsertArticle stores a new article and returns it with the id the
// database assigned.
//
// RETURNING id:
// Both SQLite (3.35+) and PostgreSQL accept INSERT ... RETURNING, so one
// statement both writes the row and reports its generated key. That keeps
// the insert a single round trip on either backend (LastInsertId is not
// supported by the pgx driver).
func InsertArticle(ctx context.Context, conn Conn, in model.NewArticle) (model.Article, error) {
	if err := validateNew(in); err != nil {
		return model.Article{}, err
	}

	article := model.Article{
		Title:         in.Title,
		Content:       in.Content,
		DatePublished: model.NormalizeTime(in.DatePublished),
	}

	query, args, err := builder.
		Insert(ArticlesTable).
		Columns("title", "content", "date_published").
		Values(article.Title, article.Content, article.DatePublished).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return model.Article{}, fmt.Errorf("repository: building insert query: %w", err)
	}

	if err := conn.QueryRowxContext(ctx, conn.Rebind(query), args...).Scan(&article.ID); err != nil {
		return model.Article{}, classify("inserting article", err)
	}

	return article, nil
}

// GetArticleByID looks up one article.
//
// COMMA-OK INSTEAD OF AN ERROR:
// "No such row" is a normal answer here, not a failure, so it comes back as
// found == false with a nil error, the same shape as a map lookup:
//
//	article, ok, err := repository.GetArticleByID(ctx, db, 3)
//
// err is non-nil only when the backend itself failed.
func GetArticleByID(ctx context.Context, conn Conn, id int64) (model.Article, bool, error) {
	query, args, err := builder.
		Select(articleColumns...).
		From(ArticlesTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return model.Article{}, false, fmt.Errorf("repository: building get query: %w", err)
	}

	var article model.Article
	if err := sqlx.GetContext(ctx, conn, &article, conn.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Article{}, false, nil
		}
		return model.Article{}, false, classify(fmt.Sprintf("getting article %d", id), err)
	}

	article.DatePublished = article.DatePublished.UTC()
	return article, true, nil
}

// DeleteArticle removes the article with the given id and reports how many
// rows went away. Deleting an id that doesn't exist is not an error; it
// simply returns 0.
func DeleteArticle(ctx context.Context, conn Conn, id int64) (int64, error) {
	query, args, err := builder.
		Delete(ArticlesTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("repository: building delete query: %w", err)
	}

	result, err := conn.ExecContext(ctx, conn.Rebind(query), args...)
	if err != nil {
		return 0, classify(fmt.Sprintf("deleting article %d", id), err)
	}

	return rowsAffected(result)
}

// UpdateArticle merges patch into the stored article and reports how many
// rows matched.
//
// PARTIAL MERGE:
// Only the fields set in the patch end up in the SET clause:
//
//	ArticlePatch{Title: &t}  →  UPDATE blogful_articles SET title = ? WHERE id = ?
//
// Every other column keeps its stored value, and id is never written.
// A missing id returns 0 rows, not an error; an empty patch is a validation
// error because there is nothing to set.
func UpdateArticle(ctx context.Context, conn Conn, id int64, patch model.ArticlePatch) (int64, error) {
	if patch.IsEmpty() {
		return 0, apperror.ValidationFailed("", "update must set at least one of title, content, date_published")
	}
	if err := validatePatch(patch); err != nil {
		return 0, err
	}

	set := make(map[string]any, 3)
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Content != nil {
		set["content"] = *patch.Content
	}
	if patch.DatePublished != nil {
		set["date_published"] = model.NormalizeTime(*patch.DatePublished)
	}

	// SetMap emits columns in sorted key order, so the statement text is
	// stable for a given set of fields.
	query, args, err := builder.
		Update(ArticlesTable).
		SetMap(set).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("repository: building update query: %w", err)
	}

	result, err := conn.ExecContext(ctx, conn.Rebind(query), args...)
	if err != nil {
		return 0, classify(fmt.Sprintf("updating article %d", id), err)
	}

	return rowsAffected(result)
}

func rowsAffected(result sql.Result) (int64, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, apperror.Storage("checking rows affected", err)
	}
	return n, nil
}

// validateNew rejects an insert that is missing a required field.
// The zero value is how "missing" looks once JSON has been decoded into a struct.
func validateNew(in model.NewArticle) error {
	if strings.TrimSpace(in.Title) == "" {
		return apperror.ValidationFailed("title", "title is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return apperror.ValidationFailed("content", "content is required")
	}
	if in.DatePublished.IsZero() {
		return apperror.ValidationFailed("date_published", "date_published is required")
	}
	return nil
}

// validatePatch applies the same "required" rule to fields a patch sets:
// a patch may leave title alone, but it may not blank it out.
func validatePatch(p model.ArticlePatch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return apperror.ValidationFailed("title", "title must not be empty")
	}
	if p.Content != nil && strings.TrimSpace(*p.Content) == "" {
		return apperror.ValidationFailed("content", "content must not be empty")
	}
	if p.DatePublished != nil && p.DatePublished.IsZero() {
		return apperror.ValidationFailed("date_published", "date_published must not be zero")
	}
	return nil
}
