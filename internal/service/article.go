// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → turns data-layer answers into domain outcomes
//	Repository (Data layer)  → one SQL statement per function
//
// The repository answers "no such row" with ok == false or a zero row count,
// because at that level absence is a normal result. A client asking for
// article 7 over HTTP, though, needs a 404, so this layer converts those
// answers into apperror.NotFound, logs what happened, and records a trace
// span per call.
//
// THE CONNECTION IS INJECTED:
// ArticleService holds whatever repository.Conn the composition root gave it.
// There is no package-level database handle anywhere; tests build a service
// around their own in-memory database.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sakif/blogful/internal/apperror"
	"github.com/sakif/blogful/internal/model"
	"github.com/sakif/blogful/internal/repository"
)

const tracerName = "github.com/sakif/blogful/internal/service"

// ArticleService handles business logic for blog articles.
type ArticleService struct {
	conn   repository.Conn
	logger *slog.Logger
	tracer trace.Tracer
}

// NewArticleService creates a new ArticleService.
//
// The tracer comes from the global otel provider. Until telemetry.Setup
// installs a real one, that provider is a no-op, so tests and tracing-off
// deployments pay nothing for the spans.
func NewArticleService(conn repository.Conn, logger *slog.Logger) *ArticleService {
	return &ArticleService{
		conn:   conn,
		logger: logger,
		tracer: otel.Tracer(tracerName),
	}
}

// List returns every article in insertion order.
func (s *ArticleService) List(ctx context.Context) (articles []model.Article, err error) {
	ctx, span := s.tracer.Start(ctx, "ArticleService.List")
	defer func() { endSpan(span, err) }()

	articles, err = repository.GetAllArticles(ctx, s.conn)
	if err != nil {
		s.logger.Error("failed to list articles", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing articles: %w", err)
	}

	span.SetAttributes(attribute.Int("articles.count", len(articles)))
	return articles, nil
}

// Create stores a new article and returns it with its assigned ID.
// Missing fields come back as apperror.ErrValidation.
func (s *ArticleService) Create(ctx context.Context, in model.NewArticle) (article model.Article, err error) {
	ctx, span := s.tracer.Start(ctx, "ArticleService.Create")
	defer func() { endSpan(span, err) }()

	article, err = repository.InsertArticle(ctx, s.conn, in)
	if err != nil {
		s.logger.Error("failed to create article",
			slog.String("title", in.Title),
			slog.String("error", err.Error()),
		)
		return model.Article{}, fmt.Errorf("creating article: %w", err)
	}

	span.SetAttributes(attribute.Int64("article.id", article.ID))
	s.logger.Info("article created",
		slog.Int64("id", article.ID),
		slog.String("title", article.Title),
	)
	return article, nil
}

// Get retrieves an article by its ID.
// Returns apperror.ErrNotFound if the article doesn't exist.
func (s *ArticleService) Get(ctx context.Context, id int64) (article model.Article, err error) {
	ctx, span := s.tracer.Start(ctx, "ArticleService.Get",
		trace.WithAttributes(attribute.Int64("article.id", id)))
	defer func() { endSpan(span, err) }()

	return s.get(ctx, id)
}

func (s *ArticleService) get(ctx context.Context, id int64) (model.Article, error) {
	article, ok, err := repository.GetArticleByID(ctx, s.conn, id)
	if err != nil {
		s.logger.Error("failed to get article",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return model.Article{}, fmt.Errorf("getting article: %w", err)
	}
	if !ok {
		// Not logged as an error: asking for a missing article is a normal request.
		return model.Article{}, apperror.NotFound("article", id)
	}
	return article, nil
}

// Update applies a partial update and returns the article as it now stands.
//
// STRATEGY: "update then read"
// The UPDATE itself reports how many rows matched; zero means the article
// doesn't exist. On success we read the row back so the caller sees the
// merged result (patched fields plus everything the patch left alone).
func (s *ArticleService) Update(ctx context.Context, id int64, patch model.ArticlePatch) (article model.Article, err error) {
	ctx, span := s.tracer.Start(ctx, "ArticleService.Update",
		trace.WithAttributes(attribute.Int64("article.id", id)))
	defer func() { endSpan(span, err) }()

	n, err := repository.UpdateArticle(ctx, s.conn, id, patch)
	if err != nil {
		s.logger.Error("failed to update article",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return model.Article{}, fmt.Errorf("updating article: %w", err)
	}
	if n == 0 {
		return model.Article{}, apperror.NotFound("article", id)
	}

	article, err = s.get(ctx, id)
	if err != nil {
		return model.Article{}, err
	}

	s.logger.Info("article updated", slog.Int64("id", id))
	return article, nil
}

// Delete removes an article by its ID.
// Returns apperror.ErrNotFound if the article doesn't exist.
func (s *ArticleService) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := s.tracer.Start(ctx, "ArticleService.Delete",
		trace.WithAttributes(attribute.Int64("article.id", id)))
	defer func() { endSpan(span, err) }()

	n, err := repository.DeleteArticle(ctx, s.conn, id)
	if err != nil {
		s.logger.Error("failed to delete article",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting article: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("article", id)
	}

	s.logger.Info("article deleted", slog.Int64("id", id))
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
