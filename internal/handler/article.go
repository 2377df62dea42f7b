package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/blogful/internal/apperror"
	"github.com/sakif/blogful/internal/model"
)

// ArticleService is what ArticleHandler needs from the business layer.
// *service.ArticleService satisfies it; tests can pass a stub.
type ArticleService interface {
	List(ctx context.Context) ([]model.Article, error)
	Create(ctx context.Context, in model.NewArticle) (model.Article, error)
	Get(ctx context.Context, id int64) (model.Article, error)
	Update(ctx context.Context, id int64, patch model.ArticlePatch) (model.Article, error)
	Delete(ctx context.Context, id int64) error
}

// ArticleHandler exposes the article CRUD operations as a JSON API.
type ArticleHandler struct {
	articles ArticleService
	logger   *slog.Logger
}

// NewArticleHandler creates a new ArticleHandler.
func NewArticleHandler(articles ArticleService, logger *slog.Logger) *ArticleHandler {
	return &ArticleHandler{articles: articles, logger: logger}
}

// HandleList returns all articles.
//
// HTTP: GET /api/articles
func (h *ArticleHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	articles, err := h.articles.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

// HandleCreate stores a new article.
//
// HTTP: POST /api/articles
// REQUEST BODY: {"title": "...", "content": "...", "date_published": "2020-01-01T00:00:00Z"}
//
// Responds 201 Created with the stored article and a Location header
// pointing at it.
func (h *ArticleHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.NewArticle
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.logger.Warn("invalid article JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("", "invalid JSON body"))
		return
	}

	article, err := h.articles.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Location", path.Join(r.URL.Path, strconv.FormatInt(article.ID, 10)))
	writeJSON(w, http.StatusCreated, article)
}

// HandleGet returns one article.
//
// HTTP: GET /api/articles/{id}
func (h *ArticleHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := articleID(w, r)
	if !ok {
		return
	}

	article, err := h.articles.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

// HandleUpdate applies a partial update.
//
// HTTP: PATCH /api/articles/{id}
// REQUEST BODY: any subset of {"title", "content", "date_published"}
//
// Fields left out of the body keep their stored values. The response is
// the article after the merge.
func (h *ArticleHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := articleID(w, r)
	if !ok {
		return
	}

	var patch model.ArticlePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.logger.Warn("invalid article patch JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("", "invalid JSON body"))
		return
	}

	article, err := h.articles.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

// HandleDelete removes an article.
//
// HTTP: DELETE /api/articles/{id}
// Responds 204 No Content on success.
func (h *ArticleHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := articleID(w, r)
	if !ok {
		return
	}

	if err := h.articles.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// articleID parses the {id} URL parameter. On failure it writes the 400
// response itself and returns ok == false.
func articleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, apperror.ValidationFailed("id", "article id must be a positive integer"))
		return 0, false
	}
	return id, true
}
