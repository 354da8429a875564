// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/eqscore/eqs/internal/adapters/repository"
)

// ArticleDependencies defines the interface for report queries.
type ArticleDependencies interface {
	TopN(ctx context.Context, n int) ([]Entry, error)
	ArticleScore(ctx context.Context, articleID string) (Entry, error)
}

// ArticlesHandler handles article report requests.
type ArticlesHandler struct {
	deps     ArticleDependencies
	maxLimit int
}

// NewArticlesHandler creates a new articles handler.
func NewArticlesHandler(deps ArticleDependencies, maxLimit int) *ArticlesHandler {
	return &ArticlesHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetReport handles GET /articles?limit=N requests.
func (h *ArticlesHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_report"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limitStr := r.URL.Query().Get("limit")
	n, err := strconv.Atoi(limitStr)
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	entries, err := h.deps.TopN(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleGetArticle handles GET /articles/{article_id} requests.
func (h *ArticlesHandler) HandleGetArticle(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_article"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/articles/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	entry, err := h.deps.ArticleScore(r.Context(), path)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
