package handlers

import (
	"errors"
	"net/http"
	"strings"

	"server/internal/ratelimit"
	"server/internal/research"
)

type searchResponse struct {
	Query   string             `json:"query"`
	Results []research.Article `json:"results"`
}

// SearchArticles runs a web search for the caller. The request is metered.
func (a *App) SearchArticles(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "missing user context")
		return
	}
	if a.Search == nil {
		a.error(w, http.StatusServiceUnavailable, "search is not configured")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		a.error(w, http.StatusBadRequest, "q required")
		return
	}

	ctx := r.Context()
	if err := a.Limiter.Check(ctx, userID, false); err != nil {
		var qe *ratelimit.QuotaError
		if errors.As(err, &qe) {
			a.quotaExceeded(w, qe)
			return
		}
		a.error(w, http.StatusInternalServerError, "rate limit check failed")
		return
	}

	results, err := a.Search.Search(ctx, query)
	if err != nil {
		a.Logger.Error().Err(err).Str("query", query).Msg("search failed")
		a.error(w, http.StatusBadGateway, "search provider failed")
		return
	}
	if results == nil {
		results = []research.Article{}
	}
	a.json(w, http.StatusOK, searchResponse{Query: query, Results: results})
}
