// Package handlers implements the HTTP endpoints of the research assistant.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"server/internal/middleware"
	"server/internal/ratelimit"
	"server/internal/research"
)

// ResearchService runs the document pipeline.
type ResearchService interface {
	GenerateQnA(ctx context.Context, url string) (*research.Result, error)
	Summarize(ctx context.Context, url string) (title, summary string, err error)
}

// SpeechNarrator synthesizes narration and returns the stored file name.
type SpeechNarrator interface {
	Narrate(ctx context.Context, text, acceptLanguage string) (string, error)
}

// BillingService upgrades tiers and processes billing webhooks.
type BillingService interface {
	Upgrade(ctx context.Context, userID, email, tier string) error
	HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error
}

// ArticleFinder serves the standalone search endpoint.
type ArticleFinder interface {
	Search(ctx context.Context, query string) ([]research.Article, error)
}

// AudioResolver maps a stored audio file name to a servable path.
type AudioResolver interface {
	Path(name string) (string, error)
}

// App holds the handler dependencies. Optional collaborators may be nil, in
// which case the corresponding endpoint reports service unavailable.
type App struct {
	Logger   zerolog.Logger
	Limiter  *ratelimit.Limiter
	Research ResearchService
	Narrator SpeechNarrator
	Billing  BillingService
	Search   ArticleFinder
	Audio    AudioResolver
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"error": message})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// quotaExceeded writes the 429 body for a rejected request.
func (a *App) quotaExceeded(w http.ResponseWriter, qe *ratelimit.QuotaError) {
	a.json(w, http.StatusTooManyRequests, map[string]any{
		"error": "Rate limit exceeded",
		"tier":  qe.Tier,
		"limit": qe.Limit,
		"reset": qe.Reset,
	})
}
