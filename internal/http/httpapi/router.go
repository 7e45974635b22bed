package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"server/internal/http/handlers"
	"server/internal/middleware"
)

// Options carries the router's cross-cutting dependencies.
type Options struct {
	Logger         zerolog.Logger
	AllowedOrigins []string
	Verifier       middleware.TokenVerifier
	CountryLookup  middleware.CountryLookup
}

// NewRouter wires the middleware stack and all routes. Everything under /api
// requires a verified ID token; the webhook authenticates by signature
// instead.
func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.CORS(opts.AllowedOrigins),
		middleware.Logger(opts.Logger, opts.CountryLookup),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/", app.Index)
	r.Get("/audio/{file}", app.ServeAudio)
	r.Post("/stripe/webhook", app.StripeWebhook)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(opts.Verifier))
		r.Get("/rate-limit", app.RateLimitStatus)
		r.Get("/usage/stats", app.UsageStats)
		r.Get("/search", app.SearchArticles)
		r.Post("/generate-qna", app.GenerateQnA)
		r.Post("/generate-audio", app.GenerateAudio)
		r.Post("/upgrade", app.Upgrade)
	})

	return r
}
