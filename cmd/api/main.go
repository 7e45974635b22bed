package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"server/internal/billing"
	"server/internal/http/handlers"
	httpapi "server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/infra/firebase"
	"server/internal/infra/geoip"
	"server/internal/middleware"
	"server/internal/ratelimit"
	"server/internal/research"
	"server/internal/storage"
	"server/internal/tts"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	rdb, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unreachable, rate limiting fails open")
	}
	defer func() {
		if rdb != nil {
			_ = rdb.Close()
		}
	}()

	limiter := ratelimit.New(rdb, ratelimit.Config{
		Tiers: map[string]int{
			ratelimit.TierFree:    cfg.QuotaFree,
			ratelimit.TierBasic:   cfg.QuotaBasic,
			ratelimit.TierPremium: cfg.QuotaPremium,
		},
		DefaultTier: ratelimit.TierFree,
	}, logger)

	verifier, err := firebase.NewVerifier(ctx, cfg.FirebaseProjectID)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize token verifier")
	}

	var countryLookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable")
	} else if resolver != nil {
		defer func() { _ = resolver.Close() }()
		countryLookup = resolver.CountryCode
	}

	audioStore, err := storage.NewAudioStore(cfg.AudioDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize audio storage")
	}

	summarizer, err := research.NewGeminiSummarizer(research.GeminiOptions{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize summarizer")
	}
	qna, err := research.NewOpenAIClient(research.OpenAIOptions{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize qna provider")
	}

	var searcher *research.Searcher
	if cfg.GoogleAPIKey != "" && cfg.SearchEngineID != "" {
		searcher, err = research.NewSearcher(ctx, cfg.GoogleAPIKey, cfg.SearchEngineID)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize article search")
		}
	} else {
		logger.Warn().Msg("search credentials missing, recommendations disabled")
	}

	var narrator *tts.Narrator
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("aws credentials missing, narration disabled")
	} else {
		narrator = tts.NewNarrator(polly.NewFromConfig(awsCfg), audioStore, cfg.PollyVoice)
	}

	billingSvc := billing.NewService(billing.Options{
		APIKey:        cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		Prices: map[string]string{
			ratelimit.TierBasic:   cfg.StripePriceBasic,
			ratelimit.TierPremium: cfg.StripePricePremium,
		},
		Tiers:  limiter,
		Logger: logger,
	})

	app := &handlers.App{
		Logger:   logger,
		Limiter:  limiter,
		Research: newPipeline(summarizer, qna, searcher, logger),
		Billing:  billingSvc,
		Audio:    audioStore,
	}
	if searcher != nil {
		app.Search = searcher
	}
	if narrator != nil {
		app.Narrator = narrator
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
		Verifier:       verifier,
		CountryLookup:  countryLookup,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func newPipeline(summarizer research.Summarizer, qna research.QnAProvider, searcher *research.Searcher, logger zerolog.Logger) *research.Service {
	var search research.ArticleSearcher
	if searcher != nil {
		search = searcher
	}
	return research.NewService(research.NewFetcher(nil), research.NewTitleExtractor(nil), summarizer, qna, search, logger)
}
