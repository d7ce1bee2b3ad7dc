package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/nordprofil/quote-ai/internal/ai"
	"github.com/nordprofil/quote-ai/internal/auth"
	"github.com/nordprofil/quote-ai/internal/config"
	"github.com/nordprofil/quote-ai/internal/db"
	"github.com/nordprofil/quote-ai/internal/excel"
	"github.com/nordprofil/quote-ai/internal/files"
	httphandler "github.com/nordprofil/quote-ai/internal/http"
	"github.com/nordprofil/quote-ai/internal/http/middleware"
	"github.com/nordprofil/quote-ai/internal/logger"
	"github.com/nordprofil/quote-ai/internal/pdf"
	"github.com/nordprofil/quote-ai/internal/predictor"
	"github.com/nordprofil/quote-ai/internal/repository"
	"github.com/nordprofil/quote-ai/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	customerRepo := repository.NewCustomerRepository(database)
	quoteRepo := repository.NewQuoteRepository(database)

	pricePredictor := predictor.New(cfg.Predictor, log)
	if err := pricePredictor.Load(); err != nil {
		log.Fatal().Err(err).Msg("failed to load price model")
	}

	var (
		provider        ai.CompletionProvider
		extractionModel = cfg.AI.ExtractionModel
		quoteModel      = cfg.AI.QuoteModel
	)
	switch {
	case cfg.Environment == "test":
		provider = &ai.FakeProvider{}
	case cfg.AI.Provider == "ollama":
		provider = ai.NewSelfHostedProvider(cfg.AI.OllamaBaseURL, cfg.AI.OllamaModel, log)
		extractionModel = cfg.AI.OllamaModel
		quoteModel = cfg.AI.OllamaModel
	default:
		provider = ai.NewHostedProvider(cfg.AI.OpenAIBaseURL, cfg.AI.OpenAIAPIKey, log)
	}
	gate := ai.NewGate(cfg.AI.MaxConcurrent)
	extractor := ai.NewExtractor(provider, gate, extractionModel, log)
	writer := ai.NewQuoteWriter(provider, gate, quoteModel, log)

	fileStore, err := files.NewService(cfg.Files.UploadDir, cfg.Files.MaxUploadSize, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init file storage")
	}

	customerService := service.NewCustomerService(customerRepo)
	quoteService := service.NewQuoteService(
		quoteRepo,
		customerRepo,
		pricePredictor,
		extractor,
		writer,
		pdf.NewGenerator(),
		excel.NewGenerator(),
		fileStore,
		cfg,
	)

	handler := httphandler.NewHandler(customerService, quoteService, fileStore, log)

	var middlewares []gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		middlewares = append(middlewares, middleware.NewRateLimiter(cfg.RateLimit).Middleware())
	}
	if cfg.Auth.AccessSecret != "" {
		middlewares = append(middlewares, middleware.Auth(auth.NewParser(cfg.Auth.AccessSecret)))
	}

	router := httphandler.NewRouter(handler, cfg.Environment, middlewares...)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Str("ai_provider", cfg.AI.Provider).Msg("starting quote service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
