package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"donortrack/internal/bootstrap"
	"donortrack/internal/eventsvc"
	"donortrack/internal/http/handlers"
	httpapi "donortrack/internal/http/httpapi"
	"donortrack/internal/infra"
	"donortrack/internal/infra/geoip"
	"donortrack/internal/middleware"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("failed to open store")
	}
	defer backend.Close()
	if err := backend.Listen(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to listen for changes")
	}

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		lookup = resolver.CountryCode
		defer resolver.Close()
	}

	svc := eventsvc.New(backend.Store, backend.Notifier, logger)
	app := handlers.NewApp(svc, backend.Hub, logger, cfg.SessionSecret, cfg.SessionTTL)
	app.Backend = backend.Name

	router := httpapi.NewRouter(app, httpapi.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		SessionRateLimit: cfg.RateLimitPerMin,
		DefaultLocale:    cfg.DefaultLocale,
		CountryLookup:    lookup,
	})
	server := infra.NewHTTPServer(cfg, router)

	logger.Info().Str("backend", backend.Name).Str("port", cfg.Port).Msg("API listening")
	if err := server.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("http server failed")
	}
	logger.Info().Msg("server stopped")
}
