package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"photostudio/internal/editor"
	"photostudio/internal/enhance"
	"photostudio/internal/events"
	"photostudio/internal/http/handlers"
	httpapi "photostudio/internal/http/httpapi"
	"photostudio/internal/imaging"
	"photostudio/internal/infra"
	"photostudio/internal/infra/geoip"
	"photostudio/internal/kv"
	"photostudio/internal/middleware"
	"photostudio/internal/session"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	backing, closeStore, err := newBackingStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open gallery store")
	}
	defer closeStore()

	engine := imaging.NewEngine(nil)
	store := session.NewStore(backing, engine, logger, nil)
	store.Bootstrap(ctx)
	logger.Info().Int("sessions", store.Len()).Str("driver", cfg.StoreDriver).Msg("gallery loaded")

	gemini, err := enhance.NewGeminiService(enhance.GeminiOptions{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.GeminiModel,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build editing service")
	}
	orchestrator := enhance.NewOrchestrator(gemini, logger)

	hub := events.NewHub(logger, nil)
	go hub.Run()

	autosave := session.NewDebouncer(cfg.AutosaveDelay, nil)
	ed := editor.New(engine, store, orchestrator, autosave, logger, hub.Publish)

	var countryLookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable, country annotation disabled")
	} else if resolver != nil {
		countryLookup = resolver.CountryCode
	}

	app := handlers.NewApp(ed, store, hub, logger)
	router := httpapi.NewRouter(app, cfg.AllowedOrigins, cfg.RateLimitPerMin, countryLookup)

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
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

func newBackingStore(ctx context.Context, cfg *infra.Config) (kv.Store, func(), error) {
	quota := int64(cfg.StoreQuotaBytes)
	switch cfg.StoreDriver {
	case infra.StoreDriverPostgres:
		store, err := kv.NewPostgresStore(ctx, cfg.DatabaseURL, quota)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case infra.StoreDriverSQLite:
		store, err := kv.NewSQLiteStore(filepath.Join(cfg.StorePath, "gallery.db"), quota)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		store, err := kv.NewFileStore(cfg.StorePath, quota)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}
