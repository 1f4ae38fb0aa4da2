package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopsy/internal/cache"
	"shopsy/internal/config"
	"shopsy/internal/db"
	"shopsy/internal/logger"
	"shopsy/internal/router"
	"shopsy/internal/services"
)

const devJWTSecret = "shopsy-dev-secret-change-me"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		bootLog := logger.InitLogger("info", false)
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}

	log := logger.InitLogger(cfg.LogLevel, cfg.LogPretty)
	log.Info().Msg("Starting shopsy")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.InitDB(ctx, cfg.DBUrl, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer database.Close()

	if err := db.RunMigrations(ctx, database, log); err != nil {
		log.Fatal().Err(err).Msg("Migrations failed")
	}

	if cfg.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is not set, using the development secret")
		cfg.JWTSecret = devJWTSecret
	}

	userService := services.NewUserService(database, log)
	if created, err := userService.EnsureAdmin(ctx, cfg.Admin); err != nil {
		log.Fatal().Err(err).Msg("Bootstrap admin failed")
	} else if created {
		log.Info().Str("email", cfg.Admin.Email).Msg("Bootstrap admin seeded")
	}

	statsOpts := []services.StatsOption{
		services.WithSnapshot(cfg.Stats.Snapshot),
		services.WithMaxRetries(cfg.Stats.MaxRetries),
	}
	if cfg.Redis.Addr != "" {
		rdb := cache.NewRedis(ctx, cfg.Redis, log)
		defer rdb.Close()
		statsOpts = append(statsOpts, services.WithStatsCache(cache.NewStatsCache(rdb, cfg.Stats.CacheTTL)))
	}

	handler := router.SetupRouter(router.Services{
		DB:       database,
		Users:    userService,
		Auth:     services.NewAuthService(cfg.JWTSecret, cfg.JWTTTL, log),
		Stats:    services.NewStatsService(database, log, statsOpts...),
		Products: services.NewProductService(database, log),
	}, router.Options{
		RequestTimeout: cfg.RequestTimeout,
		RateLimit:      cfg.RateLimit,
		RateBurst:      cfg.RateBurst,
		CORSOrigins:    cfg.CORSOrigins,
	}, log)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Server stopped")
}
