package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/abduss/fragstore/internal/auth"
	"github.com/abduss/fragstore/internal/config"
	"github.com/abduss/fragstore/internal/fragment"
	"github.com/abduss/fragstore/internal/logger"
	"github.com/abduss/fragstore/internal/server"
	"github.com/abduss/fragstore/internal/storage"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	log := logger.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer dbPool.Close()

	if err := storage.EnsureSchema(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("ensure schema")
	}

	deps := server.Dependencies{Config: cfg, DB: dbPool}

	var store fragment.Store
	switch cfg.Store.Backend {
	case "minio":
		minioClient, err := storage.NewMinIOClient(cfg.MinIO)
		if err != nil {
			log.Fatal().Err(err).Msg("connect minio")
		}
		if err := storage.EnsureBucket(ctx, minioClient, cfg.MinIO.Bucket, cfg.MinIO.Region); err != nil {
			log.Fatal().Err(err).Msg("ensure bucket")
		}
		deps.ObjectStore = minioClient
		store = fragment.NewMinIOStore(minioClient, cfg.MinIO.Bucket)
	default:
		store = fragment.NewPostgresStore(dbPool)
	}

	authRepo := auth.NewRepository(dbPool)
	deps.AuthService = auth.NewService(authRepo, cfg.Auth)
	deps.FragmentService = fragment.NewService(store, cfg.Store.MaxFragmentBytes)

	router := server.NewRouter(deps)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("address", cfg.Server.Address()).Str("backend", cfg.Store.Backend).Msg("fragment store API listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info().Msg("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
