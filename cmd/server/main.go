package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/Mady2005/multi-modal-price-prediction/config"
	httpDelivery "github.com/Mady2005/multi-modal-price-prediction/internal/delivery/http"
	"github.com/Mady2005/multi-modal-price-prediction/internal/domain"
	"github.com/Mady2005/multi-modal-price-prediction/internal/infrastructure/cache"
	"github.com/Mady2005/multi-modal-price-prediction/internal/infrastructure/metrics"
	"github.com/Mady2005/multi-modal-price-prediction/internal/model"
	"github.com/Mady2005/multi-modal-price-prediction/internal/usecase"
	"github.com/Mady2005/multi-modal-price-prediction/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if _, err := logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		return err
	}

	log.Info().
		Str("version", httpDelivery.ServiceVersion).
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("cache", cfg.Cache.Type).
		Msg("starting price prediction server")

	// Artifacts must load before we accept traffic
	m, err := model.Load(cfg.Model.ArtifactDir)
	if err != nil {
		return fmt.Errorf("failed to load model from %s: %w", cfg.Model.ArtifactDir, err)
	}
	log.Info().
		Str("lineage", m.LineageID).
		Int("feature_width", m.Width()).
		Str("vocabulary", m.Vocabulary.Version).
		Msg("model loaded")

	ctx := context.Background()
	predictionCache, closeCache, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer closeCache()

	pricing := usecase.NewPricingService(
		model.NewRegistry(m),
		predictionCache,
		metrics.New(prometheus.DefaultRegisterer),
		usecase.PricingServiceConfig{
			CacheTTL:    cfg.Cache.TTL,
			ArtifactDir: cfg.Model.ArtifactDir,
		},
	)

	router := httpDelivery.SetupRouter(cfg, httpDelivery.NewHandler(pricing))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	log.Info().Msg("server stopped gracefully")
	return nil
}

func newCache(ctx context.Context, cfg config.CacheConfig) (domain.CacheRepository, func(), error) {
	switch cfg.Type {
	case "redis":
		c, err := cache.NewRedisCache(ctx, cfg.RedisURL, cache.DefaultRedisPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Info().Dur("ttl", cfg.TTL).Msg("using redis prediction cache")
		return c, func() { _ = c.Close() }, nil
	default:
		c := cache.NewMemoryCache(time.Minute)
		log.Info().Dur("ttl", cfg.TTL).Msg("using in-memory prediction cache")
		return c, func() { _ = c.Close() }, nil
	}
}
