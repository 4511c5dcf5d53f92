package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mady2005/multi-modal-price-prediction/internal/domain"
	"github.com/Mady2005/multi-modal-price-prediction/internal/model"
	"github.com/Mady2005/multi-modal-price-prediction/pkg/logger"
)

// ModelRegistry provides the active model and swaps in new ones
type ModelRegistry interface {
	Current() (*model.Model, error)
	Reload(dir string) (*model.Model, error)
}

// clearableCache is implemented by in-process caches. Entries keyed by the
// previous lineage can never hit again once a new model is active.
type clearableCache interface {
	Size() int
	Clear()
}

// PricingServiceConfig holds configuration for the pricing service
type PricingServiceConfig struct {
	CacheTTL    time.Duration
	ArtifactDir string
}

// PricingService turns catalog text into a price using the active model
type PricingService struct {
	models      ModelRegistry
	cache       domain.CacheRepository
	metrics     domain.MetricsRecorder
	cacheTTL    time.Duration
	artifactDir string
	log         zerolog.Logger
}

// NewPricingService creates a pricing service. cache and metrics may be nil.
func NewPricingService(
	models ModelRegistry,
	cache domain.CacheRepository,
	metrics domain.MetricsRecorder,
	config PricingServiceConfig,
) *PricingService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	s := &PricingService{
		models:      models,
		cache:       cache,
		metrics:     metrics,
		cacheTTL:    cacheTTL,
		artifactDir: config.ArtifactDir,
		log:         logger.Component("pricing"),
	}
	if m, err := models.Current(); err == nil {
		metrics.SetActiveModel(m.LineageID, m.Width())
	}
	return s
}

// Predict returns the price for one catalog text.
//
// Every failure, including a panic inside feature assembly or the regressor,
// comes back wrapped in domain.ErrPredictionFailed with its cause attached.
// A feature width mismatch additionally matches domain.ErrSchemaMismatch.
func (s *PricingService) Predict(ctx context.Context, text string) (result *domain.PricePrediction, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", domain.ErrPredictionFailed, r)
			result = nil
		}
		status := "success"
		if err != nil {
			status = "error"
			s.log.Error().Err(err).Int("text_len", len(text)).Msg("prediction failed")
		}
		s.metrics.RecordPrediction(status, time.Since(start).Seconds())
	}()

	m, err := s.models.Current()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPredictionFailed, err)
	}

	key := cacheKey(m.LineageID, text)
	logPrice, hit := s.lookup(ctx, key)
	if !hit {
		logs, err := m.PredictLog(ctx, []string{text})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrPredictionFailed, err)
		}
		logPrice = logs[0]
		if math.IsNaN(logPrice) || math.IsInf(logPrice, 0) {
			return nil, fmt.Errorf("%w: regressor returned %v", domain.ErrPredictionFailed, logPrice)
		}
		s.store(ctx, key, logPrice)
	}

	price := model.RoundPrice(model.InverseLogTransform(logPrice), model.PriceDecimals)
	s.metrics.RecordPredictedPrice(price)

	return &domain.PricePrediction{
		PredictedPrice: price,
		Currency:       domain.Currency,
		Status:         "success",
		ModelVersion:   m.LineageID,
	}, nil
}

// ReloadModel loads the artifacts from the configured directory and activates
// them. The previous model stays active if loading fails.
func (s *PricingService) ReloadModel(ctx context.Context) (string, error) {
	m, err := s.models.Reload(s.artifactDir)
	if err != nil {
		return "", err
	}
	s.metrics.SetActiveModel(m.LineageID, m.Width())

	evicted := 0
	if c, ok := s.cache.(clearableCache); ok {
		evicted = c.Size()
		c.Clear()
	}
	s.log.Info().
		Str("lineage", m.LineageID).
		Str("dir", s.artifactDir).
		Int("evicted", evicted).
		Msg("model reloaded")
	return m.LineageID, nil
}

// ActiveModel returns the lineage id of the active model
func (s *PricingService) ActiveModel() (string, error) {
	m, err := s.models.Current()
	if err != nil {
		return "", err
	}
	return m.LineageID, nil
}

// lookup never fails a prediction: cache errors count as misses
func (s *PricingService) lookup(ctx context.Context, key string) (float64, bool) {
	if s.cache == nil {
		return 0, false
	}
	v, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.log.Warn().Err(err).Msg("cache read failed")
		}
		s.metrics.RecordCacheHit(false)
		return 0, false
	}
	f, ok := v.(float64)
	if !ok {
		s.metrics.RecordCacheHit(false)
		return 0, false
	}
	s.metrics.RecordCacheHit(true)
	return f, true
}

func (s *PricingService) store(ctx context.Context, key string, logPrice float64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, logPrice, s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Msg("cache write failed")
	}
}

// cacheKey scopes cached log prices to one model lineage.
// Format: "prediction:{lineage}:{sha256(text)}"
func cacheKey(lineageID, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("prediction:%s:%s", lineageID, hex.EncodeToString(sum[:]))
}

type noopMetrics struct{}

func (noopMetrics) RecordPrediction(string, float64) {}
func (noopMetrics) RecordPredictedPrice(float64)     {}
func (noopMetrics) RecordCacheHit(bool)              {}
func (noopMetrics) SetActiveModel(string, int)       {}
