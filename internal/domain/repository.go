package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ProductRepository persists cleaned catalog rows produced by the ETL run
type ProductRepository interface {
	ReplaceAll(ctx context.Context, records []ProductRecord) error
	Summary(ctx context.Context, topBrands int) (*CatalogSummary, error)
}

// MetricsRecorder receives inference telemetry
type MetricsRecorder interface {
	RecordPrediction(status string, seconds float64)
	RecordPredictedPrice(price float64)
	RecordCacheHit(hit bool)
	SetActiveModel(lineageID string, featureWidth int)
}
