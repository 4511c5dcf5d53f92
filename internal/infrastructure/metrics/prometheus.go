package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.MetricsRecorder using Prometheus
type Recorder struct {
	predictions    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	predictedPrice prometheus.Histogram
	cacheLookups   *prometheus.CounterVec
	activeModel    *prometheus.GaugeVec
}

// New registers the pricing metrics on reg. Pass prometheus.DefaultRegisterer
// to expose them on the default /metrics handler.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		predictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricing_predictions_total",
				Help: "Total number of price predictions by outcome",
			},
			[]string{"status"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pricing_prediction_duration_seconds",
				Help:    "Duration of price predictions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		predictedPrice: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pricing_predicted_price_usd",
				Help:    "Distribution of predicted prices",
				Buckets: prometheus.ExponentialBuckets(1, 2, 14),
			},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricing_cache_lookups_total",
				Help: "Prediction cache lookups by result",
			},
			[]string{"result"},
		),
		activeModel: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pricing_active_model_feature_width",
				Help: "Feature width of the active model, labelled by lineage",
			},
			[]string{"lineage"},
		),
	}
}

// RecordPrediction counts one prediction and observes its latency
func (r *Recorder) RecordPrediction(status string, seconds float64) {
	r.predictions.WithLabelValues(status).Inc()
	r.latency.WithLabelValues(status).Observe(seconds)
}

// RecordPredictedPrice observes a successful prediction's price
func (r *Recorder) RecordPredictedPrice(price float64) {
	r.predictedPrice.Observe(price)
}

// RecordCacheHit counts a cache lookup
func (r *Recorder) RecordCacheHit(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// SetActiveModel replaces the active-model gauge so only the current lineage
// is reported
func (r *Recorder) SetActiveModel(lineageID string, featureWidth int) {
	r.activeModel.Reset()
	r.activeModel.WithLabelValues(lineageID).Set(float64(featureWidth))
}
