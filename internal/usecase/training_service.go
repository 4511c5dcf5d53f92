package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/Mady2005/multi-modal-price-prediction/internal/catalog"
	"github.com/Mady2005/multi-modal-price-prediction/internal/domain"
	"github.com/Mady2005/multi-modal-price-prediction/internal/infrastructure/gbdt"
	"github.com/Mady2005/multi-modal-price-prediction/internal/infrastructure/tfidf"
	"github.com/Mady2005/multi-modal-price-prediction/internal/model"
	"github.com/Mady2005/multi-modal-price-prediction/pkg/logger"
)

// TrainingServiceConfig holds the fixed configuration of a training run
type TrainingServiceConfig struct {
	Vocabulary *catalog.Vocabulary
	Vectorizer tfidf.Config
	Regressor  gbdt.Config
}

// TrainingReport summarises one training run
type TrainingReport struct {
	LineageID            string        `json:"lineageId"`
	TotalRows            int           `json:"totalRows"`
	UsedRows             int           `json:"usedRows"`
	DroppedMissingPrice  int           `json:"droppedMissingPrice"`
	DroppedNegativePrice int           `json:"droppedNegativePrice"`
	FeatureWidth         int           `json:"featureWidth"`
	VocabularyTerms      int           `json:"vocabularyTerms"`
	TrainRMSE            float64       `json:"trainRmseLog"`
	Duration             time.Duration `json:"duration"`
}

// TrainingService fits a new model lineage from labeled rows
type TrainingService struct {
	config TrainingServiceConfig
}

// NewTrainingService creates a training service. A nil vocabulary uses the
// compiled-in default.
func NewTrainingService(config TrainingServiceConfig) *TrainingService {
	if config.Vocabulary == nil {
		config.Vocabulary = catalog.DefaultVocabulary()
	}
	return &TrainingService{config: config}
}

// Train fits the vectorizer and the regressor on rows and returns them as a
// new model. Rows without a price, or with a negative one, are skipped.
// Every call produces a new lineage; models from earlier runs are not
// compatible with its vectorizer.
func (s *TrainingService) Train(ctx context.Context, rows []domain.TrainingRow) (*model.Model, *TrainingReport, error) {
	start := time.Now()
	log := logger.Component("training")
	report := &TrainingReport{TotalRows: len(rows)}

	texts := make([]string, 0, len(rows))
	targets := make([]float64, 0, len(rows))
	for _, row := range rows {
		switch {
		case row.Price == nil:
			report.DroppedMissingPrice++
		case *row.Price < 0:
			report.DroppedNegativePrice++
		default:
			texts = append(texts, row.Text)
			targets = append(targets, model.LogTransform(*row.Price))
		}
	}
	report.UsedRows = len(texts)
	if len(texts) == 0 {
		return nil, nil, domain.ErrEmptyDataset
	}

	log.Info().
		Int("rows", report.UsedRows).
		Int("dropped_missing_price", report.DroppedMissingPrice).
		Int("dropped_negative_price", report.DroppedNegativePrice).
		Msg("fitting vectorizer")

	vectorizer, err := tfidf.Fit(texts, s.config.Vectorizer)
	if err != nil {
		return nil, nil, fmt.Errorf("fit vectorizer: %w", err)
	}

	featurizer := model.NewFeaturizer(s.config.Vocabulary, vectorizer)
	X, err := featurizer.Rows(ctx, texts)
	if err != nil {
		return nil, nil, err
	}

	log.Info().
		Int("feature_width", featurizer.Width()).
		Int("trees", s.config.Regressor.NumTrees).
		Msg("training regressor")

	regressor, err := gbdt.Fit(ctx, X, targets, s.config.Regressor)
	if err != nil {
		return nil, nil, fmt.Errorf("fit regressor: %w", err)
	}

	m, err := model.New(model.NewLineageID(), time.Now().UTC(), s.config.Vocabulary.Clone(), vectorizer, regressor)
	if err != nil {
		return nil, nil, err
	}

	rmse, err := regressor.RMSE(X, targets)
	if err != nil {
		return nil, nil, err
	}

	report.LineageID = m.LineageID
	report.FeatureWidth = m.Width()
	report.VocabularyTerms = vectorizer.Width()
	report.TrainRMSE = rmse
	report.Duration = time.Since(start)

	log.Info().
		Str("lineage", m.LineageID).
		Float64("train_rmse_log", rmse).
		Dur("duration", report.Duration).
		Msg("training complete")

	return m, report, nil
}
