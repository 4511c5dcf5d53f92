// Package model bundles the artifacts of one training lineage: the
// vocabulary, the fitted vectorizer and the fitted regressor. A Model is
// immutable once built and may be shared by any number of goroutines.
package model

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Mady2005/multi-modal-price-prediction/internal/catalog"
	"github.com/Mady2005/multi-modal-price-prediction/internal/domain"
	"github.com/Mady2005/multi-modal-price-prediction/internal/infrastructure/gbdt"
	"github.com/Mady2005/multi-modal-price-prediction/internal/infrastructure/tfidf"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewLineageID returns a fresh, time-ordered identifier for a training run
func NewLineageID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}

// Model is one trained artifact set
type Model struct {
	LineageID  string
	CreatedAt  time.Time
	Vocabulary *catalog.Vocabulary
	Vectorizer *tfidf.Vectorizer
	Regressor  *gbdt.Model

	featurizer *Featurizer
}

// New assembles a model and verifies that the regressor was trained on rows
// of exactly the width the vocabulary and vectorizer produce.
func New(lineageID string, createdAt time.Time, vocab *catalog.Vocabulary, vectorizer *tfidf.Vectorizer, regressor *gbdt.Model) (*Model, error) {
	if vocab == nil || vectorizer == nil || regressor == nil {
		return nil, fmt.Errorf("model %s: vocabulary, vectorizer and regressor are all required", lineageID)
	}

	featurizer := NewFeaturizer(vocab, vectorizer)
	if featurizer.Width() != regressor.NumFeatures {
		return nil, fmt.Errorf("%w: model %s produces %d features but regressor expects %d",
			domain.ErrSchemaMismatch, lineageID, featurizer.Width(), regressor.NumFeatures)
	}

	return &Model{
		LineageID:  lineageID,
		CreatedAt:  createdAt,
		Vocabulary: vocab,
		Vectorizer: vectorizer,
		Regressor:  regressor,
		featurizer: featurizer,
	}, nil
}

// Featurizer returns the row builder matching this model
func (m *Model) Featurizer() *Featurizer {
	return m.featurizer
}

// Width is the feature row width
func (m *Model) Width() int {
	return m.featurizer.Width()
}

// PredictLog featurizes the texts and returns the regressor output in
// log-price space, one value per text
func (m *Model) PredictLog(ctx context.Context, texts []string) ([]float64, error) {
	rows, err := m.featurizer.Rows(ctx, texts)
	if err != nil {
		return nil, err
	}
	return m.Regressor.PredictBatch(rows)
}
