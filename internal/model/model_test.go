package model

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mady2005/multi-modal-price-prediction/internal/catalog"
	"github.com/Mady2005/multi-modal-price-prediction/internal/domain"
	"github.com/Mady2005/multi-modal-price-prediction/internal/infrastructure/gbdt"
	"github.com/Mady2005/multi-modal-price-prediction/internal/infrastructure/tfidf"
)

var trainingTexts = []string{
	"Nike Pack of 12 Running Shoes",
	"Sony wireless headphones",
	"Goya black beans, Count 24",
	"Item Name: Zentra Widget",
}

var trainingPrices = []float64{10, 20, 35, 4.5}

func trainTestModel(t *testing.T) *Model {
	t.Helper()
	ctx := context.Background()

	vocab := catalog.DefaultVocabulary()
	vectorizer, err := tfidf.Fit(trainingTexts, tfidf.DefaultConfig())
	require.NoError(t, err)

	rows, err := NewFeaturizer(vocab, vectorizer).Rows(ctx, trainingTexts)
	require.NoError(t, err)

	y := make([]float64, len(trainingPrices))
	for i, p := range trainingPrices {
		y[i] = LogTransform(p)
	}

	cfg := gbdt.DefaultConfig()
	cfg.MinDataInLeaf = 1
	regressor, err := gbdt.Fit(ctx, rows, y, cfg)
	require.NoError(t, err)

	m, err := New(NewLineageID(), time.Now(), vocab, vectorizer, regressor)
	require.NoError(t, err)
	return m
}

func TestModel_ReproducesTrainingPrices(t *testing.T) {
	m := trainTestModel(t)

	logs, err := m.PredictLog(context.Background(), trainingTexts)
	require.NoError(t, err)
	require.Len(t, logs, len(trainingTexts))

	for i, want := range trainingPrices {
		assert.InDelta(t, want, InverseLogTransform(logs[i]), 0.01, "text %q", trainingTexts[i])
	}
}

func TestModel_UnseenTextKeepsWidth(t *testing.T) {
	m := trainTestModel(t)

	rows, err := m.Featurizer().Rows(context.Background(), []string{"", "completely novel gizmo ✓"})
	require.NoError(t, err)
	for _, row := range rows {
		assert.Len(t, row, m.Width())
	}

	logs, err := m.PredictLog(context.Background(), []string{"completely novel gizmo"})
	require.NoError(t, err)
	assert.False(t, math.IsNaN(logs[0]))
}

func TestNew_RejectsWidthMismatch(t *testing.T) {
	m := trainTestModel(t)

	smaller := &catalog.Vocabulary{Brands: []string{"nike"}}
	_, err := New("other", time.Now(), smaller, m.Vectorizer, m.Regressor)
	assert.ErrorIs(t, err, domain.ErrSchemaMismatch)

	_, err = New("other", time.Now(), nil, m.Vectorizer, m.Regressor)
	assert.Error(t, err)
}

func TestFeaturizer_ColumnLayout(t *testing.T) {
	m := trainTestModel(t)
	f := m.Featurizer()

	names := f.ColumnNames()
	require.Len(t, names, f.Width())
	assert.Equal(t, "is_bulk", names[0])
	assert.Equal(t, "item_quantity", names[1])
	assert.Equal(t, "brand_"+m.Vocabulary.Brands[0], names[2])
	assert.Equal(t, "tfidf:"+m.Vectorizer.Terms[0], names[f.Assembler().Width()])

	rows, err := f.Rows(context.Background(), []string{"Nike Pack of 12 Running Shoes"})
	require.NoError(t, err)
	row := rows[0]
	assert.Equal(t, 1.0, row[0])
	assert.Equal(t, 12.0, row[1])

	vec := m.Vectorizer.Transform("Nike Pack of 12 Running Shoes")
	for k, idx := range vec.Indices {
		assert.Equal(t, vec.Values[k], row[f.Assembler().Width()+idx])
	}
}

func TestNewLineageID_IsUniqueAndOrdered(t *testing.T) {
	a := NewLineageID()
	b := NewLineageID()

	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b)
}

func TestLogTransformRoundTrip(t *testing.T) {
	for _, p := range []float64{0, 0.01, 1, 9.99, 123.45, 1e6} {
		assert.InDelta(t, p, InverseLogTransform(LogTransform(p)), 1e-9*math.Max(1, p))
	}
}

func TestInverseLogTransform_ClampsNegative(t *testing.T) {
	assert.Equal(t, 0.0, InverseLogTransform(-3))
}

func TestRoundPrice(t *testing.T) {
	assert.Equal(t, 10.0, RoundPrice(9.999, 2))
	assert.Equal(t, 12.35, RoundPrice(12.346, 2))
	assert.Equal(t, 0.0, RoundPrice(0.001, 2))
}
