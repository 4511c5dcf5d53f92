// Package gbdt implements a histogram-based gradient-boosted decision tree
// regressor for squared error. Trees are grown leaf-wise. Training is fully
// deterministic for a fixed Config (including Seed) and identical input.
package gbdt

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/Mady2005/multi-modal-price-prediction/internal/domain"
)

// Model is a fitted ensemble. It is immutable after Fit and safe for
// concurrent Predict calls.
type Model struct {
	NumFeatures int
	InitScore   float64
	Trees       []Tree
	Config      Config
}

// Fit trains an ensemble on rows X against targets y
func Fit(ctx context.Context, X [][]float64, y []float64, cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(X) == 0 {
		return nil, domain.ErrEmptyDataset
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("row count %d does not match target count %d", len(X), len(y))
	}

	numFeatures := len(X[0])
	for i, row := range X {
		if len(row) != numFeatures {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", domain.ErrSchemaMismatch, i, len(row), numFeatures)
		}
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("target %d is not finite", i)
		}
	}

	cols, err := binColumns(ctx, X, numFeatures, cfg.MaxBin)
	if err != nil {
		return nil, err
	}

	var init float64
	for _, v := range y {
		init += v
	}
	init /= float64(len(y))

	m := &Model{
		NumFeatures: numFeatures,
		InitScore:   init,
		Trees:       make([]Tree, 0, cfg.NumTrees),
		Config:      cfg,
	}

	n := len(X)
	pred := make([]float64, n)
	for i := range pred {
		pred[i] = init
	}
	grad := make([]float64, n)

	rng := rand.New(rand.NewSource(cfg.Seed))
	allRows := make([]int32, n)
	for i := range allRows {
		allRows[i] = int32(i)
	}
	bag := allRows
	allFeatures := make([]int, numFeatures)
	for i := range allFeatures {
		allFeatures[i] = i
	}

	for iter := 0; iter < cfg.NumTrees; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for i := range grad {
			grad[i] = pred[i] - y[i]
		}

		if cfg.BaggingFreq > 0 && cfg.BaggingFraction < 1 && iter%cfg.BaggingFreq == 0 {
			bag = sampleRows(rng, n, cfg.BaggingFraction)
		}

		builder := &treeBuilder{
			cfg:      cfg,
			cols:     cols,
			grad:     grad,
			features: sampleFeatures(rng, allFeatures, cfg.FeatureFraction),
		}
		tree, err := builder.build(ctx, bag)
		if err != nil {
			return nil, err
		}
		m.Trees = append(m.Trees, tree)

		for r := range pred {
			pred[r] += tree.predictBinned(cols, r)
		}

		if (iter+1)%100 == 0 {
			log.Debug().
				Str("component", "gbdt").
				Int("iteration", iter+1).
				Float64("rmse", rmse(pred, y)).
				Msg("boosting progress")
		}
	}

	return m, nil
}

func sampleRows(rng *rand.Rand, n int, fraction float64) []int32 {
	rows := make([]int32, 0, int(float64(n)*fraction)+1)
	for i := 0; i < n; i++ {
		if rng.Float64() < fraction {
			rows = append(rows, int32(i))
		}
	}
	if len(rows) == 0 {
		rows = append(rows, int32(rng.Intn(n)))
	}
	return rows
}

func sampleFeatures(rng *rand.Rand, all []int, fraction float64) []int {
	if fraction >= 1 {
		return all
	}
	k := int(math.Round(float64(len(all)) * fraction))
	if k < 1 {
		k = 1
	}
	perm := rng.Perm(len(all))[:k]
	sort.Ints(perm)
	return perm
}

func rmse(pred, y []float64) float64 {
	var s float64
	for i := range pred {
		d := pred[i] - y[i]
		s += d * d
	}
	return math.Sqrt(s / float64(len(pred)))
}

// Predict returns the raw ensemble output for one row. A row whose width
// differs from the training width is a schema mismatch, never a silent
// misprediction.
func (m *Model) Predict(row []float64) (float64, error) {
	if len(row) != m.NumFeatures {
		return 0, fmt.Errorf("%w: regressor expects %d features, got %d", domain.ErrSchemaMismatch, m.NumFeatures, len(row))
	}
	out := m.InitScore
	for i := range m.Trees {
		out += m.Trees[i].predict(row)
	}
	return out, nil
}

// PredictBatch predicts every row in order
func (m *Model) PredictBatch(rows [][]float64) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		p, err := m.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

// RMSE reports the root mean squared error of the model on the given rows
func (m *Model) RMSE(X [][]float64, y []float64) (float64, error) {
	pred, err := m.PredictBatch(X)
	if err != nil {
		return 0, err
	}
	if len(pred) == 0 {
		return 0, nil
	}
	return rmse(pred, y), nil
}

// MarshalBinary encodes the model with gob
func (m *Model) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(m); err != nil {
		return nil, fmt.Errorf("encode regressor: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a model written by MarshalBinary and checks that
// every tree is structurally sound.
func (m *Model) UnmarshalBinary(data []byte) error {
	var decoded Model
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&decoded); err != nil {
		return fmt.Errorf("decode regressor: %w", err)
	}
	if err := decoded.check(); err != nil {
		return err
	}
	*m = decoded
	return nil
}

func (m *Model) check() error {
	if m.NumFeatures <= 0 {
		return fmt.Errorf("regressor has no features")
	}
	for ti, t := range m.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.Leaf {
				continue
			}
			if n.Feature < 0 || n.Feature >= m.NumFeatures {
				return fmt.Errorf("tree %d node %d splits on feature %d outside [0, %d)", ti, ni, n.Feature, m.NumFeatures)
			}
			// children are always appended after their parent
			if n.Left <= ni || n.Right <= ni || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d has invalid children", ti, ni)
			}
		}
	}
	return nil
}
