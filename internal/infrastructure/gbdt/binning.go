package gbdt

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// featureBins is one feature column discretised into at most MaxBin buckets.
// bounds[b] is the inclusive upper edge of bucket b; values above the last
// bound fall into bucket len(bounds).
type featureBins struct {
	bounds []float64
	bins   []uint8
}

func (fb *featureBins) numBins() int {
	return len(fb.bounds) + 1
}

// binOf returns the bucket index for a raw value
func binOf(bounds []float64, x float64) int {
	return sort.SearchFloat64s(bounds, x)
}

// computeBounds picks bucket edges for one column. Columns with few distinct
// values get one bucket per value; the rest are cut at quantiles.
func computeBounds(values []float64, maxBin int) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	distinct := sorted[:0:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			distinct = append(distinct, v)
		}
	}

	if len(distinct) <= 1 {
		return nil
	}

	if len(distinct) <= maxBin {
		bounds := make([]float64, 0, len(distinct)-1)
		for i := 1; i < len(distinct); i++ {
			bounds = append(bounds, midpoint(distinct[i-1], distinct[i]))
		}
		return bounds
	}

	n := len(sorted)
	bounds := make([]float64, 0, maxBin-1)
	for k := 1; k < maxBin; k++ {
		idx := k * n / maxBin
		if idx <= 0 || idx >= n || sorted[idx-1] == sorted[idx] {
			continue
		}
		edge := midpoint(sorted[idx-1], sorted[idx])
		if len(bounds) == 0 || edge > bounds[len(bounds)-1] {
			bounds = append(bounds, edge)
		}
	}
	return bounds
}

func midpoint(a, b float64) float64 {
	return a + (b-a)/2
}

// binColumns discretises every feature of X in parallel
func binColumns(ctx context.Context, X [][]float64, numFeatures, maxBin int) ([]featureBins, error) {
	cols := make([]featureBins, numFeatures)
	n := len(X)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for f := 0; f < numFeatures; f++ {
		f := f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			values := make([]float64, n)
			for r := range X {
				values[r] = X[r][f]
			}
			bounds := computeBounds(values, maxBin)
			bins := make([]uint8, n)
			for r, v := range values {
				bins[r] = uint8(binOf(bounds, v))
			}
			cols[f] = featureBins{bounds: bounds, bins: bins}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cols, nil
}
