package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mady2005/multi-modal-price-prediction/internal/domain"
)

func openTestRepo(t *testing.T) *ProductRepository {
	t.Helper()
	repo, err := Open(context.Background(), filepath.Join(t.TempDir(), "pricing.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestProductRepository_EmptySummary(t *testing.T) {
	repo := openTestRepo(t)

	s, err := repo.Summary(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 0, s.TotalProducts)
	assert.Equal(t, 0.0, s.AveragePrice)
	assert.Equal(t, 0, s.PremiumProducts)
	assert.Empty(t, s.TopBrands)
}

func TestProductRepository_ReplaceAllAndSummary(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	records := []domain.ProductRecord{
		{SampleID: "1", Text: "Nike shoes", Price: 50, Brand: "Nike", ItemQuantity: 1, BrandOneHot: map[string]float64{"brand_nike": 1}},
		{SampleID: "2", Text: "Nike socks pack", Price: 150, Brand: "Nike", IsBulk: true, ItemQuantity: 6},
		{SampleID: "3", Text: "Sony tv", Price: 400, Brand: "Sony", ItemQuantity: 1},
		{SampleID: "4", Text: "the thing", Price: 0, Brand: "Unknown", ItemQuantity: 1},
	}
	require.NoError(t, repo.ReplaceAll(ctx, records))

	s, err := repo.Summary(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, s.TotalProducts)
	assert.InDelta(t, 150.0, s.AveragePrice, 1e-9)
	assert.Equal(t, 2, s.PremiumProducts)
	assert.Equal(t, []domain.BrandCount{{Brand: "Nike", Count: 2}, {Brand: "Sony", Count: 1}}, s.TopBrands)

	t.Run("replace drops previous rows", func(t *testing.T) {
		require.NoError(t, repo.ReplaceAll(ctx, records[:1]))

		s, err := repo.Summary(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, s.TotalProducts)
		assert.Empty(t, s.TopBrands)
	})
}

func TestOpen_RejectsBadTableName(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "x.db"), "products; DROP TABLE x")
	assert.ErrorContains(t, err, "invalid table name")
}

func TestOpen_CustomTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.db")
	repo, err := Open(context.Background(), path, "staging_products")
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, repo.ReplaceAll(context.Background(), []domain.ProductRecord{{SampleID: "1", Brand: "Unknown", ItemQuantity: 1}}))
	s, err := repo.Summary(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, s.TotalProducts)
}
