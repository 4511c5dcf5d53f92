package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mady2005/multi-modal-price-prediction/internal/domain"
)

func TestAssembler_Width(t *testing.T) {
	vocab := DefaultVocabulary()
	a := NewAssembler(vocab)

	assert.Equal(t, 2+len(vocab.Brands), a.Width())

	inputs := []string{
		"",
		"Nike Pack of 12 Running Shoes",
		"ünïcödé ✓ text",
		"\x00\x01 binary",
		"Sony Samsung Apple",
	}
	for _, in := range inputs {
		assert.Len(t, a.Assemble(in), a.Width(), "input %q", in)
	}
}

func TestAssembler_ColumnNames(t *testing.T) {
	vocab := &Vocabulary{Brands: []string{"nike", "sony"}}
	a := NewAssembler(vocab)

	assert.Equal(t, []string{"is_bulk", "item_quantity", "brand_nike", "brand_sony"}, a.ColumnNames())
}

func TestAssembler_Assemble(t *testing.T) {
	vocab := &Vocabulary{
		Brands:       []string{"nike", "sony", "zentra"},
		JunkWords:    []string{"the"},
		BulkKeywords: []string{"pack"},
	}
	a := NewAssembler(vocab)

	testCases := []struct {
		name string
		text string
		want []float64
	}{
		{
			name: "known brand with bulk and quantity",
			text: "Nike Pack of 12 Running Shoes",
			want: []float64{1, 12, 1, 0, 0},
		},
		{
			name: "empty text",
			text: "",
			want: []float64{0, 1, 0, 0, 0},
		},
		{
			name: "brand not in vocabulary emits no one-hot",
			text: "Acme anvil",
			want: []float64{0, 1, 0, 0, 0},
		},
		{
			name: "vocabulary brand after label prefix",
			text: "Item Name: Zentra Widget",
			want: []float64{0, 1, 0, 0, 1},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, a.Assemble(tc.text))
		})
	}
}

func TestAssembler_EncodeMatchesLowercasedLabel(t *testing.T) {
	a := NewAssembler(&Vocabulary{Brands: []string{"kellogg's"}})

	row := a.Encode(domain.ParsedSignals{BrandLabel: "Kellogg's", ItemQuantity: 3})
	assert.Equal(t, []float64{0, 3, 1}, row)
}

func TestAssembler_OneHot(t *testing.T) {
	a := NewAssembler(&Vocabulary{Brands: []string{"nike", "sony"}})

	got := a.OneHot(domain.ParsedSignals{BrandLabel: "Sony", ItemQuantity: 1})
	assert.Equal(t, map[string]float64{"brand_nike": 0, "brand_sony": 1}, got)
}

func TestAssembler_AssembleBatch(t *testing.T) {
	a := NewAssembler(DefaultVocabulary())

	texts := make([]string, 5000)
	for i := range texts {
		texts[i] = fmt.Sprintf("Nike shoes Count %d", i+1)
	}

	rows, err := a.AssembleBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, rows, len(texts))

	for i, row := range rows {
		assert.Equal(t, a.Assemble(texts[i]), row)
		assert.Equal(t, float64(i+1), row[1])
	}
}

func TestAssembler_AssembleBatchEmpty(t *testing.T) {
	a := NewAssembler(DefaultVocabulary())

	rows, err := a.AssembleBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAssembler_AssembleBatchCancelled(t *testing.T) {
	a := NewAssembler(DefaultVocabulary())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.AssembleBatch(ctx, []string{"a", "b"})
	assert.ErrorIs(t, err, context.Canceled)
}
