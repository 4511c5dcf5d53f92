package model

import (
	"context"
	"fmt"

	"github.com/Mady2005/multi-modal-price-prediction/internal/catalog"
	"github.com/Mady2005/multi-modal-price-prediction/internal/infrastructure/tfidf"
)

const tfidfColumnPrefix = "tfidf:"

// Featurizer builds the full feature row
// [is_bulk, item_quantity, brand one-hot..., tfidf...]. Training and serving
// both go through it, so the column layout cannot drift between the two.
type Featurizer struct {
	assembler  *catalog.Assembler
	vectorizer *tfidf.Vectorizer
}

// NewFeaturizer combines the engineered block of vocab with a fitted
// vectorizer
func NewFeaturizer(vocab *catalog.Vocabulary, vectorizer *tfidf.Vectorizer) *Featurizer {
	return &Featurizer{
		assembler:  catalog.NewAssembler(vocab),
		vectorizer: vectorizer,
	}
}

// Assembler returns the engineered-feature assembler
func (f *Featurizer) Assembler() *catalog.Assembler {
	return f.assembler
}

// Width is the total number of columns in a feature row
func (f *Featurizer) Width() int {
	return f.assembler.Width() + f.vectorizer.Width()
}

// ColumnNames lists every column in row order
func (f *Featurizer) ColumnNames() []string {
	names := f.assembler.ColumnNames()
	for _, term := range f.vectorizer.Terms {
		names = append(names, tfidfColumnPrefix+term)
	}
	return names
}

// Rows featurizes a batch. Items are processed independently and output
// order matches input order.
func (f *Featurizer) Rows(ctx context.Context, texts []string) ([][]float64, error) {
	engineered, err := f.assembler.AssembleBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("assemble features: %w", err)
	}
	sparse := f.vectorizer.TransformBatch(texts)

	width := f.Width()
	offset := f.assembler.Width()
	rows := make([][]float64, len(texts))
	for i := range texts {
		row := make([]float64, width)
		copy(row, engineered[i])
		for k, idx := range sparse[i].Indices {
			row[offset+idx] = sparse[i].Values[k]
		}
		rows[i] = row
	}
	return rows, nil
}
