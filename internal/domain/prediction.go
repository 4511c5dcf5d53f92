package domain

// Currency is the only currency predictions are reported in
const Currency = "USD"

// PredictRequest is the inference boundary input. A missing catalog_content
// is treated as an empty string.
type PredictRequest struct {
	CatalogContent string `json:"catalog_content"`
}

// PricePrediction is the inference boundary output
type PricePrediction struct {
	PredictedPrice float64 `json:"predicted_price"`
	Currency       string  `json:"currency"`
	Status         string  `json:"status"`
	ModelVersion   string  `json:"model_version,omitempty"`
}

// SparseVector holds the non-zero entries of a numeric row. Indices are
// strictly ascending.
type SparseVector struct {
	Indices []int     `json:"indices"`
	Values  []float64 `json:"values"`
}

// Dense expands the vector to a row of the given width
func (v SparseVector) Dense(width int) []float64 {
	row := make([]float64, width)
	for k, idx := range v.Indices {
		if idx < width {
			row[idx] = v.Values[k]
		}
	}
	return row
}

// NNZ returns the number of stored entries
func (v SparseVector) NNZ() int {
	return len(v.Indices)
}
