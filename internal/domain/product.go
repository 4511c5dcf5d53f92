package domain

// ParsedSignals holds the primitive signals the text parsers derive from one
// catalog text.
type ParsedSignals struct {
	BrandLabel   string `json:"brand"`
	IsBulk       bool   `json:"isBulk"`
	ItemQuantity int    `json:"itemQuantity"`
}

// TrainingRow is one labeled example. Price is nil when the source row had no
// price.
type TrainingRow struct {
	SampleID string
	Text     string
	Price    *float64
}

// ProductRecord is a cleaned catalog row as stored in the warehouse
type ProductRecord struct {
	SampleID     string             `json:"sampleId"`
	Text         string             `json:"catalogContent"`
	Price        float64            `json:"price"`
	Brand        string             `json:"brand"`
	IsBulk       bool               `json:"isBulk"`
	ItemQuantity int                `json:"itemQuantity"`
	BrandOneHot  map[string]float64 `json:"brandOneHot,omitempty"`
}

// BrandCount is one row of the top-brands report
type BrandCount struct {
	Brand string `json:"brand"`
	Count int    `json:"count"`
}

// CatalogSummary holds the headline numbers of the cleaned catalog
type CatalogSummary struct {
	TotalProducts   int          `json:"totalProducts"`
	AveragePrice    float64      `json:"averagePrice"`
	PremiumProducts int          `json:"premiumProducts"` // price > PremiumPriceThreshold
	TopBrands       []BrandCount `json:"topBrands"`
}

// PremiumPriceThreshold separates premium products in the catalog summary
const PremiumPriceThreshold = 100.0
