package usecase

import (
	"context"
	"fmt"

	"github.com/Mady2005/multi-modal-price-prediction/internal/catalog"
	"github.com/Mady2005/multi-modal-price-prediction/internal/domain"
	"github.com/Mady2005/multi-modal-price-prediction/pkg/logger"
)

// ETLReport summarises one ETL run
type ETLReport struct {
	Extracted    int `json:"extracted"`
	Loaded       int `json:"loaded"`
	MissingPrice int `json:"missingPrice"`
}

// ETLService cleans raw catalog rows with the shared parsers and loads them
// into the product warehouse
type ETLService struct {
	repo      domain.ProductRepository
	assembler *catalog.Assembler
}

// NewETLService creates an ETL service. A nil vocabulary uses the
// compiled-in default.
func NewETLService(repo domain.ProductRepository, vocab *catalog.Vocabulary) *ETLService {
	if vocab == nil {
		vocab = catalog.DefaultVocabulary()
	}
	return &ETLService{
		repo:      repo,
		assembler: catalog.NewAssembler(vocab),
	}
}

// Transform derives the cleaned record of every row. A missing price is
// stored as 0.
func (s *ETLService) Transform(rows []domain.TrainingRow) []domain.ProductRecord {
	parser := s.assembler.Parser()
	records := make([]domain.ProductRecord, len(rows))
	for i, row := range rows {
		sig := parser.Parse(row.Text)
		var price float64
		if row.Price != nil {
			price = *row.Price
		}
		records[i] = domain.ProductRecord{
			SampleID:     row.SampleID,
			Text:         row.Text,
			Price:        price,
			Brand:        sig.BrandLabel,
			IsBulk:       sig.IsBulk,
			ItemQuantity: sig.ItemQuantity,
			BrandOneHot:  s.assembler.OneHot(sig),
		}
	}
	return records
}

// Run transforms rows and replaces the warehouse contents with them
func (s *ETLService) Run(ctx context.Context, rows []domain.TrainingRow) (*ETLReport, error) {
	log := logger.Component("etl")
	if len(rows) == 0 {
		return nil, domain.ErrEmptyDataset
	}

	report := &ETLReport{Extracted: len(rows)}
	for _, row := range rows {
		if row.Price == nil {
			report.MissingPrice++
		}
	}

	records := s.Transform(rows)
	log.Info().Int("rows", len(records)).Int("missing_price", report.MissingPrice).Msg("transformed catalog rows")

	if err := s.repo.ReplaceAll(ctx, records); err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	report.Loaded = len(records)
	log.Info().Int("rows", report.Loaded).Msg("products loaded")

	return report, nil
}

// Summary reports the headline numbers of the loaded catalog
func (s *ETLService) Summary(ctx context.Context, topBrands int) (*domain.CatalogSummary, error) {
	return s.repo.Summary(ctx, topBrands)
}
