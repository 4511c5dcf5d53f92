// Package dataset reads labeled catalog rows from CSV files
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/Mady2005/multi-modal-price-prediction/internal/domain"
)

// Column headers, matched case-insensitively
const (
	ColumnText     = "catalog_content"
	ColumnPrice    = "price"
	ColumnSampleID = "sample_id"
)

// ReadFile reads a CSV file with at least the catalog_content and price
// columns
func ReadFile(path string) ([]domain.TrainingRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// Read parses CSV rows. An empty or "nan" price is reported as a nil Price;
// a missing text cell becomes the empty string.
func Read(r io.Reader) ([]domain.TrainingRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty csv")
		}
		return nil, err
	}

	textCol, priceCol, idCol := -1, -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case ColumnText:
			textCol = i
		case ColumnPrice:
			priceCol = i
		case ColumnSampleID:
			idCol = i
		}
	}
	if textCol == -1 || priceCol == -1 {
		return nil, fmt.Errorf("csv must contain %q and %q header columns", ColumnText, ColumnPrice)
	}

	var out []domain.TrainingRow
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		row := domain.TrainingRow{
			Text:     cell(record, textCol),
			SampleID: cell(record, idCol),
		}
		price, err := parsePrice(cell(record, priceCol))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row.Price = price
		if row.SampleID == "" {
			row.SampleID = strconv.Itoa(line - 1)
		}
		out = append(out, row)
	}
	return out, nil
}

func cell(record []string, col int) string {
	if col < 0 || col >= len(record) {
		return ""
	}
	return record[col]
}

func parsePrice(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return nil, nil
	}
	p, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(p, 0) || math.IsNaN(p) {
		return nil, fmt.Errorf("invalid price %q", s)
	}
	return &p, nil
}
