// Package sqlite stores cleaned catalog rows in an embedded SQLite database
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"

	_ "modernc.org/sqlite"

	"github.com/Mady2005/multi-modal-price-prediction/internal/domain"
)

// DefaultTable is the table the ETL run writes to
const DefaultTable = "products_cleaned"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ProductRepository implements domain.ProductRepository
type ProductRepository struct {
	db    *sql.DB
	table string
}

// Open opens (or creates) the database at path with WAL mode enabled and
// makes sure the products table exists
func Open(ctx context.Context, path, table string) (*ProductRepository, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// a single connection keeps writes serialised
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	repo := &ProductRepository{db: db, table: table}
	if err := repo.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the database connection
func (r *ProductRepository) Close() error {
	return r.db.Close()
}

func (r *ProductRepository) initSchema(ctx context.Context) error {
	schema := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	sample_id TEXT NOT NULL,
	catalog_content TEXT NOT NULL,
	price REAL NOT NULL,
	brand TEXT NOT NULL,
	is_bulk INTEGER NOT NULL,
	item_quantity INTEGER NOT NULL,
	brand_onehot TEXT
);

CREATE INDEX IF NOT EXISTS idx_%[1]s_brand ON %[1]s(brand);
`, r.table)
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// ReplaceAll swaps the table contents for records in one transaction
func (r *ProductRepository) ReplaceAll(ctx context.Context, records []domain.ProductRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", r.table)); err != nil {
		return fmt.Errorf("clear %s: %w", r.table, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
INSERT INTO %s (sample_id, catalog_content, price, brand, is_bulk, item_quantity, brand_onehot)
VALUES (?, ?, ?, ?, ?, ?, ?)`, r.table))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		oneHot, err := json.Marshal(rec.BrandOneHot)
		if err != nil {
			return err
		}
		bulk := 0
		if rec.IsBulk {
			bulk = 1
		}
		if _, err := stmt.ExecContext(ctx, rec.SampleID, rec.Text, rec.Price, rec.Brand, bulk, rec.ItemQuantity, string(oneHot)); err != nil {
			return fmt.Errorf("insert %s: %w", rec.SampleID, err)
		}
	}

	return tx.Commit()
}

// Summary returns the headline numbers of the stored catalog and its most
// frequent brands
func (r *ProductRepository) Summary(ctx context.Context, topBrands int) (*domain.CatalogSummary, error) {
	summary := &domain.CatalogSummary{TopBrands: []domain.BrandCount{}}

	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT COUNT(*), AVG(price), COALESCE(SUM(CASE WHEN price > ? THEN 1 ELSE 0 END), 0) FROM %s`, r.table),
		domain.PremiumPriceThreshold,
	).Scan(&summary.TotalProducts, &avg, &summary.PremiumProducts)
	if err != nil {
		return nil, fmt.Errorf("summarise %s: %w", r.table, err)
	}
	summary.AveragePrice = avg.Float64

	if topBrands <= 0 {
		return summary, nil
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT brand, COUNT(*) AS n FROM %s GROUP BY brand ORDER BY n DESC, brand ASC LIMIT ?`, r.table),
		topBrands,
	)
	if err != nil {
		return nil, fmt.Errorf("top brands: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bc domain.BrandCount
		if err := rows.Scan(&bc.Brand, &bc.Count); err != nil {
			return nil, err
		}
		summary.TopBrands = append(summary.TopBrands, bc)
	}
	return summary, rows.Err()
}
