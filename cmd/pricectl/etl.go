package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mady2005/multi-modal-price-prediction/internal/infrastructure/dataset"
	"github.com/Mady2005/multi-modal-price-prediction/internal/infrastructure/sqlite"
	"github.com/Mady2005/multi-modal-price-prediction/internal/usecase"
)

var (
	etlData       string
	etlDB         string
	etlTable      string
	etlVocabulary string
	statsTop      int
)

// etlCmd loads a cleaned catalog into the warehouse
var etlCmd = &cobra.Command{
	Use:   "etl",
	Short: "Clean a catalog CSV and load it into SQLite",
	Long: `Extract catalog rows from a CSV, derive brand, bulk flag, item quantity
and brand one-hot columns with the same parsers the model uses, and replace
the contents of the products table.

Missing prices are stored as 0.`,
	RunE: runETL,
}

// statsCmd prints catalog KPIs
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise the loaded catalog",
	RunE:  runStats,
}

func init() {
	etlCmd.Flags().StringVar(&etlData, "data", "", "Catalog CSV (required)")
	etlCmd.Flags().StringVar(&etlVocabulary, "vocabulary", "", "Vocabulary YAML (default: model.vocabulary_file or built-in)")
	_ = etlCmd.MarkFlagRequired("data")

	for _, c := range []*cobra.Command{etlCmd, statsCmd} {
		c.Flags().StringVar(&etlDB, "db", "", "SQLite database (default: database.path)")
		c.Flags().StringVar(&etlTable, "table", "", "Products table (default: database.table)")
	}
	statsCmd.Flags().IntVar(&statsTop, "top", 10, "Number of top brands to list")
}

func openWarehouse(cmd *cobra.Command) (*sqlite.ProductRepository, error) {
	path := etlDB
	if path == "" {
		path = cfg.Database.Path
	}
	table := etlTable
	if table == "" {
		table = cfg.Database.Table
	}
	repo, err := sqlite.Open(cmd.Context(), path, table)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	return repo, nil
}

func runETL(cmd *cobra.Command, args []string) error {
	vocab, err := loadVocabulary(etlVocabulary)
	if err != nil {
		return err
	}

	rows, err := dataset.ReadFile(etlData)
	if err != nil {
		return err
	}

	repo, err := openWarehouse(cmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	report, err := usecase.NewETLService(repo, vocab).Run(cmd.Context(), rows)
	if err != nil {
		return fmt.Errorf("etl failed: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), report)
}

func runStats(cmd *cobra.Command, args []string) error {
	repo, err := openWarehouse(cmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	summary, err := usecase.NewETLService(repo, nil).Summary(cmd.Context(), statsTop)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), summary)
}
