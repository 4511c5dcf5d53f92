// Command pricectl trains price models, runs the catalog ETL and queries
// predictions from the command line.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Mady2005/multi-modal-price-prediction/config"
	"github.com/Mady2005/multi-modal-price-prediction/pkg/logger"
)

var (
	// cfg is populated by the root command before any subcommand runs
	cfg *config.Config

	logLevel  string
	logFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pricectl",
	Short: "Train and query catalog price models",
	Long: `pricectl drives the offline side of the price prediction service.

Available subcommands:
  train   - Fit a vectorizer and regressor on a labeled CSV and write artifacts
  predict - Price catalog texts with local artifacts or a running server
  etl     - Clean a catalog CSV and load it into the product warehouse
  stats   - Print headline numbers of the loaded catalog`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.Log.Level = logLevel
		}
		if logFormat != "" {
			loaded.Log.Format = logFormat
		}
		if _, err := logger.Setup(logger.Config{Level: loaded.Log.Level, Format: loaded.Log.Format, Output: "stderr"}); err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format override (console, json)")

	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(etlCmd)
	rootCmd.AddCommand(statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("pricectl failed")
		os.Exit(1)
	}
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
