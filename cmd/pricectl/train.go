package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Mady2005/multi-modal-price-prediction/internal/catalog"
	"github.com/Mady2005/multi-modal-price-prediction/internal/infrastructure/dataset"
	"github.com/Mady2005/multi-modal-price-prediction/internal/usecase"
)

var (
	trainData       string
	trainOut        string
	trainVocabulary string
)

// trainCmd fits a new model lineage
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a model from a labeled CSV",
	Long: `Fit the text vectorizer and the gradient boosted regressor on a CSV with
catalog_content and price columns, then write manifest.yaml, vectorizer.bin
and regressor.bin to the output directory.

Rows without a price are skipped. Hyperparameters come from the training
section of the configuration.`,
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().StringVar(&trainData, "data", "", "Training CSV (required)")
	trainCmd.Flags().StringVar(&trainOut, "out", "", "Artifact directory (default: model.artifact_dir)")
	trainCmd.Flags().StringVar(&trainVocabulary, "vocabulary", "", "Vocabulary YAML (default: model.vocabulary_file or built-in)")
	_ = trainCmd.MarkFlagRequired("data")
}

func runTrain(cmd *cobra.Command, args []string) error {
	out := trainOut
	if out == "" {
		out = cfg.Model.ArtifactDir
	}

	vocab, err := loadVocabulary(trainVocabulary)
	if err != nil {
		return err
	}

	rows, err := dataset.ReadFile(trainData)
	if err != nil {
		return err
	}
	log.Info().Str("file", trainData).Int("rows", len(rows)).Msg("dataset loaded")

	svc := usecase.NewTrainingService(usecase.TrainingServiceConfig{
		Vocabulary: vocab,
		Vectorizer: cfg.Training.VectorizerConfig(),
		Regressor:  cfg.Training.RegressorConfig(),
	})
	m, report, err := svc.Train(cmd.Context(), rows)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	if err := m.Save(out); err != nil {
		return fmt.Errorf("save artifacts: %w", err)
	}
	log.Info().Str("dir", out).Str("lineage", m.LineageID).Msg("artifacts written")

	return printJSON(cmd.OutOrStdout(), report)
}

// loadVocabulary resolves the vocabulary from the flag, then the config,
// then the built-in default
func loadVocabulary(path string) (*catalog.Vocabulary, error) {
	if path == "" {
		path = cfg.Model.VocabularyFile
	}
	if path == "" {
		return catalog.DefaultVocabulary(), nil
	}
	vocab, err := catalog.LoadVocabulary(path)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	return vocab, nil
}
