package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mady2005/multi-modal-price-prediction/internal/domain"
	"github.com/Mady2005/multi-modal-price-prediction/internal/infrastructure/pricingapi"
	"github.com/Mady2005/multi-modal-price-prediction/internal/model"
	"github.com/Mady2005/multi-modal-price-prediction/internal/usecase"
)

var (
	predictRemote    bool
	predictArtifacts string
	predictAPIURL    string
	predictRPS       float64
)

// predictCmd prices one or more catalog texts
var predictCmd = &cobra.Command{
	Use:   "predict <catalog text>...",
	Short: "Predict prices for catalog texts",
	Long: `Predict the price of each argument.

By default the artifacts are loaded locally. With --remote the texts are sent
to a running server at server.api_url instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().BoolVar(&predictRemote, "remote", false, "Call the running server instead of loading artifacts")
	predictCmd.Flags().StringVar(&predictArtifacts, "artifacts", "", "Artifact directory (default: model.artifact_dir)")
	predictCmd.Flags().StringVar(&predictAPIURL, "api-url", "", "Predict endpoint (default: server.api_url)")
	predictCmd.Flags().Float64Var(&predictRPS, "rps", 5, "Request rate limit for --remote")
}

type predictor func(ctx context.Context, text string) (*domain.PricePrediction, error)

type predictionResult struct {
	CatalogContent string                  `json:"catalog_content"`
	Prediction     *domain.PricePrediction `json:"prediction,omitempty"`
	Error          string                  `json:"error,omitempty"`
}

func runPredict(cmd *cobra.Command, args []string) error {
	predict, err := newPredictor()
	if err != nil {
		return err
	}

	results := make([]predictionResult, 0, len(args))
	var failed int
	for _, text := range args {
		res := predictionResult{CatalogContent: text}
		p, err := predict(cmd.Context(), text)
		if err != nil {
			res.Error = err.Error()
			failed++
		} else {
			res.Prediction = p
		}
		results = append(results, res)
	}

	if err := printJSON(cmd.OutOrStdout(), results); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d predictions failed", failed, len(args))
	}
	return nil
}

func newPredictor() (predictor, error) {
	if predictRemote {
		url := predictAPIURL
		if url == "" {
			url = cfg.Server.APIURL
		}
		return pricingapi.NewClient(url, predictRPS).Predict, nil
	}

	dir := predictArtifacts
	if dir == "" {
		dir = cfg.Model.ArtifactDir
	}
	m, err := model.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	svc := usecase.NewPricingService(model.NewRegistry(m), nil, nil, usecase.PricingServiceConfig{ArtifactDir: dir})
	return svc.Predict, nil
}
