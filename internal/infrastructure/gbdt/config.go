package gbdt

import "fmt"

// Config holds the boosting hyperparameters. They are fixed per training run
// and recorded inside the fitted model.
type Config struct {
	NumTrees        int     `yaml:"n_estimators"`
	LearningRate    float64 `yaml:"learning_rate"`
	NumLeaves       int     `yaml:"num_leaves"`
	MinDataInLeaf   int     `yaml:"min_data_in_leaf"`
	MaxBin          int     `yaml:"max_bin"`
	LambdaL2        float64 `yaml:"lambda_l2"`
	FeatureFraction float64 `yaml:"feature_fraction"`
	BaggingFraction float64 `yaml:"bagging_fraction"`
	BaggingFreq     int     `yaml:"bagging_freq"`
	Seed            int64   `yaml:"seed"`
}

// DefaultConfig mirrors the production training setup
func DefaultConfig() Config {
	return Config{
		NumTrees:        500,
		LearningRate:    0.05,
		NumLeaves:       31,
		MinDataInLeaf:   20,
		MaxBin:          255,
		LambdaL2:        0,
		FeatureFraction: 1.0,
		BaggingFraction: 1.0,
		BaggingFreq:     0,
		Seed:            42,
	}
}

// Validate checks the hyperparameters are usable
func (c Config) Validate() error {
	if c.NumTrees < 1 {
		return fmt.Errorf("n_estimators must be positive, got %d", c.NumTrees)
	}
	if c.LearningRate <= 0 || c.LearningRate > 1 {
		return fmt.Errorf("learning_rate must be in (0, 1], got %g", c.LearningRate)
	}
	if c.NumLeaves < 2 {
		return fmt.Errorf("num_leaves must be at least 2, got %d", c.NumLeaves)
	}
	if c.MinDataInLeaf < 1 {
		return fmt.Errorf("min_data_in_leaf must be positive, got %d", c.MinDataInLeaf)
	}
	if c.MaxBin < 2 || c.MaxBin > 256 {
		return fmt.Errorf("max_bin must be in [2, 256], got %d", c.MaxBin)
	}
	if c.LambdaL2 < 0 {
		return fmt.Errorf("lambda_l2 must not be negative, got %g", c.LambdaL2)
	}
	if c.FeatureFraction <= 0 || c.FeatureFraction > 1 {
		return fmt.Errorf("feature_fraction must be in (0, 1], got %g", c.FeatureFraction)
	}
	if c.BaggingFraction <= 0 || c.BaggingFraction > 1 {
		return fmt.Errorf("bagging_fraction must be in (0, 1], got %g", c.BaggingFraction)
	}
	if c.BaggingFreq < 0 {
		return fmt.Errorf("bagging_freq must not be negative, got %d", c.BaggingFreq)
	}
	return nil
}
