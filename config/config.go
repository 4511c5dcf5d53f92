package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/Mady2005/multi-modal-price-prediction/internal/infrastructure/gbdt"
	"github.com/Mady2005/multi-modal-price-prediction/internal/infrastructure/tfidf"
)

// EnvPrefix prefixes every environment override (PRICING_SERVER_PORT, ...)
const EnvPrefix = "PRICING"

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Model     ModelConfig     `mapstructure:"model"`
	Training  TrainingConfig  `mapstructure:"training"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	APIURL         string   `mapstructure:"api_url"` // predict endpoint used by remote clients
}

// ModelConfig locates the model artifacts
type ModelConfig struct {
	ArtifactDir    string `mapstructure:"artifact_dir"`
	VocabularyFile string `mapstructure:"vocabulary_file"` // optional YAML override used at training time
}

// TrainingConfig holds the fixed hyperparameters of a training run
type TrainingConfig struct {
	NEstimators     int     `mapstructure:"n_estimators"`
	LearningRate    float64 `mapstructure:"learning_rate"`
	NumLeaves       int     `mapstructure:"num_leaves"`
	MinDataInLeaf   int     `mapstructure:"min_data_in_leaf"`
	MaxBin          int     `mapstructure:"max_bin"`
	LambdaL2        float64 `mapstructure:"lambda_l2"`
	FeatureFraction float64 `mapstructure:"feature_fraction"`
	BaggingFraction float64 `mapstructure:"bagging_fraction"`
	BaggingFreq     int     `mapstructure:"bagging_freq"`
	Seed            int64   `mapstructure:"seed"`
	MaxFeatures     int     `mapstructure:"max_features"`
	NGramMax        int     `mapstructure:"ngram_max"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// DatabaseConfig locates the cleaned-catalog warehouse
type DatabaseConfig struct {
	Path  string `mapstructure:"path"`
	Table string `mapstructure:"table"`
}

// LogConfig configures zerolog
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

// RegressorConfig returns the boosting hyperparameters
func (t TrainingConfig) RegressorConfig() gbdt.Config {
	return gbdt.Config{
		NumTrees:        t.NEstimators,
		LearningRate:    t.LearningRate,
		NumLeaves:       t.NumLeaves,
		MinDataInLeaf:   t.MinDataInLeaf,
		MaxBin:          t.MaxBin,
		LambdaL2:        t.LambdaL2,
		FeatureFraction: t.FeatureFraction,
		BaggingFraction: t.BaggingFraction,
		BaggingFreq:     t.BaggingFreq,
		Seed:            t.Seed,
	}
}

// VectorizerConfig returns the TF-IDF settings
func (t TrainingConfig) VectorizerConfig() tfidf.Config {
	cfg := tfidf.DefaultConfig()
	cfg.MaxFeatures = t.MaxFeatures
	cfg.NGramMax = t.NGramMax
	return cfg
}

// Load loads configuration from a .env file, environment variables and
// config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pricing/")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults are enough
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile exports the variables in ./.env. Variables that are already
// set win over the file; a missing file is not an error.
func loadEnvFile() error {
	err := gotenv.Load(".env")
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:8501", "http://127.0.0.1:8501"})
	v.SetDefault("server.api_url", "http://127.0.0.1:8000/api/v1/predict")

	// Model defaults
	v.SetDefault("model.artifact_dir", "artifacts")
	v.SetDefault("model.vocabulary_file", "")

	// Training defaults
	regressor := gbdt.DefaultConfig()
	vectorizer := tfidf.DefaultConfig()
	v.SetDefault("training.n_estimators", regressor.NumTrees)
	v.SetDefault("training.learning_rate", regressor.LearningRate)
	v.SetDefault("training.num_leaves", regressor.NumLeaves)
	v.SetDefault("training.min_data_in_leaf", regressor.MinDataInLeaf)
	v.SetDefault("training.max_bin", regressor.MaxBin)
	v.SetDefault("training.lambda_l2", regressor.LambdaL2)
	v.SetDefault("training.feature_fraction", regressor.FeatureFraction)
	v.SetDefault("training.bagging_fraction", regressor.BaggingFraction)
	v.SetDefault("training.bagging_freq", regressor.BaggingFreq)
	v.SetDefault("training.seed", regressor.Seed)
	v.SetDefault("training.max_features", vectorizer.MaxFeatures)
	v.SetDefault("training.ngram_max", vectorizer.NGramMax)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "24h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)

	// Database defaults
	v.SetDefault("database.path", "pricing.db")
	v.SetDefault("database.table", "products_cleaned")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if config.Model.ArtifactDir == "" {
		return fmt.Errorf("model artifact_dir is required (set %s_MODEL_ARTIFACT_DIR)", EnvPrefix)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.RateLimit.PerIP <= 0 {
		return fmt.Errorf("ratelimit per_ip must be positive, got: %d", config.RateLimit.PerIP)
	}

	if config.Log.Format != "console" && config.Log.Format != "json" {
		return fmt.Errorf("log format must be 'console' or 'json', got: %s", config.Log.Format)
	}

	if err := config.Training.RegressorConfig().Validate(); err != nil {
		return fmt.Errorf("training: %w", err)
	}
	if err := config.Training.VectorizerConfig().Validate(); err != nil {
		return fmt.Errorf("training: %w", err)
	}

	return nil
}
