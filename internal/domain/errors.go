package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrArtifactMissing is returned when a model artifact file does not exist
	ErrArtifactMissing = errors.New("model artifact missing")

	// ErrArtifactCorrupt is returned when a model artifact cannot be decoded
	// or fails its checksum
	ErrArtifactCorrupt = errors.New("model artifact corrupt")

	// ErrArtifactIncompatible is returned when an artifact was written with an
	// unknown format or schema version
	ErrArtifactIncompatible = errors.New("model artifact incompatible")

	// ErrSchemaMismatch is returned when a feature vector width differs from
	// what the fitted regressor expects. This is a configuration error, not a
	// bad-input error.
	ErrSchemaMismatch = errors.New("feature schema mismatch")

	// ErrPredictionFailed is the uniform failure surfaced to inference callers
	ErrPredictionFailed = errors.New("price prediction failed")

	// ErrModelNotLoaded is returned when no model has been activated yet
	ErrModelNotLoaded = errors.New("no model loaded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrEmptyDataset is returned when training or ETL input has no usable rows
	ErrEmptyDataset = errors.New("dataset has no usable rows")

	// ErrRemoteAPIFailure is returned when the pricing API request fails
	ErrRemoteAPIFailure = errors.New("pricing API request failed")
)
