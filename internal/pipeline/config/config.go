package config

import (
	"errors"

	"github.com/caarlos0/env/v6"
)

// Object store backend names accepted by OBJECT_STORE_BACKEND.
const (
	ObjectStoreS3    = "s3"
	ObjectStoreLocal = "local"
)

// UpstreamConfig holds credentials for the upstream consumption API
type UpstreamConfig struct {
	BaseURL string `env:"ENERGY_API_URL"`
	APIKey  string `env:"ENERGY_API_KEY"`
}

// MongoConfig holds connection settings for the feature store and model registry
type MongoConfig struct {
	URI      string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	Database string `env:"MONGODB_DATABASE" envDefault:"forecast_pipeline"`
}

// ObjectStoreConfig selects and configures the prediction artifact store
type ObjectStoreConfig struct {
	Backend     string `env:"OBJECT_STORE_BACKEND" envDefault:"local"`
	LocalRoot   string `env:"OBJECT_STORE_LOCAL_ROOT" envDefault:"./artifacts"`
	Bucket      string `env:"OBJECT_STORE_BUCKET"`
	Region      string `env:"AWS_REGION" envDefault:"eu-west-1"`
	EndpointURL string `env:"OBJECT_STORE_ENDPOINT_URL"`
}

// PipelineConfig holds all configuration for the batch jobs
type PipelineConfig struct {
	// FeatureGroup is the name the feature job publishes under.
	FeatureGroup string `env:"FEATURE_GROUP" envDefault:"energy_consumption"`

	// ModelName is the registry name the training job registers under.
	ModelName string `env:"MODEL_NAME" envDefault:"seasonal_naive"`

	// ExportWindowHours is how much trailing history the feature job exports.
	ExportWindowHours int `env:"EXPORT_WINDOW_HOURS" envDefault:"720"`

	// HorizonHours is the batch prediction horizon.
	HorizonHours int `env:"HORIZON_HOURS" envDefault:"24"`

	// PredictionKeyPrefix prefixes prediction artifact keys in object storage.
	PredictionKeyPrefix string `env:"PREDICTION_KEY_PREFIX" envDefault:"predictions"`

	Upstream    UpstreamConfig
	Mongo       MongoConfig
	ObjectStore ObjectStoreConfig
}

// LoadConfig loads pipeline configuration from environment variables
func LoadConfig() (*PipelineConfig, error) {
	cfg := &PipelineConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.New("failed to load pipeline configuration from environment: " + err.Error())
	}
	if err := env.Parse(&cfg.Upstream); err != nil {
		return nil, errors.New("failed to load upstream configuration from environment: " + err.Error())
	}
	if err := env.Parse(&cfg.Mongo); err != nil {
		return nil, errors.New("failed to load mongodb configuration from environment: " + err.Error())
	}
	if err := env.Parse(&cfg.ObjectStore); err != nil {
		return nil, errors.New("failed to load object store configuration from environment: " + err.Error())
	}

	if cfg.ExportWindowHours <= 0 {
		return nil, errors.New("EXPORT_WINDOW_HOURS must be positive")
	}
	if cfg.HorizonHours <= 0 {
		return nil, errors.New("HORIZON_HOURS must be positive")
	}
	switch cfg.ObjectStore.Backend {
	case ObjectStoreS3:
		if cfg.ObjectStore.Bucket == "" {
			return nil, errors.New("OBJECT_STORE_BUCKET must be set for the s3 backend")
		}
	case ObjectStoreLocal:
		if cfg.ObjectStore.LocalRoot == "" {
			return nil, errors.New("OBJECT_STORE_LOCAL_ROOT must be set for the local backend")
		}
	default:
		return nil, errors.New("OBJECT_STORE_BACKEND must be one of s3, local")
	}
	return cfg, nil
}
