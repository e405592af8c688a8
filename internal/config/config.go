// SPDX-License-Identifier: MIT

// Package config defines environment configuration structs and loaders.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every variable name below.
const EnvPrefix = "LVLEARN_"

// AppConfig is the full runtime configuration.
type AppConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"prod"`
	LogLevel    string `env:"LOG_LEVEL"`

	ServerEnvConfig
	TrainEnvConfig
	PCAEnvConfig
	CheckpointEnvConfig
}

// ServerEnvConfig configures the inference server and its client.
type ServerEnvConfig struct {
	Address       string        `env:"SERVER_ADDRESS" envDefault:"127.0.0.1:8080"`
	BodySizeLimit int           `env:"SERVER_BODY_LIMIT" envDefault:"4194304"`
	ClientTimeout time.Duration `env:"CLIENT_TIMEOUT" envDefault:"30s"`
	RetryMax      int           `env:"CLIENT_RETRY_MAX" envDefault:"2"`
	RetryWait     time.Duration `env:"CLIENT_RETRY_WAIT" envDefault:"200ms"`
}

// TrainEnvConfig holds training defaults for the sequence classifier.
type TrainEnvConfig struct {
	Epochs       int     `env:"TRAIN_EPOCHS" envDefault:"20"`
	BatchSize    int     `env:"TRAIN_BATCH_SIZE" envDefault:"32"`
	LearningRate float64 `env:"TRAIN_LEARNING_RATE" envDefault:"0.01"`
	Optimizer    string  `env:"TRAIN_OPTIMIZER" envDefault:"adam"`
	Units        int     `env:"TRAIN_UNITS" envDefault:"16"`
	Samples      int     `env:"TRAIN_SAMPLES" envDefault:"400"`
	Timesteps    int     `env:"TRAIN_TIMESTEPS" envDefault:"10"`
	Seed         uint64  `env:"TRAIN_SEED" envDefault:"7"`
}

// PCAEnvConfig holds PCA defaults.
type PCAEnvConfig struct {
	Components int    `env:"PCA_COMPONENTS" envDefault:"0"`
	Backend    string `env:"PCA_BACKEND" envDefault:"jacobi"`
}

// CheckpointEnvConfig holds model file defaults.
type CheckpointEnvConfig struct {
	ModelPath string `env:"MODEL_PATH" envDefault:"model.lvm"`
	Format    string `env:"CHECKPOINT_FORMAT" envDefault:"auto"`
}

// LoadConfig reads the given .env files (default ".env"; missing files are
// ignored) and then parses LVLEARN_* variables over the defaults.
func LoadConfig(files ...string) (*AppConfig, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := &AppConfig{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}
