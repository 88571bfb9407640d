// Package config loads run configuration from disk and the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/crisisbench/crisisbench/internal/runtime"
)

// LoadRunConfig reads a run configuration JSON file, applies the default
// operational limits, and validates the model identifiers.
func LoadRunConfig(path string) (runtime.RunConfig, error) {
	var cfg runtime.RunConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read run config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse run config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("run config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadEnv loads a .env file if one exists so provider API keys can live
// next to the checkout instead of the shell profile. A missing file is not
// an error.
func LoadEnv(path string) {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Warn().Str("path", path).Err(err).Msg("could not load env file")
	}
}
