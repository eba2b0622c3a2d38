package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"logsentinel/internal/types"
)

// LoadConfig reads the configuration from the given path
func LoadConfig(path string) (*types.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var cfg types.Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every tunable at its default value,
// usable without a config file (rules-only, no sinks configured).
func Default() *types.Config {
	var cfg types.Config
	applyDefaults(&cfg)
	return &cfg
}

// applyDefaults fills the documented default values for absent tunables.
// The rule thresholds and windows are contract values: tests and downstream
// consumers depend on 5/60s and 10/60s.
func applyDefaults(cfg *types.Config) {
	if cfg.Input.AuthLogPath == "" {
		cfg.Input.AuthLogPath = "/var/log/auth.log"
	}
	if cfg.Rules.BruteForceThreshold == 0 {
		cfg.Rules.BruteForceThreshold = 5
	}
	if cfg.Rules.BruteForceWindowSec == 0 {
		cfg.Rules.BruteForceWindowSec = 60
	}
	if cfg.Rules.WebScanThreshold == 0 {
		cfg.Rules.WebScanThreshold = 10
	}
	if cfg.Rules.WebScanWindowSec == 0 {
		cfg.Rules.WebScanWindowSec = 60
	}
	if cfg.Rules.MaxTrackedKeys == 0 {
		cfg.Rules.MaxTrackedKeys = 5000
	}
	if cfg.Classifier.URL == "" {
		cfg.Classifier.URL = "http://localhost:5000/predict"
	}
	if cfg.Classifier.TimeoutSec == 0 {
		cfg.Classifier.TimeoutSec = 5
	}
	if cfg.Classifier.ConfidenceThreshold == 0 {
		cfg.Classifier.ConfidenceThreshold = 0.60
	}
	if cfg.Output.AuditLogPath == "" {
		cfg.Output.AuditLogPath = "alerts.jsonl"
	}
	if cfg.State.DBPath == "" {
		cfg.State.DBPath = "logsentinel.db"
	}
	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = ":9090"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func validate(cfg *types.Config) error {
	if cfg.Classifier.ConfidenceThreshold < 0 || cfg.Classifier.ConfidenceThreshold > 1 {
		return fmt.Errorf("classifier.confidence_threshold must be in [0,1], got %v", cfg.Classifier.ConfidenceThreshold)
	}
	if cfg.Classifier.Temperature < 0 {
		return fmt.Errorf("classifier.temperature must be >= 0, got %v", cfg.Classifier.Temperature)
	}
	return nil
}
