package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
input:
  auth_log_path: /var/log/secure
classifier:
  enabled: true
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Input.AuthLogPath != "/var/log/secure" {
		t.Errorf("explicit value lost: %s", cfg.Input.AuthLogPath)
	}
	if cfg.Rules.BruteForceThreshold != 5 || cfg.Rules.BruteForceWindowSec != 60 {
		t.Errorf("brute-force defaults wrong: %d/%d", cfg.Rules.BruteForceThreshold, cfg.Rules.BruteForceWindowSec)
	}
	if cfg.Rules.WebScanThreshold != 10 || cfg.Rules.WebScanWindowSec != 60 {
		t.Errorf("web-scan defaults wrong: %d/%d", cfg.Rules.WebScanThreshold, cfg.Rules.WebScanWindowSec)
	}
	if cfg.Classifier.ConfidenceThreshold != 0.60 {
		t.Errorf("confidence threshold default wrong: %v", cfg.Classifier.ConfidenceThreshold)
	}
	if cfg.Classifier.URL == "" || cfg.State.DBPath == "" || cfg.Output.AuditLogPath == "" {
		t.Error("expected path defaults to be filled")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
rules:
  bruteforce_threshold: 3
  webscan_window_seconds: 120
  include_403: true
classifier:
  confidence_threshold: 0.8
  temperature: 1.5
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Rules.BruteForceThreshold != 3 {
		t.Errorf("override lost: %d", cfg.Rules.BruteForceThreshold)
	}
	if cfg.Rules.WebScanWindowSec != 120 {
		t.Errorf("override lost: %d", cfg.Rules.WebScanWindowSec)
	}
	if !cfg.Rules.Include403 {
		t.Error("include_403 override lost")
	}
	if cfg.Classifier.ConfidenceThreshold != 0.8 || cfg.Classifier.Temperature != 1.5 {
		t.Errorf("classifier overrides lost: %v/%v", cfg.Classifier.ConfidenceThreshold, cfg.Classifier.Temperature)
	}
}

func TestLoadConfigRejectsBadThreshold(t *testing.T) {
	path := writeConfig(t, `
classifier:
  confidence_threshold: 1.5
`)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected validation error for out-of-range threshold")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
