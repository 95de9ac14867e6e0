package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

const infoLevel = "info"

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	return NewLoaderWithViper(viper.New())
}

// TestLoadWithNoConfigFile tests loading with no config file present.
func TestLoadWithNoConfigFile(t *testing.T) {
	cfg, err := newTestLoader(t).Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.LogLevel != infoLevel {
		t.Errorf("Expected default log level '%s', got %s", infoLevel, cfg.LogLevel)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Schema.Threshold != 0.80 {
		t.Errorf("Expected default threshold 0.80, got %.2f", cfg.Schema.Threshold)
	}
	if len(cfg.Layout.HeaderPatterns) == 0 {
		t.Error("Expected default header patterns")
	}
}

// TestLoadWithValidYAMLFile tests loading from a valid YAML file.
func TestLoadWithValidYAMLFile(t *testing.T) {
	loader := newTestLoader(t)
	configFile := filepath.Join(t.TempDir(), "formscan.yaml")

	yamlContent := `
log_level: debug
schema:
  path: /etc/formscan/keys.csv
  threshold: 0.9
layout:
  header_height_multiplier: 1.5
  label_suffixes: [":", "?"]
vision:
  enabled: false
  checkbox_max_area: 3000
server:
  port: 9090
  rate_limit:
    enabled: true
    requests_per_second: 2
    burst: 4
enrich:
  classification:
    - label: referral
      keywords: [referral, "gp details"]
`
	if err := os.WriteFile(configFile, []byte(yamlContent), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := loader.LoadWithFile(configFile)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level 'debug', got %s", cfg.LogLevel)
	}
	if cfg.Schema.Path != "/etc/formscan/keys.csv" || cfg.Schema.Threshold != 0.9 {
		t.Errorf("Unexpected schema config: %+v", cfg.Schema)
	}
	if cfg.Layout.HeaderHeightMultiplier != 1.5 {
		t.Errorf("Expected header multiplier 1.5, got %.2f", cfg.Layout.HeaderHeightMultiplier)
	}
	if len(cfg.Layout.LabelSuffixes) != 2 {
		t.Errorf("Expected 2 label suffixes, got %v", cfg.Layout.LabelSuffixes)
	}
	if cfg.Vision.Enabled {
		t.Error("Expected vision disabled")
	}
	if cfg.Vision.CheckboxMaxArea != 3000 {
		t.Errorf("Expected checkbox max area 3000, got %.0f", cfg.Vision.CheckboxMaxArea)
	}
	if cfg.Vision.CheckboxMinArea != 100 {
		t.Errorf("Expected default checkbox min area 100, got %.0f", cfg.Vision.CheckboxMinArea)
	}
	if !cfg.Server.RateLimit.Enabled || cfg.Server.RateLimit.Burst != 4 {
		t.Errorf("Unexpected rate limit config: %+v", cfg.Server.RateLimit)
	}
	if len(cfg.Enrich.Classification) != 1 || cfg.Enrich.Classification[0].Label != "referral" {
		t.Fatalf("Unexpected classification rules: %+v", cfg.Enrich.Classification)
	}
	if got := cfg.Enrich.Classification[0].Keywords; len(got) != 2 || got[1] != "gp details" {
		t.Errorf("Unexpected keywords: %v", got)
	}
}

// TestLoadFromSearchPath tests that formscan.yaml in the working directory is found.
func TestLoadFromSearchPath(t *testing.T) {
	loader := newTestLoader(t)
	if err := os.WriteFile(ConfigFileName+".yaml", []byte("output:\n  format: yaml\n"), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Output.Format != "yaml" {
		t.Errorf("Expected output format 'yaml', got %s", cfg.Output.Format)
	}
	if loader.GetConfigFileUsed() == "" {
		t.Error("Expected a config file to be recorded as used")
	}
}

// TestEnvironmentOverrides tests FORMSCAN_ environment variables.
func TestEnvironmentOverrides(t *testing.T) {
	loader := newTestLoader(t)
	t.Setenv("FORMSCAN_SERVER_PORT", "7070")
	t.Setenv("FORMSCAN_SCHEMA_THRESHOLD", "0.7")
	t.Setenv("FORMSCAN_VISION_ENABLED", "false")

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Expected port 7070 from env, got %d", cfg.Server.Port)
	}
	if cfg.Schema.Threshold != 0.7 {
		t.Errorf("Expected threshold 0.7 from env, got %.2f", cfg.Schema.Threshold)
	}
	if cfg.Vision.Enabled {
		t.Error("Expected vision disabled from env")
	}
}

// TestLoadInvalidConfig tests that validation failures are reported.
func TestLoadInvalidConfig(t *testing.T) {
	loader := newTestLoader(t)
	configFile := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(configFile, []byte("schema:\n  threshold: 1.5\n"), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := loader.LoadWithFile(configFile); err == nil {
		t.Error("Expected validation error for threshold 1.5")
	}

	cfg, err := NewLoaderWithViper(viper.New()).LoadWithFileWithoutValidation(configFile)
	if err != nil {
		t.Fatalf("LoadWithFileWithoutValidation() unexpected error: %v", err)
	}
	if cfg.Schema.Threshold != 1.5 {
		t.Errorf("Expected raw threshold 1.5, got %.2f", cfg.Schema.Threshold)
	}
}

// TestLoadMissingFile tests an explicit path that does not exist.
func TestLoadMissingFile(t *testing.T) {
	if _, err := newTestLoader(t).LoadWithFile("/nonexistent/formscan.yaml"); err == nil {
		t.Error("Expected error for missing config file")
	}
}

// TestGenerateDefaultConfigFile tests writing and re-reading the defaults.
func TestGenerateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formscan.yaml")
	if err := GenerateDefaultConfigFile(path); err != nil {
		t.Fatalf("GenerateDefaultConfigFile() error: %v", err)
	}

	cfg, err := newTestLoader(t).LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile() error: %v", err)
	}
	if cfg.Server.Port != DefaultConfig().Server.Port {
		t.Errorf("Expected default port, got %d", cfg.Server.Port)
	}
}

// TestGetConfigSearchPaths tests the search path list.
func TestGetConfigSearchPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	paths := GetConfigSearchPaths()
	if paths[0] != "." {
		t.Errorf("Expected current directory first, got %s", paths[0])
	}
	if paths[len(paths)-1] != "/etc/formscan" {
		t.Errorf("Expected /etc/formscan last, got %s", paths[len(paths)-1])
	}
	found := false
	for _, p := range paths {
		if p == "/tmp/xdg/formscan" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected XDG path in %v", paths)
	}
}
