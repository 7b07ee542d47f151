package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Matcher.SimilarityThreshold != 0.3 {
		t.Errorf("expected similarity threshold 0.3, got %f", cfg.Matcher.SimilarityThreshold)
	}
	if cfg.Matcher.MinTokenLength != 3 {
		t.Errorf("expected min token length 3, got %d", cfg.Matcher.MinTokenLength)
	}
	if cfg.Trading.EdgeThreshold != 5 {
		t.Errorf("expected edge threshold 5, got %f", cfg.Trading.EdgeThreshold)
	}
	if cfg.Trading.ConfidenceThreshold != 65 {
		t.Errorf("expected confidence threshold 65, got %f", cfg.Trading.ConfidenceThreshold)
	}
	if cfg.Session.LossFloor != -0.8 {
		t.Errorf("expected loss floor -0.8, got %f", cfg.Session.LossFloor)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[matcher]
similarity_threshold = 0.5
min_token_length = 4

[oracle]
call_spacing = "250ms"

[session]
duration = "30m"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Matcher.SimilarityThreshold != 0.5 {
		t.Errorf("expected overridden threshold 0.5, got %f", cfg.Matcher.SimilarityThreshold)
	}
	if cfg.Matcher.MinTokenLength != 4 {
		t.Errorf("expected overridden token length 4, got %d", cfg.Matcher.MinTokenLength)
	}
	if cfg.Oracle.CallSpacing.Duration != 250*time.Millisecond {
		t.Errorf("expected 250ms spacing, got %v", cfg.Oracle.CallSpacing.Duration)
	}
	if cfg.Session.Duration.Duration != 30*time.Minute {
		t.Errorf("expected 30m session, got %v", cfg.Session.Duration.Duration)
	}
	// Untouched sections keep their defaults.
	if cfg.Trading.EdgeThreshold != 5 {
		t.Errorf("expected default edge threshold 5, got %f", cfg.Trading.EdgeThreshold)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.toml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidateOracle_MissingKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Oracle.APIKey = ""

	err := cfg.ValidateOracle()
	if err == nil {
		t.Fatal("expected validation error with no API key")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
}

func TestValidateOracle_Complete(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Oracle.APIKey = "sk-test"

	if err := cfg.ValidateOracle(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}
