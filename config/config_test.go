package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultAnalysisConfigIsValid(t *testing.T) {
	if err := DefaultAnalysisConfig().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	sum := DefaultAnalysisConfig().Weights.Sum()
	if sum < 1-weightTolerance || sum > 1+weightTolerance {
		t.Errorf("default weight sum: got %.6f, want 1.0", sum)
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*AnalysisConfig)
		wantField string
	}{
		{"weights off", func(c *AnalysisConfig) { c.Weights.Volume = 0.5 }, "weights"},
		{"negative weight", func(c *AnalysisConfig) {
			c.Weights.Volume = -0.05
			c.Weights.Velocity = 0.35
		}, "weights.volume"},
		{"zero volume scale", func(c *AnalysisConfig) { c.VolumeScale = 0 }, "volume_scale"},
		{"negative velocity scale", func(c *AnalysisConfig) { c.VelocityScale = -1 }, "velocity_scale"},
		{"negative threshold out of range", func(c *AnalysisConfig) { c.NegativeThreshold = 6 }, "negative_threshold"},
		{"thresholds inverted", func(c *AnalysisConfig) { c.PositiveThreshold = 1 }, "positive_threshold"},
		{"zero recency window", func(c *AnalysisConfig) { c.RecencyWindowDays = 0 }, "recency_window_days"},
		{"zero top pain points", func(c *AnalysisConfig) { c.TopPainPoints = 0 }, "top_pain_points"},
		{"zero min support", func(c *AnalysisConfig) { c.MinSupport = 0 }, "min_support"},
	}

	for _, tt := range tests {
		cfg := DefaultAnalysisConfig()
		tt.mutate(&cfg)

		err := cfg.Validate()
		var cerr *ConfigError
		if !errors.As(err, &cerr) {
			t.Errorf("%s: expected *ConfigError, got %v", tt.name, err)
			continue
		}
		if cerr.Field != tt.wantField {
			t.Errorf("%s: field got %q, want %q", tt.name, cerr.Field, tt.wantField)
		}
	}
}

func TestLoadAnalysisConfigOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.yaml")
	doc := `
negative_threshold: 2.5
top_pain_points: 5
weights:
  volume: 0.25
  velocity: 0.25
  sentiment_gap: 0.25
  saturation: 0.25
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadAnalysisConfig(path)
	if err != nil {
		t.Fatalf("LoadAnalysisConfig: %v", err)
	}
	if cfg.NegativeThreshold != 2.5 {
		t.Errorf("negative_threshold: got %.1f, want 2.5", cfg.NegativeThreshold)
	}
	if cfg.TopPainPoints != 5 {
		t.Errorf("top_pain_points: got %d, want 5", cfg.TopPainPoints)
	}
	if cfg.Weights.Volume != 0.25 {
		t.Errorf("weights.volume: got %.2f, want 0.25", cfg.Weights.Volume)
	}
	// Untouched keys keep their defaults.
	if cfg.MinSupport != 2 {
		t.Errorf("min_support default: got %d, want 2", cfg.MinSupport)
	}
	if cfg.VolumeScale != 200 {
		t.Errorf("volume_scale default: got %.0f, want 200", cfg.VolumeScale)
	}
}

func TestLoadAnalysisConfigRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()

	badWeights := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(badWeights, []byte("weights:\n  volume: 0.9\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAnalysisConfig(badWeights); err == nil {
		t.Error("expected validation error for unbalanced weights")
	}

	notYAML := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(notYAML, []byte("{{{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAnalysisConfig(notYAML); err == nil {
		t.Error("expected parse error for malformed YAML")
	}

	if _, err := LoadAnalysisConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDSN(t *testing.T) {
	c := &Config{
		PostgresHost: "db.local", PostgresPort: "5433",
		PostgresUser: "u", PostgresPassword: "pw",
		PostgresDB: "leads", PostgresSSLMode: "disable",
	}
	dsn := c.DSN()
	for _, want := range []string{"host=db.local", "port=5433", "user=u", "dbname=leads", "sslmode=disable"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("DSN %q missing %q", dsn, want)
		}
	}
}

func TestHasScrapingAPI(t *testing.T) {
	if (&Config{}).HasScrapingAPI() {
		t.Error("no key should mean no live collector")
	}
	if !(&Config{SerpAPIKey: "k"}).HasScrapingAPI() {
		t.Error("key present should enable the live collector")
	}
}
