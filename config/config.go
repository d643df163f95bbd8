package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	SerpAPIKey string
	ChromeBin  string

	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int
	MaxResults     int
	MaxReviews     int

	DataDir        string
	OutputDir      string
	AnalysisConfig string // optional YAML file with analysis tunables
	Debug          bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "nichefinder"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "nichefinder123"),
		PostgresDB:       getEnv("POSTGRES_DB", "leads_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		SerpAPIKey: getEnv("SERPAPI_KEY", ""),
		ChromeBin:  getEnv("CHROME_BIN", ""),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 4),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 2000),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		MaxResults:     getEnvInt("MAX_RESULTS", 20),
		MaxReviews:     getEnvInt("MAX_REVIEWS", 20),

		DataDir:        getEnv("DATA_DIR", "./data"),
		OutputDir:      getEnv("OUTPUT_DIR", "./output"),
		AnalysisConfig: getEnv("ANALYSIS_CONFIG", ""),
		Debug:          getEnv("DEBUG", "") != "",
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// HasScrapingAPI reports whether a live collector can run.
func (c *Config) HasScrapingAPI() bool {
	return c.SerpAPIKey != ""
}

// ConfigError reports an invalid analysis configuration. It is fatal at
// engine construction time, before any data is processed.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Weights are the scoring weights for the four opportunity sub-scores.
// They must sum to 1.0.
type Weights struct {
	Volume       float64 `yaml:"volume"`
	Velocity     float64 `yaml:"velocity"`
	SentimentGap float64 `yaml:"sentiment_gap"`
	Saturation   float64 `yaml:"saturation"`
}

// Sum returns the total of all four weights.
func (w Weights) Sum() float64 {
	return w.Volume + w.Velocity + w.SentimentGap + w.Saturation
}

// AnalysisConfig holds every tunable of the analysis engine. Values are
// validated once at engine construction and reused for the whole run.
type AnalysisConfig struct {
	// Reviews rated at or below this are negative-signal text.
	NegativeThreshold float64 `yaml:"negative_threshold"`
	// Reviews rated at or above this count as satisfied customers.
	PositiveThreshold float64 `yaml:"positive_threshold"`
	// Window for the review-velocity signal.
	RecencyWindowDays int `yaml:"recency_window_days"`

	// Per-metric scale constants for the saturating normalization
	// 1 - 1/(1 + x/k). All must be positive.
	VolumeScale     float64 `yaml:"volume_scale"`     // total reviews
	VelocityScale   float64 `yaml:"velocity_scale"`   // reviews per day
	SentimentScale  float64 `yaml:"sentiment_scale"`  // negative-review ratio
	SaturationScale float64 `yaml:"saturation_scale"` // effective competitors

	Weights Weights `yaml:"weights"`

	TopPainPoints int `yaml:"top_pain_points"` // themes kept per niche
	MinSupport    int `yaml:"min_support"`     // reviews needed to keep a theme
	MaxQuotes     int `yaml:"max_quotes"`      // example quotes per theme
}

// DefaultAnalysisConfig returns the documented starting configuration.
// Sentiment-gap and inverse-saturation dominate because the point is
// finding underserved niches, not merely large ones.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		NegativeThreshold: 2.0,
		PositiveThreshold: 4.0,
		RecencyWindowDays: 90,

		VolumeScale:     200,
		VelocityScale:   0.5,
		SentimentScale:  0.25,
		SaturationScale: 10,

		Weights: Weights{
			Volume:       0.15,
			Velocity:     0.15,
			SentimentGap: 0.35,
			Saturation:   0.35,
		},

		TopPainPoints: 10,
		MinSupport:    2,
		MaxQuotes:     3,
	}
}

// LoadAnalysisConfig reads tunables from a YAML file, overlaying the
// defaults, and validates the result.
func LoadAnalysisConfig(path string) (AnalysisConfig, error) {
	ac := DefaultAnalysisConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return ac, fmt.Errorf("analysis config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &ac); err != nil {
		return ac, fmt.Errorf("analysis config: parse %q: %w", path, err)
	}
	if err := ac.Validate(); err != nil {
		return ac, err
	}
	return ac, nil
}

const weightTolerance = 1e-6

// Validate checks the configuration invariants. The returned error, if
// any, is a *ConfigError.
func (c AnalysisConfig) Validate() error {
	if c.NegativeThreshold < 0 || c.NegativeThreshold > 5 {
		return &ConfigError{"negative_threshold", "must be within [0,5]"}
	}
	if c.PositiveThreshold < c.NegativeThreshold || c.PositiveThreshold > 5 {
		return &ConfigError{"positive_threshold", "must be within [negative_threshold,5]"}
	}
	if c.RecencyWindowDays <= 0 {
		return &ConfigError{"recency_window_days", "must be positive"}
	}
	scales := []struct {
		name  string
		value float64
	}{
		{"volume_scale", c.VolumeScale},
		{"velocity_scale", c.VelocityScale},
		{"sentiment_scale", c.SentimentScale},
		{"saturation_scale", c.SaturationScale},
	}
	for _, s := range scales {
		if s.value <= 0 {
			return &ConfigError{s.name, "scale constant must be positive"}
		}
	}
	if sum := c.Weights.Sum(); sum < 1-weightTolerance || sum > 1+weightTolerance {
		return &ConfigError{"weights", fmt.Sprintf("must sum to 1.0, got %.6f", sum)}
	}
	weights := []struct {
		name  string
		value float64
	}{
		{"weights.volume", c.Weights.Volume},
		{"weights.velocity", c.Weights.Velocity},
		{"weights.sentiment_gap", c.Weights.SentimentGap},
		{"weights.saturation", c.Weights.Saturation},
	}
	for _, w := range weights {
		if w.value < 0 {
			return &ConfigError{w.name, "must be non-negative"}
		}
	}
	if c.TopPainPoints <= 0 {
		return &ConfigError{"top_pain_points", "must be positive"}
	}
	if c.MinSupport < 1 {
		return &ConfigError{"min_support", "must be at least 1"}
	}
	if c.MaxQuotes < 0 {
		return &ConfigError{"max_quotes", "must be non-negative"}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
