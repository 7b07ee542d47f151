package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	General GeneralConfig `toml:"general"`
	Server  ServerConfig  `toml:"server"`
	Venues  VenuesConfig  `toml:"venues"`
	Matcher MatcherConfig `toml:"matcher"`
	Oracle  OracleConfig  `toml:"oracle"`
	Trading TradingConfig `toml:"trading"`
	Session SessionConfig `toml:"session"`
}

type GeneralConfig struct {
	DBPath   string `toml:"db_path"`
	LogLevel string `toml:"log_level"`
}

type ServerConfig struct {
	Port int `toml:"port"`
}

type VenuesConfig struct {
	KalshiURL     string   `toml:"kalshi_url"`
	PolymarketURL string   `toml:"polymarket_url"`
	FetchLimit    int      `toml:"fetch_limit"`
	FetchTimeout  Duration `toml:"fetch_timeout"`
	CacheTTL      Duration `toml:"cache_ttl"`
}

type MatcherConfig struct {
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	MinTokenLength      int     `toml:"min_token_length"`
}

type OracleConfig struct {
	Endpoint    string   `toml:"endpoint"`
	Model       string   `toml:"model"`
	CallSpacing Duration `toml:"call_spacing"`
	Timeout     Duration `toml:"timeout"`

	// APIKey is never read from the config file; it comes from the
	// ORACLE_API_KEY environment variable.
	APIKey string `toml:"-"`
}

// TradingConfig thresholds are expressed in percentage points, matching the
// scale the oracle speaks on the wire.
type TradingConfig struct {
	EdgeThreshold       float64 `toml:"edge_threshold"`
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	StakePerTrade       float64 `toml:"stake_per_trade"`
	MaxTrades           int     `toml:"max_trades"`
}

type SessionConfig struct {
	TargetROI      float64  `toml:"target_roi"`
	LossFloor      float64  `toml:"loss_floor"`
	Duration       Duration `toml:"duration"`
	SampleInterval Duration `toml:"sample_interval"`
}

// Duration wraps time.Duration for TOML unmarshaling.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// ValidationError reports a missing or unusable required setting. It is the
// only error class that should abort a run outright.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Oracle.APIKey = os.Getenv("ORACLE_API_KEY")
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			DBPath:   "./data/foresight.db",
			LogLevel: "info",
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Venues: VenuesConfig{
			KalshiURL:     "https://api.elections.kalshi.com/trade-api/v2",
			PolymarketURL: "https://gamma-api.polymarket.com",
			FetchLimit:    100,
			FetchTimeout:  Duration{30 * time.Second},
			CacheTTL:      Duration{10 * time.Minute},
		},
		Matcher: MatcherConfig{
			SimilarityThreshold: 0.3,
			MinTokenLength:      3,
		},
		Oracle: OracleConfig{
			Endpoint:    "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			CallSpacing: Duration{1 * time.Second},
			Timeout:     Duration{30 * time.Second},
		},
		Trading: TradingConfig{
			EdgeThreshold:       5,
			ConfidenceThreshold: 65,
			StakePerTrade:       10,
			MaxTrades:           10,
		},
		Session: SessionConfig{
			TargetROI:      1.0,
			LossFloor:      -0.8,
			Duration:       Duration{1 * time.Hour},
			SampleInterval: Duration{10 * time.Second},
		},
	}
}

// ValidateOracle checks the settings required before any oracle call can be
// made. Called at startup by every mode that talks to the oracle.
func (c *Config) ValidateOracle() error {
	if c.Oracle.Endpoint == "" {
		return &ValidationError{Field: "oracle.endpoint", Reason: "is required"}
	}
	if c.Oracle.Model == "" {
		return &ValidationError{Field: "oracle.model", Reason: "is required"}
	}
	if c.Oracle.APIKey == "" {
		return &ValidationError{Field: "ORACLE_API_KEY", Reason: "environment variable is not set"}
	}
	return nil
}
