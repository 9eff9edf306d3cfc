package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/papertrade/market"
)

// Config is the complete simulator configuration.
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	Account AccountConfig `json:"account" yaml:"account"`
	Feed    FeedConfig    `json:"feed" yaml:"feed"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Symbols []string      `json:"symbols" yaml:"symbols"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr      string `json:"addr" yaml:"addr"`
	StaticDir string `json:"static_dir,omitempty" yaml:"static_dir,omitempty"`
}

// AccountConfig seeds the paper account.
type AccountConfig struct {
	Cash                  float64 `json:"cash" yaml:"cash"`
	Leverage              float64 `json:"leverage" yaml:"leverage"`
	InitialMarginRate     float64 `json:"initial_margin_rate" yaml:"initial_margin_rate"`
	MaintenanceMarginRate float64 `json:"maintenance_margin_rate" yaml:"maintenance_margin_rate"`
}

// FeedConfig controls the upstream price poller. Intervals are duration
// strings ("1s", "15s").
type FeedConfig struct {
	BaseURL        string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	TickerInterval string `json:"ticker_interval,omitempty" yaml:"ticker_interval,omitempty"`
	KlineInterval  string `json:"kline_interval,omitempty" yaml:"kline_interval,omitempty"`
	CandleLimit    int    `json:"candle_limit,omitempty" yaml:"candle_limit,omitempty"`
}

// ParseTickerInterval converts the ticker interval to a time.Duration.
func (f FeedConfig) ParseTickerInterval() (time.Duration, error) {
	if f.TickerInterval == "" {
		return 0, nil
	}
	return time.ParseDuration(f.TickerInterval)
}

// ParseKlineInterval converts the kline interval to a time.Duration.
func (f FeedConfig) ParseKlineInterval() (time.Duration, error) {
	if f.KlineInterval == "" {
		return 0, nil
	}
	return time.ParseDuration(f.KlineInterval)
}

// JournalConfig selects the fill journal backend.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	FillsFile  string `json:"fills_file,omitempty" yaml:"fills_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Account.Cash <= 0 {
		return fmt.Errorf("account.cash must be positive")
	}
	if c.Account.Leverage <= 0 {
		return fmt.Errorf("account.leverage must be positive")
	}
	if c.Account.InitialMarginRate <= 0 || c.Account.InitialMarginRate >= 1 {
		return fmt.Errorf("account.initial_margin_rate must be in (0,1)")
	}
	if c.Account.MaintenanceMarginRate <= 0 || c.Account.MaintenanceMarginRate >= 1 {
		return fmt.Errorf("account.maintenance_margin_rate must be in (0,1)")
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}
	for _, s := range c.Symbols {
		if !market.Supported(s) {
			return fmt.Errorf("unknown symbol: %s", s)
		}
	}
	if _, err := c.Feed.ParseTickerInterval(); err != nil {
		return fmt.Errorf("feed.ticker_interval: %w", err)
	}
	if _, err := c.Feed.ParseKlineInterval(); err != nil {
		return fmt.Errorf("feed.kline_interval: %w", err)
	}

	switch strings.ToLower(c.Journal.Type) {
	case "", "none":
	case "csv":
		if c.Journal.FillsFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal fills_file and equity_file required for csv type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for sqlite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}

	return nil
}

// Default returns the reference deployment configuration: $10k account,
// 10x leverage, BTC and ETH perps.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:      ":3000",
			StaticDir: "./public",
		},
		Account: AccountConfig{
			Cash:                  10000,
			Leverage:              10,
			InitialMarginRate:     0.1,
			MaintenanceMarginRate: 0.05,
		},
		Feed: FeedConfig{
			BaseURL:        "",
			TickerInterval: "1s",
			KlineInterval:  "15s",
			CandleLimit:    500,
		},
		Journal: JournalConfig{
			Type: "none",
		},
		Symbols: []string{"BTCUSDT", "ETHUSDT"},
	}
}
