package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/quantlab/breakout/risk"
	"github.com/quantlab/breakout/strategies"
	"gopkg.in/yaml.v3"
)

// Config represents the complete run configuration for backtests and replays
type Config struct {
	Account  AccountConfig  `json:"account" yaml:"account"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Risk     RiskConfig     `json:"risk" yaml:"risk"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Replay   ReplayConfig   `json:"replay" yaml:"replay"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	Currency string  `json:"currency" yaml:"currency"`
	Balance  float64 `json:"balance" yaml:"balance"`
}

// StrategyConfig selects and parameterizes the signal strategy
type StrategyConfig struct {
	Name       string                    `json:"name" yaml:"name"`
	Instrument string                    `json:"instrument" yaml:"instrument"`
	Breakout   strategies.BreakoutConfig `json:"breakout" yaml:"breakout"`
}

// RiskConfig contains the sizing state machine and circuit breaker knobs
type RiskConfig struct {
	BaseRiskFraction    float64 `json:"base_risk_fraction" yaml:"base_risk_fraction"`
	MaxDrawdownFraction float64 `json:"max_drawdown_fraction" yaml:"max_drawdown_fraction"`
	SoftStopFraction    float64 `json:"soft_stop_fraction" yaml:"soft_stop_fraction"`
	DailyLossLimit      float64 `json:"daily_loss_limit" yaml:"daily_loss_limit"`

	SizeAfterOneLoss       float64 `json:"size_after_one_loss" yaml:"size_after_one_loss"`
	SizeInRecovery         float64 `json:"size_in_recovery" yaml:"size_in_recovery"`
	RecoveryTriggerLosses  int     `json:"recovery_trigger_losses" yaml:"recovery_trigger_losses"`
	RecoveryDurationTrades int     `json:"recovery_duration_trades" yaml:"recovery_duration_trades"`

	MaxConcurrentTrades int `json:"max_concurrent_trades" yaml:"max_concurrent_trades"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// ReplayConfig contains simulated-live parameters
type ReplayConfig struct {
	StatePath string `json:"state_path,omitempty" yaml:"state_path,omitempty"`
	Delay     string `json:"delay,omitempty" yaml:"delay,omitempty"` // e.g., "1s", "250ms"
}

// ParseDelay converts the delay string to time.Duration
func (rc ReplayConfig) ParseDelay() (time.Duration, error) {
	if rc.Delay == "" {
		return 0, nil
	}
	return time.ParseDuration(rc.Delay)
}

// RiskSettings assembles the engine config, taking the starting balance from
// the account section.
func (c *Config) RiskSettings() risk.Config {
	return risk.Config{
		InitialBalance:         c.Account.Balance,
		BaseRiskFraction:       c.Risk.BaseRiskFraction,
		MaxDrawdownFraction:    c.Risk.MaxDrawdownFraction,
		SoftStopFraction:       c.Risk.SoftStopFraction,
		DailyLossLimit:         c.Risk.DailyLossLimit,
		SizeAfterOneLoss:       c.Risk.SizeAfterOneLoss,
		SizeInRecovery:         c.Risk.SizeInRecovery,
		RecoveryTriggerLosses:  c.Risk.RecoveryTriggerLosses,
		RecoveryDurationTrades: c.Risk.RecoveryDurationTrades,
		MaxConcurrentTrades:    c.Risk.MaxConcurrentTrades,
	}
}

// LoadFromFile loads configuration from a file (JSON or YAML based on content)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if c.Account.Balance <= 0 {
		return fmt.Errorf("account.balance must be positive")
	}
	if c.Strategy.Instrument == "" {
		return fmt.Errorf("strategy.instrument is required")
	}
	if _, err := strategies.ByName(c.Strategy.Name, c.Strategy.Breakout); err != nil {
		return fmt.Errorf("strategy.name: %w", err)
	}
	if err := c.RiskSettings().Validate(); err != nil {
		return err
	}
	switch c.Journal.Type {
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "none":
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	if _, err := c.Replay.ParseDelay(); err != nil {
		return fmt.Errorf("replay.delay: %w", err)
	}
	return nil
}

// Default returns a configuration matching the parameters the strategy was
// tuned with
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Currency: "USD",
			Balance:  10000,
		},
		Strategy: StrategyConfig{
			Name:       "breakout",
			Instrument: "EUR_USD",
			Breakout:   strategies.BreakoutDefaults(),
		},
		Risk: RiskConfig{
			BaseRiskFraction:       0.002,
			MaxDrawdownFraction:    0.30,
			SoftStopFraction:       0.15,
			DailyLossLimit:         600,
			SizeAfterOneLoss:       0.8,
			SizeInRecovery:         0.5,
			RecoveryTriggerLosses:  2,
			RecoveryDurationTrades: 5,
			MaxConcurrentTrades:    2,
		},
		Journal: JournalConfig{
			Type:       "csv",
			TradesFile: "./trades.csv",
			EquityFile: "./equity.csv",
		},
		Replay: ReplayConfig{
			StatePath: "./replay_state.json",
		},
	}
}
