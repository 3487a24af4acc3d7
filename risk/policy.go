package risk

import (
	"errors"
	"fmt"
)

// ErrConfig is wrapped by every construction-time validation failure.
var ErrConfig = errors.New("risk: invalid config")

// Config holds the immutable knobs for one run of the engine.
type Config struct {
	InitialBalance float64 // starting equity, e.g. 10000

	// Nominal risk
	BaseRiskFraction float64 // fraction of balance risked per trade before sizing, e.g. 0.002

	// Circuit breakers
	MaxDrawdownFraction float64 // hard stop: fraction of peak lost that permanently halts trading, e.g. 0.30
	SoftStopFraction    float64 // soft stop: recoverable halt on new entries, e.g. 0.15
	DailyLossLimit      float64 // absolute loss within one calendar day that freezes until next day, e.g. 600

	// Streak-based sizing
	SizeAfterOneLoss       float64 // multiplier at exactly one consecutive loss, e.g. 0.8
	SizeInRecovery         float64 // multiplier while recovery cooldown is active, e.g. 0.5
	RecoveryTriggerLosses  int     // consecutive losses that arm recovery mode, e.g. 2
	RecoveryDurationTrades int     // trades the reduced sizing persists for, e.g. 5

	// Exposure limits
	MaxConcurrentTrades int // ceiling on simultaneously open positions
}

// DefaultConfig mirrors the parameters the breakout strategy was tuned with.
func DefaultConfig() Config {
	return Config{
		InitialBalance:         10000,
		BaseRiskFraction:       0.002,
		MaxDrawdownFraction:    0.30,
		SoftStopFraction:       0.15,
		DailyLossLimit:         600,
		SizeAfterOneLoss:       0.8,
		SizeInRecovery:         0.5,
		RecoveryTriggerLosses:  2,
		RecoveryDurationTrades: 5,
		MaxConcurrentTrades:    2,
	}
}

// Validate checks every option against its documented range.
func (c Config) Validate() error {
	if c.InitialBalance <= 0 {
		return fmt.Errorf("%w: initial balance must be positive, got %v", ErrConfig, c.InitialBalance)
	}
	for _, f := range []struct {
		name string
		val  float64
	}{
		{"base_risk_fraction", c.BaseRiskFraction},
		{"max_drawdown_fraction", c.MaxDrawdownFraction},
		{"soft_stop_fraction", c.SoftStopFraction},
	} {
		if f.val < 0 || f.val > 1 {
			return fmt.Errorf("%w: %s must be in [0,1], got %v", ErrConfig, f.name, f.val)
		}
	}
	if c.DailyLossLimit < 0 {
		return fmt.Errorf("%w: daily_loss_limit must be non-negative, got %v", ErrConfig, c.DailyLossLimit)
	}
	if c.SizeAfterOneLoss <= 0 || c.SizeAfterOneLoss > 1 {
		return fmt.Errorf("%w: size_after_one_loss must be in (0,1], got %v", ErrConfig, c.SizeAfterOneLoss)
	}
	if c.SizeInRecovery <= 0 || c.SizeInRecovery > 1 {
		return fmt.Errorf("%w: size_in_recovery must be in (0,1], got %v", ErrConfig, c.SizeInRecovery)
	}
	if c.RecoveryTriggerLosses < 1 {
		return fmt.Errorf("%w: recovery_trigger_losses must be >= 1, got %d", ErrConfig, c.RecoveryTriggerLosses)
	}
	if c.RecoveryDurationTrades < 0 {
		return fmt.Errorf("%w: recovery_duration_trades must be non-negative, got %d", ErrConfig, c.RecoveryDurationTrades)
	}
	if c.MaxConcurrentTrades < 1 {
		return fmt.Errorf("%w: max_concurrent_trades must be >= 1, got %d", ErrConfig, c.MaxConcurrentTrades)
	}
	return nil
}
