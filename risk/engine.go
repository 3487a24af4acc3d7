package risk

import (
	"time"

	"github.com/quantlab/breakout/market"
)

// Phase is the sizing state the engine is in between trades.
type Phase int8

const (
	Normal   Phase = iota // no active streak, full size
	OneLoss               // exactly one consecutive loss
	Recovery              // cooldown window after a loss streak
)

func (p Phase) String() string {
	switch p {
	case Normal:
		return "NORMAL"
	case OneLoss:
		return "ONE_LOSS"
	case Recovery:
		return "RECOVERY"
	default:
		return "UNKNOWN"
	}
}

// AccountState is the rolling state derived from the trade history.
// Callers only ever see it as a value snapshot; the engine is the single writer.
type AccountState struct {
	Balance     float64
	PeakBalance float64

	ConsecutiveLosses         int
	RecoveryCooldownRemaining int

	DailyLossAccumulator float64
	DayBucket            time.Time // UTC midnight of the current calendar-day bucket
	TradingFrozenDaily   bool
	TradingFrozenDrawdown bool // terminal for the run
}

// Drawdown returns the current drawdown as a fraction of peak balance.
func (s AccountState) Drawdown() float64 {
	if s.PeakBalance <= 0 {
		return 0
	}
	return (s.PeakBalance - s.Balance) / s.PeakBalance
}

// Engine is the sequential risk state machine: it consumes closed-trade
// outcomes and answers, before each new trade, whether trading is allowed and
// how the nominal position size should be scaled.
//
// The engine is not safe for concurrent use. Callers embedding it in a
// concurrent host must serialize all calls to a single instance; the intended
// caller is a loop that processes closed trades in close order.
type Engine struct {
	cfg   Config
	state AccountState
}

// NewEngine validates cfg and returns an engine with a fresh account state.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg: cfg,
		state: AccountState{
			Balance:     cfg.InitialBalance,
			PeakBalance: cfg.InitialBalance,
		},
	}, nil
}

// Config returns the immutable configuration the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// Snapshot returns a copy of the current account state, e.g. for journaling
// or durable persistence across restarts.
func (e *Engine) Snapshot() AccountState { return e.state }

// Phase reports the sizing state implied by the current counters. The
// priority order matches SizeNextTrade: an active cooldown wins over the
// streak count.
func (e *Engine) Phase() Phase {
	switch {
	case e.state.RecoveryCooldownRemaining > 0:
		return Recovery
	case e.state.ConsecutiveLosses == 0:
		return Normal
	case e.state.ConsecutiveLosses >= e.cfg.RecoveryTriggerLosses:
		return Recovery
	default:
		return OneLoss
	}
}

// SizeNextTrade returns the multiplier to apply to the nominal position size
// of the next trade. Call it exactly once immediately before opening a trade:
// while a recovery cooldown is active this decrements the remaining count,
// which is the one mutating side effect of an otherwise read operation.
func (e *Engine) SizeNextTrade() float64 {
	if e.state.RecoveryCooldownRemaining > 0 {
		e.state.RecoveryCooldownRemaining--
		return e.cfg.SizeInRecovery
	}

	losses := e.state.ConsecutiveLosses
	switch {
	case losses == 0:
		return 1.0
	case losses >= e.cfg.RecoveryTriggerLosses:
		// Arm recovery mode. With a trigger of 1 this fires after a single
		// loss and the one-loss multiplier below is never reached.
		e.state.RecoveryCooldownRemaining = e.cfg.RecoveryDurationTrades
		return e.cfg.SizeInRecovery
	case losses == 1:
		return e.cfg.SizeAfterOneLoss
	default:
		// Streak above one but below the trigger: hold the one-loss size.
		return e.cfg.SizeAfterOneLoss
	}
}

// RiskAmount returns the nominal monetary risk for the next trade: the base
// risk fraction of current balance scaled by the sizing multiplier.
// Unlike SizeNextTrade it does not touch the cooldown counter.
func (e *Engine) RiskAmount(multiplier float64) float64 {
	return e.state.Balance * e.cfg.BaseRiskFraction * multiplier
}

// RecordOutcome applies one closed trade to the account state. The update is
// all-or-nothing: a malformed outcome is rejected with ErrOutcome and the
// state is left exactly as it was.
func (e *Engine) RecordOutcome(o TradeOutcome) error {
	if err := o.validate(); err != nil {
		return err
	}

	s := &e.state

	// 1. Equity and peak.
	s.Balance += o.PnL
	if s.Balance > s.PeakBalance {
		s.PeakBalance = s.Balance
	}

	// 2. Streak.
	if o.Result == Win {
		s.ConsecutiveLosses = 0
	} else {
		s.ConsecutiveLosses++
	}

	// 3. Day bucket. Rolling to a new calendar day always clears the daily
	// accumulator and the daily freeze, never anything else.
	day := market.DayStart(o.ClosedAt)
	if s.DayBucket.IsZero() {
		s.DayBucket = day
	} else if !day.Equal(s.DayBucket) {
		s.DayBucket = day
		s.DailyLossAccumulator = 0
		s.TradingFrozenDaily = false
	}

	// 4. Daily loss.
	if o.PnL < 0 {
		s.DailyLossAccumulator += -o.PnL
		if s.DailyLossAccumulator > e.cfg.DailyLossLimit {
			s.TradingFrozenDaily = true
		}
	}

	// 5. Hard drawdown stop. Terminal: never cleared within a run.
	if s.Drawdown() > e.cfg.MaxDrawdownFraction {
		s.TradingFrozenDrawdown = true
	}

	return nil
}
