package risk

import (
	"errors"
	"fmt"
)

// ErrState is wrapped when a restored or mutated account state breaks one of
// the engine's invariants. With correct sequential use these checks are
// unreachable; they exist to catch corrupted snapshots and misuse.
var ErrState = errors.New("risk: account state invariant violated")

// NewEngineFromSnapshot restores an engine from a previously captured account
// state, e.g. after a process restart. This is also the only way to clear the
// terminal drawdown freeze: construct a new engine from an edited snapshot.
func NewEngineFromSnapshot(cfg Config, s AccountState) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg, state: s}
	if err := e.CheckInvariants(); err != nil {
		return nil, err
	}
	return e, nil
}

// CheckInvariants verifies the documented account-state invariants. Tests run
// it after every mutation; production callers may run it after restoring a
// snapshot.
func (e *Engine) CheckInvariants() error {
	s := e.state
	if s.PeakBalance < s.Balance {
		return fmt.Errorf("%w: peak balance %.2f below balance %.2f", ErrState, s.PeakBalance, s.Balance)
	}
	if s.ConsecutiveLosses < 0 {
		return fmt.Errorf("%w: negative consecutive losses %d", ErrState, s.ConsecutiveLosses)
	}
	if s.RecoveryCooldownRemaining < 0 {
		return fmt.Errorf("%w: negative recovery cooldown %d", ErrState, s.RecoveryCooldownRemaining)
	}
	if s.DailyLossAccumulator < 0 {
		return fmt.Errorf("%w: negative daily loss accumulator %.2f", ErrState, s.DailyLossAccumulator)
	}
	return nil
}
