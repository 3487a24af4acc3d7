package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/quantlab/breakout/risk"
)

// State is the durable snapshot of a replay session, written after every
// trade close so a restarted run continues with the same sizing and freeze
// state instead of a fresh account.
type State struct {
	Instrument string `json:"instrument"`

	Balance     float64 `json:"balance"`
	PeakBalance float64 `json:"peak_balance"`

	ConsecutiveLosses         int `json:"consecutive_losses"`
	RecoveryCooldownRemaining int `json:"recovery_cooldown_remaining"`

	DailyLossAccumulator float64   `json:"daily_loss_accumulator"`
	DayBucket            time.Time `json:"day_bucket"`

	FrozenDaily    bool `json:"frozen_daily"`
	FrozenDrawdown bool `json:"frozen_drawdown"`

	TradesClosed int       `json:"trades_closed"`
	LastUpdate   time.Time `json:"last_update"`
}

func stateFromAccount(instrument string, trades int, s risk.AccountState, now time.Time) State {
	return State{
		Instrument:                instrument,
		Balance:                   s.Balance,
		PeakBalance:               s.PeakBalance,
		ConsecutiveLosses:         s.ConsecutiveLosses,
		RecoveryCooldownRemaining: s.RecoveryCooldownRemaining,
		DailyLossAccumulator:      s.DailyLossAccumulator,
		DayBucket:                 s.DayBucket,
		FrozenDaily:               s.TradingFrozenDaily,
		FrozenDrawdown:            s.TradingFrozenDrawdown,
		TradesClosed:              trades,
		LastUpdate:                now,
	}
}

func (s State) account() risk.AccountState {
	return risk.AccountState{
		Balance:                   s.Balance,
		PeakBalance:               s.PeakBalance,
		ConsecutiveLosses:         s.ConsecutiveLosses,
		RecoveryCooldownRemaining: s.RecoveryCooldownRemaining,
		DailyLossAccumulator:      s.DailyLossAccumulator,
		DayBucket:                 s.DayBucket,
		TradingFrozenDaily:        s.FrozenDaily,
		TradingFrozenDrawdown:     s.FrozenDrawdown,
	}
}

// LoadState reads a session snapshot. A missing file is reported with
// os.ErrNotExist so callers can treat it as a fresh start.
func LoadState(path string) (State, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return State{}, err
	}
	var s State
	if err := json.Unmarshal(b, &s); err != nil {
		return State{}, fmt.Errorf("replay: parse state %s: %w", path, err)
	}
	return s, nil
}

// SaveState persists the snapshot atomically. The previous contents are kept
// as a best-effort .bak copy.
func SaveState(path string, s State) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if prev, err := os.ReadFile(path); err == nil {
		_ = os.WriteFile(path+".bak", prev, 0o600)
	}
	return writeFileAtomic(path, b, 0o600)
}

// writeFileAtomic writes data via a temp file + fsync + rename so a crash
// mid-write never leaves a truncated snapshot behind.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}

	// best-effort fsync of the parent dir to harden the rename
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
