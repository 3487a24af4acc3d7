package replay

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quantlab/breakout/journal"
	"github.com/quantlab/breakout/market"
	"github.com/quantlab/breakout/risk"
	"github.com/quantlab/breakout/strategies"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptStrategy struct {
	signals map[int]*strategies.Signal
	bar     int
}

func (s *scriptStrategy) Name() string { return "script" }
func (s *scriptStrategy) Reset()       { s.bar = 0 }

func (s *scriptStrategy) OnCandle(c market.Candle) *strategies.Signal {
	sig := s.signals[s.bar]
	s.bar++
	return sig
}

var t0 = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func closes(px ...float64) []market.Candle {
	out := make([]market.Candle, len(px))
	for i, p := range px {
		out[i] = market.Candle{
			Time:  t0.Add(time.Duration(i) * time.Hour),
			Open:  p,
			High:  p + 0.05,
			Low:   p - 0.05,
			Close: p,
		}
	}
	return out
}

func longSignal() *strategies.Signal {
	return &strategies.Signal{
		Side:   strategies.Long,
		Entry:  1.00,
		Stop:   0.99,
		Target: 1.04,
		Reason: "BreakoutUp",
	}
}

type memJournal struct {
	trades []journal.TradeRecord
	equity []journal.EquitySnapshot
}

func (j *memJournal) RecordTrade(rec journal.TradeRecord) error {
	j.trades = append(j.trades, rec)
	return nil
}

func (j *memJournal) RecordEquity(rec journal.EquitySnapshot) error {
	j.equity = append(j.equity, rec)
	return nil
}

func (j *memJournal) Close() error { return nil }

func TestTraderExitsOnCloseNotOnRange(t *testing.T) {
	t.Parallel()

	j := &memJournal{}
	tr, err := NewTrader(Config{Instrument: "EUR_USD", Risk: risk.DefaultConfig()}, j, nil)
	require.NoError(t, err)

	strat := &scriptStrategy{signals: map[int]*strategies.Signal{0: longSignal()}}

	// Bar 1 has a high of 1.05 so the target sits inside its range, but the
	// close at 1.00 has not confirmed it. Bar 2 closes through the target.
	cs := closes(1.00, 1.00, 1.05)

	require.NoError(t, tr.Run(context.Background(), strat, cs))

	require.Len(t, j.trades, 1)
	rec := j.trades[0]
	assert.Equal(t, "TP", rec.Reason)
	assert.Equal(t, cs[2].Time, rec.CloseTime)
	assert.InDelta(t, 4.0, rec.RMultiple, 1e-9)
	assert.InDelta(t, 80.0, rec.PnL, 1e-9)
}

func TestTraderStopFillsAtStopLevel(t *testing.T) {
	t.Parallel()

	j := &memJournal{}
	tr, err := NewTrader(Config{Instrument: "EUR_USD", Risk: risk.DefaultConfig()}, j, nil)
	require.NoError(t, err)

	strat := &scriptStrategy{signals: map[int]*strategies.Signal{0: longSignal()}}
	cs := closes(1.00, 0.97) // closes well through the stop

	require.NoError(t, tr.Run(context.Background(), strat, cs))

	require.Len(t, j.trades, 1)
	assert.Equal(t, "SL", j.trades[0].Reason)
	assert.Equal(t, 0.99, j.trades[0].ExitPrice, "fills at the stop, not the close")
	assert.InDelta(t, -20.0, j.trades[0].PnL, 1e-9)
}

func TestTraderResumesFromStateFile(t *testing.T) {
	t.Parallel()

	statePath := filepath.Join(t.TempDir(), "state.json")
	cfg := Config{Instrument: "EUR_USD", Risk: risk.DefaultConfig(), StatePath: statePath}

	tr, err := NewTrader(cfg, nil, nil)
	require.NoError(t, err)

	strat := &scriptStrategy{signals: map[int]*strategies.Signal{0: longSignal()}}
	require.NoError(t, tr.Run(context.Background(), strat, closes(1.00, 0.97)))

	// Second session picks up the drained balance and the loss streak.
	tr2, err := NewTrader(cfg, nil, nil)
	require.NoError(t, err)

	s := tr2.Risk().Snapshot()
	assert.InDelta(t, 9980.0, s.Balance, 1e-9)
	assert.Equal(t, 1, s.ConsecutiveLosses)
	assert.Equal(t, 0.8, tr2.Risk().SizeNextTrade())
}

func TestTraderSkipsEntriesWhileFrozen(t *testing.T) {
	t.Parallel()

	cfg := risk.DefaultConfig()
	cfg.DailyLossLimit = 10

	j := &memJournal{}
	tr, err := NewTrader(Config{Instrument: "EUR_USD", Risk: cfg}, j, nil)
	require.NoError(t, err)

	strat := &scriptStrategy{signals: map[int]*strategies.Signal{
		0: longSignal(),
		2: longSignal(),
	}}
	require.NoError(t, tr.Run(context.Background(), strat, closes(1.00, 0.97, 1.00, 1.05)))

	assert.Len(t, j.trades, 1, "second signal lands inside the daily freeze")
	assert.True(t, tr.Risk().Snapshot().TradingFrozenDaily)
}

func TestTraderHonorsCancellation(t *testing.T) {
	t.Parallel()

	tr, err := NewTrader(Config{Instrument: "EUR_USD", Risk: risk.DefaultConfig()}, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = tr.Run(ctx, &scriptStrategy{}, closes(1.00, 1.00))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStateRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")

	st := State{
		Instrument:                "EUR_USD",
		Balance:                   9400,
		PeakBalance:               10100,
		ConsecutiveLosses:         2,
		RecoveryCooldownRemaining: 3,
		DailyLossAccumulator:      120.5,
		DayBucket:                 t0,
		FrozenDaily:               true,
		TradesClosed:              17,
		LastUpdate:                t0.Add(6 * time.Hour),
	}
	require.NoError(t, SaveState(path, st))

	got, err := LoadState(path)
	require.NoError(t, err)
	assert.Equal(t, st, got)
}

func TestSaveStateKeepsBackup(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")

	require.NoError(t, SaveState(path, State{Balance: 100}))
	require.NoError(t, SaveState(path, State{Balance: 200}))

	prev, err := LoadState(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, 100.0, prev.Balance)

	cur, err := LoadState(path)
	require.NoError(t, err)
	assert.Equal(t, 200.0, cur.Balance)
}

func TestLoadStateMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadState(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadStateRejectsGarbage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := LoadState(path)
	assert.Error(t, err)
}

func TestTraderRestoreRejectsCorruptState(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, SaveState(path, State{
		Instrument:  "EUR_USD",
		Balance:     10500,
		PeakBalance: 10000, // peak below balance
	}))

	_, err := NewTrader(Config{
		Instrument: "EUR_USD",
		Risk:       risk.DefaultConfig(),
		StatePath:  path,
	}, nil, nil)
	assert.ErrorIs(t, err, risk.ErrState)
}
