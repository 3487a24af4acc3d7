package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/quantlab/breakout/internal/id"
	"github.com/quantlab/breakout/journal"
	"github.com/quantlab/breakout/market"
	"github.com/quantlab/breakout/risk"
	"github.com/quantlab/breakout/strategies"
)

type Config struct {
	Instrument string
	Risk       risk.Config

	// StatePath is the JSON snapshot written after every trade close. When
	// the file exists at startup the session resumes from it. Empty disables
	// persistence.
	StatePath string

	// Delay paces the feed to mimic a live stream. Zero replays as fast as
	// possible.
	Delay time.Duration
}

// openTrade mirrors a live working order: entry with attached stop and
// target, resolved against subsequent closes.
type openTrade struct {
	TradeID  string
	Side     strategies.Side
	Entry    float64
	Stop     float64
	Target   float64
	Units    float64
	SizeMult float64
	OpenTime time.Time
}

// Trader replays candles through a strategy as if they were arriving live.
// Unlike the backtest engine it confirms exits on the candle close, the way
// a polling live loop sees prices, and it persists its risk state across
// restarts.
type Trader struct {
	cfg     Config
	riskEng *risk.Engine
	journal journal.Journal
	out     io.Writer

	trade  *openTrade
	closed int
}

// NewTrader builds a trader, resuming from cfg.StatePath when a snapshot
// exists there.
func NewTrader(cfg Config, j journal.Journal, out io.Writer) (*Trader, error) {
	if cfg.Instrument == "" {
		return nil, fmt.Errorf("replay: instrument required")
	}
	if j == nil {
		j = journal.Nop{}
	}
	if out == nil {
		out = io.Discard
	}

	t := &Trader{cfg: cfg, journal: j, out: out}

	if cfg.StatePath != "" {
		st, err := LoadState(cfg.StatePath)
		switch {
		case err == nil:
			eng, rerr := risk.NewEngineFromSnapshot(cfg.Risk, st.account())
			if rerr != nil {
				return nil, fmt.Errorf("replay: restore %s: %w", cfg.StatePath, rerr)
			}
			t.riskEng = eng
			t.closed = st.TradesClosed
			fmt.Fprintf(out, "resumed session: balance=%.2f trades=%d\n", st.Balance, st.TradesClosed)
			return t, nil
		case errors.Is(err, os.ErrNotExist):
			// fresh session
		default:
			return nil, err
		}
	}

	eng, err := risk.NewEngine(cfg.Risk)
	if err != nil {
		return nil, err
	}
	t.riskEng = eng
	return t, nil
}

func (t *Trader) Risk() *risk.Engine { return t.riskEng }

// Run feeds candles to the strategy in order, pacing with cfg.Delay and
// stopping early when ctx is cancelled. An open trade at cancellation or end
// of data is left working; its parameters are recomputed from the strategy on
// the next session since only account state is persisted.
func (t *Trader) Run(ctx context.Context, strat strategies.CandleStrategy, candles []market.Candle) error {
	strat.Reset()

	for _, c := range candles {
		if t.cfg.Delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(t.cfg.Delay):
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		if err := t.Step(strat, c); err != nil {
			return err
		}
	}
	return t.save(time.Now().UTC())
}

// Step processes a single candle: exit check on the close first, then the
// strategy, then a possible entry.
func (t *Trader) Step(strat strategies.CandleStrategy, c market.Candle) error {
	if t.trade != nil {
		if exitPx, reason, hit := t.exitOnClose(c.Close); hit {
			if err := t.close(c, exitPx, reason); err != nil {
				return err
			}
		}
	}

	sig := strat.OnCandle(c)
	if sig == nil || t.trade != nil {
		return nil
	}
	if !t.riskEng.TradingAllowed(0) {
		return nil
	}

	t.open(c, sig)
	return nil
}

// exitOnClose confirms stop/target only on the closing price. A close beyond
// the stop still fills at the stop level, matching a resting order.
func (t *Trader) exitOnClose(px float64) (exitPx float64, reason string, hit bool) {
	tr := t.trade
	if tr.Side == strategies.Long {
		switch {
		case px <= tr.Stop:
			return tr.Stop, "SL", true
		case px >= tr.Target:
			return tr.Target, "TP", true
		}
	} else {
		switch {
		case px >= tr.Stop:
			return tr.Stop, "SL", true
		case px <= tr.Target:
			return tr.Target, "TP", true
		}
	}
	return 0, "", false
}

func (t *Trader) open(c market.Candle, sig *strategies.Signal) {
	mult := t.riskEng.SizeNextTrade()
	riskAmt := t.riskEng.RiskAmount(mult)

	dist := sig.Entry - sig.Stop
	if dist < 0 {
		dist = -dist
	}
	if dist <= 0 {
		return
	}

	t.trade = &openTrade{
		TradeID:  id.New(),
		Side:     sig.Side,
		Entry:    sig.Entry,
		Stop:     sig.Stop,
		Target:   sig.Target,
		Units:    riskAmt / dist,
		SizeMult: mult,
		OpenTime: c.Time,
	}
	fmt.Fprintf(t.out, "%s %s entry %.5f stop %.5f target %.5f size x%.2f\n",
		c.Time.Format(time.RFC3339), sig.Side, sig.Entry, sig.Stop, sig.Target, mult)
}

func (t *Trader) close(c market.Candle, exitPx float64, reason string) error {
	tr := t.trade
	t.trade = nil

	move := exitPx - tr.Entry
	if tr.Side == strategies.Short {
		move = -move
	}
	pnl := move * tr.Units

	r := 0.0
	if dist := tr.Entry - tr.Stop; dist != 0 {
		if dist < 0 {
			dist = -dist
		}
		r = move / dist
	}

	result := risk.Loss
	if pnl > 0 {
		result = risk.Win
	}

	t.closed++
	if err := t.riskEng.RecordOutcome(risk.TradeOutcome{
		Sequence:  t.closed,
		Result:    result,
		PnL:       pnl,
		RMultiple: r,
		ClosedAt:  c.Time,
	}); err != nil {
		return err
	}

	if err := t.journal.RecordTrade(journal.TradeRecord{
		TradeID:    tr.TradeID,
		Instrument: t.cfg.Instrument,
		Side:       tr.Side.String(),
		EntryPrice: tr.Entry,
		ExitPrice:  exitPx,
		OpenTime:   tr.OpenTime,
		CloseTime:  c.Time,
		PnL:        pnl,
		RMultiple:  r,
		SizeMult:   tr.SizeMult,
		Reason:     reason,
	}); err != nil {
		return err
	}

	s := t.riskEng.Snapshot()
	if err := t.journal.RecordEquity(journal.EquitySnapshot{
		Time:              c.Time,
		Balance:           s.Balance,
		PeakBalance:       s.PeakBalance,
		Drawdown:          s.Drawdown(),
		ConsecutiveLosses: s.ConsecutiveLosses,
		RecoveryCooldown:  s.RecoveryCooldownRemaining,
		FrozenDaily:       s.TradingFrozenDaily,
		FrozenDrawdown:    s.TradingFrozenDrawdown,
	}); err != nil {
		return err
	}

	fmt.Fprintf(t.out, "%s %s exit %.5f (%s) pnl %.2f balance %.2f\n",
		c.Time.Format(time.RFC3339), tr.Side, exitPx, reason, pnl, s.Balance)

	return t.save(c.Time)
}

func (t *Trader) save(now time.Time) error {
	if t.cfg.StatePath == "" {
		return nil
	}
	st := stateFromAccount(t.cfg.Instrument, t.closed, t.riskEng.Snapshot(), now)
	return SaveState(t.cfg.StatePath, st)
}
