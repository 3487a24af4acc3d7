package backtest

import (
	"fmt"

	"github.com/quantlab/breakout/internal/id"
	"github.com/quantlab/breakout/journal"
	"github.com/quantlab/breakout/market"
	"github.com/quantlab/breakout/risk"
	"github.com/quantlab/breakout/strategies"
)

type Config struct {
	Instrument string
	Risk       risk.Config

	// CloseAtEnd closes any position still open after the last candle at
	// that candle's close.
	CloseAtEnd bool
}

// Position is the single open trade the engine manages. Entry and exit
// checks span candles: a position opened on one bar is only eligible for
// stop/target exits from the following bar on.
type Position struct {
	Open     bool
	TradeID  string
	Side     strategies.Side
	Entry    float64
	Stop     float64
	Target   float64
	Units    float64
	SizeMult float64
	RiskAmt  float64
	EntryTime market.Candle
}

// Engine replays candles through a strategy, gates and sizes entries with the
// risk engine, and resolves stop/target exits bar by bar.
type Engine struct {
	cfg     Config
	riskEng *risk.Engine
	journal journal.Journal

	pos Position
	seq int

	trades []journal.TradeRecord
	equity []float64
}

func NewEngine(cfg Config, j journal.Journal) (*Engine, error) {
	if cfg.Instrument == "" {
		return nil, fmt.Errorf("backtest: instrument required")
	}
	re, err := risk.NewEngine(cfg.Risk)
	if err != nil {
		return nil, err
	}
	if j == nil {
		j = journal.Nop{}
	}
	return &Engine{cfg: cfg, riskEng: re, journal: j}, nil
}

// Risk exposes the engine's risk state, e.g. for reporting after a run.
func (e *Engine) Risk() *risk.Engine { return e.riskEng }

// Run executes the backtest over candles in order. Candles must be
// chronologically sorted; the strategy sees every bar, including bars where
// trading is frozen, so its indicators stay warm.
func (e *Engine) Run(strat strategies.CandleStrategy, candles []market.Candle) (Result, error) {
	if len(candles) == 0 {
		return Result{}, fmt.Errorf("backtest: no candles")
	}

	strat.Reset()
	e.equity = append(e.equity, e.riskEng.Snapshot().Balance)

	for _, c := range candles {
		// Exits first: a position opened on an earlier bar may hit its stop
		// or target inside this bar.
		if e.pos.Open {
			if exitPx, reason, hit := checkExit(e.pos, c); hit {
				if err := e.closePosition(c, exitPx, reason); err != nil {
					return Result{}, err
				}
			}
		}

		sig := strat.OnCandle(c)
		if sig == nil || e.pos.Open {
			continue
		}
		if !e.riskEng.TradingAllowed(0) {
			continue
		}

		e.openPosition(c, sig)
	}

	if e.cfg.CloseAtEnd && e.pos.Open {
		last := candles[len(candles)-1]
		if err := e.closePosition(last, last.Close, "EndOfData"); err != nil {
			return Result{}, err
		}
	}

	return e.summarize(candles), nil
}

// checkExit resolves stop/target hits within the bar. When both levels fall
// inside the bar's range the level nearer to the entry is assumed to have
// been touched first.
func checkExit(p Position, c market.Candle) (exitPx float64, reason string, hit bool) {
	var stopHit, targetHit bool
	if p.Side == strategies.Long {
		stopHit = c.Low <= p.Stop
		targetHit = c.High >= p.Target
	} else {
		stopHit = c.High >= p.Stop
		targetHit = c.Low <= p.Target
	}

	switch {
	case stopHit && targetHit:
		distStop := abs(p.Entry - p.Stop)
		distTarget := abs(p.Target - p.Entry)
		if distTarget <= distStop {
			return p.Target, "TP", true
		}
		return p.Stop, "SL", true
	case stopHit:
		return p.Stop, "SL", true
	case targetHit:
		return p.Target, "TP", true
	default:
		return 0, "", false
	}
}

func (e *Engine) openPosition(c market.Candle, sig *strategies.Signal) {
	mult := e.riskEng.SizeNextTrade()
	riskAmt := e.riskEng.RiskAmount(mult)

	dist := abs(sig.Entry - sig.Stop)
	if dist <= 0 {
		return
	}

	e.pos = Position{
		Open:      true,
		TradeID:   id.New(),
		Side:      sig.Side,
		Entry:     sig.Entry,
		Stop:      sig.Stop,
		Target:    sig.Target,
		Units:     riskAmt / dist,
		SizeMult:  mult,
		RiskAmt:   riskAmt,
		EntryTime: c,
	}
}

func (e *Engine) closePosition(c market.Candle, exitPx float64, reason string) error {
	p := e.pos
	e.pos.Open = false

	move := exitPx - p.Entry
	if p.Side == strategies.Short {
		move = -move
	}
	pnl := move * p.Units

	r := 0.0
	if dist := abs(p.Entry - p.Stop); dist > 0 {
		r = move / dist
	}

	result := risk.Loss
	if pnl > 0 {
		result = risk.Win
	}

	e.seq++
	if err := e.riskEng.RecordOutcome(risk.TradeOutcome{
		Sequence:  e.seq,
		Result:    result,
		PnL:       pnl,
		RMultiple: r,
		ClosedAt:  c.Time,
	}); err != nil {
		return err
	}

	rec := journal.TradeRecord{
		TradeID:    p.TradeID,
		Instrument: e.cfg.Instrument,
		Side:       p.Side.String(),
		EntryPrice: p.Entry,
		ExitPrice:  exitPx,
		OpenTime:   p.EntryTime.Time,
		CloseTime:  c.Time,
		PnL:        pnl,
		RMultiple:  r,
		SizeMult:   p.SizeMult,
		Reason:     reason,
	}
	e.trades = append(e.trades, rec)
	if err := e.journal.RecordTrade(rec); err != nil {
		return err
	}

	s := e.riskEng.Snapshot()
	e.equity = append(e.equity, s.Balance)
	return e.journal.RecordEquity(journal.EquitySnapshot{
		Time:              c.Time,
		Balance:           s.Balance,
		PeakBalance:       s.PeakBalance,
		Drawdown:          s.Drawdown(),
		ConsecutiveLosses: s.ConsecutiveLosses,
		RecoveryCooldown:  s.RecoveryCooldownRemaining,
		FrozenDaily:       s.TradingFrozenDaily,
		FrozenDrawdown:    s.TradingFrozenDrawdown,
	})
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
