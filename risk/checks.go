package risk

import "fmt"

// Violation names one reason trading is currently blocked.
type Violation struct {
	Code string
	Msg  string
}

// Decision is the result of evaluating whether a new trade may be opened.
type Decision struct {
	Allowed    bool
	Violations []Violation
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Evaluate checks every gate and reports all violations, not just the first.
// It is a pure read: no counters move.
func (e *Engine) Evaluate(openTrades int) Decision {
	d := Decision{Allowed: true}
	s := e.state

	if s.TradingFrozenDrawdown {
		d.add("DRAWDOWN_STOP",
			fmt.Sprintf("hard drawdown stop hit (%.1f%% > %.1f%% of peak), trading halted for the run",
				100*s.Drawdown(), 100*e.cfg.MaxDrawdownFraction))
	}
	if s.TradingFrozenDaily {
		d.add("DAILY_LOSS_LIMIT",
			fmt.Sprintf("daily loss %.2f exceeds limit %.2f, frozen until next day",
				s.DailyLossAccumulator, e.cfg.DailyLossLimit))
	}
	if dd := s.Drawdown(); dd > e.cfg.SoftStopFraction {
		d.add("SOFT_STOP",
			fmt.Sprintf("drawdown %.1f%% above soft stop %.1f%%, no new entries until equity recovers",
				100*dd, 100*e.cfg.SoftStopFraction))
	}
	if openTrades >= e.cfg.MaxConcurrentTrades {
		d.add("TOO_MANY_OPEN_TRADES",
			fmt.Sprintf("open trades %d >= max %d", openTrades, e.cfg.MaxConcurrentTrades))
	}

	return d
}

// TradingAllowed reports whether a new trade may be opened right now given
// the number of currently open positions.
func (e *Engine) TradingAllowed(openTrades int) bool {
	return e.Evaluate(openTrades).Allowed
}
