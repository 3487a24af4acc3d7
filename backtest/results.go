package backtest

import (
	"fmt"
	"io"
	"time"

	"github.com/quantlab/breakout/journal"
	"github.com/quantlab/breakout/market"
)

// Result is a summary of one backtest run.
type Result struct {
	Instrument string

	Start time.Time
	End   time.Time

	Trades int
	Wins   int
	Losses int

	TotalR     float64
	WinRate    float64 // percent
	Expectancy float64 // average R per trade

	GrossProfit  float64
	GrossLoss    float64
	ProfitFactor float64

	StartBalance float64
	EndBalance   float64
	MaxDrawdown  float64 // monetary, from the trade-close equity curve

	TradeLog []journal.TradeRecord
}

func (e *Engine) summarize(candles []market.Candle) Result {
	r := Result{
		Instrument:   e.cfg.Instrument,
		Start:        candles[0].Time,
		End:          candles[len(candles)-1].Time,
		Trades:       len(e.trades),
		StartBalance: e.cfg.Risk.InitialBalance,
		EndBalance:   e.riskEng.Snapshot().Balance,
		TradeLog:     e.trades,
	}

	for _, t := range e.trades {
		r.TotalR += t.RMultiple
		if t.PnL > 0 {
			r.Wins++
			r.GrossProfit += t.PnL
		} else {
			r.Losses++
			r.GrossLoss += -t.PnL
		}
	}

	if r.Trades > 0 {
		r.WinRate = float64(r.Wins) / float64(r.Trades) * 100
		r.Expectancy = r.TotalR / float64(r.Trades)
	}
	if r.GrossLoss > 0 {
		r.ProfitFactor = r.GrossProfit / r.GrossLoss
	}

	peak := e.equity[0]
	for _, v := range e.equity {
		if v > peak {
			peak = v
		}
		if dd := peak - v; dd > r.MaxDrawdown {
			r.MaxDrawdown = dd
		}
	}

	return r
}

// Print writes a human-readable report for the run.
func (r Result) Print(w io.Writer) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Instrument:    %s\n", r.Instrument)
	fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
	fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", r.Trades)
	fmt.Fprintf(w, "Wins:          %d\n", r.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", r.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", r.WinRate)
	fmt.Fprintf(w, "Total R:       %.2f\n", r.TotalR)
	fmt.Fprintf(w, "Expectancy:    %.2f R\n", r.Expectancy)
	if r.ProfitFactor > 0 {
		fmt.Fprintf(w, "Profit Factor: %.2f\n", r.ProfitFactor)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Balance: %.2f\n", r.StartBalance)
	fmt.Fprintf(w, "End Balance:   %.2f\n", r.EndBalance)
	fmt.Fprintf(w, "Net P/L:       %.2f\n", r.EndBalance-r.StartBalance)
	if r.StartBalance > 0 {
		fmt.Fprintf(w, "Return:        %.2f%%\n", (r.EndBalance-r.StartBalance)/r.StartBalance*100)
	}
	fmt.Fprintf(w, "Max Drawdown:  %.2f\n", r.MaxDrawdown)

	fmt.Fprintln(w)
}
