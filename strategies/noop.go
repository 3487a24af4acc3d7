package strategies

import "github.com/quantlab/breakout/market"

// NoopStrategy never signals. Useful as a backtest baseline.
type NoopStrategy struct{}

func (NoopStrategy) Name() string { return "noop" }

func (NoopStrategy) Reset() {}

func (NoopStrategy) OnCandle(c market.Candle) *Signal {
	_ = c
	return nil
}
