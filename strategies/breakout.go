package strategies

import (
	"github.com/quantlab/breakout/indicators"
	"github.com/quantlab/breakout/market"
)

// Breakout trades N-bar channel breakouts:
// - Long when the bar's high exceeds the highest high of the previous N bars,
//   short when its low undercuts the lowest low.
// - Optional volatility filter: only trade while ATR is above its own slow
//   moving average (expanding-volatility regimes).
// - Optional trend filter: longs only above a long moving average of closes,
//   shorts only below it.
// Stops and targets are placed at ATR multiples from the breakout level.
type Breakout struct {
	BreakoutConfig

	extremes *indicators.RollingExtremes
	atr      *indicators.ATR
	slowATR  *indicators.SimpleMA
	trendMA  *indicators.SimpleMA
}

type BreakoutConfig struct {
	BreakoutLength int     `json:"breakout-length" yaml:"breakout-length"` // 25
	ATRPeriod      int     `json:"atr-period" yaml:"atr-period"`           // 14
	ATRStopMult    float64 `json:"atr-stop-mult" yaml:"atr-stop-mult"`     // 0.3
	ATRTargetMult  float64 `json:"atr-target-mult" yaml:"atr-target-mult"` // 4.0

	VolatilityFilter bool `json:"volatility-filter" yaml:"volatility-filter"`
	TrendFilter      bool `json:"trend-filter" yaml:"trend-filter"`
	TrendPeriod      int  `json:"trend-period" yaml:"trend-period"` // 200
}

// BreakoutDefaults returns the parameter set the strategy was tuned with.
func BreakoutDefaults() BreakoutConfig {
	return BreakoutConfig{
		BreakoutLength:   25,
		ATRPeriod:        14,
		ATRStopMult:      0.3,
		ATRTargetMult:    4.0,
		VolatilityFilter: true,
		TrendFilter:      true,
		TrendPeriod:      200,
	}
}

func NewBreakout(cfg BreakoutConfig) *Breakout {
	if cfg.BreakoutLength <= 0 {
		cfg.BreakoutLength = 25
	}
	if cfg.ATRPeriod <= 0 {
		cfg.ATRPeriod = 14
	}
	if cfg.TrendPeriod <= 0 {
		cfg.TrendPeriod = 200
	}

	return &Breakout{
		BreakoutConfig: cfg,
		extremes:       indicators.NewRollingExtremes(cfg.BreakoutLength),
		atr:            indicators.NewATR(cfg.ATRPeriod),
		slowATR:        indicators.NewMA(cfg.ATRPeriod),
		trendMA:        indicators.NewMA(cfg.TrendPeriod),
	}
}

func (s *Breakout) Name() string { return "breakout" }

func (s *Breakout) Reset() {
	s.extremes.Reset()
	s.atr.Reset()
	s.slowATR.Reset()
	s.trendMA.Reset()
}

func (s *Breakout) OnCandle(c market.Candle) *Signal {
	// Channel levels come from the bars strictly before this one.
	channelReady := s.extremes.Ready()
	priorHigh := s.extremes.PriorHigh()
	priorLow := s.extremes.PriorLow()
	s.extremes.Update(c)

	s.atr.Update(c)
	if s.atr.Ready() {
		s.slowATR.Update(s.atr.Value())
	}
	s.trendMA.Update(c.Close)

	if !channelReady || !s.atr.Ready() {
		return nil
	}
	if s.VolatilityFilter && !s.slowATR.Ready() {
		return nil
	}
	if s.TrendFilter && !s.trendMA.Ready() {
		return nil
	}

	if s.VolatilityFilter && s.atr.Value() <= s.slowATR.Value() {
		return nil
	}

	atr := s.atr.Value()

	longOK := c.High > priorHigh && (!s.TrendFilter || c.Close > s.trendMA.Value())
	shortOK := c.Low < priorLow && (!s.TrendFilter || c.Close < s.trendMA.Value())

	switch {
	case longOK:
		entry := priorHigh
		return &Signal{
			Side:   Long,
			Entry:  entry,
			Stop:   entry - s.ATRStopMult*atr,
			Target: entry + s.ATRTargetMult*atr,
			Reason: "BreakoutUp",
		}
	case shortOK:
		entry := priorLow
		return &Signal{
			Side:   Short,
			Entry:  entry,
			Stop:   entry + s.ATRStopMult*atr,
			Target: entry - s.ATRTargetMult*atr,
			Reason: "BreakoutDown",
		}
	default:
		return nil
	}
}
