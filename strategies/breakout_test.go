package strategies

import (
	"testing"
	"time"

	"github.com/quantlab/breakout/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bar(h, l, c float64) market.Candle {
	return market.Candle{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Open: c, High: h, Low: l, Close: c}
}

// Small periods keep the warm-up short without changing the logic.
func fastConfig() BreakoutConfig {
	return BreakoutConfig{
		BreakoutLength: 3,
		ATRPeriod:      2,
		ATRStopMult:    0.3,
		ATRTargetMult:  4.0,
	}
}

var warmup = []market.Candle{
	bar(1.10, 1.00, 1.05),
	bar(1.12, 1.02, 1.08),
	bar(1.11, 1.03, 1.07),
}

func feed(t *testing.T, s CandleStrategy, candles []market.Candle) {
	t.Helper()
	for _, c := range candles {
		require.Nil(t, s.OnCandle(c), "no signal expected during warm-up")
	}
}

func TestBreakoutNoSignalDuringWarmup(t *testing.T) {
	t.Parallel()

	s := NewBreakout(fastConfig())
	feed(t, s, warmup)
}

func TestBreakoutLongSignal(t *testing.T) {
	t.Parallel()

	s := NewBreakout(fastConfig())
	feed(t, s, warmup)

	sig := s.OnCandle(bar(1.20, 1.05, 1.18))
	require.NotNil(t, sig)

	assert.Equal(t, Long, sig.Side)
	assert.Equal(t, "BreakoutUp", sig.Reason)
	assert.InDelta(t, 1.12, sig.Entry, 1e-9, "entry at the prior 3-bar high")

	// ATR(2) after the four bars is 0.12; stop 0.3 ATR below entry, target 4 ATR above.
	assert.InDelta(t, 1.12-0.3*0.12, sig.Stop, 1e-9)
	assert.InDelta(t, 1.12+4.0*0.12, sig.Target, 1e-9)
}

func TestBreakoutShortSignal(t *testing.T) {
	t.Parallel()

	s := NewBreakout(fastConfig())
	feed(t, s, warmup)

	sig := s.OnCandle(bar(1.04, 0.95, 0.97))
	require.NotNil(t, sig)

	assert.Equal(t, Short, sig.Side)
	assert.Equal(t, "BreakoutDown", sig.Reason)
	assert.InDelta(t, 1.00, sig.Entry, 1e-9, "entry at the prior 3-bar low")
	assert.Greater(t, sig.Stop, sig.Entry)
	assert.Less(t, sig.Target, sig.Entry)
}

func TestBreakoutInsideBarNoSignal(t *testing.T) {
	t.Parallel()

	s := NewBreakout(fastConfig())
	feed(t, s, warmup)

	assert.Nil(t, s.OnCandle(bar(1.11, 1.04, 1.08)))
}

func TestBreakoutVolatilityFilterBlocksContraction(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	cfg.VolatilityFilter = true
	s := NewBreakout(cfg)
	feed(t, s, warmup)

	// Breaks the channel but on a narrow bar: ATR has fallen below its slow MA.
	assert.Nil(t, s.OnCandle(bar(1.13, 1.10, 1.12)))
}

func TestBreakoutTrendFilterBlocksCounterTrend(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	cfg.TrendFilter = true
	cfg.TrendPeriod = 3
	s := NewBreakout(cfg)
	feed(t, s, warmup)

	// Upside breakout whose close sits below the 3-bar MA of closes.
	assert.Nil(t, s.OnCandle(bar(1.20, 1.01, 1.02)))
}

func TestBreakoutReset(t *testing.T) {
	t.Parallel()

	s := NewBreakout(fastConfig())
	feed(t, s, warmup)

	s.Reset()
	// Back in warm-up: the same breakout bar no longer signals.
	assert.Nil(t, s.OnCandle(bar(1.20, 1.05, 1.18)))
}

func TestByName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"breakout", "breakout", false},
		{"noop", "noop", false},
		{"NONE", "noop", false},
		{"martingale", "", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, err := ByName(tt.name, BreakoutDefaults())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Name())
		})
	}
}
