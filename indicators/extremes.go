package indicators

import (
	"fmt"

	"github.com/quantlab/breakout/market"
)

// RollingExtremes tracks the highest high and lowest low over the last N bars
// pushed. Read PriorHigh/PriorLow before pushing the current bar so the window
// covers only bars strictly before it, then Update with the bar.
type RollingExtremes struct {
	period int
	highs  []float64
	lows   []float64
}

// NewRollingExtremes creates an N-bar high/low window.
func NewRollingExtremes(period int) *RollingExtremes {
	return &RollingExtremes{
		period: period,
		highs:  make([]float64, 0, period),
		lows:   make([]float64, 0, period),
	}
}

func (r *RollingExtremes) Name() string {
	return fmt.Sprintf("HighLow(%d)", r.period)
}

func (r *RollingExtremes) Warmup() int {
	return r.period
}

func (r *RollingExtremes) Reset() {
	r.highs = r.highs[:0]
	r.lows = r.lows[:0]
}

func (r *RollingExtremes) Update(c market.Candle) {
	r.highs = append(r.highs, c.High)
	r.lows = append(r.lows, c.Low)
	if len(r.highs) > r.period {
		r.highs = r.highs[1:]
		r.lows = r.lows[1:]
	}
}

func (r *RollingExtremes) Ready() bool {
	return len(r.highs) >= r.period
}

// PriorHigh returns the highest high in the window.
func (r *RollingExtremes) PriorHigh() float64 {
	if !r.Ready() {
		return 0
	}
	max := r.highs[0]
	for _, h := range r.highs[1:] {
		if h > max {
			max = h
		}
	}
	return max
}

// PriorLow returns the lowest low in the window.
func (r *RollingExtremes) PriorLow() float64 {
	if !r.Ready() {
		return 0
	}
	min := r.lows[0]
	for _, l := range r.lows[1:] {
		if l < min {
			min = l
		}
	}
	return min
}
