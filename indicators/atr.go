package indicators

import (
	"fmt"

	"github.com/quantlab/breakout/market"
)

// ATR is a streaming Average True Range indicator using Wilder's exponential
// smoothing (alpha = 1/period). The first bar's true range falls back to
// high-low since there is no previous close.
type ATR struct {
	period    int
	alpha     float64
	atr       float64
	prevClose float64
	count     int
}

// NewATR creates an Average True Range indicator with the given period.
func NewATR(period int) *ATR {
	return &ATR{
		period: period,
		alpha:  1.0 / float64(period),
	}
}

func (a *ATR) Name() string {
	return fmt.Sprintf("ATR(%d)", a.period)
}

func (a *ATR) Warmup() int {
	return a.period
}

func (a *ATR) Reset() {
	a.atr = 0
	a.prevClose = 0
	a.count = 0
}

func (a *ATR) Update(c market.Candle) {
	var tr float64
	if a.count == 0 {
		tr = c.High - c.Low
		a.atr = tr
	} else {
		tr = c.TrueRange(a.prevClose)
		a.atr = (1-a.alpha)*a.atr + a.alpha*tr
	}
	a.prevClose = c.Close
	a.count++
}

func (a *ATR) Ready() bool {
	return a.count >= a.period
}

func (a *ATR) Value() float64 {
	if !a.Ready() {
		return 0
	}
	return a.atr
}
