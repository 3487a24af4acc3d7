package strategies

import (
	"fmt"
	"strings"

	"github.com/quantlab/breakout/market"
)

// Side: +1 long, -1 short
type Side int8

const (
	Long  Side = +1
	Short Side = -1
)

func (s Side) String() string {
	if s == Short {
		return "Short"
	}
	return "Long"
}

// Signal is an entry proposal emitted by a strategy for the current bar.
// Prices are absolute; position sizing is the caller's concern.
type Signal struct {
	Side   Side
	Entry  float64
	Stop   float64
	Target float64
	Reason string
}

// CandleStrategy is the minimal interface a candle-driven strategy implements.
// OnCandle is called once per bar in chronological order and returns nil when
// there is no entry signal (including during indicator warm-up).
type CandleStrategy interface {
	Name() string
	Reset()
	OnCandle(c market.Candle) *Signal
}

// ByName builds a strategy from its CLI name.
func ByName(name string, cfg BreakoutConfig) (CandleStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "noop", "none":
		return NoopStrategy{}, nil

	case "breakout":
		return NewBreakout(cfg), nil

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: noop, breakout)", name)
	}
}
