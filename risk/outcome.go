package risk

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrOutcome is wrapped when RecordOutcome rejects a malformed trade outcome.
// The engine state is left untouched on rejection.
var ErrOutcome = errors.New("risk: invalid trade outcome")

// Result classifies a closed trade.
type Result int8

const (
	Win  Result = +1
	Loss Result = -1
)

func (r Result) String() string {
	switch r {
	case Win:
		return "WIN"
	case Loss:
		return "LOSS"
	default:
		return fmt.Sprintf("Result(%d)", int8(r))
	}
}

// TradeOutcome is one closed trade as seen by the risk engine.
// Ordering is by Sequence; ClosedAt is used only for calendar-day bucketing.
type TradeOutcome struct {
	Sequence  int
	Result    Result
	PnL       float64 // signed, account currency
	RMultiple float64 // realized P/L as a multiple of initial risk
	ClosedAt  time.Time
}

func (o TradeOutcome) validate() error {
	if o.Result != Win && o.Result != Loss {
		return fmt.Errorf("%w: result must be WIN or LOSS, got %d", ErrOutcome, int8(o.Result))
	}
	if math.IsNaN(o.PnL) || math.IsInf(o.PnL, 0) {
		return fmt.Errorf("%w: pnl must be finite, got %v", ErrOutcome, o.PnL)
	}
	if math.IsNaN(o.RMultiple) || math.IsInf(o.RMultiple, 0) {
		return fmt.Errorf("%w: r-multiple must be finite, got %v", ErrOutcome, o.RMultiple)
	}
	if o.ClosedAt.IsZero() {
		return fmt.Errorf("%w: close time must be set", ErrOutcome)
	}
	return nil
}
