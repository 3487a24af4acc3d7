package journal

import "time"

// TradeRecord is one closed trade.
type TradeRecord struct {
	TradeID    string
	Instrument string
	Side       string
	EntryPrice float64
	ExitPrice  float64
	OpenTime   time.Time
	CloseTime  time.Time
	PnL        float64
	RMultiple  float64
	SizeMult   float64
	Reason     string
}

// EquitySnapshot is the risk state captured after each closed trade. Persisting
// these rows is what lets a run be resumed or audited after the fact.
type EquitySnapshot struct {
	Time              time.Time
	Balance           float64
	PeakBalance       float64
	Drawdown          float64
	ConsecutiveLosses int
	RecoveryCooldown  int
	FrozenDaily       bool
	FrozenDrawdown    bool
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Nop discards everything. Useful when a caller wants no journaling.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error     { return nil }
func (Nop) RecordEquity(EquitySnapshot) error { return nil }
func (Nop) Close() error                      { return nil }
