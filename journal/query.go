package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// GetTrade returns a single trade record by ID.
func (j *SQLiteJournal) GetTrade(tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(`
		SELECT trade_id, instrument, side, entry_price, exit_price, open_time, close_time, pnl, r_multiple, size_mult, reason
		FROM trades
		WHERE trade_id = ?`, tradeID)

	var rec TradeRecord
	err := scanTrade(row, &rec)
	if err != nil {
		if err == sql.ErrNoRows {
			return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesClosedBetween returns trades whose close_time is within [start, end),
// ordered by close time.
func (j *SQLiteJournal) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, instrument, side, entry_price, exit_price, open_time, close_time, pnl, r_multiple, size_mult, reason
		FROM trades
		WHERE close_time >= ? AND close_time < ?
		ORDER BY close_time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := scanTrade(rows, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LastEquity returns the most recent equity snapshot, or sql.ErrNoRows if the
// run has no snapshots yet.
func (j *SQLiteJournal) LastEquity() (EquitySnapshot, error) {
	row := j.db.QueryRow(`
		SELECT time, balance, peak_balance, drawdown, consecutive_losses, recovery_cooldown, frozen_daily, frozen_drawdown
		FROM equity
		ORDER BY time DESC
		LIMIT 1`)

	var e EquitySnapshot
	err := row.Scan(
		&e.Time,
		&e.Balance,
		&e.PeakBalance,
		&e.Drawdown,
		&e.ConsecutiveLosses,
		&e.RecoveryCooldown,
		&e.FrozenDaily,
		&e.FrozenDrawdown,
	)
	if err != nil {
		return EquitySnapshot{}, err
	}
	return e, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(r rowScanner, rec *TradeRecord) error {
	return r.Scan(
		&rec.TradeID,
		&rec.Instrument,
		&rec.Side,
		&rec.EntryPrice,
		&rec.ExitPrice,
		&rec.OpenTime,
		&rec.CloseTime,
		&rec.PnL,
		&rec.RMultiple,
		&rec.SizeMult,
		&rec.Reason,
	)
}
