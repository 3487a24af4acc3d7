package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, instrument, side, entry_price, exit_price, open_time, close_time, pnl, r_multiple, size_mult, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Instrument, t.Side, t.EntryPrice, t.ExitPrice,
		t.OpenTime, t.CloseTime, t.PnL, t.RMultiple, t.SizeMult, t.Reason,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(time, balance, peak_balance, drawdown, consecutive_losses, recovery_cooldown, frozen_daily, frozen_drawdown)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Time, e.Balance, e.PeakBalance, e.Drawdown,
		e.ConsecutiveLosses, e.RecoveryCooldown, e.FrozenDaily, e.FrozenDrawdown,
	)
	return err
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
