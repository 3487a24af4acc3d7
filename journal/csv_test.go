package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCSV(t *testing.T) (*CSVJournal, string, string) {
	t.Helper()
	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tradesPath, equityPath)
	require.NoError(t, err)
	return j, tradesPath, equityPath
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournalHeaders(t *testing.T) {
	t.Parallel()

	j, tradesPath, equityPath := newCSV(t)
	require.NoError(t, j.Close())

	wantTrades := []string{"trade_id", "instrument", "side", "entry_price", "exit_price", "open_time", "close_time", "pnl", "r_multiple", "size_mult", "reason"}
	wantEquity := []string{"time", "balance", "peak_balance", "drawdown", "consecutive_losses", "recovery_cooldown", "frozen_daily", "frozen_drawdown"}

	assert.Equal(t, wantTrades, readCSV(t, tradesPath)[0])
	assert.Equal(t, wantEquity, readCSV(t, equityPath)[0])
}

func TestCSVJournalRecordTrade(t *testing.T) {
	t.Parallel()

	j, tradesPath, _ := newCSV(t)

	open := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	closeT := time.Date(2024, 1, 2, 4, 5, 6, 0, time.UTC)

	err := j.RecordTrade(TradeRecord{
		TradeID:    "T1",
		Instrument: "EUR_USD",
		Side:       "Long",
		EntryPrice: 1.1234567,
		ExitPrice:  1.1334567,
		OpenTime:   open,
		CloseTime:  closeT,
		PnL:        -12.5,
		RMultiple:  -1.0,
		SizeMult:   0.8,
		Reason:     "SL",
	})
	require.NoError(t, err)
	require.NoError(t, j.Close())

	rows := readCSV(t, tradesPath)
	require.Len(t, rows, 2)

	row := rows[1]
	assert.Equal(t, "T1", row[0])
	assert.Equal(t, "EUR_USD", row[1])
	assert.Equal(t, "Long", row[2])
	assert.Equal(t, "1.123457", row[3])
	assert.Equal(t, open.Format(time.RFC3339), row[5])
	assert.Equal(t, "-12.500000", row[7])
	assert.Equal(t, "0.800000", row[9])
	assert.Equal(t, "SL", row[10])
}

func TestCSVJournalRecordEquity(t *testing.T) {
	t.Parallel()

	j, _, equityPath := newCSV(t)

	err := j.RecordEquity(EquitySnapshot{
		Time:              time.Date(2024, 1, 2, 4, 5, 6, 0, time.UTC),
		Balance:           9800,
		PeakBalance:       10000,
		Drawdown:          0.02,
		ConsecutiveLosses: 2,
		RecoveryCooldown:  5,
		FrozenDaily:       false,
		FrozenDrawdown:    true,
	})
	require.NoError(t, err)
	require.NoError(t, j.Close())

	rows := readCSV(t, equityPath)
	require.Len(t, rows, 2)

	row := rows[1]
	assert.Equal(t, "9800.000000", row[1])
	assert.Equal(t, "2", row[4])
	assert.Equal(t, "5", row[5])
	assert.Equal(t, "0", row[6])
	assert.Equal(t, "1", row[7])
}
