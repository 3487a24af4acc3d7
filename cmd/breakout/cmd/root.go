package cmd

import (
	"fmt"

	"github.com/quantlab/breakout/config"
	"github.com/quantlab/breakout/journal"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "breakout",
	Short: "Channel-breakout trading research with streak-aware risk control",
	Long: `Breakout backtests and replays a channel-breakout strategy over candle data,
sizing every trade through a streak-aware risk engine.

It provides tools for:
  - Backtesting the breakout strategy against historical candles
  - Replaying candles as a simulated live session with durable state
  - Journaling trades and equity curves to CSV or SQLite
  - Drawdown and daily-loss circuit breakers with recovery sizing`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig returns defaults when no file was given.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(path)
}

func openJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "csv":
		return journal.NewCSV(jc.TradesFile, jc.EquityFile)
	case "sqlite":
		return journal.NewSQLite(jc.DBPath)
	case "", "none":
		return journal.Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown journal type %q", jc.Type)
	}
}
