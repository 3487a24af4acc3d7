package cmd

import (
	"fmt"
	"os"

	"github.com/quantlab/breakout/backtest"
	"github.com/quantlab/breakout/market"
	"github.com/quantlab/breakout/strategies"
	"github.com/spf13/cobra"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run the strategy over historical candles",
	Long: `Backtest feeds a candle CSV (time,open,high,low,close) through the strategy,
sizes entries with the risk engine, and prints a performance report.

Example:
  breakout backtest -candles data/eurusd_candles.csv -config run.yaml`,
	RunE: runBacktest,
}

var (
	btCandlesPath string
	btConfigPath  string
	btStrategy    string
	btCloseEnd    bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btCandlesPath, "candles", "c", "", "path to candle CSV (time,open,high,low,close) (required)")
	backtestCmd.Flags().StringVarP(&btConfigPath, "config", "f", "", "path to config file (defaults used when omitted)")
	backtestCmd.Flags().StringVarP(&btStrategy, "strategy", "s", "", "override strategy name (noop, breakout)")
	backtestCmd.Flags().BoolVar(&btCloseEnd, "close-end", true, "close an open position at the last candle")

	backtestCmd.MarkFlagRequired("candles")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(btConfigPath)
	if err != nil {
		return err
	}
	if btStrategy != "" {
		cfg.Strategy.Name = btStrategy
	}

	candles, err := market.LoadCandlesCSV(btCandlesPath)
	if err != nil {
		return fmt.Errorf("load candles: %w", err)
	}

	strat, err := strategies.ByName(cfg.Strategy.Name, cfg.Strategy.Breakout)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	engine, err := backtest.NewEngine(backtest.Config{
		Instrument: cfg.Strategy.Instrument,
		Risk:       cfg.RiskSettings(),
		CloseAtEnd: btCloseEnd,
	}, j)
	if err != nil {
		return err
	}

	fmt.Printf("Running backtest with strategy: %s\n", cfg.Strategy.Name)
	fmt.Printf("  Candles: %s (%d bars)\n", btCandlesPath, len(candles))
	fmt.Printf("  Journal: %s\n\n", cfg.Journal.Type)

	res, err := engine.Run(strat, candles)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	res.Print(os.Stdout)
	return nil
}
