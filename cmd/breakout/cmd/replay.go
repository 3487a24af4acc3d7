package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/quantlab/breakout/market"
	"github.com/quantlab/breakout/replay"
	"github.com/quantlab/breakout/strategies"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay candles as a simulated live session",
	Long: `Replay feeds historical candles through the strategy as if they were arriving
live. Exits confirm on candle closes and the risk state is persisted to a JSON
snapshot after every closed trade, so an interrupted session resumes where it
stopped.

Example:
  breakout replay -candles data/eurusd_candles.csv -state ./session.json -delay 1s`,
	RunE: runReplay,
}

var (
	rpCandlesPath string
	rpConfigPath  string
	rpStatePath   string
	rpDelay       string
)

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringVarP(&rpCandlesPath, "candles", "c", "", "path to candle CSV (time,open,high,low,close) (required)")
	replayCmd.Flags().StringVarP(&rpConfigPath, "config", "f", "", "path to config file (defaults used when omitted)")
	replayCmd.Flags().StringVar(&rpStatePath, "state", "", "override state snapshot path")
	replayCmd.Flags().StringVar(&rpDelay, "delay", "", "override pacing between candles, e.g. 1s (empty = full speed)")

	replayCmd.MarkFlagRequired("candles")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(rpConfigPath)
	if err != nil {
		return err
	}
	if rpStatePath != "" {
		cfg.Replay.StatePath = rpStatePath
	}
	if rpDelay != "" {
		cfg.Replay.Delay = rpDelay
	}

	delay, err := cfg.Replay.ParseDelay()
	if err != nil {
		return fmt.Errorf("delay: %w", err)
	}

	candles, err := market.LoadCandlesCSV(rpCandlesPath)
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

	trader, err := replay.NewTrader(replay.Config{
		Instrument: cfg.Strategy.Instrument,
		Risk:       cfg.RiskSettings(),
		StatePath:  cfg.Replay.StatePath,
		Delay:      delay,
	}, j, os.Stdout)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("Replaying %d candles for %s (state: %s)\n\n",
		len(candles), cfg.Strategy.Instrument, cfg.Replay.StatePath)

	if err := trader.Run(ctx, strat, candles); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println("\nInterrupted; state saved, rerun to resume")
			return nil
		}
		return fmt.Errorf("replay: %w", err)
	}

	s := trader.Risk().Snapshot()
	fmt.Printf("\nReplay Complete!\n")
	fmt.Printf("  Balance: $%.2f\n", s.Balance)
	fmt.Printf("  Peak:    $%.2f\n", s.PeakBalance)
	fmt.Printf("  Drawdown: %.2f%%\n", s.Drawdown()*100)

	return nil
}
