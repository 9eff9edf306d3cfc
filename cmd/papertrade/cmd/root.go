package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "papertrade",
	Short: "A leveraged-futures paper-trading simulator with a live dashboard",
	Long: `Papertrade maintains a synthetic leveraged-futures portfolio against
live spot prices, lets a single trader submit market orders against it, and
streams portfolio and trade state to connected viewers in real time.

It provides:
  - A position and margin ledger (equity, used margin, liquidation price)
  - Market-order execution with initial-margin checks
  - A synthetic order book and ambient tape prints
  - SSE and websocket fan-out of snapshots and trades
  - Optional CSV or SQLite journaling of fills`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}
