package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stratd",
	Short: "A crypto strategy engine for backtesting and live signal trading",
	Long: `Stratd evaluates technical trading strategies against historical or live
candle data.

It provides tools for:
  - Backtesting fib-level and RSI strategies over archived bar data
  - Running the strategy loop live against a polling data source
  - Journaling executed orders and equity curves to CSV or SQLite
  - Fetching and compressing historical bar archives`,
}

var (
	cfgPath string
	verbose bool
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (YAML or JSON); defaults apply when omitted")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
