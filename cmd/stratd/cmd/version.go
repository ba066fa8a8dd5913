package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the stratd CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stratd version %s\n", version)
		fmt.Println("A crypto strategy engine for backtesting and live signal trading")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
