package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:           "loanbot",
	Short:         "Loan advisory service: catalog, eligibility, EMI, chat and Loan DNA",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(loansCmd)
	rootCmd.AddCommand(eligibilityCmd)
	rootCmd.AddCommand(emiCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(dnaCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}

