package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "refunds",
	Short: "Refunds microservice",
	Long:  "A refund and escrow settlement microservice for marketplace payments, covering eligibility, gateway refunds, and settlement jobs.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
