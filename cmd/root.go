package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "dexwatch",
	Short: "DEX pair anomaly pipeline",
	Long: `dexwatch ingests real-time DEX pair events, scores them for anomalous
behavior (pump and rug patterns), and fans actionable signals out to
downstream consumers.

A single PostgreSQL database serves as the durable TTL cache, the atomic
rate limiter and the publish/subscribe signal bus, so no separate cache or
broker process is needed.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
