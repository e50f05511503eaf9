package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dexwatch/dexwatch/internal/app"
	"github.com/dexwatch/dexwatch/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the analysis pipeline",
	Long: `Starts the dexwatch pipeline, which will:
1. Stream pair events from the market data feed
2. Rate-limit the ingestion path and memoize analysis results
3. Score events for pump/rug anomalies
4. Publish actionable signals to the trading channel

Use --feed-url to point at an alternative feed for debugging.`,
	RunE: runPipeline,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("feed-url", "f", "", "Override the market data feed URL (for debugging)")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	feedURL, _ := cmd.Flags().GetString("feed-url")

	opts := &app.Options{
		FeedURL: feedURL,
	}

	application, err := app.New(cfg, logger, opts)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
