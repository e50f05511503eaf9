package cmd

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dexwatch/dexwatch/internal/signalbus"
	"github.com/dexwatch/dexwatch/internal/store"
	"github.com/dexwatch/dexwatch/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var publishCmd = &cobra.Command{
	Use:   "publish <json-payload>",
	Short: "Publish a message to a signal channel",
	Long: `Appends one message to a signal bus channel and wakes its consumers.
Intended for operational testing of downstream subscribers.`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().StringP("channel", "c", "", "Target channel (defaults to SIGNAL_CHANNEL)")
}

func runPublish(cmd *cobra.Command, args []string) error {
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

	channel, _ := cmd.Flags().GetString("channel")
	if channel == "" {
		channel = cfg.SignalChannel
	}

	payload := []byte(args[0])
	if !json.Valid(payload) {
		return fmt.Errorf("payload is not valid JSON")
	}

	st, err := store.New(&store.Config{
		Host:         cfg.PostgresHost,
		Port:         cfg.PostgresPort,
		User:         cfg.PostgresUser,
		Password:     cfg.PostgresPass,
		Database:     cfg.PostgresDB,
		SSLMode:      cfg.PostgresSSL,
		QueryTimeout: cfg.QueryTimeout,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	defer func() {
		_ = st.Close()
	}()

	bus := signalbus.New(st, logger)

	err = bus.Publish(context.Background(), channel, payload)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	fmt.Printf("published to %s\n", channel)
	return nil
}
