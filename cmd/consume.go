package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dexwatch/dexwatch/internal/signalbus"
	"github.com/dexwatch/dexwatch/internal/store"
	"github.com/dexwatch/dexwatch/pkg/config"
	"github.com/dexwatch/dexwatch/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Subscribe to a signal channel and print messages",
	Long: `Drains a signal bus channel and prints each message to stdout.
Messages are delivered at least once and removed from the store as they
are handed over; a consumer crash between dequeue and print loses those
messages.

Blocks on the Postgres NOTIFY wake-up with a bounded poll fallback.`,
	RunE: runConsume,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(consumeCmd)
	consumeCmd.Flags().StringP("channel", "c", "", "Channel to consume (defaults to SIGNAL_CHANNEL)")
}

func runConsume(cmd *cobra.Command, args []string) error {
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

	sub, err := signalbus.NewSubscriber(&signalbus.SubscriberConfig{
		Bus:          bus,
		Channel:      channel,
		MaxBatch:     cfg.ConsumeBatch,
		PollInterval: cfg.PollInterval,
		ConnStr:      st.ConnString(),
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("create subscriber: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
		cancel()
	}()

	err = sub.Run(ctx, printSignal)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("consume: %w", err)
	}

	return nil
}

func printSignal(_ context.Context, msg types.SignalMessage) error {
	var rec types.AnalysisRecord
	err := json.Unmarshal(msg.Payload, &rec)
	if err != nil {
		// Not every payload is an analysis record; print it raw.
		fmt.Printf("[%s] #%d %s\n", msg.CreatedAt.Format("15:04:05.000"), msg.ID, msg.Payload)
		return nil
	}

	fmt.Printf("[%s] #%d %s %s scores=%v\n",
		msg.CreatedAt.Format("15:04:05.000"),
		msg.ID,
		rec.Event.Address,
		rec.Event.BaseSymbol,
		rec.Scores)
	return nil
}
