package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dexwatch/dexwatch/internal/store"
	"github.com/dexwatch/dexwatch/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the pipeline schema",
	Long: `Creates the three relations the pipeline runs on: the unlogged
cache_store, the trading_signals queue with its channel ordering index, and
the rate_limits counters. Safe to run repeatedly.`,
	RunE: runMigrate,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
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

	err = st.EnsureSchema(context.Background())
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	fmt.Println("schema ready")
	return nil
}
