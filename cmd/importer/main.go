// Command importer runs the activity import once in the foreground and
// manages the Postgres schema.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Priya8975/merchant-activity-service/internal/config"
	"github.com/Priya8975/merchant-activity-service/internal/ingest"
	"github.com/Priya8975/merchant-activity-service/internal/store"
	"github.com/Priya8975/merchant-activity-service/internal/worker"
)

var rootCmd = &cobra.Command{
	Use:   "importer",
	Short: "Merchant activity importer",
	Long: `importer loads activity CSV files into the activity store.

Configuration is read from the environment (and .env), the same as the
server. Flags override the matching environment values.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one import and print its summary",
	RunE:  runImport,
}

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply or roll back the Postgres schema",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := store.RunMigrations(cfg.DatabaseURL, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "migrations %s applied\n", args[0])
		return nil
	},
}

func init() {
	runCmd.Flags().String("data-dir", "", "directory to scan for source files (default: DATA_DIR)")
	runCmd.Flags().Int("batch-size", 0, "rows per storage write (default: IMPORT_BATCH_SIZE)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(migrateCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
		cfg.DataDir = dir
	}
	if n, _ := cmd.Flags().GetInt("batch-size"); n != 0 {
		if n < 0 {
			return fmt.Errorf("--batch-size must be positive, got %d", n)
		}
		cfg.BatchSize = n
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	ctx := context.Background()

	backend, err := store.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	var runState worker.RunStateStore
	if cfg.RedisURL != "" {
		redisStore, err := store.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisStore.Close()
		runState = redisStore
	}

	launcher := worker.NewLauncher(backend, ingest.Config{
		DataDir:    cfg.DataDir,
		FilePrefix: cfg.FilePrefix,
		BatchSize:  cfg.BatchSize,
	}, runState, cfg.LockTTL, logger)

	summary, err := launcher.Start(ctx).Wait(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
