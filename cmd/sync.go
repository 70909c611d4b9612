package cmd

import (
	"context"
	"fmt"
	"time"

	"tournament-sync/core/config"
	"tournament-sync/core/docstore"
	"tournament-sync/core/livestore"
	"tournament-sync/core/logger"
	"tournament-sync/feature/robotevents"
	syncfeature "tournament-sync/feature/sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// syncCmd runs one sync pass in the given mode.
var syncCmd = &cobra.Command{
	Use:   "sync <full|new|live>",
	Short: "Harvest the configured season into the stores",
	Long: `Runs one sync pass over the configured season.

Modes:
  full   Visit every event; re-process events whose stored data is incomplete.
  new    Visit only events that have no durable record yet.
  live   Loop over currently running events, pushing rankings and matches to
         the low-latency store until the wall-clock budget expires.

Examples:
  # One-off backfill of the whole season
  tournament-sync sync full

  # Cheap incremental pass, suitable for a frequent schedule
  tournament-sync sync new

  # Live refresh loop during competition days
  tournament-sync sync live`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

func init() {
	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	mode, err := syncfeature.ParseMode(args[0])
	if err != nil {
		return err
	}

	ctx := context.Background()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logg.Sync()
	zap.ReplaceGlobals(logg)

	keys := cfg.API.KeyList()
	if len(keys) == 0 {
		return fmt.Errorf("no API keys configured (set API_KEYS)")
	}
	if cfg.Sync.Season == "" {
		return fmt.Errorf("no target season configured (set SYNC_SEASON)")
	}

	// API client behind the key pool
	pool := robotevents.NewKeyPool(keys, cfg.API)
	api := robotevents.NewClient(cfg.API, pool, logg)

	// Durable store
	store, err := docstore.NewClient(ctx, cfg.Firestore)
	if err != nil {
		return fmt.Errorf("failed to connect to durable store: %w", err)
	}
	defer store.Close()
	writer := docstore.NewWriter(store, cfg.Firestore, logg)

	// Low-latency store; only live mode talks to it
	var publisher *livestore.Publisher
	if mode == syncfeature.ModeLive {
		liveClient, err := livestore.NewClient(ctx, cfg.Livestore)
		if err != nil {
			return fmt.Errorf("failed to connect to live store: %w", err)
		}
		publisher = livestore.NewPublisher(liveClient, livestore.ParseStrategy(cfg.Livestore.Strategy), logg)
	}

	svc := syncfeature.New(api, store, writer, publisher, cfg.Sync, logg)

	logg.Info("Starting sync",
		zap.String("mode", mode.String()),
		zap.String("season", cfg.Sync.Season),
		zap.Int("keys", len(keys)),
	)

	if mode == syncfeature.ModeLive {
		budget := time.Duration(cfg.Sync.LiveBudgetMinutes) * time.Minute
		interval := time.Duration(cfg.Sync.LiveIntervalSeconds) * time.Second
		return svc.RunLive(ctx, budget, interval)
	}
	return svc.Run(ctx, mode)
}
