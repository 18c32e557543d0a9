package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/remindd/internal/config"
	"github.com/sandeepkv93/remindd/internal/dispatch"
	"github.com/sandeepkv93/remindd/internal/storage"
	"github.com/sandeepkv93/remindd/internal/syncer"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reminder daemon",
	RunE:  runServe,
}

const (
	cleanupInterval  = time.Hour
	optimizeInterval = 6 * time.Hour
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return err
	}
	store, err := storage.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))

	// One gate for the tick loop and the sync cycle; they share the
	// store and must never interleave around a snapshot write-back.
	var gate sync.Mutex
	engine := syncer.New(store, log, &gate)
	dispatcher := dispatch.New(dispatch.Config{
		Store:         store,
		Notifier:      &logNotifier{log: log},
		Logger:        log,
		Interval:      cfg.TickInterval(),
		OnLocalChange: engine.NotifyLocalChange,
		Gate:          &gate,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("remindd starting", "db", dbPath, "device", store.DeviceID())

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return dispatcher.Run(ctx) })
	group.Go(func() error { return engine.Run(ctx) })
	group.Go(func() error { return maintenanceLoop(ctx, store, cfg, log) })

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("remindd stopped")
	return nil
}

// maintenanceLoop prunes old tombstones and completed tasks hourly and
// compacts the database a few times a day.
func maintenanceLoop(ctx context.Context, store storage.Store, cfg config.Config, log *slog.Logger) error {
	cleanup := time.NewTicker(cleanupInterval)
	defer cleanup.Stop()
	optimize := time.NewTicker(optimizeInterval)
	defer optimize.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-cleanup.C:
			opts := storage.CleanupOptions{
				Now:                time.Now().UTC(),
				TombstoneRetention: cfg.TombstoneRetention(),
				CompletedRetention: cfg.CompletedRetention(),
				KeepCompleted:      cfg.Storage.KeepCompleted,
			}
			if err := store.Cleanup(ctx, opts); err != nil {
				log.Error("cleanup failed", "error", err)
			}
		case <-optimize.C:
			if err := store.Optimize(ctx); err != nil {
				log.Error("optimize failed", "error", err)
			}
		}
	}
}

// logNotifier is the daemon's delivery sink. Desktop integration picks
// notifications up from the log or the records list.
type logNotifier struct {
	log *slog.Logger
}

func (n *logNotifier) Notify(_ context.Context, notification dispatch.Notification) {
	n.log.Info("reminder fired",
		"record", notification.RecordID,
		"kind", notification.Kind,
		"description", notification.Description)
}
