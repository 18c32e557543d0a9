// Package cli implements the remindd command tree.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/remindd/internal/config"
	"github.com/sandeepkv93/remindd/internal/dispatch"
	"github.com/sandeepkv93/remindd/internal/service"
	"github.com/sandeepkv93/remindd/internal/storage"
	"github.com/sandeepkv93/remindd/internal/syncer"
)

var rootCmd = &cobra.Command{
	Use:           "remindd",
	Short:         "Tasks and reminders with multi-device WebDAV sync",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")

	rootCmd.AddCommand(taskCmd, recurringCmd, recordsCmd, settingsCmd, syncCmd, serveCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "remindd: %v\n", err)
		os.Exit(1)
	}
}

// withService opens the store for the duration of one command. One-shot
// invocations carry no running sync engine; changes are marked in the
// store and picked up by the next daemon cycle.
func withService(fn func(ctx context.Context, svc *service.Service) error) error {
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

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	dispatcher := dispatch.New(dispatch.Config{Store: store, Logger: log})
	svc := service.New(store, dispatcher, nil)
	return fn(context.Background(), svc)
}

// withSyncService is withService plus a sync engine, for commands that
// run a cycle inline.
func withSyncService(fn func(ctx context.Context, svc *service.Service) error) error {
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
	engine := syncer.New(store, log, nil)
	dispatcher := dispatch.New(dispatch.Config{
		Store:         store,
		Logger:        log,
		OnLocalChange: engine.NotifyLocalChange,
	})
	svc := service.New(store, dispatcher, engine)
	return fn(context.Background(), svc)
}

// parseTimeFlag accepts "2006-01-02 15:04" or RFC 3339, interpreting
// the short form in local time.
func parseTimeFlag(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized time %q, want \"2006-01-02 15:04\" or RFC 3339", value)
	}
	return t.UTC(), nil
}
