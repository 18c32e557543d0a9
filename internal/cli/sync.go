package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/remindd/internal/service"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run and inspect WebDAV sync",
}

var syncNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Run a sync cycle immediately",
	RunE:  runSyncNow,
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last sync outcome",
	RunE:  runSyncStatus,
}

var syncTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Probe the configured WebDAV endpoint",
	RunE:  runSyncTest,
}

func init() {
	syncCmd.AddCommand(syncNowCmd, syncStatusCmd, syncTestCmd)
}

func runSyncNow(cmd *cobra.Command, args []string) error {
	return withSyncService(func(ctx context.Context, svc *service.Service) error {
		if err := svc.SyncNow(ctx); err != nil {
			return err
		}
		status, err := svc.GetSyncStatus(ctx)
		if err != nil {
			return err
		}
		fmt.Println(renderSyncStatus(status))
		return nil
	})
}

func runSyncStatus(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *service.Service) error {
		status, err := svc.GetSyncStatus(ctx)
		if err != nil {
			return err
		}
		fmt.Println(renderSyncStatus(status))
		return nil
	})
}

func runSyncTest(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *service.Service) error {
		settings, err := svc.GetSettings(ctx)
		if err != nil {
			return err
		}
		ok, message := svc.TestWebDAV(settings)
		if !ok {
			return fmt.Errorf("webdav test failed: %s", message)
		}
		fmt.Println(message)
		return nil
	})
}
