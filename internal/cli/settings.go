package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/remindd/internal/service"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change settings",
	RunE:  runSettingsSet,
}

var (
	setSnooze       int
	setSyncEnabled  string
	setSyncURL      string
	setSyncUser     string
	setSyncPassword string
	setSyncRoot     string
	setSyncInterval int
)

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)

	settingsSetCmd.Flags().IntVar(&setSnooze, "snooze-minutes", 0, "Default snooze duration")
	settingsSetCmd.Flags().StringVar(&setSyncEnabled, "sync", "", "Enable or disable sync: on|off")
	settingsSetCmd.Flags().StringVar(&setSyncURL, "sync-url", "", "WebDAV endpoint URL")
	settingsSetCmd.Flags().StringVar(&setSyncUser, "sync-user", "", "WebDAV username")
	settingsSetCmd.Flags().StringVar(&setSyncPassword, "sync-password", "", "WebDAV password")
	settingsSetCmd.Flags().StringVar(&setSyncRoot, "sync-root", "", "Remote directory for sync files")
	settingsSetCmd.Flags().IntVar(&setSyncInterval, "sync-interval", 0, "Sync interval in minutes")
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *service.Service) error {
		settings, err := svc.GetSettings(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("snooze-minutes: %d\n", settings.SnoozeMinutes)
		fmt.Printf("sync: %v\n", settings.Sync.Enabled)
		fmt.Printf("sync-url: %s\n", settings.Sync.URL)
		fmt.Printf("sync-user: %s\n", settings.Sync.Username)
		fmt.Printf("sync-root: %s\n", settings.Sync.RootPath)
		fmt.Printf("sync-interval: %dm\n", settings.Sync.IntervalMinutes)
		fmt.Printf("device-id: %s\n", settings.Sync.DeviceID)
		return nil
	})
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *service.Service) error {
		settings, err := svc.GetSettings(ctx)
		if err != nil {
			return err
		}
		if setSnooze > 0 {
			settings.SnoozeMinutes = setSnooze
		}
		switch setSyncEnabled {
		case "on":
			settings.Sync.Enabled = true
		case "off":
			settings.Sync.Enabled = false
		case "":
		default:
			return fmt.Errorf("--sync must be on or off, got %q", setSyncEnabled)
		}
		if setSyncURL != "" {
			settings.Sync.URL = setSyncURL
		}
		if setSyncUser != "" {
			settings.Sync.Username = setSyncUser
		}
		if setSyncPassword != "" {
			settings.Sync.Password = setSyncPassword
		}
		if setSyncRoot != "" {
			settings.Sync.RootPath = setSyncRoot
		}
		if setSyncInterval > 0 {
			settings.Sync.IntervalMinutes = setSyncInterval
		}
		return svc.SaveSettings(ctx, settings)
	})
}
