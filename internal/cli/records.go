package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/service"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect and act on reminder history",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List fired reminders",
	RunE:  runRecordsList,
}

var recordsDismissCmd = &cobra.Command{
	Use:   "dismiss <record-id>",
	Short: "Dismiss a fired reminder",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordsDismiss,
}

var recordsCompleteCmd = &cobra.Command{
	Use:   "complete <record-id>",
	Short: "Complete a fired reminder (completes the task too)",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordsComplete,
}

var recordsSnoozeCmd = &cobra.Command{
	Use:   "snooze <record-id>",
	Short: "Snooze a fired reminder",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordsSnooze,
}

var recordsRmCmd = &cobra.Command{
	Use:   "rm <record-id>...",
	Short: "Delete reminder history entries",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRecordsRm,
}

var snoozeMinutes int

func init() {
	recordsCmd.AddCommand(recordsListCmd, recordsDismissCmd, recordsCompleteCmd, recordsSnoozeCmd, recordsRmCmd)
	recordsSnoozeCmd.Flags().IntVar(&snoozeMinutes, "minutes", 0, "Snooze duration (0 = configured default)")
}

func runRecordsList(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *service.Service) error {
		records, err := svc.ListReminderRecords(ctx)
		if err != nil {
			return err
		}
		fmt.Print(renderRecords(records))
		return nil
	})
}

func runRecordsDismiss(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *service.Service) error {
		return svc.AckNotification(ctx, args[0], model.RecordActionDismissed)
	})
}

func runRecordsComplete(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *service.Service) error {
		return svc.AckNotification(ctx, args[0], model.RecordActionCompleted)
	})
}

func runRecordsSnooze(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *service.Service) error {
		record, err := svc.GetReminderRecord(ctx, args[0])
		if err != nil {
			return err
		}
		return svc.SnoozeNotification(ctx, record.ID, record.ReminderID, record.Kind, snoozeMinutes)
	})
}

func runRecordsRm(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *service.Service) error {
		return svc.DeleteReminderRecords(ctx, args)
	})
}
