package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/remindd/internal/service"
)

var recurringCmd = &cobra.Command{
	Use:     "recurring",
	Aliases: []string{"rec"},
	Short:   "Manage recurring reminders",
}

var recurringAddCmd = &cobra.Command{
	Use:   "add <description>",
	Short: "Add a recurring reminder",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRecurringAdd,
}

var recurringListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recurring reminders",
	RunE:  runRecurringList,
}

var recurringEditCmd = &cobra.Command{
	Use:   "edit <id> <description>",
	Short: "Replace a recurring reminder's description and schedule",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runRecurringEdit,
}

var recurringPauseCmd = &cobra.Command{
	Use:   "pause <id>",
	Short: "Pause a recurring reminder",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecurringPause,
}

var recurringResumeCmd = &cobra.Command{
	Use:   "resume <id>",
	Short: "Resume a paused recurring reminder",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecurringResume,
}

var recurringRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a recurring reminder",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecurringRm,
}

var (
	recMode    string
	recEvery   int
	recAt      string
	recWeekday int
	recDay     int
	recCron    string
	recFrom    string
	recUntil   string
)

func init() {
	recurringCmd.AddCommand(recurringAddCmd, recurringListCmd, recurringEditCmd,
		recurringPauseCmd, recurringResumeCmd, recurringRmCmd)

	for _, c := range []*cobra.Command{recurringAddCmd, recurringEditCmd} {
		c.Flags().StringVar(&recMode, "mode", "interval", "Repeat mode: interval, daily, weekly, monthly, cron")
		c.Flags().IntVar(&recEvery, "every", 0, "Interval in minutes (interval mode)")
		c.Flags().StringVar(&recAt, "at", "", "Time of day \"HH:MM\" (daily/weekly/monthly modes)")
		c.Flags().IntVar(&recWeekday, "weekday", 0, "Weekday 1=Mon..7=Sun (weekly mode)")
		c.Flags().IntVar(&recDay, "day", 0, "Day of month 1..31 (monthly mode)")
		c.Flags().StringVar(&recCron, "cron", "", "Cron expression (cron mode)")
		c.Flags().StringVar(&recFrom, "from", "", "Do not fire before this time")
		c.Flags().StringVar(&recUntil, "until", "", "Do not fire after this time")
	}
}

func recurringParams(description string) (service.RecurringTaskParams, error) {
	params := service.RecurringTaskParams{
		Description:     description,
		IntervalMinutes: recEvery,
		Mode:            recMode,
		ScheduleTime:    recAt,
		ScheduleWeekday: recWeekday,
		ScheduleDay:     recDay,
		CronExpression:  recCron,
	}
	var err error
	if params.StartTime, err = optionalTimeFlag(recFrom); err != nil {
		return params, err
	}
	if params.EndTime, err = optionalTimeFlag(recUntil); err != nil {
		return params, err
	}
	return params, nil
}

func optionalTimeFlag(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseTimeFlag(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func runRecurringAdd(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *service.Service) error {
		params, err := recurringParams(strings.Join(args, " "))
		if err != nil {
			return err
		}
		task, err := svc.CreateRecurringTask(ctx, params)
		if err != nil {
			return err
		}
		fmt.Println(task.ID)
		return nil
	})
}

func runRecurringList(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *service.Service) error {
		tasks, err := svc.ListRecurringTasks(ctx)
		if err != nil {
			return err
		}
		fmt.Print(renderRecurring(tasks))
		return nil
	})
}

func runRecurringEdit(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *service.Service) error {
		params, err := recurringParams(strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		_, err = svc.UpdateRecurringTask(ctx, args[0], params)
		return err
	})
}

func runRecurringPause(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *service.Service) error {
		_, err := svc.PauseRecurringTask(ctx, args[0])
		return err
	})
}

func runRecurringResume(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *service.Service) error {
		_, err := svc.ResumeRecurringTask(ctx, args[0])
		return err
	})
}

func runRecurringRm(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *service.Service) error {
		return svc.DeleteRecurringTask(ctx, args[0])
	})
}
