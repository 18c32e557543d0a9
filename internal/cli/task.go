package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/remindd/internal/service"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage one-off tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add <description>",
	Short: "Add a task, optionally with a reminder",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE:  runTaskList,
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDone,
}

var taskUndoneCmd = &cobra.Command{
	Use:   "undone <id>",
	Short: "Return a completed task to pending",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskUndone,
}

var taskEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a task's description or reminder",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskEdit,
}

var taskRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskRm,
}

var (
	taskRemindAt      string
	taskListCompleted bool
	taskEditDesc      string
	taskEditRemindAt  string
	taskEditNoRemind  bool
)

func init() {
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskDoneCmd, taskUndoneCmd, taskEditCmd, taskRmCmd)

	taskAddCmd.Flags().StringVar(&taskRemindAt, "remind", "", "Remind at this time (\"2006-01-02 15:04\")")
	taskListCmd.Flags().BoolVar(&taskListCompleted, "completed", false, "Show completed tasks instead")
	taskEditCmd.Flags().StringVar(&taskEditDesc, "description", "", "New description")
	taskEditCmd.Flags().StringVar(&taskEditRemindAt, "remind", "", "New reminder time")
	taskEditCmd.Flags().BoolVar(&taskEditNoRemind, "no-remind", false, "Remove the reminder")
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *service.Service) error {
		var reminder *time.Time
		if taskRemindAt != "" {
			t, err := parseTimeFlag(taskRemindAt)
			if err != nil {
				return err
			}
			reminder = &t
		}
		task, err := svc.CreateTask(ctx, strings.Join(args, " "), reminder)
		if err != nil {
			return err
		}
		fmt.Println(task.ID)
		return nil
	})
}

func runTaskList(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *service.Service) error {
		if taskListCompleted {
			tasks, err := svc.ListCompletedTasks(ctx)
			if err != nil {
				return err
			}
			fmt.Print(renderTasks("Completed", tasks))
			return nil
		}
		tasks, err := svc.ListActiveTasks(ctx)
		if err != nil {
			return err
		}
		fmt.Print(renderTasks("Tasks", tasks))
		return nil
	})
}

func runTaskDone(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *service.Service) error {
		_, err := svc.CompleteTask(ctx, args[0])
		return err
	})
}

func runTaskUndone(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *service.Service) error {
		_, err := svc.UncompleteTask(ctx, args[0])
		return err
	})
}

func runTaskEdit(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *service.Service) error {
		params := service.UpdateTaskParams{ClearReminder: taskEditNoRemind}
		if taskEditDesc != "" {
			params.Description = &taskEditDesc
		}
		if taskEditRemindAt != "" {
			t, err := parseTimeFlag(taskEditRemindAt)
			if err != nil {
				return err
			}
			params.ReminderTime = &t
		}
		_, err := svc.UpdateTask(ctx, args[0], params)
		return err
	})
}

func runTaskRm(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *service.Service) error {
		return svc.DeleteTask(ctx, args[0])
	})
}
