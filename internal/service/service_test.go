package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandeepkv93/remindd/internal/dispatch"
	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/storage"
)

func setupService(t *testing.T, now time.Time) (*Service, *storage.SQLiteStore) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "service-test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	dispatcher := dispatch.New(dispatch.Config{
		Store: store,
		Clock: func() time.Time { return now },
	})
	svc := New(store, dispatcher, nil)
	svc.now = func() time.Time { return now }

	var n int
	svc.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return svc, store
}

func TestCreateTaskTrimsAndValidates(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := setupService(t, now)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, "  buy milk  ", nil)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Description != "buy milk" {
		t.Fatalf("description = %q, want trimmed", task.Description)
	}
	if task.Status != model.TaskStatusPending || !task.CreatedAt.Equal(now) {
		t.Fatalf("unexpected task: %+v", task)
	}

	if _, err := svc.CreateTask(ctx, "   ", nil); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error for blank description, got: %v", err)
	}
}

func TestCompleteAndUncompleteTask(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := setupService(t, now)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, "buy milk", nil)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	done, err := svc.CompleteTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != model.TaskStatusCompleted || done.CompletedAt == nil || !done.CompletedAt.Equal(now) {
		t.Fatalf("task not completed: %+v", done)
	}

	// Completing again changes nothing.
	again, err := svc.CompleteTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("repeat complete: %v", err)
	}
	if !again.CompletedAt.Equal(*done.CompletedAt) {
		t.Fatalf("repeat complete moved completedAt: %v -> %v", done.CompletedAt, again.CompletedAt)
	}

	undone, err := svc.UncompleteTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("uncomplete: %v", err)
	}
	if undone.Status != model.TaskStatusPending || undone.CompletedAt != nil {
		t.Fatalf("task not reverted: %+v", undone)
	}
}

func TestUpdateTaskClearReminder(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := setupService(t, now)
	ctx := context.Background()

	remind := now.Add(time.Hour)
	task, err := svc.CreateTask(ctx, "buy milk", &remind)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	updated, err := svc.UpdateTask(ctx, task.ID, UpdateTaskParams{ClearReminder: true})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ReminderTime != nil {
		t.Fatalf("reminder not cleared: %v", updated.ReminderTime)
	}

	desc := "buy oat milk"
	updated, err = svc.UpdateTask(ctx, task.ID, UpdateTaskParams{Description: &desc})
	if err != nil {
		t.Fatalf("update description: %v", err)
	}
	if updated.Description != desc {
		t.Fatalf("description = %q, want %q", updated.Description, desc)
	}
}

func TestDeletedTaskBehavesLikeMissing(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := setupService(t, now)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, "buy milk", nil)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if err := svc.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := svc.CompleteTask(ctx, task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deleted task, got: %v", err)
	}
	active, err := svc.ListActiveTasks(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("deleted task still listed: %+v", active)
	}
}

func TestCreateRecurringComputesFirstTrigger(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	svc, _ := setupService(t, now)
	ctx := context.Background()

	task, err := svc.CreateRecurringTask(ctx, RecurringTaskParams{
		Description:  "morning review",
		Mode:         "daily",
		ScheduleTime: "09:00",
	})
	if err != nil {
		t.Fatalf("create recurring: %v", err)
	}
	want := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	if task.NextTrigger == nil || !task.NextTrigger.Equal(want) {
		t.Fatalf("nextTrigger = %v, want %v", task.NextTrigger, want)
	}
	if task.Mode != model.RepeatDaily {
		t.Fatalf("mode = %v, want DAILY", task.Mode)
	}
}

func TestCreateRecurringRejectsBadSchedule(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	svc, _ := setupService(t, now)
	ctx := context.Background()

	_, err := svc.CreateRecurringTask(ctx, RecurringTaskParams{
		Description:     "broken",
		Mode:            "interval",
		IntervalMinutes: 0,
	})
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error for zero interval, got: %v", err)
	}

	_, err = svc.CreateRecurringTask(ctx, RecurringTaskParams{
		Description:    "broken",
		Mode:           "cron",
		CronExpression: "not a cron",
	})
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error for bad cron, got: %v", err)
	}
}

func TestPauseAndResumeDropMissedOccurrences(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	svc, store := setupService(t, now)
	ctx := context.Background()

	task, err := svc.CreateRecurringTask(ctx, RecurringTaskParams{
		Description:  "morning review",
		Mode:         "daily",
		ScheduleTime: "09:00",
	})
	if err != nil {
		t.Fatalf("create recurring: %v", err)
	}

	paused, err := svc.PauseRecurringTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !paused.Paused {
		t.Fatal("task should be paused")
	}

	// A week passes while paused.
	later := now.AddDate(0, 0, 7)
	svc.now = func() time.Time { return later }

	resumed, err := svc.ResumeRecurringTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.Paused {
		t.Fatal("task should no longer be paused")
	}
	want := time.Date(2024, 6, 9, 9, 0, 0, 0, time.UTC)
	if resumed.NextTrigger == nil || !resumed.NextTrigger.Equal(want) {
		t.Fatalf("nextTrigger = %v, want the single next occurrence %v", resumed.NextTrigger, want)
	}

	stored, err := store.GetRecurringTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("get recurring: %v", err)
	}
	if stored.NextTrigger == nil || !stored.NextTrigger.Equal(want) {
		t.Fatalf("stored nextTrigger = %v, want %v", stored.NextTrigger, want)
	}
}

func TestDeleteReminderRecordsSkipsMissing(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	svc, store := setupService(t, now)
	ctx := context.Background()

	record := model.ReminderRecord{
		ID:          "record-1",
		ReminderID:  "task-1",
		Kind:        model.ReminderKindTask,
		Description: "fired",
		TriggerTime: now,
		Action:      model.RecordActionPending,
	}
	if err := store.CreateReminderRecord(ctx, record); err != nil {
		t.Fatalf("create record: %v", err)
	}

	if err := svc.DeleteReminderRecords(ctx, []string{"missing", record.ID}); err != nil {
		t.Fatalf("bulk delete: %v", err)
	}
	records, err := svc.ListReminderRecords(ctx)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("record not deleted: %+v", records)
	}
}

func TestSaveSettingsValidates(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	svc, _ := setupService(t, now)
	ctx := context.Background()

	settings, err := svc.GetSettings(ctx)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	settings.Sync.Enabled = true
	settings.Sync.URL = ""
	if err := svc.SaveSettings(ctx, settings); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error for enabled sync without URL, got: %v", err)
	}

	settings.Sync.URL = "https://dav.example.com"
	if err := svc.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}
}

func TestSyncStatusWithoutEngine(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	svc, _ := setupService(t, now)

	status, err := svc.GetSyncStatus(context.Background())
	if err != nil {
		t.Fatalf("sync status: %v", err)
	}
	if status.Status != "idle" {
		t.Fatalf("status = %q, want idle", status.Status)
	}
}
