package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandeepkv93/remindd/internal/model"
)

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "remindd-test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func parseRFC3339(t *testing.T, value string) time.Time {
	t.Helper()
	out, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return out
}

func TestTaskCRUDAndList(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	created := parseRFC3339(t, "2024-06-01T12:00:00Z")
	remind := parseRFC3339(t, "2024-06-02T09:00:00Z")

	task := model.Task{
		ID:           "task-1",
		Description:  "write schema",
		Status:       model.TaskStatusPending,
		CreatedAt:    created,
		ReminderTime: &remind,
	}
	if err := store.CreateTask(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	got, err := store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Description != task.Description || got.Status != model.TaskStatusPending {
		t.Fatalf("got %+v, want fields of %+v", got, task)
	}
	if got.ReminderTime == nil || !got.ReminderTime.Equal(remind) {
		t.Fatalf("reminder time = %v, want %v", got.ReminderTime, remind)
	}
	if got.UpdatedAt.IsZero() || got.UpdatedBy == "" {
		t.Fatal("create must stamp updated_at and updated_by")
	}
	if got.UpdatedBy != store.DeviceID() {
		t.Fatalf("updated_by = %q, want device id %q", got.UpdatedBy, store.DeviceID())
	}

	done := parseRFC3339(t, "2024-06-01T15:00:00Z")
	got.Status = model.TaskStatusCompleted
	got.CompletedAt = &done
	if err := store.UpdateTask(ctx, got); err != nil {
		t.Fatalf("update task: %v", err)
	}

	pending, err := store.ListTasks(ctx, TaskFilter{Status: model.TaskStatusPending})
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending tasks, got %d", len(pending))
	}
	completed, err := store.ListTasks(ctx, TaskFilter{Status: model.TaskStatusCompleted})
	if err != nil {
		t.Fatalf("list completed: %v", err)
	}
	if len(completed) != 1 {
		t.Fatalf("expected 1 completed task, got %d", len(completed))
	}
}

func TestGetTaskNotFound(t *testing.T) {
	store := setupStore(t)
	_, err := store.GetTask(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestSoftDeleteLeavesTombstone(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	task := model.Task{
		ID:          "task-1",
		Description: "to be deleted",
		Status:      model.TaskStatusPending,
		CreatedAt:   parseRFC3339(t, "2024-06-01T12:00:00Z"),
	}
	if err := store.CreateTask(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	if err := store.SoftDeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	// Gone from normal listings, still present as a tombstone.
	visible, err := store.ListTasks(ctx, TaskFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(visible) != 0 {
		t.Fatalf("deleted task still listed: %+v", visible)
	}
	all, err := store.ListTasks(ctx, TaskFilter{IncludeDeleted: true})
	if err != nil {
		t.Fatalf("list with deleted: %v", err)
	}
	if len(all) != 1 || !all[0].Deleted() {
		t.Fatalf("expected one tombstone, got %+v", all)
	}

	// Deleting again is a no-op, an unknown id is not.
	if err := store.SoftDeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("repeat delete should be a no-op: %v", err)
	}
	if err := store.SoftDeleteTask(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got: %v", err)
	}
}

func TestRecurringTaskRoundTripPreservesScheduleFields(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	start := parseRFC3339(t, "2024-06-01T00:00:00Z")
	end := parseRFC3339(t, "2024-12-31T00:00:00Z")
	next := parseRFC3339(t, "2024-06-03T09:00:00Z")

	task := model.RecurringTask{
		Task: model.Task{
			ID:          "rec-1",
			Description: "weekly review",
			Status:      model.TaskStatusPending,
			CreatedAt:   start,
		},
		IntervalMinutes: 45,
		NextTrigger:     &next,
		StartTime:       &start,
		EndTime:         &end,
		Mode:            model.RepeatWeekly,
		ScheduleTime:    "09:00",
		ScheduleWeekday: 1,
		ScheduleDay:     17,
		CronExpression:  "0 9 * * 1",
	}
	if err := store.CreateRecurringTask(ctx, task); err != nil {
		t.Fatalf("create recurring: %v", err)
	}

	got, err := store.GetRecurringTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("get recurring: %v", err)
	}
	// Fields for other modes survive untouched so a mode change keeps
	// its old configuration.
	if got.IntervalMinutes != 45 || got.ScheduleTime != "09:00" ||
		got.ScheduleWeekday != 1 || got.ScheduleDay != 17 || got.CronExpression != "0 9 * * 1" {
		t.Fatalf("schedule fields mangled: %+v", got)
	}
	if got.NextTrigger == nil || !got.NextTrigger.Equal(next) {
		t.Fatalf("next trigger = %v, want %v", got.NextTrigger, next)
	}
	if got.Paused {
		t.Fatal("task should not be paused")
	}
}

func TestHasReminderRecord(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	trigger := parseRFC3339(t, "2024-06-01T09:00:00Z")

	record := model.ReminderRecord{
		ID:          "record-1",
		ReminderID:  "rec-1",
		Kind:        model.ReminderKindRecurring,
		Description: "weekly review",
		TriggerTime: trigger,
		Action:      model.RecordActionPending,
	}
	if err := store.CreateReminderRecord(ctx, record); err != nil {
		t.Fatalf("create record: %v", err)
	}

	exists, err := store.HasReminderRecord(ctx, "rec-1", &trigger)
	if err != nil || !exists {
		t.Fatalf("HasReminderRecord = (%v, %v), want (true, nil)", exists, err)
	}
	other := trigger.Add(time.Hour)
	exists, err = store.HasReminderRecord(ctx, "rec-1", &other)
	if err != nil || exists {
		t.Fatalf("HasReminderRecord for other trigger = (%v, %v), want (false, nil)", exists, err)
	}
	exists, err = store.HasReminderRecord(ctx, "rec-1", nil)
	if err != nil || !exists {
		t.Fatalf("HasReminderRecord any trigger = (%v, %v), want (true, nil)", exists, err)
	}

	// A deleted record no longer blocks refiring.
	if err := store.SoftDeleteReminderRecord(ctx, record.ID); err != nil {
		t.Fatalf("delete record: %v", err)
	}
	exists, err = store.HasReminderRecord(ctx, "rec-1", &trigger)
	if err != nil || exists {
		t.Fatalf("HasReminderRecord after delete = (%v, %v), want (false, nil)", exists, err)
	}
}

func TestSettingsRoundTripKeepsBookkeeping(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	settings, err := store.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if settings.SnoozeMinutes != model.DefaultSnoozeMinutes {
		t.Fatalf("default snooze = %d, want %d", settings.SnoozeMinutes, model.DefaultSnoozeMinutes)
	}
	if settings.Sync.DeviceID == "" {
		t.Fatal("device id must be provisioned on first open")
	}

	syncedAt := parseRFC3339(t, "2024-06-01T10:00:00Z")
	if err := store.UpdateSyncStatus(ctx, "success", "", &syncedAt); err != nil {
		t.Fatalf("update sync status: %v", err)
	}

	settings.SnoozeMinutes = 25
	settings.Sync.Enabled = true
	settings.Sync.URL = "https://dav.example.com/remote.php/dav"
	if err := store.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	got, err := store.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("reload settings: %v", err)
	}
	if got.SnoozeMinutes != 25 || !got.Sync.Enabled || got.Sync.URL != settings.Sync.URL {
		t.Fatalf("user fields not saved: %+v", got)
	}
	if got.Sync.DeviceID != settings.Sync.DeviceID {
		t.Fatal("SaveSettings must not change the device id")
	}
	if got.Sync.LastSyncTime == nil || !got.Sync.LastSyncTime.Equal(syncedAt) {
		t.Fatal("SaveSettings must not clobber sync bookkeeping")
	}
	if got.Sync.LastSyncStatus != "success" {
		t.Fatalf("last sync status = %q, want success", got.Sync.LastSyncStatus)
	}
}

func TestDeviceIDStableAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "remindd-test.db")

	first, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	deviceID := first.DeviceID()
	if deviceID == "" {
		t.Fatal("expected a device id")
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	second, err := Open(dbPath)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer second.Close()
	if second.DeviceID() != deviceID {
		t.Fatalf("device id changed across reopen: %q != %q", second.DeviceID(), deviceID)
	}
}

func TestApplySnapshotReplacesStateVerbatim(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	local := model.Task{
		ID:          "local-1",
		Description: "will be replaced",
		Status:      model.TaskStatusPending,
		CreatedAt:   parseRFC3339(t, "2024-06-01T12:00:00Z"),
	}
	if err := store.CreateTask(ctx, local); err != nil {
		t.Fatalf("create task: %v", err)
	}

	mergedAt := parseRFC3339(t, "2024-06-02T08:00:00Z")
	snap := model.Snapshot{
		Version: model.SnapshotVersion,
		Tasks: []model.Task{{
			ID:          "merged-1",
			Description: "from merge",
			Status:      model.TaskStatusPending,
			CreatedAt:   parseRFC3339(t, "2024-06-01T12:00:00Z"),
			UpdatedAt:   mergedAt,
			UpdatedBy:   "device-remote",
		}},
	}
	if err := store.ApplySnapshot(ctx, snap); err != nil {
		t.Fatalf("apply snapshot: %v", err)
	}

	if _, err := store.GetTask(ctx, "local-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("pre-merge row should be gone, got: %v", err)
	}
	got, err := store.GetTask(ctx, "merged-1")
	if err != nil {
		t.Fatalf("get merged task: %v", err)
	}
	// The merge already decided whose write wins; applying must not
	// restamp the row as a fresh local write.
	if !got.UpdatedAt.Equal(mergedAt) || got.UpdatedBy != "device-remote" {
		t.Fatalf("snapshot row restamped: updatedAt=%v updatedBy=%q", got.UpdatedAt, got.UpdatedBy)
	}
}

func TestExportSnapshotIncludesTombstones(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	task := model.Task{
		ID:          "task-1",
		Description: "deleted but exported",
		Status:      model.TaskStatusPending,
		CreatedAt:   parseRFC3339(t, "2024-06-01T12:00:00Z"),
	}
	if err := store.CreateTask(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	if err := store.SoftDeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	snap, err := store.ExportSnapshot(ctx)
	if err != nil {
		t.Fatalf("export snapshot: %v", err)
	}
	if snap.Version != model.SnapshotVersion || snap.DeviceID != store.DeviceID() {
		t.Fatalf("snapshot header wrong: %+v", snap)
	}
	if len(snap.Tasks) != 1 || !snap.Tasks[0].Deleted() {
		t.Fatalf("tombstone missing from export: %+v", snap.Tasks)
	}
}

func TestCleanupPurgesOldTombstonesAndCompleted(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := parseRFC3339(t, "2024-06-10T00:00:00Z")

	oldDelete := parseRFC3339(t, "2024-05-01T00:00:00Z")
	freshDelete := parseRFC3339(t, "2024-06-09T00:00:00Z")
	oldDone := parseRFC3339(t, "2024-01-01T00:00:00Z")

	rows := []model.Task{
		{ID: "old-tomb", Description: "x", Status: model.TaskStatusPending, CreatedAt: oldDelete, DeletedAt: &oldDelete},
		{ID: "fresh-tomb", Description: "x", Status: model.TaskStatusPending, CreatedAt: freshDelete, DeletedAt: &freshDelete},
		{ID: "old-done", Description: "x", Status: model.TaskStatusCompleted, CreatedAt: oldDone, CompletedAt: &oldDone},
		{ID: "live", Description: "x", Status: model.TaskStatusPending, CreatedAt: now},
	}
	snap := model.Snapshot{Version: model.SnapshotVersion, Tasks: rows}
	for i := range snap.Tasks {
		snap.Tasks[i].UpdatedAt = snap.Tasks[i].CreatedAt
	}
	if err := store.ApplySnapshot(ctx, snap); err != nil {
		t.Fatalf("seed via snapshot: %v", err)
	}

	err := store.Cleanup(ctx, CleanupOptions{
		Now:                now,
		TombstoneRetention: 7 * 24 * time.Hour,
		CompletedRetention: 30 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	if _, err := store.GetTask(ctx, "old-tomb"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old tombstone should be purged, got: %v", err)
	}
	if _, err := store.GetTask(ctx, "fresh-tomb"); err != nil {
		t.Fatalf("fresh tombstone should survive: %v", err)
	}
	if _, err := store.GetTask(ctx, "old-done"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old completed task should be purged, got: %v", err)
	}
	if _, err := store.GetTask(ctx, "live"); err != nil {
		t.Fatalf("live task should survive: %v", err)
	}
}
