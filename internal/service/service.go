// Package service exposes the operations the CLI and daemon call,
// layering validation and scheduling on top of the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/remindd/internal/dispatch"
	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/schedule"
	"github.com/sandeepkv93/remindd/internal/storage"
	"github.com/sandeepkv93/remindd/internal/syncer"
)

var ErrNotFound = storage.ErrNotFound

// SyncControl is the slice of the sync engine the service needs. A nil
// control degrades gracefully: changes are still marked in the store.
type SyncControl interface {
	NotifyLocalChange(ctx context.Context)
	SyncNow(ctx context.Context, reason string) error
	Status(ctx context.Context) (model.SyncStatus, error)
}

type Service struct {
	store      storage.Store
	dispatcher *dispatch.Dispatcher
	sync       SyncControl
	now        func() time.Time
	newID      func() string
}

func New(store storage.Store, dispatcher *dispatch.Dispatcher, sync SyncControl) *Service {
	return &Service{
		store:      store,
		dispatcher: dispatcher,
		sync:       sync,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

// CreateTask adds a pending task, optionally with a one-shot reminder.
func (s *Service) CreateTask(ctx context.Context, description string, reminder *time.Time) (model.Task, error) {
	task := model.Task{
		ID:           s.newID(),
		Description:  strings.TrimSpace(description),
		Status:       model.TaskStatusPending,
		CreatedAt:    s.now(),
		ReminderTime: reminder,
	}
	if err := task.Validate(); err != nil {
		return model.Task{}, err
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return model.Task{}, err
	}
	s.localChange(ctx)
	return s.store.GetTask(ctx, task.ID)
}

// UpdateTaskParams carries the optional edits; nil fields keep the
// current value. ClearReminder removes the reminder outright.
type UpdateTaskParams struct {
	Description   *string
	ReminderTime  *time.Time
	ClearReminder bool
}

func (s *Service) UpdateTask(ctx context.Context, id string, params UpdateTaskParams) (model.Task, error) {
	task, err := s.activeTask(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	if params.Description != nil {
		task.Description = strings.TrimSpace(*params.Description)
	}
	if params.ClearReminder {
		task.ReminderTime = nil
	} else if params.ReminderTime != nil {
		task.ReminderTime = params.ReminderTime
	}
	if err := task.Validate(); err != nil {
		return model.Task{}, err
	}
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return model.Task{}, err
	}
	s.localChange(ctx)
	return s.store.GetTask(ctx, id)
}

// CompleteTask marks a task done. Completing a completed task is a
// no-op, not an error.
func (s *Service) CompleteTask(ctx context.Context, id string) (model.Task, error) {
	task, err := s.activeTask(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	if task.Status != model.TaskStatusCompleted {
		now := s.now()
		task.Status = model.TaskStatusCompleted
		task.CompletedAt = &now
		if err := s.store.UpdateTask(ctx, task); err != nil {
			return model.Task{}, err
		}
		s.localChange(ctx)
	}
	return s.store.GetTask(ctx, id)
}

// UncompleteTask returns a completed task to pending.
func (s *Service) UncompleteTask(ctx context.Context, id string) (model.Task, error) {
	task, err := s.activeTask(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	if task.Status != model.TaskStatusPending {
		task.Status = model.TaskStatusPending
		task.CompletedAt = nil
		if err := s.store.UpdateTask(ctx, task); err != nil {
			return model.Task{}, err
		}
		s.localChange(ctx)
	}
	return s.store.GetTask(ctx, id)
}

func (s *Service) DeleteTask(ctx context.Context, id string) error {
	if err := s.store.SoftDeleteTask(ctx, id); err != nil {
		return err
	}
	s.localChange(ctx)
	return nil
}

func (s *Service) GetTask(ctx context.Context, id string) (model.Task, error) {
	return s.store.GetTask(ctx, id)
}

func (s *Service) ListActiveTasks(ctx context.Context) ([]model.Task, error) {
	return s.store.ListTasks(ctx, storage.TaskFilter{Status: model.TaskStatusPending})
}

func (s *Service) ListCompletedTasks(ctx context.Context) ([]model.Task, error) {
	return s.store.ListTasks(ctx, storage.TaskFilter{Status: model.TaskStatusCompleted})
}

// RecurringTaskParams is the user-supplied shape of a recurring task.
// Fields that the chosen repeat mode ignores may be left zero.
type RecurringTaskParams struct {
	Description     string
	IntervalMinutes int
	Mode            string
	StartTime       *time.Time
	EndTime         *time.Time
	ScheduleTime    string
	ScheduleWeekday int
	ScheduleDay     int
	CronExpression  string
}

// CreateRecurringTask validates the schedule and computes the first
// trigger before persisting. A schedule whose window is already over
// is stored inactive rather than rejected.
func (s *Service) CreateRecurringTask(ctx context.Context, params RecurringTaskParams) (model.RecurringTask, error) {
	now := s.now()
	task := model.RecurringTask{
		Task: model.Task{
			ID:          s.newID(),
			Description: strings.TrimSpace(params.Description),
			Status:      model.TaskStatusPending,
			CreatedAt:   now,
		},
		IntervalMinutes: params.IntervalMinutes,
		Mode:            model.NormalizeRepeatMode(params.Mode),
		StartTime:       params.StartTime,
		EndTime:         params.EndTime,
		ScheduleTime:    params.ScheduleTime,
		ScheduleWeekday: params.ScheduleWeekday,
		ScheduleDay:     params.ScheduleDay,
		CronExpression:  strings.TrimSpace(params.CronExpression),
	}
	if task.Mode != model.RepeatIntervalRange && task.IntervalMinutes < 1 {
		task.IntervalMinutes = 1
	}
	if err := task.Validate(); err != nil {
		return model.RecurringTask{}, err
	}
	if err := s.applySchedule(&task, now); err != nil {
		return model.RecurringTask{}, err
	}
	if err := s.store.CreateRecurringTask(ctx, task); err != nil {
		return model.RecurringTask{}, err
	}
	s.localChange(ctx)
	return s.store.GetRecurringTask(ctx, task.ID)
}

// UpdateRecurringTask replaces the schedule fields and recomputes the
// next trigger from now, so edits never replay missed occurrences.
func (s *Service) UpdateRecurringTask(ctx context.Context, id string, params RecurringTaskParams) (model.RecurringTask, error) {
	task, err := s.activeRecurring(ctx, id)
	if err != nil {
		return model.RecurringTask{}, err
	}
	task.Description = strings.TrimSpace(params.Description)
	task.IntervalMinutes = params.IntervalMinutes
	task.Mode = model.NormalizeRepeatMode(params.Mode)
	task.StartTime = params.StartTime
	task.EndTime = params.EndTime
	task.ScheduleTime = params.ScheduleTime
	task.ScheduleWeekday = params.ScheduleWeekday
	task.ScheduleDay = params.ScheduleDay
	task.CronExpression = strings.TrimSpace(params.CronExpression)
	if task.Mode != model.RepeatIntervalRange && task.IntervalMinutes < 1 {
		task.IntervalMinutes = 1
	}
	if err := task.Validate(); err != nil {
		return model.RecurringTask{}, err
	}
	if err := s.applySchedule(&task, s.now()); err != nil {
		return model.RecurringTask{}, err
	}
	if err := s.store.UpdateRecurringTask(ctx, task); err != nil {
		return model.RecurringTask{}, err
	}
	s.localChange(ctx)
	return s.store.GetRecurringTask(ctx, id)
}

// PauseRecurringTask stops firing without losing the schedule.
func (s *Service) PauseRecurringTask(ctx context.Context, id string) (model.RecurringTask, error) {
	task, err := s.activeRecurring(ctx, id)
	if err != nil {
		return model.RecurringTask{}, err
	}
	if !task.Paused {
		task.Paused = true
		if err := s.store.UpdateRecurringTask(ctx, task); err != nil {
			return model.RecurringTask{}, err
		}
		s.localChange(ctx)
	}
	return s.store.GetRecurringTask(ctx, id)
}

// ResumeRecurringTask recomputes the next trigger from now. Occurrences
// missed while paused are dropped, never burst-fired.
func (s *Service) ResumeRecurringTask(ctx context.Context, id string) (model.RecurringTask, error) {
	task, err := s.activeRecurring(ctx, id)
	if err != nil {
		return model.RecurringTask{}, err
	}
	task.Paused = false
	if err := s.applySchedule(&task, s.now()); err != nil {
		return model.RecurringTask{}, err
	}
	if err := s.store.UpdateRecurringTask(ctx, task); err != nil {
		return model.RecurringTask{}, err
	}
	s.localChange(ctx)
	return s.store.GetRecurringTask(ctx, id)
}

func (s *Service) DeleteRecurringTask(ctx context.Context, id string) error {
	if err := s.store.SoftDeleteRecurringTask(ctx, id); err != nil {
		return err
	}
	s.localChange(ctx)
	return nil
}

func (s *Service) GetRecurringTask(ctx context.Context, id string) (model.RecurringTask, error) {
	return s.store.GetRecurringTask(ctx, id)
}

func (s *Service) ListRecurringTasks(ctx context.Context) ([]model.RecurringTask, error) {
	return s.store.ListRecurringTasks(ctx, storage.RecurringFilter{})
}

func (s *Service) GetReminderRecord(ctx context.Context, id string) (model.ReminderRecord, error) {
	return s.store.GetReminderRecord(ctx, id)
}

func (s *Service) ListReminderRecords(ctx context.Context) ([]model.ReminderRecord, error) {
	return s.store.ListReminderRecords(ctx, storage.RecordFilter{})
}

func (s *Service) DeleteReminderRecord(ctx context.Context, id string) error {
	if err := s.store.SoftDeleteReminderRecord(ctx, id); err != nil {
		return err
	}
	s.localChange(ctx)
	return nil
}

// DeleteReminderRecords removes a batch, skipping ids that are already
// gone.
func (s *Service) DeleteReminderRecords(ctx context.Context, ids []string) error {
	deleted := false
	for _, id := range ids {
		err := s.store.SoftDeleteReminderRecord(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		deleted = true
	}
	if deleted {
		s.localChange(ctx)
	}
	return nil
}

// AckNotification applies a dismiss/complete action to a fired reminder.
func (s *Service) AckNotification(ctx context.Context, recordID string, action model.RecordAction) error {
	return s.dispatcher.Ack(ctx, recordID, action)
}

// SnoozeNotification re-arms a fired reminder a few minutes out.
// Zero minutes means the configured default.
func (s *Service) SnoozeNotification(ctx context.Context, recordID, reminderID string, kind model.ReminderKind, minutes int) error {
	return s.dispatcher.Snooze(ctx, recordID, reminderID, kind, minutes)
}

func (s *Service) GetSettings(ctx context.Context) (model.Settings, error) {
	return s.store.LoadSettings(ctx)
}

func (s *Service) SaveSettings(ctx context.Context, settings model.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	return s.store.SaveSettings(ctx, settings)
}

// TestWebDAV probes the endpoint in the given settings without
// touching local data.
func (s *Service) TestWebDAV(settings model.Settings) (bool, string) {
	return syncer.TestConnection(settings.Sync)
}

func (s *Service) SyncNow(ctx context.Context) error {
	if s.sync == nil {
		return syncer.ErrSyncDisabled
	}
	return s.sync.SyncNow(ctx, "manual")
}

func (s *Service) GetSyncStatus(ctx context.Context) (model.SyncStatus, error) {
	if s.sync != nil {
		return s.sync.Status(ctx)
	}
	settings, err := s.store.LoadSettings(ctx)
	if err != nil {
		return model.SyncStatus{}, err
	}
	status := model.SyncStatus{
		Status: settings.Sync.LastSyncStatus,
		Error:  settings.Sync.LastSyncError,
		Time:   settings.Sync.LastSyncTime,
	}
	if status.Status == "" {
		status.Status = "idle"
	}
	return status, nil
}

// applySchedule computes and stores the next trigger; an exhausted or
// paused schedule leaves it nil.
func (s *Service) applySchedule(task *model.RecurringTask, now time.Time) error {
	next, ok, err := schedule.NextTrigger(*task, now)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrValidation, err)
	}
	if ok {
		task.NextTrigger = &next
	} else {
		task.NextTrigger = nil
	}
	return nil
}

// activeTask loads a task, treating tombstones as missing.
func (s *Service) activeTask(ctx context.Context, id string) (model.Task, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	if task.Deleted() {
		return model.Task{}, ErrNotFound
	}
	return task, nil
}

func (s *Service) activeRecurring(ctx context.Context, id string) (model.RecurringTask, error) {
	task, err := s.store.GetRecurringTask(ctx, id)
	if err != nil {
		return model.RecurringTask{}, err
	}
	if task.Deleted() {
		return model.RecurringTask{}, ErrNotFound
	}
	return task, nil
}

func (s *Service) localChange(ctx context.Context) {
	if s.sync != nil {
		s.sync.NotifyLocalChange(ctx)
		return
	}
	// No engine attached (one-shot CLI invocation); persist the change
	// marker so the next daemon run knows to sync.
	_ = s.store.MarkLocalChange(ctx)
}
