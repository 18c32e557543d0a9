// Package dispatch turns due triggers into reminder records and routes
// user acknowledgements back onto them.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/schedule"
	"github.com/sandeepkv93/remindd/internal/storage"
)

const DefaultTickInterval = 30 * time.Second

// Notification is the payload handed to the delivery collaborator.
type Notification struct {
	RecordID      string
	ReminderID    string
	Kind          model.ReminderKind
	Description   string
	SnoozeMinutes int
}

// Notifier delivers a notification to the user. Delivery is
// fire-and-forget from the dispatcher's perspective; implementations
// own their retries and must not block.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type Config struct {
	Store    storage.Store
	Notifier Notifier
	Logger   *slog.Logger

	// Interval must stay at or below one minute, the smallest
	// supported schedule granularity, or fires get missed.
	Interval time.Duration
	Clock    func() time.Time

	// OnLocalChange is invoked after every store mutation so the sync
	// engine can track dirtiness. Optional.
	OnLocalChange func(ctx context.Context)

	// Gate, when shared with the sync engine, keeps a tick from
	// interleaving with a sync cycle's export-merge-apply window.
	// Optional.
	Gate sync.Locker
}

type Dispatcher struct {
	store    storage.Store
	notifier Notifier
	log      *slog.Logger
	interval time.Duration
	now      func() time.Time
	onChange func(ctx context.Context)
	gate     sync.Locker
	ticking  atomic.Bool
	newID    func() string
}

func New(cfg Config) *Dispatcher {
	d := &Dispatcher{
		store:    cfg.Store,
		notifier: cfg.Notifier,
		log:      cfg.Logger,
		interval: cfg.Interval,
		now:      cfg.Clock,
		onChange: cfg.OnLocalChange,
		gate:     cfg.Gate,
		newID:    uuid.NewString,
	}
	if d.log == nil {
		d.log = slog.Default()
	}
	if d.interval <= 0 || d.interval > time.Minute {
		d.interval = DefaultTickInterval
	}
	if d.now == nil {
		d.now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

// Run ticks until the context is cancelled. A failing cycle is logged
// and isolated; the loop never terminates on a single cycle's error.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		if err := d.Tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.log.Error("dispatch tick failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick fires everything due at the current instant. A tick that
// overlaps a still-running one is skipped outright rather than queued.
func (d *Dispatcher) Tick(ctx context.Context) error {
	if !d.ticking.CompareAndSwap(false, true) {
		return nil
	}
	defer d.ticking.Store(false)

	if d.gate != nil {
		d.gate.Lock()
		defer d.gate.Unlock()
	}

	now := d.now()
	settings, err := d.store.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("dispatch: load settings: %w", err)
	}

	recurring, err := d.store.ListRecurringTasks(ctx, storage.RecurringFilter{})
	if err != nil {
		return fmt.Errorf("dispatch: list recurring: %w", err)
	}
	for _, task := range recurring {
		if !task.Active() || task.NextTrigger.After(now) {
			continue
		}
		if err := d.fireRecurring(ctx, task, now, settings); err != nil {
			return err
		}
	}

	tasks, err := d.store.ListTasks(ctx, storage.TaskFilter{Status: model.TaskStatusPending})
	if err != nil {
		return fmt.Errorf("dispatch: list tasks: %w", err)
	}
	for _, task := range tasks {
		if task.ReminderTime == nil || task.ReminderTime.After(now) {
			continue
		}
		if err := d.fireTask(ctx, task, settings); err != nil {
			return err
		}
	}
	return nil
}

// fireRecurring advances the schedule before creating the record, so a
// duplicate tick observes the new nextTrigger and cannot refire the
// same instant.
func (d *Dispatcher) fireRecurring(ctx context.Context, task model.RecurringTask, now time.Time, settings model.Settings) error {
	fired := *task.NextTrigger
	task.LastTriggered = &fired

	next, ok, err := schedule.NextTrigger(task, now)
	switch {
	case err != nil:
		// A schedule that was valid at creation but no longer computes
		// is treated as expired, not a reason to kill the tick.
		d.log.Error("recurring schedule unusable, treating as expired", "task", task.ID, "error", err)
		task.NextTrigger = nil
	case ok:
		task.NextTrigger = &next
	default:
		task.NextTrigger = nil
	}
	if err := d.store.UpdateRecurringTask(ctx, task); err != nil {
		return fmt.Errorf("dispatch: advance recurring %s: %w", task.ID, err)
	}

	if err := d.createAndDeliver(ctx, task.ID, model.ReminderKindRecurring, task.Description, fired, settings); err != nil {
		return err
	}
	d.localChange(ctx)
	return nil
}

// fireTask clears reminderTime (a one-shot trigger) and materializes
// the record. Duplicate suppression matches on the exact fired instant,
// so a snoozed record never blocks its own re-delivery.
func (d *Dispatcher) fireTask(ctx context.Context, task model.Task, settings model.Settings) error {
	fired := *task.ReminderTime
	task.ReminderTime = nil
	if err := d.store.UpdateTask(ctx, task); err != nil {
		return fmt.Errorf("dispatch: clear reminder on %s: %w", task.ID, err)
	}

	if err := d.createAndDeliver(ctx, task.ID, model.ReminderKindTask, task.Description, fired, settings); err != nil {
		return err
	}
	d.localChange(ctx)
	return nil
}

func (d *Dispatcher) createAndDeliver(ctx context.Context, reminderID string, kind model.ReminderKind, description string, fired time.Time, settings model.Settings) error {
	exists, err := d.store.HasReminderRecord(ctx, reminderID, &fired)
	if err != nil {
		return fmt.Errorf("dispatch: record lookup for %s: %w", reminderID, err)
	}
	if exists {
		return nil
	}

	record := model.ReminderRecord{
		ID:          d.newID(),
		ReminderID:  reminderID,
		Kind:        kind,
		Description: description,
		TriggerTime: fired,
		Action:      model.RecordActionPending,
	}
	if err := d.store.CreateReminderRecord(ctx, record); err != nil {
		return fmt.Errorf("dispatch: create record for %s: %w", reminderID, err)
	}
	if d.notifier != nil {
		d.notifier.Notify(ctx, Notification{
			RecordID:      record.ID,
			ReminderID:    reminderID,
			Kind:          kind,
			Description:   description,
			SnoozeMinutes: settings.SnoozeMinutes,
		})
	}
	return nil
}

// Ack applies a user action to a record. Dismiss and complete close the
// record; completing a task-kind reminder also completes the task.
// Acking an already-removed record is a no-op.
func (d *Dispatcher) Ack(ctx context.Context, recordID string, action model.RecordAction) error {
	if !action.IsValid() {
		return fmt.Errorf("%w: invalid record action %q", model.ErrValidation, action)
	}
	record, err := d.store.GetReminderRecord(ctx, recordID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	now := d.now()
	record.Action = action
	if action == model.RecordActionDismissed || action == model.RecordActionCompleted {
		record.CloseTime = &now
	}
	if err := d.store.UpdateReminderRecord(ctx, record); err != nil {
		return err
	}

	if action == model.RecordActionCompleted && record.Kind == model.ReminderKindTask {
		if err := d.completeTask(ctx, record.ReminderID, now); err != nil {
			return err
		}
	}
	d.localChange(ctx)
	return nil
}

// Snooze marks the record snoozed and schedules exactly one re-delivery
// minutes from now. The record's own trigger time is left untouched.
func (d *Dispatcher) Snooze(ctx context.Context, recordID, reminderID string, kind model.ReminderKind, minutes int) error {
	if !kind.IsValid() {
		return fmt.Errorf("%w: invalid reminder kind %q", model.ErrValidation, kind)
	}
	if minutes < 1 {
		settings, err := d.store.LoadSettings(ctx)
		if err != nil {
			return err
		}
		minutes = settings.SnoozeMinutes
	}

	record, err := d.store.GetReminderRecord(ctx, recordID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if err == nil {
		record.Action = model.RecordActionSnoozed
		if err := d.store.UpdateReminderRecord(ctx, record); err != nil {
			return err
		}
	}

	due := d.now().Add(time.Duration(minutes) * time.Minute)
	switch kind {
	case model.ReminderKindTask:
		task, err := d.store.GetTask(ctx, reminderID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		task.ReminderTime = &due
		if err := d.store.UpdateTask(ctx, task); err != nil {
			return err
		}
	case model.ReminderKindRecurring:
		task, err := d.store.GetRecurringTask(ctx, reminderID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		task.NextTrigger = &due
		task.Paused = false
		if err := d.store.UpdateRecurringTask(ctx, task); err != nil {
			return err
		}
	}
	d.localChange(ctx)
	return nil
}

func (d *Dispatcher) completeTask(ctx context.Context, taskID string, now time.Time) error {
	task, err := d.store.GetTask(ctx, taskID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if task.Deleted() || task.Status == model.TaskStatusCompleted {
		return nil
	}
	task.Status = model.TaskStatusCompleted
	task.CompletedAt = &now
	return d.store.UpdateTask(ctx, task)
}

func (d *Dispatcher) localChange(ctx context.Context) {
	if d.onChange != nil {
		d.onChange(ctx)
	}
}
