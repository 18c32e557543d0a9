package storage

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepkv93/remindd/internal/model"
)

var ErrNotFound = errors.New("storage: not found")

type TaskFilter struct {
	Status         model.TaskStatus
	IncludeDeleted bool
}

type RecurringFilter struct {
	IncludeDeleted bool
}

type RecordFilter struct {
	ReminderID     string
	IncludeDeleted bool
}

// Store is the durable record store. Every write stamps updated_at and
// the writing device id; deletes are tombstone writes, never physical
// removal. Mutations are serialized behind one logical write lock.
type Store interface {
	CreateTask(ctx context.Context, in model.Task) error
	GetTask(ctx context.Context, id string) (model.Task, error)
	UpdateTask(ctx context.Context, in model.Task) error
	SoftDeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)

	CreateRecurringTask(ctx context.Context, in model.RecurringTask) error
	GetRecurringTask(ctx context.Context, id string) (model.RecurringTask, error)
	UpdateRecurringTask(ctx context.Context, in model.RecurringTask) error
	SoftDeleteRecurringTask(ctx context.Context, id string) error
	ListRecurringTasks(ctx context.Context, filter RecurringFilter) ([]model.RecurringTask, error)

	CreateReminderRecord(ctx context.Context, in model.ReminderRecord) error
	GetReminderRecord(ctx context.Context, id string) (model.ReminderRecord, error)
	UpdateReminderRecord(ctx context.Context, in model.ReminderRecord) error
	SoftDeleteReminderRecord(ctx context.Context, id string) error
	ListReminderRecords(ctx context.Context, filter RecordFilter) ([]model.ReminderRecord, error)
	// HasReminderRecord reports whether a non-deleted record references
	// the given source; with a non-nil trigger it matches that exact
	// firing instant. This is the dispatcher's duplicate-fire guard.
	HasReminderRecord(ctx context.Context, reminderID string, trigger *time.Time) (bool, error)

	LoadSettings(ctx context.Context) (model.Settings, error)
	SaveSettings(ctx context.Context, in model.Settings) error
	UpdateSyncStatus(ctx context.Context, status, syncErr string, syncedAt *time.Time) error
	MarkLocalChange(ctx context.Context) error

	// ExportSnapshot reads the complete record state, tombstones
	// included. ApplySnapshot replaces it atomically with a merged
	// snapshot, preserving the rows' own timestamps.
	ExportSnapshot(ctx context.Context) (model.Snapshot, error)
	ApplySnapshot(ctx context.Context, snap model.Snapshot) error

	// DeviceID is the stable per-installation identifier recorded on
	// every write and used to break merge ties.
	DeviceID() string

	Cleanup(ctx context.Context, opts CleanupOptions) error
	Optimize(ctx context.Context) error
	Close() error
}

// CleanupOptions bounds housekeeping. Tombstones must outlive at least
// one full sync round-trip or deleted records resurrect from stale
// peers, so the retention is configurable rather than hard-coded.
type CleanupOptions struct {
	Now                time.Time
	TombstoneRetention time.Duration
	CompletedRetention time.Duration
	KeepCompleted      int
}
