package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrValidation is the root of every input-validation failure. Callers
// match it with errors.Is to distinguish bad input from storage faults.
var ErrValidation = errors.New("model: validation")

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "PENDING"
	TaskStatusCompleted TaskStatus = "COMPLETED"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

// Task is a one-off work item. DeletedAt is a tombstone: the record is
// excluded from active listings but kept so the deletion can propagate
// through sync.
type Task struct {
	ID           string     `json:"id"`
	Description  string     `json:"description"`
	Status       TaskStatus `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	ReminderTime *time.Time `json:"reminderTime,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	UpdatedBy    string     `json:"updatedBy,omitempty"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: task id is required", ErrValidation)
	}
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("%w: task description is required", ErrValidation)
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: invalid task status %q", ErrValidation, t.Status)
	}
	if t.CreatedAt.IsZero() {
		return fmt.Errorf("%w: task created_at is required", ErrValidation)
	}
	if t.Status == TaskStatusCompleted && t.CompletedAt == nil {
		return fmt.Errorf("%w: completed_at is required when status is COMPLETED", ErrValidation)
	}
	if t.Status != TaskStatusCompleted && t.CompletedAt != nil {
		return fmt.Errorf("%w: completed_at must be unset when status is not COMPLETED", ErrValidation)
	}
	return nil
}

func (t Task) Deleted() bool {
	return t.DeletedAt != nil
}

func (t Task) SyncID() string { return t.ID }

func (t Task) ModifiedAt() time.Time {
	return compareTime(t.UpdatedAt, t.DeletedAt, t.CreatedAt)
}

func (t Task) ModifiedBy() string { return t.UpdatedBy }

// compareTime picks the timestamp a merge compares on: updated_at when
// present, then deleted_at, then a per-entity fallback.
func compareTime(updated time.Time, deleted *time.Time, fallback time.Time) time.Time {
	if !updated.IsZero() {
		return updated
	}
	if deleted != nil && !deleted.IsZero() {
		return *deleted
	}
	return fallback
}
