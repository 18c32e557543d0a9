package model

import (
	"fmt"
	"strings"
	"time"
)

type ReminderKind string

const (
	ReminderKindTask      ReminderKind = "TASK"
	ReminderKindRecurring ReminderKind = "RECURRING"
)

func (k ReminderKind) IsValid() bool {
	switch k {
	case ReminderKindTask, ReminderKindRecurring:
		return true
	default:
		return false
	}
}

type RecordAction string

const (
	RecordActionPending   RecordAction = "PENDING"
	RecordActionDismissed RecordAction = "DISMISSED"
	RecordActionSnoozed   RecordAction = "SNOOZED"
	RecordActionCompleted RecordAction = "COMPLETED"
)

func (a RecordAction) IsValid() bool {
	switch a {
	case RecordActionPending, RecordActionDismissed, RecordActionSnoozed, RecordActionCompleted:
		return true
	default:
		return false
	}
}

// ReminderRecord is one materialized firing of a task or recurring
// task. ReminderID points back at the source; Description is a snapshot
// taken when the trigger fired, so later edits don't rewrite history.
type ReminderRecord struct {
	ID          string       `json:"id"`
	ReminderID  string       `json:"reminderId"`
	Kind        ReminderKind `json:"type"`
	Description string       `json:"description"`
	TriggerTime time.Time    `json:"triggerTime"`
	CloseTime   *time.Time   `json:"closeTime,omitempty"`
	Action      RecordAction `json:"action"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	UpdatedBy   string       `json:"updatedBy,omitempty"`
	DeletedAt   *time.Time   `json:"deletedAt,omitempty"`
}

func (r ReminderRecord) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: record id is required", ErrValidation)
	}
	if strings.TrimSpace(r.ReminderID) == "" {
		return fmt.Errorf("%w: record reminder_id is required", ErrValidation)
	}
	if !r.Kind.IsValid() {
		return fmt.Errorf("%w: invalid reminder kind %q", ErrValidation, r.Kind)
	}
	if r.TriggerTime.IsZero() {
		return fmt.Errorf("%w: record trigger_time is required", ErrValidation)
	}
	if !r.Action.IsValid() {
		return fmt.Errorf("%w: invalid record action %q", ErrValidation, r.Action)
	}
	return nil
}

func (r ReminderRecord) Deleted() bool {
	return r.DeletedAt != nil
}

func (r ReminderRecord) SyncID() string { return r.ID }

func (r ReminderRecord) ModifiedAt() time.Time {
	return compareTime(r.UpdatedAt, r.DeletedAt, r.TriggerTime)
}

func (r ReminderRecord) ModifiedBy() string { return r.UpdatedBy }
