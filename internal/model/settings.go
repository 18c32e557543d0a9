package model

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultSnoozeMinutes       = 10
	DefaultSyncIntervalMinutes = 30
)

// SyncSettings configures the WebDAV endpoint and carries the sync
// engine's bookkeeping: last sync/local-change times and the stable
// per-installation device id used to break merge ties.
type SyncSettings struct {
	Enabled         bool       `json:"webdavEnabled"`
	URL             string     `json:"webdavUrl"`
	Username        string     `json:"webdavUsername"`
	Password        string     `json:"webdavPassword"`
	RootPath        string     `json:"webdavRootPath"`
	IntervalMinutes int        `json:"webdavSyncIntervalMinutes"`
	DeviceID        string     `json:"webdavDeviceId"`
	LastSyncTime    *time.Time `json:"webdavLastSyncTime,omitempty"`
	LastLocalChange *time.Time `json:"webdavLastLocalChangeTime,omitempty"`
	LastSyncStatus  string     `json:"webdavLastSyncStatus,omitempty"`
	LastSyncError   string     `json:"webdavLastSyncError,omitempty"`
}

func (s SyncSettings) Configured() bool {
	return s.Enabled && strings.TrimSpace(s.URL) != ""
}

type Settings struct {
	SnoozeMinutes int          `json:"snoozeMinutes"`
	Sync          SyncSettings `json:"sync"`
}

func DefaultSettings() Settings {
	return Settings{
		SnoozeMinutes: DefaultSnoozeMinutes,
		Sync: SyncSettings{
			IntervalMinutes: DefaultSyncIntervalMinutes,
		},
	}
}

func (s Settings) Validate() error {
	if s.SnoozeMinutes < 1 {
		return fmt.Errorf("%w: snooze minutes must be at least 1", ErrValidation)
	}
	if s.Sync.IntervalMinutes < 1 {
		return fmt.Errorf("%w: sync interval must be at least one minute", ErrValidation)
	}
	if s.Sync.Enabled && strings.TrimSpace(s.Sync.URL) == "" {
		return fmt.Errorf("%w: sync is enabled but no endpoint URL is set", ErrValidation)
	}
	return nil
}

// SyncStatus is the report returned by the status query.
type SyncStatus struct {
	Status string     `json:"status"`
	Error  string     `json:"error,omitempty"`
	Time   *time.Time `json:"time,omitempty"`
}

// Snapshot is the full record state of one device, the unit the sync
// engine exchanges with the WebDAV store and feeds through the merge.
type Snapshot struct {
	Version         int              `json:"version"`
	DeviceID        string           `json:"deviceId,omitempty"`
	ExportedAt      *time.Time       `json:"exportedAt,omitempty"`
	Tasks           []Task           `json:"tasks"`
	RecurringTasks  []RecurringTask  `json:"recurringTasks"`
	ReminderRecords []ReminderRecord `json:"reminderRecords"`
}

const SnapshotVersion = 1
