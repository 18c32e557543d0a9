package model

import (
	"fmt"
	"strings"
	"time"
)

type RepeatMode string

const (
	RepeatIntervalRange RepeatMode = "INTERVAL_RANGE"
	RepeatDaily         RepeatMode = "DAILY"
	RepeatWeekly        RepeatMode = "WEEKLY"
	RepeatMonthly       RepeatMode = "MONTHLY"
	RepeatCron          RepeatMode = "CRON"
)

// NormalizeRepeatMode maps loose user input onto a canonical mode.
// Unrecognized values fall back to INTERVAL_RANGE.
func NormalizeRepeatMode(mode string) RepeatMode {
	switch RepeatMode(strings.ToUpper(strings.TrimSpace(mode))) {
	case RepeatDaily:
		return RepeatDaily
	case RepeatWeekly:
		return RepeatWeekly
	case RepeatMonthly:
		return RepeatMonthly
	case RepeatCron:
		return RepeatCron
	case "INTERVAL", "INTERVAL-RANGE", RepeatIntervalRange:
		return RepeatIntervalRange
	default:
		return RepeatIntervalRange
	}
}

// RecurringTask extends Task with schedule state. Only the fields of the
// active repeat mode are meaningful; the rest are ignored but preserved
// for round-trip fidelity with peers that may still use them.
//
// NextTrigger is a derived cache: nil means the task is inactive, either
// paused without a recompute yet or expired past its validity window.
type RecurringTask struct {
	Task
	IntervalMinutes int        `json:"intervalMinutes"`
	LastTriggered   *time.Time `json:"lastTriggered,omitempty"`
	NextTrigger     *time.Time `json:"nextTrigger,omitempty"`
	Paused          bool       `json:"isPaused"`
	StartTime       *time.Time `json:"startTime,omitempty"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	Mode            RepeatMode `json:"repeatMode"`
	ScheduleTime    string     `json:"scheduleTime,omitempty"`
	ScheduleWeekday int        `json:"scheduleWeekday,omitempty"`
	ScheduleDay     int        `json:"scheduleDay,omitempty"`
	CronExpression  string     `json:"cronExpression,omitempty"`
}

func (t RecurringTask) Validate() error {
	if err := t.Task.Validate(); err != nil {
		return err
	}
	if t.StartTime != nil && t.EndTime != nil && t.StartTime.After(*t.EndTime) {
		return fmt.Errorf("%w: validity window start is after its end", ErrValidation)
	}
	_, err := t.Schedule()
	return err
}

// Schedule is the typed view of the active repeat mode. Exactly one
// concrete variant exists per RepeatMode.
type Schedule interface {
	Mode() RepeatMode
}

// IntervalSchedule fires on a fixed grid anchored at the validity
// window start (or the task's creation when no window is set).
type IntervalSchedule struct {
	Every time.Duration
}

// DailySchedule fires once a day at a fixed wall-clock time.
type DailySchedule struct {
	At Clock
}

// WeeklySchedule fires on one weekday a week, 1=Monday..7=Sunday.
type WeeklySchedule struct {
	At      Clock
	Weekday int
}

// MonthlySchedule fires on one day a month, clamped to the month's
// last day when the month is shorter.
type MonthlySchedule struct {
	At  Clock
	Day int
}

// CronSchedule fires per a 5- or 6-field cron expression.
type CronSchedule struct {
	Expression string
}

func (IntervalSchedule) Mode() RepeatMode { return RepeatIntervalRange }
func (DailySchedule) Mode() RepeatMode    { return RepeatDaily }
func (WeeklySchedule) Mode() RepeatMode   { return RepeatWeekly }
func (MonthlySchedule) Mode() RepeatMode  { return RepeatMonthly }
func (CronSchedule) Mode() RepeatMode     { return RepeatCron }

// Schedule materializes the variant for the task's repeat mode,
// validating the fields that mode uses. Fields belonging to other
// modes are ignored.
func (t RecurringTask) Schedule() (Schedule, error) {
	switch t.Mode {
	case RepeatIntervalRange:
		if t.IntervalMinutes < 1 {
			return nil, fmt.Errorf("%w: interval must be at least one minute", ErrValidation)
		}
		return IntervalSchedule{Every: time.Duration(t.IntervalMinutes) * time.Minute}, nil
	case RepeatDaily:
		at, err := ParseClock(t.ScheduleTime)
		if err != nil {
			return nil, err
		}
		return DailySchedule{At: at}, nil
	case RepeatWeekly:
		at, err := ParseClock(t.ScheduleTime)
		if err != nil {
			return nil, err
		}
		if t.ScheduleWeekday < 1 || t.ScheduleWeekday > 7 {
			return nil, fmt.Errorf("%w: weekly weekday must be between 1 and 7", ErrValidation)
		}
		return WeeklySchedule{At: at, Weekday: t.ScheduleWeekday}, nil
	case RepeatMonthly:
		at, err := ParseClock(t.ScheduleTime)
		if err != nil {
			return nil, err
		}
		if t.ScheduleDay < 1 || t.ScheduleDay > 31 {
			return nil, fmt.Errorf("%w: monthly day must be between 1 and 31", ErrValidation)
		}
		return MonthlySchedule{At: at, Day: t.ScheduleDay}, nil
	case RepeatCron:
		expr := strings.TrimSpace(t.CronExpression)
		if expr == "" {
			return nil, fmt.Errorf("%w: cron mode requires an expression", ErrValidation)
		}
		return CronSchedule{Expression: expr}, nil
	default:
		return nil, fmt.Errorf("%w: invalid repeat mode %q", ErrValidation, t.Mode)
	}
}

// Active reports whether the dispatcher should consider this task at
// all: not tombstoned, not paused, and holding a computed trigger.
func (t RecurringTask) Active() bool {
	return !t.Deleted() && !t.Paused && t.NextTrigger != nil
}

// Clock is a wall-clock time of day, the "09:00" part of a DAILY,
// WEEKLY or MONTHLY schedule.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On places the clock on the given calendar day in day's location.
func (c Clock) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, day.Location())
}

// ParseClock parses an "HH:MM" time of day.
func ParseClock(value string) (Clock, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return Clock{}, fmt.Errorf("%w: schedule time must be HH:MM, e.g. 08:30", ErrValidation)
	}
	return Clock{Hour: parsed.Hour(), Minute: parsed.Minute()}, nil
}
