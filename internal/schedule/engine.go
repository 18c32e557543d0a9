// Package schedule computes recurring-task trigger times. It is pure:
// callers pass "now" in and persist the result themselves.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sandeepkv93/remindd/internal/model"
)

// Accepts the standard five fields plus an optional leading seconds
// field, matching what peers may have stored.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// ValidateCron rejects a cron expression before it reaches the store.
func ValidateCron(expr string) error {
	trimmed := strings.TrimSpace(expr)
	fields := len(strings.Fields(trimmed))
	if fields < 5 || fields > 6 {
		return fmt.Errorf("%w: cron expression needs 5 or 6 fields", model.ErrValidation)
	}
	if _, err := cronParser.Parse(trimmed); err != nil {
		return fmt.Errorf("%w: invalid cron expression: %v", model.ErrValidation, err)
	}
	return nil
}

// NextTrigger returns the next instant the task should fire, or
// ok=false when the task is inactive: paused, past its validity window,
// or out of cron occurrences before the window's end. An error means
// the task's schedule fields are unusable and callers should treat the
// task as expired rather than retry.
//
// The search starts strictly after max(now, lastTriggered), so a resume
// after a long pause yields exactly one future trigger instead of a
// burst of missed ones.
func NextTrigger(t model.RecurringTask, now time.Time) (time.Time, bool, error) {
	if t.Paused {
		return time.Time{}, false, nil
	}
	if t.EndTime != nil && now.After(*t.EndTime) {
		return time.Time{}, false, nil
	}

	base := now
	if t.LastTriggered != nil && t.LastTriggered.After(base) {
		base = *t.LastTriggered
	}
	if t.StartTime != nil && base.Before(*t.StartTime) {
		base = t.StartTime.Add(-time.Nanosecond)
	}

	sched, err := t.Schedule()
	if err != nil {
		return time.Time{}, false, err
	}

	var next time.Time
	switch s := sched.(type) {
	case model.IntervalSchedule:
		next = nextInterval(t, s, now)
	case model.DailySchedule:
		next = nextDaily(s, base)
	case model.WeeklySchedule:
		next = nextWeekly(s, base)
	case model.MonthlySchedule:
		next = nextMonthly(s, base)
	case model.CronSchedule:
		next, err = nextCron(s, base)
		if err != nil {
			return time.Time{}, false, err
		}
	}
	if next.IsZero() {
		return time.Time{}, false, nil
	}
	if t.EndTime != nil && next.After(*t.EndTime) {
		return time.Time{}, false, nil
	}
	return next, true, nil
}

// nextInterval walks the grid anchored at the window start (or the
// creation time when no window is set) in whole interval steps, so
// every result is congruent to the anchor modulo the interval.
func nextInterval(t model.RecurringTask, s model.IntervalSchedule, now time.Time) time.Time {
	anchor := t.CreatedAt
	if t.StartTime != nil {
		anchor = *t.StartTime
	}
	candidate := anchor
	if t.LastTriggered != nil {
		if after := t.LastTriggered.Add(s.Every); after.After(candidate) {
			candidate = after
		}
	}
	if !candidate.After(now) {
		steps := now.Sub(candidate)/s.Every + 1
		candidate = candidate.Add(steps * s.Every)
	}
	return candidate
}

func nextDaily(s model.DailySchedule, base time.Time) time.Time {
	candidate := s.At.On(base)
	if !candidate.After(base) {
		candidate = s.At.On(base.AddDate(0, 0, 1))
	}
	return candidate
}

func nextWeekly(s model.WeeklySchedule, base time.Time) time.Time {
	ahead := (s.Weekday - isoWeekday(base.Weekday()) + 7) % 7
	candidate := s.At.On(base.AddDate(0, 0, ahead))
	if !candidate.After(base) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

func nextMonthly(s model.MonthlySchedule, base time.Time) time.Time {
	year, month, _ := base.Date()
	candidate := s.At.On(monthDay(year, month, s.Day, base.Location()))
	if !candidate.After(base) {
		year, month = nextMonth(year, month)
		candidate = s.At.On(monthDay(year, month, s.Day, base.Location()))
	}
	return candidate
}

func nextCron(s model.CronSchedule, base time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(s.Expression)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid cron expression: %v", model.ErrValidation, err)
	}
	// Next returns the zero time when no occurrence exists within its
	// search horizon; NextTrigger maps that to inactive.
	return sched.Next(base), nil
}

// isoWeekday maps Go's Sunday-based weekday onto 1..7 Monday..Sunday.
func isoWeekday(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}

// monthDay clamps a requested day-of-month to the month's last day, so
// "the 31st" fires on Feb 28/29 instead of skipping the month.
func monthDay(year int, month time.Month, day int, loc *time.Location) time.Time {
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func nextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}
