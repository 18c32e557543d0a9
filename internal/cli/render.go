package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sandeepkv93/remindd/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	pausedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	timeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

func renderTasks(header string, tasks []model.Task) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")
	if len(tasks) == 0 {
		b.WriteString("  (none)\n")
		return b.String()
	}
	for _, t := range tasks {
		mark := "[ ]"
		if t.Status == model.TaskStatusCompleted {
			mark = doneStyle.Render("[x]")
		}
		line := fmt.Sprintf("  %s %s %s", mark, t.Description, idStyle.Render(shortID(t.ID)))
		if t.ReminderTime != nil {
			line += " " + timeStyle.Render("@"+formatTime(*t.ReminderTime))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func renderRecurring(tasks []model.RecurringTask) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Recurring"))
	b.WriteString("\n")
	if len(tasks) == 0 {
		b.WriteString("  (none)\n")
		return b.String()
	}
	for _, t := range tasks {
		state := ""
		switch {
		case t.Paused:
			state = pausedStyle.Render(" [paused]")
		case t.NextTrigger == nil:
			state = idStyle.Render(" [expired]")
		}
		line := fmt.Sprintf("  %s (%s)%s %s", t.Description, describeSchedule(t), state, idStyle.Render(shortID(t.ID)))
		if t.NextTrigger != nil && !t.Paused {
			line += " " + timeStyle.Render("next "+formatTime(*t.NextTrigger))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func renderRecords(records []model.ReminderRecord) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Reminder history"))
	b.WriteString("\n")
	if len(records) == 0 {
		b.WriteString("  (none)\n")
		return b.String()
	}
	for _, r := range records {
		b.WriteString(fmt.Sprintf("  %s  %-9s %s %s\n",
			formatTime(r.TriggerTime), r.Action, r.Description, idStyle.Render(shortID(r.ID))))
	}
	return b.String()
}

func renderSyncStatus(status model.SyncStatus) string {
	line := "sync: " + status.Status
	if status.Time != nil {
		line += " at " + formatTime(*status.Time)
	}
	if status.Error != "" {
		return errorStyle.Render(line + " (" + status.Error + ")")
	}
	return doneStyle.Render(line)
}

func describeSchedule(t model.RecurringTask) string {
	switch t.Mode {
	case model.RepeatDaily:
		return "daily " + t.ScheduleTime
	case model.RepeatWeekly:
		return "weekly " + weekdayName(t.ScheduleWeekday) + " " + t.ScheduleTime
	case model.RepeatMonthly:
		return fmt.Sprintf("monthly day %d %s", t.ScheduleDay, t.ScheduleTime)
	case model.RepeatCron:
		return "cron " + t.CronExpression
	default:
		return fmt.Sprintf("every %dm", t.IntervalMinutes)
	}
}

func weekdayName(day int) string {
	names := []string{"", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	if day < 1 || day > 7 {
		return "?"
	}
	return names[day]
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
