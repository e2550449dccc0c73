package usecase

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"FeedConsolidator/internal/domain"
)

var (
	reminderTimeExpr = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)
	workflowCronExpr = regexp.MustCompile(`(\s+- cron:\s+['"])([^'"]+)(['"])`)
)

// ValidateReviewSettings enforces the settings shape: a HH:MM reminder time,
// a resolvable timezone, and a message template.
func ValidateReviewSettings(settings domain.ReviewSettings) error {
	if settings.ReminderTime == "" {
		return fmt.Errorf("missing required field: reminder_time")
	}
	if !reminderTimeExpr.MatchString(settings.ReminderTime) {
		return fmt.Errorf("reminder_time must be in HH:MM format")
	}

	if settings.ReminderTimezone == "" {
		return fmt.Errorf("missing required field: reminder_timezone")
	}
	if _, err := time.LoadLocation(settings.ReminderTimezone); err != nil {
		return fmt.Errorf("unknown timezone %s: %w", settings.ReminderTimezone, err)
	}

	if settings.MessageTemplate == "" {
		return fmt.Errorf("missing required field: message_template")
	}
	return nil
}

// CronFromLocalTime converts a local HH:MM in the given timezone to a daily
// UTC cron expression, evaluated against today's offset. A DST shift moves
// the reminder by an hour until the next settings update.
func CronFromLocalTime(hhmm, timezone string, now time.Time) (string, error) {
	if !reminderTimeExpr.MatchString(hhmm) {
		return "", fmt.Errorf("invalid time %q: want HH:MM", hhmm)
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return "", fmt.Errorf("load timezone %s: %w", timezone, err)
	}

	var hour, minute int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &hour, &minute); err != nil {
		return "", fmt.Errorf("parse time %q: %w", hhmm, err)
	}

	local := now.In(loc)
	local = time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	utc := local.UTC()

	return fmt.Sprintf("%d %d * * *", utc.Minute(), utc.Hour()), nil
}

// UpdateWorkflowCron rewrites the `- cron: '...'` line of a scheduler
// workflow file in place. Returns false without error when the file does not
// exist or carries no cron line; a misconfigured workflow must not fail the
// settings update.
func UpdateWorkflowCron(path, cronExpression string) (bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read workflow %s: %w", path, err)
	}

	replaced := workflowCronExpr.ReplaceAll(raw, []byte("${1}"+cronExpression+"${3}"))
	if string(replaced) == string(raw) {
		if !workflowCronExpr.Match(raw) {
			return false, nil
		}
		return true, nil
	}

	if err := os.WriteFile(path, replaced, 0o644); err != nil {
		return false, fmt.Errorf("write workflow %s: %w", path, err)
	}
	return true, nil
}
