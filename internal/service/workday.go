package service

import (
	"fmt"
	"time"

	"attendance/internal/models"
)

// clockMinutes converts a zero-padded "HH:MM" into minutes after midnight.
func clockMinutes(value string) (int, error) {
	t, err := time.Parse(models.ClockLayout, value)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", value, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func validClock(value string) bool {
	if len(value) != len(models.ClockLayout) {
		return false
	}
	_, err := clockMinutes(value)
	return err == nil
}

// withinWorkHours compares "HH:MM" strings; both bounds are inclusive.
func withinWorkHours(settings models.Settings, now time.Time) bool {
	hhmm := now.Format(models.ClockLayout)
	return settings.WorkStart <= hhmm && hhmm <= settings.WorkEnd
}

// lateMinutes is how far at is past workStart, never negative.
func lateMinutes(workStart, at string) int {
	start, err := clockMinutes(workStart)
	if err != nil {
		return 0
	}
	actual, err := clockMinutes(at)
	if err != nil {
		return 0
	}
	return max(0, actual-start)
}

// earlyLeaveMinutes is how far at is before workEnd, never negative.
func earlyLeaveMinutes(workEnd, at string) int {
	end, err := clockMinutes(workEnd)
	if err != nil {
		return 0
	}
	actual, err := clockMinutes(at)
	if err != nil {
		return 0
	}
	return max(0, end-actual)
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(models.DateLayout, value)
	if err != nil || t.Format(models.DateLayout) != value {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return t, nil
}

// validateRange checks both dates and that start <= end.
func validateRange(start, end string) (time.Time, time.Time, error) {
	from, err := parseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s is after %s", ErrInvalidRange, start, end)
	}
	return from, to, nil
}
