// Package tracker holds the application lifecycle rules: follow-up
// scheduling, status derivation and the aggregations behind every view.
// Functions here take plain records and never touch storage.
package tracker

import (
	"time"

	"jobtrail/internal/models"
)

// Today returns the calendar date of now in loc. A nil loc keeps now's location.
func Today(now time.Time, loc *time.Location) models.Date {
	if loc != nil {
		now = now.In(loc)
	}
	return models.DateOf(now)
}

// DaysBetween returns the signed number of calendar days from a to b.
func DaysBetween(a, b models.Date) int {
	return int(b.Time().Sub(a.Time()).Hours() / 24)
}

// EachDay lists every date of the closed interval [start, end].
func EachDay(start, end models.Date) []models.Date {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return nil
	}
	days := make([]models.Date, 0, DaysBetween(start, end)+1)
	for d := start; !d.After(end); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// StartOfWeek returns the Sunday on or before d.
func StartOfWeek(d models.Date) models.Date {
	return d.AddDays(-int(d.Weekday()))
}

func StartOfMonth(d models.Date) models.Date {
	return models.NewDate(d.Year(), d.Month(), 1)
}
