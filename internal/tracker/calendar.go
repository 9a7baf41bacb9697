package tracker

import (
	"fmt"
	"sort"

	"jobtrail/internal/models"
)

type EventType string

const (
	EventApplication EventType = "application"
	EventFollowUp    EventType = "follow-up"
)

const unknownCompany = "Unknown Company"

type CalendarEvent struct {
	ID            string      `json:"id"`
	Date          models.Date `json:"date"`
	Type          EventType   `json:"type"`
	Title         string      `json:"title"`
	Details       string      `json:"details"`
	ApplicationID string      `json:"applicationId"`
}

// BuildCalendar merges applications and incomplete follow-ups into one
// date-ordered event list. Records without a usable date are skipped.
func BuildCalendar(apps []models.Application, followUps []models.FollowUp) []CalendarEvent {
	byID := make(map[string]models.Application, len(apps))
	events := make([]CalendarEvent, 0, len(apps)+len(followUps))

	for _, app := range apps {
		byID[app.ID] = app
		if app.AppliedDate.IsZero() {
			continue
		}
		events = append(events, CalendarEvent{
			ID:            "app-" + app.ID,
			Date:          app.AppliedDate,
			Type:          EventApplication,
			Title:         app.Company,
			Details:       app.Role,
			ApplicationID: app.ID,
		})
	}

	for _, fu := range followUps {
		if fu.IsCompleted || fu.FollowUpDate.IsZero() {
			continue
		}
		company, role := fu.Company, fu.Role
		if owner, ok := byID[fu.ApplicationID]; ok {
			if company == "" {
				company = owner.Company
			}
			if role == "" {
				role = owner.Role
			}
		}
		if company == "" {
			company = unknownCompany
		}
		events = append(events, CalendarEvent{
			ID:            "followup-" + fu.ID,
			Date:          fu.FollowUpDate,
			Type:          EventFollowUp,
			Title:         company,
			Details:       fmt.Sprintf("%s Follow-up: %s", fu.FollowUpType, role),
			ApplicationID: fu.ApplicationID,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
	return events
}

// EventsOn keeps the events falling on day.
func EventsOn(events []CalendarEvent, day models.Date) []CalendarEvent {
	out := []CalendarEvent{}
	for _, e := range events {
		if e.Date.Equal(day) {
			out = append(out, e)
		}
	}
	return out
}

// EventDays lists the distinct dates of a date-ordered event list.
func EventDays(events []CalendarEvent) []models.Date {
	days := []models.Date{}
	for _, e := range events {
		if n := len(days); n > 0 && days[n-1].Equal(e.Date) {
			continue
		}
		days = append(days, e.Date)
	}
	return days
}
