package service

import (
	"context"

	apperrors "jobtrail/internal/common/errors"
	"jobtrail/internal/models"
	"jobtrail/internal/store"
	"jobtrail/internal/tracker"
)

type CalendarView struct {
	Day        models.Date             `json:"day"`
	Events     []tracker.CalendarEvent `json:"events"`
	DayEvents  []tracker.CalendarEvent `json:"dayEvents"`
	MarkedDays []models.Date           `json:"markedDays"`
}

// Calendar lists application and pending follow-up events. A zero day means
// today. Like the other views it shows an empty state when loading fails.
func (s *Service) Calendar(ctx context.Context, userID string, day models.Date) (*CalendarView, error) {
	if day.IsZero() {
		day = s.Today()
	}
	apps := s.applicationsFor(ctx, "calendar", userID, store.ApplicationQuery{})
	followUps := s.followUpsFor(ctx, "calendar", userID, store.FollowUpQuery{IncompleteOnly: true})

	events := tracker.BuildCalendar(apps, followUps)
	return &CalendarView{
		Day:        day,
		Events:     events,
		DayEvents:  tracker.EventsOn(events, day),
		MarkedDays: tracker.EventDays(events),
	}, nil
}

// Statistics aggregates applications and follow-ups over week, month or all.
func (s *Service) Statistics(ctx context.Context, userID, rangeName string) (*tracker.Statistics, error) {
	r, err := tracker.ParseStatsRange(rangeName)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	apps := s.applicationsFor(ctx, "statistics", userID, store.ApplicationQuery{})
	followUps := s.followUpsFor(ctx, "statistics", userID, store.FollowUpQuery{})
	stats := tracker.BuildStatistics(r, apps, followUps, s.Today())
	return &stats, nil
}

// Dashboard summarises today. A failed target lookup falls back to the
// default target rather than failing the whole view.
func (s *Service) Dashboard(ctx context.Context, userID string) (*tracker.Dashboard, error) {
	today := s.Today()

	apps := s.applicationsFor(ctx, "dashboard", userID, store.ApplicationQuery{})
	followUps := s.followUpsFor(ctx, "dashboard", userID, store.FollowUpQuery{IncompleteOnly: true, From: today})

	target, err := s.DailyTarget(ctx, userID)
	if err != nil {
		s.logger.Warn("daily target unavailable, using default", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		target = models.DefaultDailyTarget
	}

	d := tracker.BuildDashboard(apps, followUps, today, target)
	if len(apps) > recentApplications {
		apps = apps[:recentApplications]
	}
	d.Recent = append(d.Recent, apps...)
	return &d, nil
}
