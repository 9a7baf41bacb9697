// Package service runs the tracker workflows on top of the data access
// facade. Every method is scoped to the signed-in user's id.
package service

import (
	"context"
	"errors"
	"time"

	apperrors "jobtrail/internal/common/errors"
	"jobtrail/internal/common/logger"
	"jobtrail/internal/common/metrics"
	"jobtrail/internal/models"
	"jobtrail/internal/store"
	"jobtrail/internal/tracker"

	"github.com/redis/go-redis/v9"
)

const recentApplications = 5

type Config struct {
	Location    *time.Location
	SettingsTTL time.Duration
}

type Service struct {
	store    store.Store
	cache    *settingsCache
	location *time.Location
	logger   logger.Logger

	// Now is the clock that decides "today". Tests replace it.
	Now func() time.Time
}

// New builds the service. rdb may be nil, in which case settings are always
// read from the store.
func New(cfg Config, st store.Store, rdb *redis.Client, log logger.Logger) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	log = log.WithFields(map[string]interface{}{"component": "service"})
	return &Service{
		store:    st,
		cache:    newSettingsCache(rdb, cfg.SettingsTTL, log),
		location: loc,
		logger:   log,
		Now:      time.Now,
	}
}

// Today is the current calendar date in the configured timezone.
func (s *Service) Today() models.Date {
	return tracker.Today(s.Now(), s.location)
}

// Ping checks the store and the settings cache.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return err
	}
	return s.cache.ping(ctx)
}

func (s *Service) record(op string, err error) {
	metrics.RecordOperation(op, err)
	if err == nil {
		return
	}
	if stdErr, ok := apperrors.As(err); ok && stdErr.Code == apperrors.ErrCodeValidationFailed {
		return
	}
	s.logger.Warn("operation failed", map[string]interface{}{
		"operation": op,
		"error":     err.Error(),
	})
}

// Passive views render an empty state when their lists cannot be loaded.
// The failure is logged and counted, never returned.
func (s *Service) applicationsFor(ctx context.Context, view, userID string, q store.ApplicationQuery) []models.Application {
	apps, err := s.store.ListApplications(ctx, userID, q)
	if err != nil {
		s.degraded(view, userID, err)
		return []models.Application{}
	}
	return apps
}

func (s *Service) followUpsFor(ctx context.Context, view, userID string, q store.FollowUpQuery) []models.FollowUp {
	followUps, err := s.store.ListFollowUps(ctx, userID, q)
	if err != nil {
		s.degraded(view, userID, err)
		return []models.FollowUp{}
	}
	return followUps
}

func (s *Service) degraded(view, userID string, err error) {
	metrics.RecordOperation(view, err)
	s.logger.Warn("view data unavailable, showing empty state", map[string]interface{}{
		"view":   view,
		"userId": userID,
		"error":  err.Error(),
	})
}

func notFoundApplication(err error, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NewApplicationNotFoundError(id)
	}
	return err
}

func notFoundFollowUp(err error, id string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NewFollowUpNotFoundError(id)
	case errors.Is(err, store.ErrAlreadyCompleted):
		return apperrors.NewFollowUpAlreadyCompletedError(id)
	}
	return err
}
