package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "jobtrail/internal/common/errors"
	"jobtrail/internal/common/logger"
	"jobtrail/internal/models"
	"jobtrail/internal/store"
	"jobtrail/internal/tracker"

	"github.com/redis/go-redis/v9"
)

const defaultSettingsTTL = 10 * time.Minute

// settingsCache keeps each user's settings under settings:<userID>. Every
// failure is logged and treated as a miss.
type settingsCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func newSettingsCache(rdb *redis.Client, ttl time.Duration, log logger.Logger) *settingsCache {
	if ttl <= 0 {
		ttl = defaultSettingsTTL
	}
	return &settingsCache{rdb: rdb, ttl: ttl, logger: log}
}

func settingsKey(userID string) string {
	return "settings:" + userID
}

func (c *settingsCache) get(ctx context.Context, userID string) (*models.UserSettings, bool) {
	if c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, settingsKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("settings cache read failed", map[string]interface{}{"userId": userID, "error": err.Error()})
		}
		return nil, false
	}
	var settings models.UserSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		c.logger.Warn("settings cache entry unreadable", map[string]interface{}{"userId": userID, "error": err.Error()})
		return nil, false
	}
	return &settings, true
}

func (c *settingsCache) put(ctx context.Context, settings *models.UserSettings) {
	if c.rdb == nil {
		return
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, settingsKey(settings.UserID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("settings cache write failed", map[string]interface{}{"userId": settings.UserID, "error": err.Error()})
	}
}

func (c *settingsCache) invalidate(ctx context.Context, userID string) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, settingsKey(userID)).Err(); err != nil {
		c.logger.Warn("settings cache invalidation failed", map[string]interface{}{"userId": userID, "error": err.Error()})
	}
}

func (c *settingsCache) ping(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Settings returns the user's saved settings, or the defaults when none are saved.
func (s *Service) Settings(ctx context.Context, userID string) (*models.UserSettings, error) {
	if cached, ok := s.cache.get(ctx, userID); ok {
		return cached, nil
	}

	settings, err := s.store.GetSettings(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		defaults := models.DefaultSettings(userID)
		return &defaults, nil
	}
	if err != nil {
		return nil, err
	}
	s.cache.put(ctx, settings)
	return settings, nil
}

// SaveSettings validates the follow-up offsets and stores the settings.
func (s *Service) SaveSettings(ctx context.Context, userID string, in models.UserSettings) (saved *models.UserSettings, err error) {
	defer func() { s.record("save_settings", err) }()

	in.UserID = userID
	if err := tracker.OffsetsFrom(&in).Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	in.UpdatedAt = s.Now().UTC()

	if err := s.store.UpsertSettings(ctx, &in); err != nil {
		return nil, err
	}
	s.cache.invalidate(ctx, userID)
	return &in, nil
}

// DailyTarget is today's application target, models.DefaultDailyTarget when unset.
func (s *Service) DailyTarget(ctx context.Context, userID string) (int, error) {
	target, err := s.store.GetTarget(ctx, userID, s.Today())
	if errors.Is(err, store.ErrNotFound) {
		return models.DefaultDailyTarget, nil
	}
	if err != nil {
		return 0, err
	}
	return target.TargetNumber, nil
}

// SetDailyTarget upserts today's target for the user.
func (s *Service) SetDailyTarget(ctx context.Context, userID string, n int) (target *models.UserTarget, err error) {
	defer func() { s.record("set_daily_target", err) }()

	if n < models.MinDailyTarget || n > models.MaxDailyTarget {
		return nil, apperrors.NewValidationError(fmt.Sprintf("daily target must be between %d and %d, got %d",
			models.MinDailyTarget, models.MaxDailyTarget, n))
	}
	target = &models.UserTarget{
		UserID:       userID,
		Date:         s.Today(),
		TargetNumber: n,
		UpdatedAt:    s.Now().UTC(),
	}
	if err := s.store.UpsertTarget(ctx, target); err != nil {
		return nil, err
	}
	return target, nil
}
