package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"jobtrail/internal/models"
	"jobtrail/internal/tracker"

	"github.com/google/uuid"
)

// MemoryStore implements Store with mutex-guarded maps. Every batch is applied
// under the write lock after validation, so it either fully happens or not at all.
type MemoryStore struct {
	mu           sync.RWMutex
	now          func() time.Time
	users        map[string]models.User
	applications map[string]models.Application
	followUps    map[string]models.FollowUp
	timeline     map[string]models.TimelineEntry
	targets      map[string]models.UserTarget
	settings     map[string]models.UserSettings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:          time.Now,
		users:        make(map[string]models.User),
		applications: make(map[string]models.Application),
		followUps:    make(map[string]models.FollowUp),
		timeline:     make(map[string]models.TimelineEntry),
		targets:      make(map[string]models.UserTarget),
		settings:     make(map[string]models.UserSettings),
	}
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// === Users ===

func (m *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicateEmail
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = m.now().UTC()
	}
	m.users[user.ID] = *user
	return nil
}

func (m *MemoryStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListReminderRecipients(ctx context.Context) ([]models.ReminderRecipient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })

	recipients := []models.ReminderRecipient{}
	for _, u := range users {
		settings, ok := m.settings[u.ID]
		if !ok {
			settings = models.DefaultSettings(u.ID)
		}
		if !settings.DailyReminder {
			continue
		}
		recipients = append(recipients, models.ReminderRecipient{
			UserID:             u.ID,
			Email:              u.Email,
			Phone:              u.Phone,
			EmailNotifications: settings.EmailNotifications,
		})
	}
	return recipients, nil
}

// === Applications ===

func (m *MemoryStore) CreateApplication(ctx context.Context, app *models.Application, followUps []models.FollowUp, entry *models.TimelineEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if app.ID == "" {
		app.ID = uuid.New().String()
	}
	now := m.now().UTC()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = app.CreatedAt
	m.applications[app.ID] = *app

	for i := range followUps {
		fu := &followUps[i]
		if fu.ID == "" {
			fu.ID = uuid.New().String()
		}
		fu.ApplicationID = app.ID
		fu.UserID = app.UserID
		if fu.CreatedAt.IsZero() {
			fu.CreatedAt = now
		}
		m.followUps[fu.ID] = *fu
	}

	if entry != nil {
		entry.ApplicationID = app.ID
		entry.UserID = app.UserID
		m.appendTimelineLocked(entry)
	}
	return nil
}

func (m *MemoryStore) GetApplication(ctx context.Context, userID, id string) (*models.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	app, ok := m.applications[id]
	if !ok || app.UserID != userID {
		return nil, ErrNotFound
	}
	return &app, nil
}

func (m *MemoryStore) ListApplications(ctx context.Context, userID string, q ApplicationQuery) ([]models.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	owned := []models.Application{}
	for _, app := range m.applications {
		if app.UserID == userID {
			owned = append(owned, app)
		}
	}
	apps := tracker.FilterApplications(owned, tracker.ApplicationFilter{Query: q.Query, Status: q.Status})
	sort.Slice(apps, func(i, j int) bool {
		if !apps[i].AppliedDate.Equal(apps[j].AppliedDate) {
			return apps[i].AppliedDate.After(apps[j].AppliedDate)
		}
		if !apps[i].CreatedAt.Equal(apps[j].CreatedAt) {
			return apps[i].CreatedAt.After(apps[j].CreatedAt)
		}
		return apps[i].ID > apps[j].ID
	})
	if q.Limit > 0 && len(apps) > q.Limit {
		apps = apps[:q.Limit]
	}
	return apps, nil
}

func (m *MemoryStore) UpdateApplication(ctx context.Context, app *models.Application, entry *models.TimelineEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.applications[app.ID]
	if !ok || existing.UserID != app.UserID {
		return ErrNotFound
	}
	app.CreatedAt = existing.CreatedAt
	if app.UpdatedAt.IsZero() {
		app.UpdatedAt = m.now().UTC()
	}
	m.applications[app.ID] = *app

	if entry != nil {
		entry.ApplicationID = app.ID
		entry.UserID = app.UserID
		m.appendTimelineLocked(entry)
	}
	return nil
}

func (m *MemoryStore) DeleteApplication(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, ok := m.applications[id]
	if !ok || app.UserID != userID {
		return ErrNotFound
	}
	for fid, fu := range m.followUps {
		if fu.ApplicationID == id {
			delete(m.followUps, fid)
		}
	}
	for tid, e := range m.timeline {
		if e.ApplicationID == id {
			delete(m.timeline, tid)
		}
	}
	delete(m.applications, id)
	return nil
}

// === Follow-ups ===

// withApplication fills the joined company and role.
func (m *MemoryStore) withApplication(fu models.FollowUp) models.FollowUp {
	if app, ok := m.applications[fu.ApplicationID]; ok {
		fu.Company = app.Company
		fu.Role = app.Role
	}
	return fu
}

func (m *MemoryStore) GetFollowUp(ctx context.Context, userID, id string) (*models.FollowUp, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	fu, ok := m.followUps[id]
	if !ok || fu.UserID != userID {
		return nil, ErrNotFound
	}
	fu = m.withApplication(fu)
	return &fu, nil
}

func (m *MemoryStore) ListFollowUps(ctx context.Context, userID string, q FollowUpQuery) ([]models.FollowUp, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	followUps := []models.FollowUp{}
	for _, fu := range m.followUps {
		if fu.UserID != userID {
			continue
		}
		if _, ok := m.applications[fu.ApplicationID]; !ok {
			continue
		}
		if q.ApplicationID != "" && fu.ApplicationID != q.ApplicationID {
			continue
		}
		if q.IncompleteOnly && fu.IsCompleted {
			continue
		}
		if !q.From.IsZero() && fu.FollowUpDate.Before(q.From) {
			continue
		}
		followUps = append(followUps, m.withApplication(fu))
	}
	sort.Slice(followUps, func(i, j int) bool {
		a, b := followUps[i], followUps[j]
		if !a.FollowUpDate.Equal(b.FollowUpDate) {
			return a.FollowUpDate.Before(b.FollowUpDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return followUps, nil
}

func (m *MemoryStore) CompleteFollowUp(ctx context.Context, userID, id string, entry *models.TimelineEntry) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fu, ok := m.followUps[id]
	if !ok || fu.UserID != userID {
		return nil, ErrNotFound
	}
	if fu.IsCompleted {
		return nil, ErrAlreadyCompleted
	}
	app, ok := m.applications[fu.ApplicationID]
	if !ok {
		return nil, ErrNotFound
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = m.now().UTC()
	}
	completedAt := entry.Timestamp
	fu.IsCompleted = true
	fu.CompletedAt = &completedAt
	m.followUps[id] = fu

	var siblings []models.FollowUp
	for _, f := range m.followUps {
		if f.ApplicationID == app.ID {
			siblings = append(siblings, f)
		}
	}
	app.Status = tracker.DeriveStatus(app, siblings)
	app.UpdatedAt = entry.Timestamp
	m.applications[app.ID] = app

	entry.ApplicationID = app.ID
	entry.UserID = userID
	m.appendTimelineLocked(entry)
	return &app, nil
}

// === Timeline ===

func (m *MemoryStore) appendTimelineLocked(entry *models.TimelineEntry) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = m.now().UTC()
	}
	m.timeline[entry.ID] = *entry
}

func (m *MemoryStore) ListTimeline(ctx context.Context, userID, applicationID string) ([]models.TimelineEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := []models.TimelineEntry{}
	for _, e := range m.timeline {
		if e.ApplicationID == applicationID && e.UserID == userID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Timestamp.After(entries[j].Timestamp)
		}
		return entries[i].ID > entries[j].ID
	})
	return entries, nil
}

// === Targets & settings ===

func targetKey(userID string, date models.Date) string {
	return userID + "|" + date.String()
}

func (m *MemoryStore) GetTarget(ctx context.Context, userID string, date models.Date) (*models.UserTarget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.targets[targetKey(userID, date)]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (m *MemoryStore) UpsertTarget(ctx context.Context, target *models.UserTarget) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := targetKey(target.UserID, target.Date)
	if existing, ok := m.targets[key]; ok {
		target.ID = existing.ID
	} else if target.ID == "" {
		target.ID = uuid.New().String()
	}
	if target.UpdatedAt.IsZero() {
		target.UpdatedAt = m.now().UTC()
	}
	m.targets[key] = *target
	return nil
}

func (m *MemoryStore) GetSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.settings[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) UpsertSettings(ctx context.Context, settings *models.UserSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if settings.UpdatedAt.IsZero() {
		settings.UpdatedAt = m.now().UTC()
	}
	m.settings[settings.UserID] = *settings
	return nil
}

var _ Store = (*MemoryStore)(nil)
