package store

import (
	"context"
	"testing"
	"time"

	"jobtrail/internal/models"
	"jobtrail/internal/tracker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemoryStore() *MemoryStore {
	m := NewMemoryStore()
	m.now = func() time.Time { return fixedNow }
	return m
}

func seedApplication(t *testing.T, m *MemoryStore, userID, company string, applied models.Date) (*models.Application, []models.FollowUp) {
	t.Helper()
	app := &models.Application{
		UserID:      userID,
		Company:     company,
		Role:        "Engineer",
		AppliedDate: applied,
		Status:      models.StatusNew,
	}
	followUps := tracker.GenerateFollowUps(*app, tracker.DefaultOffsets)
	entry := &models.TimelineEntry{ActionType: models.ActionApplicationAdded, Note: "Applied to " + company + " for Engineer position"}
	require.NoError(t, m.CreateApplication(context.Background(), app, followUps, entry))
	return app, followUps
}

func TestMemoryStore_CreateApplication_AssignsIDs(t *testing.T) {
	m := newTestMemoryStore()
	ctx := context.Background()

	app, followUps := seedApplication(t, m, "user-1", "Acme", models.NewDate(2024, time.March, 1))

	assert.NotEmpty(t, app.ID)
	stored, err := m.ListFollowUps(ctx, "user-1", FollowUpQuery{ApplicationID: app.ID})
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for i, fu := range stored {
		assert.Equal(t, followUps[i].ID, fu.ID)
		assert.Equal(t, "Acme", fu.Company)
		assert.Equal(t, "Engineer", fu.Role)
	}
	assert.Equal(t, "2024-03-08", stored[0].FollowUpDate.String())
	assert.Equal(t, "2024-03-16", stored[2].FollowUpDate.String())

	timeline, err := m.ListTimeline(ctx, "user-1", app.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.Equal(t, models.ActionApplicationAdded, timeline[0].ActionType)
}

func TestMemoryStore_ScopesByUser(t *testing.T) {
	m := newTestMemoryStore()
	ctx := context.Background()
	app, followUps := seedApplication(t, m, "user-1", "Acme", models.NewDate(2024, time.March, 1))

	_, err := m.GetApplication(ctx, "user-2", app.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.GetFollowUp(ctx, "user-2", followUps[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)

	apps, err := m.ListApplications(ctx, "user-2", ApplicationQuery{})
	require.NoError(t, err)
	assert.Empty(t, apps)

	assert.ErrorIs(t, m.DeleteApplication(ctx, "user-2", app.ID), ErrNotFound)
}

func TestMemoryStore_ListApplications_OrderAndFilter(t *testing.T) {
	m := newTestMemoryStore()
	ctx := context.Background()
	seedApplication(t, m, "user-1", "Acme", models.NewDate(2024, time.March, 1))
	seedApplication(t, m, "user-1", "Globex", models.NewDate(2024, time.March, 5))
	seedApplication(t, m, "user-1", "Initech", models.NewDate(2024, time.February, 20))

	apps, err := m.ListApplications(ctx, "user-1", ApplicationQuery{})
	require.NoError(t, err)
	require.Len(t, apps, 3)
	assert.Equal(t, []string{"Globex", "Acme", "Initech"}, []string{apps[0].Company, apps[1].Company, apps[2].Company})

	apps, err = m.ListApplications(ctx, "user-1", ApplicationQuery{Query: "glob"})
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "Globex", apps[0].Company)

	apps, err = m.ListApplications(ctx, "user-1", ApplicationQuery{Status: string(models.StatusExpired)})
	require.NoError(t, err)
	assert.Empty(t, apps)

	apps, err = m.ListApplications(ctx, "user-1", ApplicationQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, apps, 2)
}

func TestMemoryStore_CompleteFollowUp(t *testing.T) {
	m := newTestMemoryStore()
	ctx := context.Background()
	app, followUps := seedApplication(t, m, "user-1", "Acme", models.NewDate(2024, time.March, 1))

	entry := &models.TimelineEntry{ActionType: models.ActionFollowUpCompleted, Note: "Completed follow-up for Acme"}
	updated, err := m.CompleteFollowUp(ctx, "user-1", followUps[0].ID, entry)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFollowedUp, updated.Status)

	fu, err := m.GetFollowUp(ctx, "user-1", followUps[0].ID)
	require.NoError(t, err)
	assert.True(t, fu.IsCompleted)
	require.NotNil(t, fu.CompletedAt)
	assert.Equal(t, fixedNow, *fu.CompletedAt)

	timeline, err := m.ListTimeline(ctx, "user-1", app.ID)
	require.NoError(t, err)
	assert.Len(t, timeline, 2)

	_, err = m.CompleteFollowUp(ctx, "user-1", followUps[0].ID, &models.TimelineEntry{ActionType: models.ActionFollowUpCompleted})
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	timeline, err = m.ListTimeline(ctx, "user-1", app.ID)
	require.NoError(t, err)
	assert.Len(t, timeline, 2, "a rejected completion appends nothing")

	_, err = m.CompleteFollowUp(ctx, "user-1", "missing", &models.TimelineEntry{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_CompleteFollowUp_KeepsExpired(t *testing.T) {
	m := newTestMemoryStore()
	ctx := context.Background()
	app, followUps := seedApplication(t, m, "user-1", "Acme", models.NewDate(2024, time.March, 1))

	expiredAt := fixedNow
	app.Status = models.StatusExpired
	app.ExpiredAt = &expiredAt
	require.NoError(t, m.UpdateApplication(ctx, app, nil))

	updated, err := m.CompleteFollowUp(ctx, "user-1", followUps[1].ID, &models.TimelineEntry{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, updated.Status)
}

func TestMemoryStore_DeleteApplication_Cascades(t *testing.T) {
	m := newTestMemoryStore()
	ctx := context.Background()
	app, followUps := seedApplication(t, m, "user-1", "Acme", models.NewDate(2024, time.March, 1))
	other, _ := seedApplication(t, m, "user-1", "Globex", models.NewDate(2024, time.March, 2))

	_, err := m.CompleteFollowUp(ctx, "user-1", followUps[0].ID, &models.TimelineEntry{ActionType: models.ActionFollowUpCompleted})
	require.NoError(t, err)

	require.NoError(t, m.DeleteApplication(ctx, "user-1", app.ID))

	_, err = m.GetApplication(ctx, "user-1", app.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	for _, fu := range followUps {
		_, err := m.GetFollowUp(ctx, "user-1", fu.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	}
	timeline, err := m.ListTimeline(ctx, "user-1", app.ID)
	require.NoError(t, err)
	assert.Empty(t, timeline)

	remaining, err := m.ListFollowUps(ctx, "user-1", FollowUpQuery{})
	require.NoError(t, err)
	assert.Len(t, remaining, 3)
	for _, fu := range remaining {
		assert.Equal(t, other.ID, fu.ApplicationID)
	}
}

func TestMemoryStore_UpdateApplication_NotFound(t *testing.T) {
	m := newTestMemoryStore()
	err := m.UpdateApplication(context.Background(), &models.Application{ID: "nope", UserID: "user-1"}, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ListFollowUps_IncompleteFrom(t *testing.T) {
	m := newTestMemoryStore()
	ctx := context.Background()
	_, followUps := seedApplication(t, m, "user-1", "Acme", models.NewDate(2024, time.March, 1))

	_, err := m.CompleteFollowUp(ctx, "user-1", followUps[2].ID, &models.TimelineEntry{})
	require.NoError(t, err)

	got, err := m.ListFollowUps(ctx, "user-1", FollowUpQuery{
		IncompleteOnly: true,
		From:           models.NewDate(2024, time.March, 10),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, followUps[1].ID, got[0].ID)
}

func TestMemoryStore_Users(t *testing.T) {
	m := newTestMemoryStore()
	ctx := context.Background()

	u := &models.User{Email: "jane@example.com", PasswordHash: "hash"}
	require.NoError(t, m.CreateUser(ctx, u))
	assert.NotEmpty(t, u.ID)

	err := m.CreateUser(ctx, &models.User{Email: "JANE@example.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	got, err := m.GetUserByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = m.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ListReminderRecipients(t *testing.T) {
	m := newTestMemoryStore()
	ctx := context.Background()

	on := &models.User{Email: "on@example.com", Phone: "+15550100"}
	off := &models.User{Email: "off@example.com"}
	require.NoError(t, m.CreateUser(ctx, on))
	require.NoError(t, m.CreateUser(ctx, off))

	settings := models.DefaultSettings(off.ID)
	settings.DailyReminder = false
	require.NoError(t, m.UpsertSettings(ctx, &settings))

	recipients, err := m.ListReminderRecipients(ctx)
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	assert.Equal(t, on.ID, recipients[0].UserID)
	assert.Equal(t, "+15550100", recipients[0].Phone)
	assert.True(t, recipients[0].EmailNotifications)
}

func TestMemoryStore_TargetsUpsertPerDate(t *testing.T) {
	m := newTestMemoryStore()
	ctx := context.Background()
	day := models.NewDate(2024, time.March, 10)

	first := &models.UserTarget{UserID: "user-1", Date: day, TargetNumber: 4}
	require.NoError(t, m.UpsertTarget(ctx, first))

	second := &models.UserTarget{UserID: "user-1", Date: day, TargetNumber: 9}
	require.NoError(t, m.UpsertTarget(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	got, err := m.GetTarget(ctx, "user-1", day)
	require.NoError(t, err)
	assert.Equal(t, 9, got.TargetNumber)

	_, err = m.GetTarget(ctx, "user-1", day.AddDays(1))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Settings(t *testing.T) {
	m := newTestMemoryStore()
	ctx := context.Background()

	_, err := m.GetSettings(ctx, "user-1")
	assert.ErrorIs(t, err, ErrNotFound)

	s := models.DefaultSettings("user-1")
	s.FirstFollowUpDays = 3
	require.NoError(t, m.UpsertSettings(ctx, &s))

	got, err := m.GetSettings(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.FirstFollowUpDays)
	assert.Equal(t, fixedNow, got.UpdatedAt)
}

func TestMemoryStore_ListTimeline_BreaksTimestampTiesByID(t *testing.T) {
	m := newTestMemoryStore()
	ctx := context.Background()
	app, followUps := seedApplication(t, m, "user-1", "Acme", models.NewDate(2024, time.March, 1))

	entry := &models.TimelineEntry{ID: "ffffffff-0000-4000-8000-000000000000", ActionType: models.ActionFollowUpCompleted}
	_, err := m.CompleteFollowUp(ctx, "user-1", followUps[0].ID, entry)
	require.NoError(t, err)

	timeline, err := m.ListTimeline(ctx, "user-1", app.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 2)
	assert.Equal(t, timeline[0].Timestamp, timeline[1].Timestamp)
	assert.Equal(t, entry.ID, timeline[0].ID)
	assert.Greater(t, timeline[0].ID, timeline[1].ID)
}

func TestMemoryStore_KeepsCallerTimestamps(t *testing.T) {
	m := newTestMemoryStore()
	ctx := context.Background()
	stamped := fixedNow.Add(-time.Hour)

	app := &models.Application{
		UserID:      "user-1",
		Company:     "Acme",
		Role:        "Engineer",
		AppliedDate: models.NewDate(2024, time.March, 1),
		Status:      models.StatusNew,
		CreatedAt:   stamped,
	}
	entry := &models.TimelineEntry{ActionType: models.ActionApplicationAdded, Timestamp: stamped}
	require.NoError(t, m.CreateApplication(ctx, app, nil, entry))

	expiredAt := stamped.Add(time.Minute)
	app.Status = models.StatusExpired
	app.ExpiredAt = &expiredAt
	app.UpdatedAt = expiredAt
	require.NoError(t, m.UpdateApplication(ctx, app, &models.TimelineEntry{
		ActionType: models.ActionApplicationExpired,
		Timestamp:  expiredAt,
	}))

	got, err := m.GetApplication(ctx, "user-1", app.ID)
	require.NoError(t, err)
	assert.Equal(t, stamped, got.CreatedAt)
	assert.Equal(t, expiredAt, got.UpdatedAt)

	timeline, err := m.ListTimeline(ctx, "user-1", app.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 2)
	assert.Equal(t, models.ActionApplicationExpired, timeline[0].ActionType)
	assert.Equal(t, expiredAt, timeline[0].Timestamp)
	assert.Equal(t, stamped, timeline[1].Timestamp)
}
