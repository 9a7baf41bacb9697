package tracker

import (
	"testing"

	"jobtrail/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCalendar(t *testing.T) {
	apps := []models.Application{
		app("app-1", "Acme", "Backend Engineer", "2024-03-05", models.StatusNew),
		{ID: "app-2", Company: "NoDate", Role: "Dev"},
	}
	followUps := []models.FollowUp{
		{ID: "f1", ApplicationID: "app-1", FollowUpDate: models.MustParseDate("2024-03-12"), FollowUpType: models.FollowUpFirst},
		{ID: "f2", ApplicationID: "app-1", FollowUpDate: models.MustParseDate("2024-03-17"), FollowUpType: models.FollowUpSecond, IsCompleted: true},
		{ID: "f3", ApplicationID: "gone", FollowUpDate: models.MustParseDate("2024-03-01"), FollowUpType: models.FollowUpFinal},
		{ID: "f4", ApplicationID: "app-1", FollowUpType: models.FollowUpFinal},
	}

	events := BuildCalendar(apps, followUps)

	require.Len(t, events, 3)

	assert.Equal(t, "followup-f3", events[0].ID)
	assert.Equal(t, "Unknown Company", events[0].Title)
	assert.Equal(t, EventFollowUp, events[0].Type)

	assert.Equal(t, "app-app-1", events[1].ID)
	assert.Equal(t, EventApplication, events[1].Type)
	assert.Equal(t, "Acme", events[1].Title)
	assert.Equal(t, "Backend Engineer", events[1].Details)
	assert.Equal(t, "app-1", events[1].ApplicationID)

	assert.Equal(t, "followup-f1", events[2].ID)
	assert.Equal(t, "Acme", events[2].Title)
	assert.Equal(t, "First Follow-up: Backend Engineer", events[2].Details)
	assert.Equal(t, "2024-03-12", events[2].Date.String())
}

func TestBuildCalendar_JoinedCompanyWins(t *testing.T) {
	followUps := []models.FollowUp{
		{ID: "f1", ApplicationID: "app-9", Company: "Joined Co", Role: "SRE", FollowUpDate: models.MustParseDate("2024-03-12"), FollowUpType: models.FollowUpSecond},
	}

	events := BuildCalendar(nil, followUps)

	require.Len(t, events, 1)
	assert.Equal(t, "Joined Co", events[0].Title)
	assert.Equal(t, "Second Follow-up: SRE", events[0].Details)
}

func TestBuildCalendar_SameDayKeepsApplicationsFirst(t *testing.T) {
	apps := []models.Application{app("app-1", "Acme", "Dev", "2024-03-12", models.StatusNew)}
	followUps := []models.FollowUp{
		{ID: "f1", ApplicationID: "app-1", FollowUpDate: models.MustParseDate("2024-03-12"), FollowUpType: models.FollowUpFirst},
	}

	events := BuildCalendar(apps, followUps)

	require.Len(t, events, 2)
	assert.Equal(t, EventApplication, events[0].Type)
	assert.Equal(t, EventFollowUp, events[1].Type)
}

func TestEventsOnAndEventDays(t *testing.T) {
	apps := []models.Application{
		app("a", "Acme", "Dev", "2024-03-05", models.StatusNew),
		app("b", "Globex", "Dev", "2024-03-05", models.StatusNew),
		app("c", "Initech", "Dev", "2024-03-07", models.StatusNew),
	}
	events := BuildCalendar(apps, nil)

	onFifth := EventsOn(events, models.MustParseDate("2024-03-05"))
	assert.Len(t, onFifth, 2)
	assert.Empty(t, EventsOn(events, models.MustParseDate("2024-03-06")))

	days := EventDays(events)
	require.Len(t, days, 2)
	assert.Equal(t, "2024-03-05", days[0].String())
	assert.Equal(t, "2024-03-07", days[1].String())
}
