package tracker

import (
	"testing"
	"time"

	"jobtrail/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgress(t *testing.T) {
	tests := []struct {
		submitted, target, want int
	}{
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{3, 3, 100},
		{7, 3, 100},
		{1, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Progress(tt.submitted, tt.target), "%d/%d", tt.submitted, tt.target)
	}
}

func TestBuildDashboard(t *testing.T) {
	today := models.MustParseDate("2024-03-10")
	apps := []models.Application{
		app("1", "Acme", "Dev", "2024-03-10", models.StatusNew),
		app("2", "Globex", "Dev", "2024-03-10", models.StatusFollowedUp),
		app("3", "Initech", "Dev", "2024-03-01", models.StatusExpired),
	}
	followUps := []models.FollowUp{
		followUp("a", "2024-03-10", false),
		followUp("b", "2024-03-10", true),
		followUp("c", "2024-03-09", false),
	}

	d := BuildDashboard(apps, followUps, today, 4)

	assert.Equal(t, 2, d.TodaySubmitted)
	assert.Equal(t, 1, d.FollowUpsDue)
	assert.Equal(t, 1, d.Expired)
	assert.Equal(t, 2, d.Active)
	assert.Equal(t, 4, d.DailyTarget)
	assert.Equal(t, 50, d.Progress)
}

func TestParseStatsRange(t *testing.T) {
	r, err := ParseStatsRange("")
	require.NoError(t, err)
	assert.Equal(t, RangeWeek, r)

	r, err = ParseStatsRange("month")
	require.NoError(t, err)
	assert.Equal(t, RangeMonth, r)

	_, err = ParseStatsRange("decade")
	assert.Error(t, err)
}

func TestRangeStart(t *testing.T) {
	today := models.MustParseDate("2024-03-13")
	require.Equal(t, time.Wednesday, today.Weekday())

	assert.Equal(t, "2024-03-10", RangeStart(RangeWeek, today, nil).String())
	assert.Equal(t, "2024-03-01", RangeStart(RangeMonth, today, nil).String())
	assert.Equal(t, "2024-03-13", RangeStart(RangeAll, today, nil).String())

	apps := []models.Application{
		app("1", "Acme", "Dev", "2024-02-01", models.StatusNew),
		app("2", "Acme", "Dev", "2024-01-15", models.StatusNew),
	}
	assert.Equal(t, "2024-01-15", RangeStart(RangeAll, today, apps).String())
}

func TestBuildStatistics_Week(t *testing.T) {
	today := models.MustParseDate("2024-03-13")
	apps := []models.Application{
		app("1", "Acme", "Dev", "2024-03-10", models.StatusNew),
		app("2", "Acme", "Dev", "2024-03-12", models.StatusFollowedUp),
		app("3", "Globex", "Dev", "2024-03-12", models.StatusNew),
		app("4", "Old", "Dev", "2024-03-01", models.StatusNew),
	}
	followUps := []models.FollowUp{
		followUp("a", "2024-03-11", true),
		followUp("b", "2024-03-20", false),
		followUp("c", "2024-03-02", true),
	}

	stats := BuildStatistics(RangeWeek, apps, followUps, today)

	assert.Equal(t, "2024-03-10", stats.Start.String())
	assert.Equal(t, "2024-03-13", stats.End.String())
	assert.Equal(t, 3, stats.TotalApplications)
	assert.Equal(t, 2, stats.TotalFollowUps)
	assert.Equal(t, 1, stats.CompletedFollowUps)
	assert.Equal(t, 2, stats.ByStatus[models.StatusNew])
	assert.Equal(t, 1, stats.ByStatus[models.StatusFollowedUp])

	require.Len(t, stats.ByDay, 4)
	assert.Equal(t, 1, stats.ByDay[0].Count)
	assert.Equal(t, 0, stats.ByDay[1].Count)
	assert.Equal(t, 2, stats.ByDay[2].Count)
	assert.Equal(t, 0, stats.ByDay[3].Count)

	require.Len(t, stats.TopCompanies, 2)
	assert.Equal(t, CompanyCount{Company: "Acme", Count: 2}, stats.TopCompanies[0])
}
