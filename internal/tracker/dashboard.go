package tracker

import (
	"fmt"
	"math"

	"jobtrail/internal/models"
)

type Dashboard struct {
	Today          models.Date          `json:"today"`
	TodaySubmitted int                  `json:"todaySubmitted"`
	FollowUpsDue   int                  `json:"followUpsDue"`
	Expired        int                  `json:"expired"`
	Active         int                  `json:"active"`
	DailyTarget    int                  `json:"dailyTarget"`
	Progress       int                  `json:"progress"`
	Recent         []models.Application `json:"recent"`
}

// Progress is the share of the daily target met, in whole percent, capped at 100.
func Progress(submitted, target int) int {
	if target <= 0 {
		return 0
	}
	p := int(math.Round(float64(submitted) / float64(target) * 100))
	if p > 100 {
		return 100
	}
	return p
}

// BuildDashboard summarises the day. followUps may include completed ones;
// only incomplete follow-ups due today count as due.
func BuildDashboard(apps []models.Application, followUps []models.FollowUp, today models.Date, target int) Dashboard {
	d := Dashboard{Today: today, DailyTarget: target, Recent: []models.Application{}}
	for _, app := range apps {
		if app.AppliedDate.Equal(today) {
			d.TodaySubmitted++
		}
		if app.Status == models.StatusExpired {
			d.Expired++
		} else {
			d.Active++
		}
	}
	for _, fu := range followUps {
		if !fu.IsCompleted && fu.FollowUpDate.Equal(today) {
			d.FollowUpsDue++
		}
	}
	d.Progress = Progress(d.TodaySubmitted, target)
	return d
}

type StatsRange string

const (
	RangeWeek  StatsRange = "week"
	RangeMonth StatsRange = "month"
	RangeAll   StatsRange = "all"
)

func ParseStatsRange(s string) (StatsRange, error) {
	switch StatsRange(s) {
	case "":
		return RangeWeek, nil
	case RangeWeek, RangeMonth, RangeAll:
		return StatsRange(s), nil
	default:
		return "", fmt.Errorf("unknown time range %q", s)
	}
}

type Statistics struct {
	Range              StatsRange                       `json:"range"`
	Start              models.Date                      `json:"start"`
	End                models.Date                      `json:"end"`
	TotalApplications  int                              `json:"totalApplications"`
	TotalFollowUps     int                              `json:"totalFollowUps"`
	CompletedFollowUps int                              `json:"completedFollowUps"`
	ByStatus           map[models.ApplicationStatus]int `json:"byStatus"`
	ByDay              []DayCount                       `json:"byDay"`
	TopCompanies       []CompanyCount                   `json:"topCompanies"`
}

// RangeStart is the first day a range covers. For RangeAll it is the
// earliest applied date, or today when there are no applications.
func RangeStart(r StatsRange, today models.Date, apps []models.Application) models.Date {
	switch r {
	case RangeWeek:
		return StartOfWeek(today)
	case RangeMonth:
		return StartOfMonth(today)
	}
	start := today
	for _, app := range apps {
		if !app.AppliedDate.IsZero() && app.AppliedDate.Before(start) {
			start = app.AppliedDate
		}
	}
	return start
}

// BuildStatistics aggregates everything applied or due on or after the range start.
func BuildStatistics(r StatsRange, apps []models.Application, followUps []models.FollowUp, today models.Date) Statistics {
	start := RangeStart(r, today, apps)

	inRange := make([]models.Application, 0, len(apps))
	for _, app := range apps {
		if !app.AppliedDate.Before(start) {
			inRange = append(inRange, app)
		}
	}

	stats := Statistics{
		Range:             r,
		Start:             start,
		End:               today,
		TotalApplications: len(inRange),
		ByStatus:          CountByStatus(inRange),
		ByDay:             GroupByDay(inRange, start, today),
		TopCompanies:      TopCompanies(inRange, TopCompaniesLimit),
	}
	for _, fu := range followUps {
		if fu.FollowUpDate.Before(start) {
			continue
		}
		stats.TotalFollowUps++
		if fu.IsCompleted {
			stats.CompletedFollowUps++
		}
	}
	return stats
}
