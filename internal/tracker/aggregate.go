package tracker

import (
	"sort"
	"strings"

	"jobtrail/internal/models"
)

// TopCompaniesLimit is how many companies the statistics view ranks.
const TopCompaniesLimit = 10

type StatusGroup struct {
	Status       models.ApplicationStatus `json:"status"`
	Applications []models.Application     `json:"applications"`
}

type DayCount struct {
	Date  models.Date `json:"date"`
	Count int         `json:"count"`
}

type CompanyCount struct {
	Company string `json:"company"`
	Count   int    `json:"count"`
}

// FollowUpBuckets partitions follow-ups by when they are due.
type FollowUpBuckets struct {
	Today     []models.FollowUp `json:"today"`
	Upcoming  []models.FollowUp `json:"upcoming"`
	PastDue   []models.FollowUp `json:"pastDue"`
	Completed []models.FollowUp `json:"completed"`
}

func (b FollowUpBuckets) Total() int {
	return len(b.Today) + len(b.Upcoming) + len(b.PastDue) + len(b.Completed)
}

// GroupByStatus returns one group per known status, in board order, each
// keeping the input order of its applications.
func GroupByStatus(apps []models.Application) []StatusGroup {
	index := make(map[models.ApplicationStatus]int, len(models.Statuses))
	groups := make([]StatusGroup, len(models.Statuses))
	for i, s := range models.Statuses {
		index[s] = i
		groups[i] = StatusGroup{Status: s, Applications: []models.Application{}}
	}
	for _, app := range apps {
		i, ok := index[app.Status]
		if !ok {
			continue
		}
		groups[i].Applications = append(groups[i].Applications, app)
	}
	return groups
}

func CountByStatus(apps []models.Application) map[models.ApplicationStatus]int {
	counts := make(map[models.ApplicationStatus]int, len(models.Statuses))
	for _, s := range models.Statuses {
		counts[s] = 0
	}
	for _, app := range apps {
		if _, ok := counts[app.Status]; ok {
			counts[app.Status]++
		}
	}
	return counts
}

// GroupByDay counts applications per applied date over [start, end]. Every
// day of the interval is present, including days with no applications.
func GroupByDay(apps []models.Application, start, end models.Date) []DayCount {
	days := EachDay(start, end)
	out := make([]DayCount, len(days))
	for i, d := range days {
		out[i] = DayCount{Date: d}
	}
	for _, app := range apps {
		if app.AppliedDate.IsZero() || app.AppliedDate.Before(start) || app.AppliedDate.After(end) {
			continue
		}
		out[DaysBetween(start, app.AppliedDate)].Count++
	}
	return out
}

// TopCompanies ranks companies by application count. Ties keep the order in
// which the companies were first seen.
func TopCompanies(apps []models.Application, n int) []CompanyCount {
	var ranked []CompanyCount
	position := make(map[string]int)
	for _, app := range apps {
		if i, ok := position[app.Company]; ok {
			ranked[i].Count++
			continue
		}
		position[app.Company] = len(ranked)
		ranked = append(ranked, CompanyCount{Company: app.Company, Count: 1})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	if ranked == nil {
		ranked = []CompanyCount{}
	}
	return ranked
}

// ClassifyFollowUps puts every follow-up in exactly one bucket. Completed
// wins over any date; the rest are split around today.
func ClassifyFollowUps(followUps []models.FollowUp, today models.Date) FollowUpBuckets {
	b := FollowUpBuckets{
		Today:     []models.FollowUp{},
		Upcoming:  []models.FollowUp{},
		PastDue:   []models.FollowUp{},
		Completed: []models.FollowUp{},
	}
	for _, fu := range followUps {
		switch {
		case fu.IsCompleted:
			b.Completed = append(b.Completed, fu)
		case fu.FollowUpDate.Equal(today):
			b.Today = append(b.Today, fu)
		case fu.FollowUpDate.After(today):
			b.Upcoming = append(b.Upcoming, fu)
		default:
			b.PastDue = append(b.PastDue, fu)
		}
	}
	return b
}

// ApplicationFilter narrows the application list. Status "all" or empty
// matches every status.
type ApplicationFilter struct {
	Query  string
	Status string
}

const StatusFilterAll = "all"

func (f ApplicationFilter) Matches(app models.Application) bool {
	if f.Status != "" && f.Status != StatusFilterAll && string(app.Status) != f.Status {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(app.Company), q) ||
		strings.Contains(strings.ToLower(app.Role), q)
}

func FilterApplications(apps []models.Application, f ApplicationFilter) []models.Application {
	out := make([]models.Application, 0, len(apps))
	for _, app := range apps {
		if f.Matches(app) {
			out = append(out, app)
		}
	}
	return out
}
