package tracker

import (
	"fmt"

	"jobtrail/internal/models"
)

const (
	MinOffsetDays = 1
	MaxOffsetDays = 30
)

// Offsets are the day distances of the three follow-ups from the applied date.
type Offsets struct {
	First  int `json:"first"`
	Second int `json:"second"`
	Final  int `json:"final"`
}

var DefaultOffsets = Offsets{First: 7, Second: 12, Final: 15}

// Validate checks the bounds a user may save. Ordering between the three is
// not enforced.
func (o Offsets) Validate() error {
	for _, f := range []struct {
		name string
		days int
	}{
		{"first", o.First},
		{"second", o.Second},
		{"final", o.Final},
	} {
		if f.days < MinOffsetDays || f.days > MaxOffsetDays {
			return fmt.Errorf("%s follow-up offset must be between %d and %d days, got %d",
				f.name, MinOffsetDays, MaxOffsetDays, f.days)
		}
	}
	return nil
}

// OffsetsFrom reads the offsets out of saved settings, falling back to the
// defaults when the user has none.
func OffsetsFrom(s *models.UserSettings) Offsets {
	if s == nil {
		return DefaultOffsets
	}
	return Offsets{
		First:  s.FirstFollowUpDays,
		Second: s.SecondFollowUpDays,
		Final:  s.FinalFollowUpDays,
	}
}

// GenerateFollowUps schedules the First, Second and Final follow-ups for app.
// The records carry no id; the store assigns one on insert.
func GenerateFollowUps(app models.Application, offsets Offsets) []models.FollowUp {
	plan := []struct {
		kind models.FollowUpType
		days int
	}{
		{models.FollowUpFirst, offsets.First},
		{models.FollowUpSecond, offsets.Second},
		{models.FollowUpFinal, offsets.Final},
	}

	followUps := make([]models.FollowUp, 0, len(plan))
	for _, p := range plan {
		followUps = append(followUps, models.FollowUp{
			ApplicationID: app.ID,
			UserID:        app.UserID,
			FollowUpDate:  app.AppliedDate.AddDays(p.days),
			FollowUpType:  p.kind,
			IsCompleted:   false,
		})
	}
	return followUps
}
