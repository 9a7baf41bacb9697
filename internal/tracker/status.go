package tracker

import "jobtrail/internal/models"

// DeriveStatus computes an application's status from its follow-ups.
//
// Expired is sticky once set. Any completed follow-up yields Followed Up.
// Everything else is New; Follow-Up Pending is never assigned automatically.
func DeriveStatus(app models.Application, followUps []models.FollowUp) models.ApplicationStatus {
	if app.ExpiredAt != nil || app.Status == models.StatusExpired {
		return models.StatusExpired
	}
	for _, fu := range followUps {
		if fu.ApplicationID == app.ID && fu.IsCompleted {
			return models.StatusFollowedUp
		}
	}
	return models.StatusNew
}
