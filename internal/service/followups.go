package service

import (
	"context"
	"fmt"

	"jobtrail/internal/common/metrics"
	"jobtrail/internal/models"
	"jobtrail/internal/store"
	"jobtrail/internal/tracker"
)

// CompleteFollowUp marks the follow-up done, moves its application to
// Followed Up and logs the completion, all in one batch. A follow-up that is
// already complete is rejected without any write.
func (s *Service) CompleteFollowUp(ctx context.Context, userID, id string) (detail *models.ApplicationDetail, err error) {
	defer func() { s.record("complete_follow_up", err) }()

	fu, err := s.store.GetFollowUp(ctx, userID, id)
	if err != nil {
		return nil, notFoundFollowUp(err, id)
	}
	if fu.IsCompleted {
		return nil, notFoundFollowUp(store.ErrAlreadyCompleted, id)
	}

	company := fu.Company
	if company == "" {
		company = "Unknown Company"
	}
	entry := &models.TimelineEntry{
		ActionType: models.ActionFollowUpCompleted,
		Note:       fmt.Sprintf("Completed follow-up for %s", company),
		Timestamp:  s.Now().UTC(),
	}

	app, err := s.store.CompleteFollowUp(ctx, userID, id, entry)
	if err != nil {
		return nil, notFoundFollowUp(err, id)
	}
	metrics.FollowUpsCompleted.Inc()

	s.logger.Info("follow-up completed", map[string]interface{}{
		"followUpId":    id,
		"applicationId": app.ID,
		"status":        string(app.Status),
	})
	return s.refetch(ctx, userID, &models.ApplicationDetail{Application: *app}), nil
}

// FollowUps splits every follow-up of the user into today, upcoming,
// past due and completed.
func (s *Service) FollowUps(ctx context.Context, userID string) (tracker.FollowUpBuckets, error) {
	followUps := s.followUpsFor(ctx, "follow_ups", userID, store.FollowUpQuery{})
	return tracker.ClassifyFollowUps(followUps, s.Today()), nil
}
