package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "jobtrail/internal/common/errors"
	"jobtrail/internal/common/metrics"
	"jobtrail/internal/models"
	"jobtrail/internal/store"
	"jobtrail/internal/tracker"
)

// ApplicationInput is the editable part of an application.
type ApplicationInput struct {
	Company     string      `json:"company"`
	Role        string      `json:"role"`
	AppliedDate models.Date `json:"appliedDate"`
	JobLink     string      `json:"jobLink"`
	Notes       string      `json:"notes"`
}

func (in *ApplicationInput) normalize() error {
	in.Company = strings.TrimSpace(in.Company)
	in.Role = strings.TrimSpace(in.Role)
	in.JobLink = strings.TrimSpace(in.JobLink)

	var missing []string
	if in.Company == "" {
		missing = append(missing, "company")
	}
	if in.Role == "" {
		missing = append(missing, "role")
	}
	if in.AppliedDate.IsZero() {
		missing = append(missing, "appliedDate")
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("missing required fields: " + strings.Join(missing, ", ")).
			WithMetadata("fields", missing)
	}
	return nil
}

// ListFilter narrows ListApplications. Status "all" or empty means any status.
type ListFilter struct {
	Query  string
	Status string
	Limit  int
}

// CreateApplication stores a new application with its three follow-ups and
// the "Application Added" timeline entry as one batch.
func (s *Service) CreateApplication(ctx context.Context, userID string, in ApplicationInput) (detail *models.ApplicationDetail, err error) {
	defer func() { s.record("create_application", err) }()

	if err := in.normalize(); err != nil {
		return nil, err
	}

	settings, err := s.Settings(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.Now().UTC()
	app := &models.Application{
		UserID:      userID,
		Company:     in.Company,
		Role:        in.Role,
		AppliedDate: in.AppliedDate,
		JobLink:     in.JobLink,
		Notes:       in.Notes,
		Status:      models.StatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	followUps := tracker.GenerateFollowUps(*app, tracker.OffsetsFrom(settings))
	for i := range followUps {
		followUps[i].CreatedAt = now
	}
	entry := &models.TimelineEntry{
		ActionType: models.ActionApplicationAdded,
		Note:       fmt.Sprintf("Applied to %s for %s position", app.Company, app.Role),
		Timestamp:  now,
	}

	if err := s.store.CreateApplication(ctx, app, followUps, entry); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewValidationError(fmt.Sprintf("unknown user: %s", userID))
		}
		return nil, err
	}
	metrics.ApplicationsCreated.Inc()

	s.logger.Info("application created", map[string]interface{}{
		"applicationId": app.ID,
		"userId":        userID,
		"appliedDate":   app.AppliedDate.String(),
	})

	return s.refetch(ctx, userID, &models.ApplicationDetail{
		Application: *app,
		FollowUps:   followUps,
		Timeline:    []models.TimelineEntry{*entry},
	}), nil
}

// refetch reloads the detail after a write. The write already succeeded, so
// a failed read falls back to what was written.
func (s *Service) refetch(ctx context.Context, userID string, written *models.ApplicationDetail) *models.ApplicationDetail {
	detail, err := s.GetApplicationDetail(ctx, userID, written.Application.ID)
	if err != nil {
		s.logger.Warn("re-fetch after write failed", map[string]interface{}{
			"applicationId": written.Application.ID,
			"error":         err.Error(),
		})
		return written
	}
	return detail
}

// UpdateApplication overwrites the editable fields. Follow-up dates are kept
// and the status is derived again from the follow-ups.
func (s *Service) UpdateApplication(ctx context.Context, userID, id string, in ApplicationInput) (detail *models.ApplicationDetail, err error) {
	defer func() { s.record("update_application", err) }()

	if err := in.normalize(); err != nil {
		return nil, err
	}

	app, err := s.store.GetApplication(ctx, userID, id)
	if err != nil {
		return nil, notFoundApplication(err, id)
	}
	followUps, err := s.store.ListFollowUps(ctx, userID, store.FollowUpQuery{ApplicationID: id})
	if err != nil {
		return nil, err
	}

	app.Company = in.Company
	app.Role = in.Role
	app.AppliedDate = in.AppliedDate
	app.JobLink = in.JobLink
	app.Notes = in.Notes
	app.Status = tracker.DeriveStatus(*app, followUps)
	app.UpdatedAt = s.Now().UTC()

	if err := s.store.UpdateApplication(ctx, app, nil); err != nil {
		return nil, notFoundApplication(err, id)
	}
	return s.GetApplicationDetail(ctx, userID, id)
}

func (s *Service) DeleteApplication(ctx context.Context, userID, id string) (err error) {
	defer func() { s.record("delete_application", err) }()

	if err := s.store.DeleteApplication(ctx, userID, id); err != nil {
		return notFoundApplication(err, id)
	}
	s.logger.Info("application deleted", map[string]interface{}{
		"applicationId": id,
		"userId":        userID,
	})
	return nil
}

// ExpireApplication marks the application Expired. Expiring twice is a no-op.
func (s *Service) ExpireApplication(ctx context.Context, userID, id string) (detail *models.ApplicationDetail, err error) {
	defer func() { s.record("expire_application", err) }()

	app, err := s.store.GetApplication(ctx, userID, id)
	if err != nil {
		return nil, notFoundApplication(err, id)
	}
	if app.Status == models.StatusExpired {
		return s.GetApplicationDetail(ctx, userID, id)
	}

	now := s.Now().UTC()
	app.ExpiredAt = &now
	app.UpdatedAt = now
	app.Status = models.StatusExpired
	entry := &models.TimelineEntry{
		ActionType: models.ActionApplicationExpired,
		Note:       fmt.Sprintf("Marked %s application as expired", app.Company),
		Timestamp:  now,
	}
	if err := s.store.UpdateApplication(ctx, app, entry); err != nil {
		return nil, notFoundApplication(err, id)
	}
	return s.GetApplicationDetail(ctx, userID, id)
}

// GetApplicationDetail loads the application with its follow-ups and timeline.
func (s *Service) GetApplicationDetail(ctx context.Context, userID, id string) (*models.ApplicationDetail, error) {
	app, err := s.store.GetApplication(ctx, userID, id)
	if err != nil {
		return nil, notFoundApplication(err, id)
	}
	followUps, err := s.store.ListFollowUps(ctx, userID, store.FollowUpQuery{ApplicationID: id})
	if err != nil {
		return nil, err
	}
	timeline, err := s.store.ListTimeline(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return &models.ApplicationDetail{
		Application: *app,
		FollowUps:   followUps,
		Timeline:    timeline,
	}, nil
}

func (s *Service) Timeline(ctx context.Context, userID, id string) ([]models.TimelineEntry, error) {
	if _, err := s.store.GetApplication(ctx, userID, id); err != nil {
		return nil, notFoundApplication(err, id)
	}
	return s.store.ListTimeline(ctx, userID, id)
}

func (s *Service) ListApplications(ctx context.Context, userID string, f ListFilter) ([]models.Application, error) {
	status := strings.TrimSpace(f.Status)
	if status != "" && status != tracker.StatusFilterAll && !models.ApplicationStatus(status).Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown status filter: %s", status))
	}
	if f.Limit < 0 {
		return nil, apperrors.NewValidationError("limit must not be negative")
	}
	return s.applicationsFor(ctx, "list_applications", userID, store.ApplicationQuery{
		Query:  strings.TrimSpace(f.Query),
		Status: status,
		Limit:  f.Limit,
	}), nil
}

// Board groups every application by status in board order.
func (s *Service) Board(ctx context.Context, userID string) ([]tracker.StatusGroup, error) {
	apps := s.applicationsFor(ctx, "board", userID, store.ApplicationQuery{})
	return tracker.GroupByStatus(apps), nil
}

