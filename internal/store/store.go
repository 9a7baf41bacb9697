// Package store is the data access facade for users, applications, follow-ups,
// timeline entries, daily targets and settings.
package store

import (
	"context"
	"errors"

	"jobtrail/internal/models"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrAlreadyCompleted = errors.New("follow-up already completed")
	ErrDuplicateEmail   = errors.New("email already registered")
)

// ApplicationQuery filters application listings. Query is matched
// case-insensitively against company and role; an empty Status or "all"
// matches every status.
type ApplicationQuery struct {
	Query  string
	Status string
	Limit  int
}

// FollowUpQuery filters follow-up listings. A zero From means no lower bound.
type FollowUpQuery struct {
	ApplicationID  string
	IncompleteOnly bool
	From           models.Date
}

// Store defines every persistence operation the tracker needs. All
// application-scoped reads and writes are restricted to the owning user.
//
// Callers stamp the timestamps they write (created, updated, expired and
// timeline times). A store fills a timestamp from its own clock only when it
// is left zero. An id that cannot exist is reported as ErrNotFound, or as an
// empty list, never as a query failure.
type Store interface {
	Ping(ctx context.Context) error

	// === Users ===

	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListReminderRecipients(ctx context.Context) ([]models.ReminderRecipient, error)

	// === Applications ===

	// CreateApplication writes the application, its follow-ups and the
	// timeline entry as a single batch.
	CreateApplication(ctx context.Context, app *models.Application, followUps []models.FollowUp, entry *models.TimelineEntry) error
	GetApplication(ctx context.Context, userID, id string) (*models.Application, error)
	ListApplications(ctx context.Context, userID string, q ApplicationQuery) ([]models.Application, error)
	// UpdateApplication overwrites the editable fields and status. A non-nil
	// entry is appended to the timeline in the same batch.
	UpdateApplication(ctx context.Context, app *models.Application, entry *models.TimelineEntry) error
	// DeleteApplication removes the application with its follow-ups and timeline.
	DeleteApplication(ctx context.Context, userID, id string) error

	// === Follow-ups ===

	GetFollowUp(ctx context.Context, userID, id string) (*models.FollowUp, error)
	ListFollowUps(ctx context.Context, userID string, q FollowUpQuery) ([]models.FollowUp, error)
	// CompleteFollowUp marks the follow-up completed at entry.Timestamp,
	// re-derives the owning application's status and appends entry. It returns
	// ErrAlreadyCompleted without writing anything when the flag is already set.
	CompleteFollowUp(ctx context.Context, userID, id string, entry *models.TimelineEntry) (*models.Application, error)

	// === Timeline ===

	// ListTimeline returns the entries newest first, ties broken by id
	// descending.
	ListTimeline(ctx context.Context, userID, applicationID string) ([]models.TimelineEntry, error)

	// === Targets & settings ===

	GetTarget(ctx context.Context, userID string, date models.Date) (*models.UserTarget, error)
	UpsertTarget(ctx context.Context, target *models.UserTarget) error
	GetSettings(ctx context.Context, userID string) (*models.UserSettings, error)
	UpsertSettings(ctx context.Context, settings *models.UserSettings) error
}
