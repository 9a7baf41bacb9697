package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	apperrors "jobtrail/internal/common/errors"
	"jobtrail/internal/models"
	"jobtrail/internal/tracker"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

const (
	testUserID      = "6f1d7c2e-0b6a-4f53-9a51-3d2c8e4b7a10"
	testAppID       = "0c5e8a3b-7d21-4e9f-8b6c-2a4f1d9e3c57"
	testFollowUpID  = "9a2b4c6d-8e0f-4a1b-9c3d-5e7f9a1b3c5d"
	otherFollowUpID = "b3c5d7e9-1f2a-4b3c-8d4e-6f7a8b9c0d1e"
	missingID       = "00000000-0000-4000-8000-000000000000"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewPostgresStore(sqlx.NewDb(db, "postgres"))
	s.now = func() time.Time { return fixedNow }
	return s, mock
}

func newApplicationFixture() (*models.Application, []models.FollowUp, *models.TimelineEntry) {
	app := &models.Application{
		ID:          testAppID,
		UserID:      testUserID,
		Company:     "Acme",
		Role:        "Engineer",
		AppliedDate: models.NewDate(2024, time.March, 1),
		Status:      models.StatusNew,
	}
	followUps := tracker.GenerateFollowUps(*app, tracker.DefaultOffsets)
	entry := &models.TimelineEntry{
		ActionType: models.ActionApplicationAdded,
		Note:       "Applied to Acme for Engineer position",
	}
	return app, followUps, entry
}

func assertCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	stdErr, ok := apperrors.As(err)
	require.True(t, ok, "expected StandardError, got %v", err)
	assert.Equal(t, code, stdErr.Code)
}

func TestPostgresStore_CreateApplication_Success(t *testing.T) {
	s, mock := newMockStore(t)
	app, followUps, entry := newApplicationFixture()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO applications`).
		WithArgs(testAppID, testUserID, "Acme", "Engineer", "2024-03-01", "", "", "New", nil, fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	for _, d := range []string{"2024-03-08", "2024-03-13", "2024-03-16"} {
		mock.ExpectExec(`INSERT INTO follow_ups`).
			WithArgs(sqlmock.AnyArg(), testAppID, testUserID, d, sqlmock.AnyArg(), false, nil, fixedNow).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectExec(`INSERT INTO timeline_logs`).
		WithArgs(sqlmock.AnyArg(), testAppID, testUserID, models.ActionApplicationAdded, entry.Note, fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := s.CreateApplication(context.Background(), app, followUps, entry)

	require.NoError(t, err)
	for _, fu := range followUps {
		assert.NotEmpty(t, fu.ID)
	}
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, testAppID, entry.ApplicationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateApplication_RollsBackAsBatchFailure(t *testing.T) {
	s, mock := newMockStore(t)
	app, followUps, entry := newApplicationFixture()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO applications`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO follow_ups`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO follow_ups`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := s.CreateApplication(context.Background(), app, followUps, entry)

	require.Error(t, err)
	assertCode(t, err, apperrors.ErrCodeBatchWriteFailed)
	assert.Contains(t, err.Error(), "connection reset")
	stdErr, _ := apperrors.As(err)
	assert.True(t, stdErr.Retryable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateApplication_FailedRollbackIsPartialWrite(t *testing.T) {
	s, mock := newMockStore(t)
	app, followUps, entry := newApplicationFixture()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO applications`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback().WillReturnError(errors.New("connection lost"))

	err := s.CreateApplication(context.Background(), app, followUps, entry)

	require.Error(t, err)
	assertCode(t, err, apperrors.ErrCodePartialWrite)
	stdErr, _ := apperrors.As(err)
	assert.False(t, stdErr.Retryable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateApplication_FailedCommitIsPartialWrite(t *testing.T) {
	s, mock := newMockStore(t)
	app, followUps, entry := newApplicationFixture()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO applications`).WillReturnResult(sqlmock.NewResult(1, 1))
	for range followUps {
		mock.ExpectExec(`INSERT INTO follow_ups`).WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectExec(`INSERT INTO timeline_logs`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit().WillReturnError(errors.New("commit timeout"))

	err := s.CreateApplication(context.Background(), app, followUps, entry)

	assertCode(t, err, apperrors.ErrCodePartialWrite)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteFollowUp_Success(t *testing.T) {
	s, mock := newMockStore(t)
	applied := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE follow_ups SET is_completed = TRUE`).
		WithArgs(testFollowUpID, testUserID, fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"application_id"}).AddRow(testAppID))
	mock.ExpectQuery(`FROM applications WHERE id = \$1 FOR UPDATE`).
		WithArgs(testAppID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "company", "role", "applied_date", "job_link", "notes",
			"status", "expired_at", "created_at", "updated_at",
		}).AddRow(testAppID, testUserID, "Acme", "Engineer", applied, "", "", "New", nil, fixedNow, fixedNow))
	mock.ExpectQuery(`FROM follow_ups WHERE application_id = \$1`).
		WithArgs(testAppID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "application_id", "user_id", "follow_up_date", "follow_up_type",
			"is_completed", "completed_at", "created_at",
		}).
			AddRow(testFollowUpID, testAppID, testUserID, applied.AddDate(0, 0, 7), "First", true, fixedNow, fixedNow).
			AddRow(otherFollowUpID, testAppID, testUserID, applied.AddDate(0, 0, 12), "Second", false, nil, fixedNow))
	mock.ExpectExec(`UPDATE applications SET status`).
		WithArgs("Followed Up", fixedNow, testAppID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO timeline_logs`).
		WithArgs(sqlmock.AnyArg(), testAppID, testUserID, models.ActionFollowUpCompleted, "Completed follow-up for Acme", fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	entry := &models.TimelineEntry{ActionType: models.ActionFollowUpCompleted, Note: "Completed follow-up for Acme"}
	app, err := s.CompleteFollowUp(context.Background(), testUserID, testFollowUpID, entry)

	require.NoError(t, err)
	assert.Equal(t, models.StatusFollowedUp, app.Status)
	assert.Equal(t, "2024-03-01", app.AppliedDate.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteFollowUp_AlreadyCompleted(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE follow_ups SET is_completed = TRUE`).
		WillReturnRows(sqlmock.NewRows([]string{"application_id"}))
	mock.ExpectQuery(`SELECT is_completed FROM follow_ups`).
		WithArgs(testFollowUpID, testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"is_completed"}).AddRow(true))
	mock.ExpectRollback()

	_, err := s.CompleteFollowUp(context.Background(), testUserID, testFollowUpID, &models.TimelineEntry{})

	assert.ErrorIs(t, err, ErrAlreadyCompleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteFollowUp_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE follow_ups SET is_completed = TRUE`).
		WillReturnRows(sqlmock.NewRows([]string{"application_id"}))
	mock.ExpectQuery(`SELECT is_completed FROM follow_ups`).
		WillReturnRows(sqlmock.NewRows([]string{"is_completed"}))
	mock.ExpectRollback()

	_, err := s.CompleteFollowUp(context.Background(), testUserID, missingID, &models.TimelineEntry{})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListApplications_BuildsFilters(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"WHERE user_id = $1 AND (company ILIKE $2 OR role ILIKE $2) AND status = $3 ORDER BY applied_date DESC, created_at DESC, id DESC LIMIT $4")).
		WithArgs(testUserID, `%50\%%`, "New", 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "company"}).AddRow(testAppID, "50% Off Inc"))

	apps, err := s.ListApplications(context.Background(), testUserID, ApplicationQuery{Query: " 50% ", Status: "New", Limit: 5})

	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "50% Off Inc", apps[0].Company)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListApplications_AllStatusesWithoutLimit(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 ORDER BY applied_date DESC, created_at DESC, id DESC")).
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	apps, err := s.ListApplications(context.Background(), testUserID, ApplicationQuery{Status: "all"})

	require.NoError(t, err)
	assert.NotNil(t, apps)
	assert.Empty(t, apps)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListFollowUps_IncompleteFromDate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"WHERE f.user_id = $1 AND f.is_completed = FALSE AND f.follow_up_date >= $2 ORDER BY f.follow_up_date ASC")).
		WithArgs(testUserID, "2024-03-10").
		WillReturnRows(sqlmock.NewRows([]string{"id", "company", "role"}).AddRow(testFollowUpID, "Acme", "Engineer"))

	fus, err := s.ListFollowUps(context.Background(), testUserID, FollowUpQuery{
		IncompleteOnly: true,
		From:           models.NewDate(2024, time.March, 10),
	})

	require.NoError(t, err)
	require.Len(t, fus, 1)
	assert.Equal(t, "Acme", fus[0].Company)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetApplication_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM applications WHERE id = \$1 AND user_id = \$2`).
		WithArgs(missingID, testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetApplication(context.Background(), testUserID, missingID)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetApplication_QueryError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM applications`).WillReturnError(errors.New("timeout"))

	_, err := s.GetApplication(context.Background(), testUserID, testAppID)

	assertCode(t, err, apperrors.ErrCodeDatabaseQueryFailed)
}

func TestPostgresStore_DeleteApplication_Cascades(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM follow_ups`).WithArgs(testAppID, testUserID).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM timeline_logs`).WithArgs(testAppID, testUserID).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM applications`).WithArgs(testAppID, testUserID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.DeleteApplication(context.Background(), testUserID, testAppID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteApplication_NotFoundRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM follow_ups`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM timeline_logs`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM applications`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.DeleteApplication(context.Background(), testUserID, missingID)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateApplication_UnknownUser(t *testing.T) {
	s, mock := newMockStore(t)
	app, followUps, entry := newApplicationFixture()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO applications`).
		WillReturnError(&pq.Error{Code: "23503", Message: "violates foreign key constraint"})
	mock.ExpectRollback()

	err := s.CreateApplication(context.Background(), app, followUps, entry)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MalformedIDsNeverReachTheDatabase(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	_, err := s.GetUser(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetApplication(ctx, testUserID, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetApplication(ctx, "user-1", testAppID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.UpdateApplication(ctx, &models.Application{ID: "42", UserID: testUserID}, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.DeleteApplication(ctx, testUserID, "'; DROP TABLE applications; --")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetFollowUp(ctx, testUserID, "fu-1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.CompleteFollowUp(ctx, testUserID, "fu-1", &models.TimelineEntry{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetTarget(ctx, "user-1", models.NewDate(2024, time.March, 10))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetSettings(ctx, "user-1")
	assert.ErrorIs(t, err, ErrNotFound)

	app, followUps, entry := newApplicationFixture()
	app.UserID = "user-1"
	assert.ErrorIs(t, s.CreateApplication(ctx, app, followUps, entry), ErrNotFound)

	apps, err := s.ListApplications(ctx, "user-1", ApplicationQuery{})
	require.NoError(t, err)
	assert.NotNil(t, apps)
	assert.Empty(t, apps)

	fus, err := s.ListFollowUps(ctx, testUserID, FollowUpQuery{ApplicationID: "app-1"})
	require.NoError(t, err)
	assert.NotNil(t, fus)
	assert.Empty(t, fus)

	timeline, err := s.ListTimeline(ctx, testUserID, "app-1")
	require.NoError(t, err)
	assert.NotNil(t, timeline)
	assert.Empty(t, timeline)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListTimeline_BreaksTimestampTiesByID(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE application_id = $1 AND user_id = $2 ORDER BY timestamp DESC, id DESC")).
		WithArgs(testAppID, testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "action_type", "timestamp"}).
			AddRow("f0000000-0000-4000-8000-000000000000", models.ActionFollowUpCompleted, fixedNow).
			AddRow("a0000000-0000-4000-8000-000000000000", models.ActionApplicationAdded, fixedNow))

	entries, err := s.ListTimeline(context.Background(), testUserID, testAppID)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.ActionFollowUpCompleted, entries[0].ActionType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateApplication_KeepsCallerTimestamp(t *testing.T) {
	s, mock := newMockStore(t)
	stamped := fixedNow.Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE applications SET`).
		WithArgs("Acme", "Engineer", "2024-03-01", "", "", "Expired", stamped, stamped, testAppID, testUserID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO timeline_logs`).
		WithArgs(sqlmock.AnyArg(), testAppID, testUserID, models.ActionApplicationExpired, "Marked Acme application as expired", stamped).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	app, _, _ := newApplicationFixture()
	app.Status = models.StatusExpired
	app.ExpiredAt = &stamped
	app.UpdatedAt = stamped
	entry := &models.TimelineEntry{
		ActionType: models.ActionApplicationExpired,
		Note:       "Marked Acme application as expired",
		Timestamp:  stamped,
	}

	require.NoError(t, s.UpdateApplication(context.Background(), app, entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateUser_DuplicateEmail(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO users`).WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key"})

	err := s.CreateUser(context.Background(), &models.User{Email: "a@example.com", PasswordHash: "x"})

	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertTarget_KeepsExistingID(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`ON CONFLICT \(user_id, date\) DO UPDATE`).
		WithArgs(sqlmock.AnyArg(), testUserID, "2024-03-10", 8, fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("target-existing"))

	target := &models.UserTarget{UserID: testUserID, Date: models.NewDate(2024, time.March, 10), TargetNumber: 8}
	require.NoError(t, s.UpsertTarget(context.Background(), target))

	assert.Equal(t, "target-existing", target.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSettings_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM user_settings WHERE user_id = \$1`).
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	_, err := s.GetSettings(context.Background(), testUserID)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_Migrate_AppliesPendingOnly(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_version`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) FROM schema_version")).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(len(migrations) - 1))
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS user_targets`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO schema_version`).
		WithArgs(len(migrations), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrations_AreSequential(t *testing.T) {
	for i, m := range migrations {
		assert.Equal(t, i+1, m.version, m.name)
	}
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\d`, escapeLike(`c:\d`))
}
