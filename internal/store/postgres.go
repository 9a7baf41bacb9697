package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "jobtrail/internal/common/errors"
	"jobtrail/internal/models"
	"jobtrail/internal/tracker"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	applicationColumns = `id, user_id, company, role, applied_date, job_link, notes, status, expired_at, created_at, updated_at`
	followUpColumns    = `id, application_id, user_id, follow_up_date, follow_up_type, is_completed, completed_at, created_at`
	timelineColumns    = `id, application_id, user_id, action_type, note, timestamp`
)

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return apperrors.NewDatabaseQueryFailedError("ping", err)
	}
	return nil
}

// Migrate applies every migration newer than the recorded schema version.
// Each migration runs in its own transaction.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	const createVersionTable = `
		CREATE TABLE IF NOT EXISTS schema_version (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`
	if _, err := s.db.ExecContext(ctx, createVersionTable); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var currentVersion int
	if err := s.db.GetContext(ctx, &currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		err := s.withTx(ctx, fmt.Sprintf("migration v%d", m.version), func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, m.sql); err != nil {
				return fmt.Errorf("applying migration v%d (%s): %w", m.version, m.name, err)
			}
			_, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version, name) VALUES ($1, $2)", m.version, m.name)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// withTx runs fn in a transaction. A failure that rolls back cleanly is a
// batch failure with nothing persisted; a failed rollback or commit leaves the
// outcome unknown and is reported as a partial write. Store sentinels raised by
// fn are returned unwrapped once rolled back.
func (s *PostgresStore) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.NewDatabaseQueryFailedError(op, err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return apperrors.NewPartialWriteError(op, fmt.Errorf("%v (rollback: %w)", err, rbErr))
		}
		if isSentinel(err) {
			return err
		}
		return apperrors.NewBatchWriteFailedError(op, err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewPartialWriteError(op, fmt.Errorf("commit: %w", err))
	}
	return nil
}

func isSentinel(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyCompleted) || errors.Is(err, ErrDuplicateEmail)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation"
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation"
}

// validIDs reports whether every id parses as a UUID. Id columns are UUID
// typed, so nothing else can match a row.
func validIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}

// escapeLike escapes the ILIKE wildcards in user input.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// === Users ===

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now().UTC()
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, phone, created_at)
		VALUES (:id, :email, :password_hash, :phone, :created_at)`, user)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return apperrors.NewDatabaseQueryFailedError("create user", err)
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	if !validIDs(id) {
		return nil, ErrNotFound
	}
	return s.getUser(ctx, "get user", "SELECT id, email, password_hash, phone, created_at FROM users WHERE id = $1", id)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "get user by email", "SELECT id, email, password_hash, phone, created_at FROM users WHERE email = $1", email)
}

func (s *PostgresStore) getUser(ctx context.Context, op, query string, arg string) (*models.User, error) {
	var user models.User
	if err := s.db.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperrors.NewDatabaseQueryFailedError(op, err)
	}
	return &user, nil
}

// ListReminderRecipients returns users whose daily reminder is on. Users who
// never saved settings get the defaults, which have it on.
func (s *PostgresStore) ListReminderRecipients(ctx context.Context) ([]models.ReminderRecipient, error) {
	recipients := []models.ReminderRecipient{}
	err := s.db.SelectContext(ctx, &recipients, `
		SELECT u.id AS user_id, u.email, u.phone,
		       COALESCE(st.email_notifications, TRUE) AS email_notifications
		FROM users u
		LEFT JOIN user_settings st ON st.user_id = u.id
		WHERE COALESCE(st.daily_reminder, TRUE)
		ORDER BY u.created_at`)
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("list reminder recipients", err)
	}
	return recipients, nil
}

// === Applications ===

// CreateApplication returns ErrNotFound when app.UserID names no user.
func (s *PostgresStore) CreateApplication(ctx context.Context, app *models.Application, followUps []models.FollowUp, entry *models.TimelineEntry) error {
	if !validIDs(app.UserID) {
		return ErrNotFound
	}
	if app.ID == "" {
		app.ID = uuid.New().String()
	}
	now := s.now().UTC()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = app.CreatedAt

	return s.withTx(ctx, "create application", func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO applications (`+applicationColumns+`)
			VALUES (:id, :user_id, :company, :role, :applied_date, :job_link, :notes, :status, :expired_at, :created_at, :updated_at)`, app)
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("inserting application: %w", err)
		}

		for i := range followUps {
			fu := &followUps[i]
			if fu.ID == "" {
				fu.ID = uuid.New().String()
			}
			fu.ApplicationID = app.ID
			fu.UserID = app.UserID
			if fu.CreatedAt.IsZero() {
				fu.CreatedAt = now
			}
			if err := insertFollowUp(ctx, tx, fu); err != nil {
				return err
			}
		}

		if entry != nil {
			entry.ApplicationID = app.ID
			entry.UserID = app.UserID
			if err := s.insertTimeline(ctx, tx, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertFollowUp(ctx context.Context, tx *sqlx.Tx, fu *models.FollowUp) error {
	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO follow_ups (`+followUpColumns+`)
		VALUES (:id, :application_id, :user_id, :follow_up_date, :follow_up_type, :is_completed, :completed_at, :created_at)`, fu)
	if err != nil {
		return fmt.Errorf("inserting %s follow-up: %w", fu.FollowUpType, err)
	}
	return nil
}

func (s *PostgresStore) insertTimeline(ctx context.Context, tx *sqlx.Tx, entry *models.TimelineEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now().UTC()
	}
	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO timeline_logs (`+timelineColumns+`)
		VALUES (:id, :application_id, :user_id, :action_type, :note, :timestamp)`, entry)
	if err != nil {
		return fmt.Errorf("inserting timeline entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetApplication(ctx context.Context, userID, id string) (*models.Application, error) {
	if !validIDs(userID, id) {
		return nil, ErrNotFound
	}
	var app models.Application
	err := s.db.GetContext(ctx, &app,
		"SELECT "+applicationColumns+" FROM applications WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperrors.NewDatabaseQueryFailedError("get application", err)
	}
	return &app, nil
}

func (s *PostgresStore) ListApplications(ctx context.Context, userID string, q ApplicationQuery) ([]models.Application, error) {
	if !validIDs(userID) {
		return []models.Application{}, nil
	}
	var b strings.Builder
	args := []interface{}{userID}
	b.WriteString("SELECT " + applicationColumns + " FROM applications WHERE user_id = $1")

	if term := strings.TrimSpace(q.Query); term != "" {
		args = append(args, "%"+escapeLike(term)+"%")
		fmt.Fprintf(&b, " AND (company ILIKE $%d OR role ILIKE $%d)", len(args), len(args))
	}
	if q.Status != "" && q.Status != tracker.StatusFilterAll {
		args = append(args, q.Status)
		fmt.Fprintf(&b, " AND status = $%d", len(args))
	}
	b.WriteString(" ORDER BY applied_date DESC, created_at DESC, id DESC")
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}

	apps := []models.Application{}
	if err := s.db.SelectContext(ctx, &apps, b.String(), args...); err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("list applications", err)
	}
	return apps, nil
}

func (s *PostgresStore) UpdateApplication(ctx context.Context, app *models.Application, entry *models.TimelineEntry) error {
	if !validIDs(app.UserID, app.ID) {
		return ErrNotFound
	}
	if app.UpdatedAt.IsZero() {
		app.UpdatedAt = s.now().UTC()
	}

	return s.withTx(ctx, "update application", func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, `
			UPDATE applications SET
				company = :company, role = :role, applied_date = :applied_date,
				job_link = :job_link, notes = :notes, status = :status,
				expired_at = :expired_at, updated_at = :updated_at
			WHERE id = :id AND user_id = :user_id`, app)
		if err != nil {
			return fmt.Errorf("updating application: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrNotFound
		}

		if entry != nil {
			entry.ApplicationID = app.ID
			entry.UserID = app.UserID
			return s.insertTimeline(ctx, tx, entry)
		}
		return nil
	})
}

// DeleteApplication removes follow-ups, timeline entries and the application
// in that order within one transaction.
func (s *PostgresStore) DeleteApplication(ctx context.Context, userID, id string) error {
	if !validIDs(userID, id) {
		return ErrNotFound
	}
	return s.withTx(ctx, "delete application", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM follow_ups WHERE application_id = $1 AND user_id = $2", id, userID); err != nil {
			return fmt.Errorf("deleting follow-ups: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM timeline_logs WHERE application_id = $1 AND user_id = $2", id, userID); err != nil {
			return fmt.Errorf("deleting timeline: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM applications WHERE id = $1 AND user_id = $2", id, userID)
		if err != nil {
			return fmt.Errorf("deleting application: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// === Follow-ups ===

const followUpJoinSelect = `
	SELECT f.id, f.application_id, f.user_id, f.follow_up_date, f.follow_up_type,
	       f.is_completed, f.completed_at, f.created_at, a.company, a.role
	FROM follow_ups f
	JOIN applications a ON a.id = f.application_id`

func (s *PostgresStore) GetFollowUp(ctx context.Context, userID, id string) (*models.FollowUp, error) {
	if !validIDs(userID, id) {
		return nil, ErrNotFound
	}
	var fu models.FollowUp
	err := s.db.GetContext(ctx, &fu, followUpJoinSelect+" WHERE f.id = $1 AND f.user_id = $2", id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperrors.NewDatabaseQueryFailedError("get follow-up", err)
	}
	return &fu, nil
}

func (s *PostgresStore) ListFollowUps(ctx context.Context, userID string, q FollowUpQuery) ([]models.FollowUp, error) {
	if !validIDs(userID) || (q.ApplicationID != "" && !validIDs(q.ApplicationID)) {
		return []models.FollowUp{}, nil
	}
	var b strings.Builder
	args := []interface{}{userID}
	b.WriteString(followUpJoinSelect + " WHERE f.user_id = $1")

	if q.ApplicationID != "" {
		args = append(args, q.ApplicationID)
		fmt.Fprintf(&b, " AND f.application_id = $%d", len(args))
	}
	if q.IncompleteOnly {
		b.WriteString(" AND f.is_completed = FALSE")
	}
	if !q.From.IsZero() {
		args = append(args, q.From)
		fmt.Fprintf(&b, " AND f.follow_up_date >= $%d", len(args))
	}
	b.WriteString(" ORDER BY f.follow_up_date ASC, f.created_at ASC, f.id ASC")

	followUps := []models.FollowUp{}
	if err := s.db.SelectContext(ctx, &followUps, b.String(), args...); err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("list follow-ups", err)
	}
	return followUps, nil
}

func (s *PostgresStore) CompleteFollowUp(ctx context.Context, userID, id string, entry *models.TimelineEntry) (*models.Application, error) {
	if !validIDs(userID, id) {
		return nil, ErrNotFound
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now().UTC()
	}

	var updated models.Application
	err := s.withTx(ctx, "complete follow-up", func(tx *sqlx.Tx) error {
		var applicationID string
		err := tx.GetContext(ctx, &applicationID, `
			UPDATE follow_ups SET is_completed = TRUE, completed_at = $3
			WHERE id = $1 AND user_id = $2 AND is_completed = FALSE
			RETURNING application_id`, id, userID, entry.Timestamp)
		if errors.Is(err, sql.ErrNoRows) {
			var completed bool
			err := tx.GetContext(ctx, &completed, "SELECT is_completed FROM follow_ups WHERE id = $1 AND user_id = $2", id, userID)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			if err != nil {
				return err
			}
			return ErrAlreadyCompleted
		}
		if err != nil {
			return fmt.Errorf("marking follow-up completed: %w", err)
		}

		if err := tx.GetContext(ctx, &updated,
			"SELECT "+applicationColumns+" FROM applications WHERE id = $1 FOR UPDATE", applicationID); err != nil {
			return fmt.Errorf("loading application: %w", err)
		}
		var followUps []models.FollowUp
		if err := tx.SelectContext(ctx, &followUps,
			"SELECT "+followUpColumns+" FROM follow_ups WHERE application_id = $1", applicationID); err != nil {
			return fmt.Errorf("loading follow-ups: %w", err)
		}

		updated.Status = tracker.DeriveStatus(updated, followUps)
		updated.UpdatedAt = entry.Timestamp
		if _, err := tx.ExecContext(ctx, "UPDATE applications SET status = $1, updated_at = $2 WHERE id = $3",
			updated.Status, updated.UpdatedAt, updated.ID); err != nil {
			return fmt.Errorf("updating status: %w", err)
		}

		entry.ApplicationID = updated.ID
		entry.UserID = userID
		return s.insertTimeline(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// === Timeline ===

// ListTimeline returns newest first. Entries sharing a timestamp are ordered
// by id, descending.
func (s *PostgresStore) ListTimeline(ctx context.Context, userID, applicationID string) ([]models.TimelineEntry, error) {
	entries := []models.TimelineEntry{}
	if !validIDs(userID, applicationID) {
		return entries, nil
	}
	err := s.db.SelectContext(ctx, &entries,
		"SELECT "+timelineColumns+" FROM timeline_logs WHERE application_id = $1 AND user_id = $2 ORDER BY timestamp DESC, id DESC",
		applicationID, userID)
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("list timeline", err)
	}
	return entries, nil
}

// === Targets & settings ===

func (s *PostgresStore) GetTarget(ctx context.Context, userID string, date models.Date) (*models.UserTarget, error) {
	if !validIDs(userID) {
		return nil, ErrNotFound
	}
	var target models.UserTarget
	err := s.db.GetContext(ctx, &target,
		"SELECT id, user_id, date, target_number, updated_at FROM user_targets WHERE user_id = $1 AND date = $2",
		userID, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperrors.NewDatabaseQueryFailedError("get target", err)
	}
	return &target, nil
}

// UpsertTarget writes the target for (user, date). On conflict the existing
// row keeps its id, which is written back into target.
func (s *PostgresStore) UpsertTarget(ctx context.Context, target *models.UserTarget) error {
	if target.ID == "" {
		target.ID = uuid.New().String()
	}
	if target.UpdatedAt.IsZero() {
		target.UpdatedAt = s.now().UTC()
	}

	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO user_targets (id, user_id, date, target_number, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, date) DO UPDATE
		SET target_number = EXCLUDED.target_number, updated_at = EXCLUDED.updated_at
		RETURNING id`,
		target.ID, target.UserID, target.Date, target.TargetNumber, target.UpdatedAt,
	).Scan(&target.ID)
	if err != nil {
		return apperrors.NewDatabaseQueryFailedError("upsert target", err)
	}
	return nil
}

func (s *PostgresStore) GetSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	if !validIDs(userID) {
		return nil, ErrNotFound
	}
	var settings models.UserSettings
	err := s.db.GetContext(ctx, &settings, `
		SELECT user_id, first_follow_up_days, second_follow_up_days, final_follow_up_days,
		       email_notifications, daily_reminder, updated_at
		FROM user_settings WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperrors.NewDatabaseQueryFailedError("get settings", err)
	}
	return &settings, nil
}

func (s *PostgresStore) UpsertSettings(ctx context.Context, settings *models.UserSettings) error {
	if settings.UpdatedAt.IsZero() {
		settings.UpdatedAt = s.now().UTC()
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO user_settings (
			user_id, first_follow_up_days, second_follow_up_days, final_follow_up_days,
			email_notifications, daily_reminder, updated_at
		) VALUES (
			:user_id, :first_follow_up_days, :second_follow_up_days, :final_follow_up_days,
			:email_notifications, :daily_reminder, :updated_at
		)
		ON CONFLICT (user_id) DO UPDATE SET
			first_follow_up_days = EXCLUDED.first_follow_up_days,
			second_follow_up_days = EXCLUDED.second_follow_up_days,
			final_follow_up_days = EXCLUDED.final_follow_up_days,
			email_notifications = EXCLUDED.email_notifications,
			daily_reminder = EXCLUDED.daily_reminder,
			updated_at = EXCLUDED.updated_at`, settings)
	if err != nil {
		return apperrors.NewDatabaseQueryFailedError("upsert settings", err)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
