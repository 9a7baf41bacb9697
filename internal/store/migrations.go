package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	name    string
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		name:    "create users",
		sql: `
			CREATE TABLE IF NOT EXISTS users (
				id            UUID PRIMARY KEY,
				email         TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				phone         TEXT NOT NULL DEFAULT '',
				created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
			);`,
	},
	{
		version: 2,
		name:    "create applications",
		sql: `
			CREATE TABLE IF NOT EXISTS applications (
				id           UUID PRIMARY KEY,
				user_id      UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				company      TEXT NOT NULL,
				role         TEXT NOT NULL,
				applied_date DATE NOT NULL,
				job_link     TEXT NOT NULL DEFAULT '',
				notes        TEXT NOT NULL DEFAULT '',
				status       TEXT NOT NULL DEFAULT 'New',
				expired_at   TIMESTAMPTZ,
				created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
			);
			CREATE INDEX IF NOT EXISTS idx_applications_user_applied
				ON applications (user_id, applied_date DESC);`,
	},
	{
		version: 3,
		name:    "create follow_ups",
		sql: `
			CREATE TABLE IF NOT EXISTS follow_ups (
				id             UUID PRIMARY KEY,
				application_id UUID NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
				user_id        UUID NOT NULL,
				follow_up_date DATE NOT NULL,
				follow_up_type TEXT NOT NULL,
				is_completed   BOOLEAN NOT NULL DEFAULT FALSE,
				completed_at   TIMESTAMPTZ,
				created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
			);
			CREATE INDEX IF NOT EXISTS idx_follow_ups_user_date
				ON follow_ups (user_id, follow_up_date);`,
	},
	{
		version: 4,
		name:    "create timeline_logs",
		sql: `
			CREATE TABLE IF NOT EXISTS timeline_logs (
				id             UUID PRIMARY KEY,
				application_id UUID NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
				user_id        UUID NOT NULL,
				action_type    TEXT NOT NULL,
				note           TEXT NOT NULL DEFAULT '',
				timestamp      TIMESTAMPTZ NOT NULL DEFAULT now()
			);
			CREATE INDEX IF NOT EXISTS idx_timeline_logs_application
				ON timeline_logs (application_id, timestamp DESC);`,
	},
	{
		version: 5,
		name:    "create user_targets and user_settings",
		sql: `
			CREATE TABLE IF NOT EXISTS user_targets (
				id            UUID PRIMARY KEY,
				user_id       UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				date          DATE NOT NULL,
				target_number INTEGER NOT NULL CHECK (target_number BETWEEN 1 AND 20),
				updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
				UNIQUE (user_id, date)
			);
			CREATE TABLE IF NOT EXISTS user_settings (
				user_id               UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
				first_follow_up_days  INTEGER NOT NULL CHECK (first_follow_up_days BETWEEN 1 AND 30),
				second_follow_up_days INTEGER NOT NULL CHECK (second_follow_up_days BETWEEN 1 AND 30),
				final_follow_up_days  INTEGER NOT NULL CHECK (final_follow_up_days BETWEEN 1 AND 30),
				email_notifications   BOOLEAN NOT NULL DEFAULT TRUE,
				daily_reminder        BOOLEAN NOT NULL DEFAULT TRUE,
				updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
			);`,
	},
}
