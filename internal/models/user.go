package models

import "time"

type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Phone        string    `json:"phone,omitempty" db:"phone"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

const (
	MinDailyTarget     = 1
	MaxDailyTarget     = 20
	DefaultDailyTarget = 3
)

// UserTarget is the number of applications a user aims to submit on one date.
type UserTarget struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"userId" db:"user_id"`
	Date         Date      `json:"date" db:"date"`
	TargetNumber int       `json:"targetNumber" db:"target_number"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

type UserSettings struct {
	UserID             string    `json:"userId" db:"user_id"`
	FirstFollowUpDays  int       `json:"firstFollowUpDays" db:"first_follow_up_days"`
	SecondFollowUpDays int       `json:"secondFollowUpDays" db:"second_follow_up_days"`
	FinalFollowUpDays  int       `json:"finalFollowUpDays" db:"final_follow_up_days"`
	EmailNotifications bool      `json:"emailNotifications" db:"email_notifications"`
	DailyReminder      bool      `json:"dailyReminder" db:"daily_reminder"`
	UpdatedAt          time.Time `json:"updatedAt" db:"updated_at"`
}

// DefaultSettings is what a user gets before saving any settings.
func DefaultSettings(userID string) UserSettings {
	return UserSettings{
		UserID:             userID,
		FirstFollowUpDays:  7,
		SecondFollowUpDays: 12,
		FinalFollowUpDays:  15,
		EmailNotifications: true,
		DailyReminder:      true,
	}
}

// ReminderRecipient is a user who opted into daily follow-up reminders.
type ReminderRecipient struct {
	UserID             string `json:"userId" db:"user_id"`
	Email              string `json:"email" db:"email"`
	Phone              string `json:"phone,omitempty" db:"phone"`
	EmailNotifications bool   `json:"emailNotifications" db:"email_notifications"`
}
