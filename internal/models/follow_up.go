package models

import "time"

type FollowUpType string

const (
	FollowUpFirst  FollowUpType = "First"
	FollowUpSecond FollowUpType = "Second"
	FollowUpFinal  FollowUpType = "Final"
)

type FollowUp struct {
	ID            string       `json:"id" db:"id"`
	ApplicationID string       `json:"applicationId" db:"application_id"`
	UserID        string       `json:"userId" db:"user_id"`
	FollowUpDate  Date         `json:"followUpDate" db:"follow_up_date"`
	FollowUpType  FollowUpType `json:"followUpType" db:"follow_up_type"`
	IsCompleted   bool         `json:"isCompleted" db:"is_completed"`
	CompletedAt   *time.Time   `json:"completedAt,omitempty" db:"completed_at"`
	CreatedAt     time.Time    `json:"createdAt" db:"created_at"`

	// Populated from the owning application when listed.
	Company string `json:"company,omitempty" db:"company"`
	Role    string `json:"role,omitempty" db:"role"`
}
