package models

import "time"

type ApplicationStatus string

const (
	StatusNew             ApplicationStatus = "New"
	StatusFollowUpPending ApplicationStatus = "Follow-Up Pending"
	StatusFollowedUp      ApplicationStatus = "Followed Up"
	StatusExpired         ApplicationStatus = "Expired"
)

// Statuses lists every status in board order.
var Statuses = []ApplicationStatus{
	StatusNew,
	StatusFollowUpPending,
	StatusFollowedUp,
	StatusExpired,
}

func (s ApplicationStatus) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

type Application struct {
	ID          string            `json:"id" db:"id"`
	UserID      string            `json:"userId" db:"user_id"`
	Company     string            `json:"company" db:"company"`
	Role        string            `json:"role" db:"role"`
	AppliedDate Date              `json:"appliedDate" db:"applied_date"`
	JobLink     string            `json:"jobLink,omitempty" db:"job_link"`
	Notes       string            `json:"notes,omitempty" db:"notes"`
	Status      ApplicationStatus `json:"status" db:"status"`
	ExpiredAt   *time.Time        `json:"expiredAt,omitempty" db:"expired_at"`
	CreatedAt   time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time         `json:"updatedAt" db:"updated_at"`
}

// ApplicationDetail is an application together with everything that hangs off it.
type ApplicationDetail struct {
	Application Application     `json:"application"`
	FollowUps   []FollowUp      `json:"followUps"`
	Timeline    []TimelineEntry `json:"timeline"`
}
