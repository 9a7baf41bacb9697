package models

import "time"

const (
	ActionApplicationAdded   = "Application Added"
	ActionFollowUpCompleted  = "Follow-Up Completed"
	ActionApplicationExpired = "Application Expired"
)

// TimelineEntry is an append-only audit record of an action on an application.
type TimelineEntry struct {
	ID            string    `json:"id" db:"id"`
	ApplicationID string    `json:"applicationId" db:"application_id"`
	UserID        string    `json:"userId" db:"user_id"`
	ActionType    string    `json:"actionType" db:"action_type"`
	Note          string    `json:"note" db:"note"`
	Timestamp     time.Time `json:"timestamp" db:"timestamp"`
}
