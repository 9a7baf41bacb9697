package createapplicationrecord

type Input struct {
	UserID      string `json:"userId"`
	Company     string `json:"company"`
	Role        string `json:"role"`
	AppliedDate string `json:"appliedDate"`
	JobLink     string `json:"jobLink,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type Output struct {
	ApplicationID string   `json:"applicationId"`
	Status        string   `json:"status"`
	FollowUpDates []string `json:"followUpDates"`
	CreatedAt     string   `json:"createdAt"` // ISO 8601
}
