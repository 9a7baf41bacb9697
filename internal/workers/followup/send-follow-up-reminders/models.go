package sendfollowupreminders

type Input struct {
	// Date overrides today, formatted YYYY-MM-DD.
	Date string `json:"date,omitempty"`
}

type Output struct {
	Date          string `json:"date"`
	UsersNotified int    `json:"usersNotified"`
	EmailsSent    int    `json:"emailsSent"`
	SMSSent       int    `json:"smsSent"`
	Skipped       int    `json:"skipped"`
	Failed        int    `json:"failed"`
}
