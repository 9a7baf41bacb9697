package validation

// datePattern is embedded in JSON string literals, hence the doubled escapes.
const datePattern = `^\\d{4}-\\d{2}-\\d{2}`

var SignUpSchema = MustCompile("sign-up", `{
	"type": "object",
	"properties": {
		"email":    {"type": "string", "format": "email"},
		"password": {"type": "string", "minLength": 6, "maxLength": 72},
		"phone":    {"type": "string", "pattern": "^$|^\\+?[0-9 ()-]{7,}$"}
	},
	"required": ["email", "password"]
}`)

var SignInSchema = MustCompile("sign-in", `{
	"type": "object",
	"properties": {
		"email":    {"type": "string", "minLength": 1},
		"password": {"type": "string", "minLength": 1}
	},
	"required": ["email", "password"]
}`)

// ApplicationSchema covers both creating and editing an application.
var ApplicationSchema = MustCompile("application", `{
	"type": "object",
	"properties": {
		"company":     {"type": "string", "pattern": "\\S"},
		"role":        {"type": "string", "pattern": "\\S"},
		"appliedDate": {"type": "string", "pattern": "`+datePattern+`"},
		"jobLink":     {"type": "string", "pattern": "^$|^https?://"},
		"notes":       {"type": "string"}
	},
	"required": ["company", "role", "appliedDate"]
}`)

var SettingsSchema = MustCompile("settings", `{
	"type": "object",
	"properties": {
		"firstFollowUpDays":  {"type": "integer", "minimum": 1, "maximum": 30},
		"secondFollowUpDays": {"type": "integer", "minimum": 1, "maximum": 30},
		"finalFollowUpDays":  {"type": "integer", "minimum": 1, "maximum": 30},
		"emailNotifications": {"type": "boolean"},
		"dailyReminder":      {"type": "boolean"}
	},
	"required": ["firstFollowUpDays", "secondFollowUpDays", "finalFollowUpDays"]
}`)

var DailyTargetSchema = MustCompile("daily-target", `{
	"type": "object",
	"properties": {
		"targetNumber": {"type": "integer", "minimum": 1, "maximum": 20}
	},
	"required": ["targetNumber"]
}`)

// CreateApplicationJobSchema validates variables of the
// create-application-record workflow job.
var CreateApplicationJobSchema = MustCompile("create-application-record", `{
	"type": "object",
	"properties": {
		"userId":      {"type": "string", "minLength": 1},
		"company":     {"type": "string", "pattern": "\\S"},
		"role":        {"type": "string", "pattern": "\\S"},
		"appliedDate": {"type": "string", "pattern": "`+datePattern+`"},
		"jobLink":     {"type": "string"},
		"notes":       {"type": "string"}
	},
	"required": ["userId", "company", "role", "appliedDate"]
}`)
