package models

// WeeklySession is one recurring slot in a weekly study pattern.
type WeeklySession struct {
	Day           string  `json:"day"`            // Weekday name, e.g. "Saturday"
	StartTime     string  `json:"start_time"`     // Wall-clock start, e.g. "9:00 AM" or "19:30"
	DurationHours float64 `json:"duration_hours"` // Session length, fractional hours allowed
}

// StudyPlan is the full input for one expansion: a weekly pattern, a course
// duration in weeks and the date of the first study session.
//
// StartDate must fall on a weekday that appears in Schedule. The order of
// Schedule entries defines the weekly traversal order, which allows plans
// that start mid-pattern.
type StudyPlan struct {
	CourseName   string          `json:"course_name"`
	TotalWeeks   int             `json:"total_weeks"`
	Schedule     []WeeklySession `json:"schedule"`
	StartDate    string          `json:"start_date"`              // YYYY-MM-DD
	ReminderTime string          `json:"reminder_time,omitempty"` // 24h HH:MM, default 20:00
	Timezone     string          `json:"timezone,omitempty"`      // IANA zone, default America/Los_Angeles
}
