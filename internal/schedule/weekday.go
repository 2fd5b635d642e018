package schedule

import (
	"strings"
	"time"
)

var weekdayNames = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// ParseWeekday resolves a full weekday name, case-insensitively.
func ParseWeekday(name string) (time.Weekday, bool) {
	d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// daysUntil returns the number of days from one weekday to the next
// occurrence of another, in [0,6]. Zero means the weekdays are equal.
func daysUntil(from, to time.Weekday) int {
	return (int(to) - int(from) + 7) % 7
}
