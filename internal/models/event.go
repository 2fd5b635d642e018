package models

import "time"

// CalendarEvent is a calendar entry to be created on a backend.
// This is an internal representation, independent of any specific calendar provider.
type CalendarEvent struct {
	Summary     string             // Title of the event
	Description string             // Detailed description of the event
	Start       time.Time          // Start instant, already in the plan's zone
	End         time.Time          // End instant, already in the plan's zone
	TimeZone    string             // IANA zone name attached to both instants
	Reminders   []ReminderOverride // Notification overrides for the event
	ColorID     string             // Provider color hint (Google colorId)
}

// ReminderOverride configures a single notification for an event.
type ReminderOverride struct {
	Method  string // "popup" or "email"
	Minutes int    // Minutes before the event start
}

// EventRef is the opaque reference a calendar backend returns for a created event.
type EventRef struct {
	ID   string `json:"id"`
	Link string `json:"link"`
}
