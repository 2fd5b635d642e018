package models

import (
	"fmt"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "03:04 PM"
)

// CalendarEventPair is one session occurrence: the reminder placed the day
// before and the study session itself, with the references returned by the
// calendar backend for both.
type CalendarEventPair struct {
	Week          int          // 1-based week number
	StudyDay      time.Weekday // Weekday of the study session
	ReminderStart time.Time
	ReminderEnd   time.Time
	StudyStart    time.Time
	StudyEnd      time.Time
	ReminderRef   EventRef
	StudyRef      EventRef
}

// Record flattens the pair into the wire representation callers receive.
func (p CalendarEventPair) Record(timezone string) EventRecord {
	hours := p.StudyEnd.Sub(p.StudyStart).Hours()
	return EventRecord{
		Week:              p.Week,
		StudyDay:          p.StudyDay.String(),
		ReminderDate:      p.ReminderStart.Format(dateLayout),
		ReminderDay:       p.ReminderStart.Weekday().String(),
		ReminderStartTime: p.ReminderStart.Format(clockLayout),
		ReminderEndTime:   p.ReminderEnd.Format(clockLayout),
		StudyDate:         p.StudyStart.Format(dateLayout),
		StudyStartTime:    p.StudyStart.Format(clockLayout),
		StudyEndTime:      p.StudyEnd.Format(clockLayout),
		StudyDuration:     fmt.Sprintf("%g hours", hours),
		Timezone:          timezone,
		ReminderLink:      p.ReminderRef.Link,
		StudyLink:         p.StudyRef.Link,
		ReminderEventID:   p.ReminderRef.ID,
		StudyEventID:      p.StudyRef.ID,
	}
}

// EventRecord is the flat per-pair record in the expansion output.
type EventRecord struct {
	Week              int    `json:"week"`
	StudyDay          string `json:"study_day"`
	ReminderDate      string `json:"reminder_date"`
	ReminderDay       string `json:"reminder_day"`
	ReminderStartTime string `json:"reminder_start_time"`
	ReminderEndTime   string `json:"reminder_end_time"`
	StudyDate         string `json:"study_date"`
	StudyStartTime    string `json:"study_start_time"`
	StudyEndTime      string `json:"study_end_time"`
	StudyDuration     string `json:"study_duration"`
	Timezone          string `json:"timezone"`
	ReminderLink      string `json:"reminder_link"`
	StudyLink         string `json:"study_link"`
	ReminderEventID   string `json:"reminder_event_id"`
	StudyEventID      string `json:"study_event_id"`
}

// Summary aggregates counts and boundary dates for an expansion.
type Summary struct {
	TotalWeeks         int     `json:"total_weeks"`
	SessionsPerWeek    int     `json:"sessions_per_week"`
	TotalReminders     int     `json:"total_reminders"`
	TotalStudySessions int     `json:"total_study_sessions"`
	TotalEvents        int     `json:"total_events"`
	FirstReminder      *string `json:"first_reminder"`
	LastStudySession   *string `json:"last_study_session"`
	Timezone           string  `json:"timezone"`
	CalendarLink       string  `json:"calendar_link"`
}

// Warning records a tolerated input problem, such as a time string that
// failed to parse and was replaced by a default. Warnings never abort an
// expansion but must stay visible to callers.
type Warning struct {
	Field   string `json:"field"`   // Which input field fell back
	Raw     string `json:"raw"`     // The value as supplied
	Applied string `json:"applied"` // The substituted default
	Reason  string `json:"reason"`  // Why the raw value was rejected
}

// ExpansionReport is the full result of expanding a StudyPlan.
//
// Status is "success" when every event was created, "error" when the
// backend failed partway through; in the latter case Events and Pairs hold
// everything created before the failure.
type ExpansionReport struct {
	Status          string        `json:"status"`
	Message         string        `json:"message"`
	Events          []EventRecord `json:"events"`
	SchedulePreview string        `json:"schedule_preview"`
	Summary         Summary       `json:"summary"`
	Warnings        []Warning     `json:"warnings,omitempty"`

	// Pairs carries the typed event windows for programmatic callers.
	Pairs []CalendarEventPair `json:"-"`
}
