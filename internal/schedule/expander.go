package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"studycal/internal/models"
)

const (
	// DefaultReminderTime is used when a plan does not set a reminder time.
	DefaultReminderTime = "20:00"
	// DefaultTimezone is used when a plan does not set a timezone.
	DefaultTimezone = "America/Los_Angeles"

	dateLayout  = "2006-01-02"
	clockLayout = "03:04 PM"
)

var (
	fallbackStudyClock    = Clock{Hour: 9}
	fallbackReminderClock = Clock{Hour: 20}
)

// EventCreator is the calendar backend the expander writes through.
type EventCreator interface {
	// CreateEvent persists one event and returns its backend reference.
	CreateEvent(ctx context.Context, event *models.CalendarEvent) (models.EventRef, error)
	// CalendarLink returns a user-facing link to the target calendar.
	CalendarLink() string
}

// Expander turns a weekly study pattern into dated reminder and study
// session events on a calendar backend. It holds no mutable state; a single
// Expander may expand different plans concurrently.
type Expander struct {
	logger  *slog.Logger
	creator EventCreator
}

// NewExpander creates an Expander writing through the given backend.
func NewExpander(logger *slog.Logger, creator EventCreator) *Expander {
	return &Expander{logger: logger, creator: creator}
}

// slot is one fully dated session occurrence, before any backend call.
type slot struct {
	week          int
	day           time.Weekday
	session       models.WeeklySession
	reminderStart time.Time
	reminderEnd   time.Time
	studyStart    time.Time
	studyEnd      time.Time
}

// Expand validates the plan, dates every session occurrence and creates a
// reminder plus a study session event for each one, in chronological order.
//
// Validation failures return a nil report and an *InvalidPlanError or
// *UnalignedStartDateError before any event is created. A backend failure
// stops the remaining creations and returns the partial report together
// with a *CollaboratorError; events created up to that point are kept.
func (e *Expander) Expand(ctx context.Context, plan *models.StudyPlan) (*models.ExpansionReport, error) {
	timezone := plan.Timezone
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, &InvalidPlanError{Reason: fmt.Sprintf("unknown timezone %q", timezone)}
	}

	if err := validatePlan(plan); err != nil {
		return nil, err
	}

	slots, warnings, err := buildTimeline(plan, loc)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Expanding study plan",
		"course", plan.CourseName,
		"weeks", plan.TotalWeeks,
		"sessionsPerWeek", len(plan.Schedule),
		"timezone", timezone)
	for _, w := range warnings {
		e.logger.Warn("Applied fallback for unparseable time", "field", w.Field, "raw", w.Raw, "applied", w.Applied)
	}

	var pairs []models.CalendarEventPair
	for _, sl := range slots {
		reminderRef, err := e.creator.CreateEvent(ctx, reminderEvent(plan.CourseName, timezone, sl))
		if err != nil {
			cerr := &CollaboratorError{Created: len(pairs) * 2, Err: err}
			return e.report(plan, timezone, pairs, warnings, "error", cerr.Error()), cerr
		}
		studyRef, err := e.creator.CreateEvent(ctx, studyEvent(plan.CourseName, timezone, sl))
		if err != nil {
			cerr := &CollaboratorError{Created: len(pairs)*2 + 1, Err: err}
			return e.report(plan, timezone, pairs, warnings, "error", cerr.Error()), cerr
		}

		pairs = append(pairs, models.CalendarEventPair{
			Week:          sl.week,
			StudyDay:      sl.day,
			ReminderStart: sl.reminderStart,
			ReminderEnd:   sl.reminderEnd,
			StudyStart:    sl.studyStart,
			StudyEnd:      sl.studyEnd,
			ReminderRef:   reminderRef,
			StudyRef:      studyRef,
		})
		e.logger.Debug("Created event pair",
			"week", sl.week, "day", sl.day.String(), "studyDate", sl.studyStart.Format(dateLayout))
	}

	message := fmt.Sprintf("✅ Created %d calendar events (%d reminders + %d study sessions)!",
		len(pairs)*2, len(pairs), len(pairs))
	e.logger.Info("Expansion complete", "events", len(pairs)*2)
	return e.report(plan, timezone, pairs, warnings, "success", message), nil
}

func validatePlan(plan *models.StudyPlan) error {
	if plan.TotalWeeks < 1 {
		return &InvalidPlanError{Reason: fmt.Sprintf("total_weeks must be at least 1, got %d", plan.TotalWeeks)}
	}
	if len(plan.Schedule) == 0 {
		return &InvalidPlanError{Reason: "schedule is empty"}
	}
	seen := make(map[time.Weekday]bool, len(plan.Schedule))
	for i, s := range plan.Schedule {
		day, ok := ParseWeekday(s.Day)
		if !ok {
			return &InvalidPlanError{Reason: fmt.Sprintf("schedule entry %d has unknown weekday %q", i, s.Day)}
		}
		if seen[day] {
			return &InvalidPlanError{Reason: fmt.Sprintf("schedule lists %s twice; weekdays must be distinct", day)}
		}
		seen[day] = true
		if s.DurationHours <= 0 {
			return &InvalidPlanError{Reason: fmt.Sprintf("schedule entry %d (%s) has non-positive duration %g", i, s.Day, s.DurationHours)}
		}
	}
	return nil
}

// buildTimeline dates every session occurrence without touching the backend.
// The date cursor advances strictly and is shared across week boundaries, so
// a plan that starts mid-pattern keeps a constant real-world cadence.
func buildTimeline(plan *models.StudyPlan, loc *time.Location) ([]slot, []models.Warning, error) {
	startDate, err := time.ParseInLocation(dateLayout, plan.StartDate, loc)
	if err != nil {
		return nil, nil, &InvalidPlanError{Reason: fmt.Sprintf("start_date %q is not a valid YYYY-MM-DD date", plan.StartDate)}
	}

	var warnings []models.Warning

	reminderClock := fallbackReminderClock
	if plan.ReminderTime != "" {
		if res := ParseClock24(plan.ReminderTime); res.IsError() {
			warnings = append(warnings, models.Warning{
				Field:   "reminder_time",
				Raw:     plan.ReminderTime,
				Applied: fallbackReminderClock.String(),
				Reason:  res.Error().Error(),
			})
		} else {
			reminderClock = res.MustGet()
		}
	}

	days := make([]time.Weekday, len(plan.Schedule))
	clocks := make([]Clock, len(plan.Schedule))
	for i, s := range plan.Schedule {
		days[i], _ = ParseWeekday(s.Day) // checked by validatePlan
		if res := ParseClock(s.StartTime); res.IsError() {
			clocks[i] = fallbackStudyClock
			warnings = append(warnings, models.Warning{
				Field:   fmt.Sprintf("schedule[%d].start_time", i),
				Raw:     s.StartTime,
				Applied: fallbackStudyClock.String(),
				Reason:  res.Error().Error(),
			})
		} else {
			clocks[i] = res.MustGet()
		}
	}

	// The start date anchors the rotation: traversal begins at the first
	// pattern entry matching its weekday and continues in pattern order.
	match := -1
	for i, d := range days {
		if d == startDate.Weekday() {
			match = i
			break
		}
	}
	if match < 0 {
		return nil, nil, &UnalignedStartDateError{StartDay: startDate.Weekday(), ScheduleDays: days}
	}

	slots := make([]slot, 0, plan.TotalWeeks*len(plan.Schedule))
	cursor := startDate
	first := true
	for week := 1; week <= plan.TotalWeeks; week++ {
		for off := 0; off < len(plan.Schedule); off++ {
			idx := (match + off) % len(plan.Schedule)

			date := cursor
			if first {
				first = false
			} else {
				ahead := daysUntil(cursor.Weekday(), days[idx])
				if ahead == 0 {
					ahead = 7 // same weekday as the previous session: next week
				}
				date = cursor.AddDate(0, 0, ahead)
			}
			cursor = date

			studyStart := time.Date(date.Year(), date.Month(), date.Day(), clocks[idx].Hour, clocks[idx].Minute, 0, 0, loc)
			reminderDate := date.AddDate(0, 0, -1)
			reminderStart := time.Date(reminderDate.Year(), reminderDate.Month(), reminderDate.Day(), reminderClock.Hour, reminderClock.Minute, 0, 0, loc)

			slots = append(slots, slot{
				week:          week,
				day:           days[idx],
				session:       plan.Schedule[idx],
				reminderStart: reminderStart,
				reminderEnd:   studyStart.Add(-time.Hour),
				studyStart:    studyStart,
				studyEnd:      studyStart.Add(time.Duration(plan.Schedule[idx].DurationHours * float64(time.Hour))),
			})
		}
	}
	return slots, warnings, nil
}

func reminderEvent(course, timezone string, sl slot) *models.CalendarEvent {
	return &models.CalendarEvent{
		Summary: fmt.Sprintf("📚 Reminder: Study %s Tomorrow!", course),
		Description: fmt.Sprintf(
			"Hey! Tomorrow is %s - time for your Week %d study session!\n\n📅 Study Time: %s - %s\n⏱️ Duration: %g hours\n\n🚀 Get ready to learn!",
			sl.day, sl.week,
			sl.studyStart.Format(clockLayout), sl.studyEnd.Format(clockLayout),
			sl.session.DurationHours),
		Start:    sl.reminderStart,
		End:      sl.reminderEnd,
		TimeZone: timezone,
		Reminders: []models.ReminderOverride{
			{Method: "popup", Minutes: 0},
			{Method: "email", Minutes: 0},
		},
		ColorID: "9",
	}
}

func studyEvent(course, timezone string, sl slot) *models.CalendarEvent {
	return &models.CalendarEvent{
		Summary: fmt.Sprintf("📖 Study: %s - Week %d", course, sl.week),
		Description: fmt.Sprintf(
			"Week %d study session for %s\n\n⏱️ %g hours\n\n🎯 Focus and learn! You've got this! 💪",
			sl.week, course, sl.session.DurationHours),
		Start:    sl.studyStart,
		End:      sl.studyEnd,
		TimeZone: timezone,
		Reminders: []models.ReminderOverride{
			{Method: "popup", Minutes: 15},
		},
		ColorID: "10",
	}
}

func (e *Expander) report(plan *models.StudyPlan, timezone string, pairs []models.CalendarEventPair, warnings []models.Warning, status, message string) *models.ExpansionReport {
	records := make([]models.EventRecord, len(pairs))
	for i, p := range pairs {
		records[i] = p.Record(timezone)
	}

	summary := models.Summary{
		TotalWeeks:         plan.TotalWeeks,
		SessionsPerWeek:    len(plan.Schedule),
		TotalReminders:     len(pairs),
		TotalStudySessions: len(pairs),
		TotalEvents:        len(pairs) * 2,
		Timezone:           timezone,
		CalendarLink:       e.creator.CalendarLink(),
	}
	if len(records) > 0 {
		summary.FirstReminder = &records[0].ReminderDate
		summary.LastStudySession = &records[len(records)-1].StudyDate
	}

	return &models.ExpansionReport{
		Status:          status,
		Message:         message,
		Events:          records,
		SchedulePreview: preview(records),
		Summary:         summary,
		Warnings:        warnings,
		Pairs:           pairs,
	}
}

// preview renders the grouped-by-week text block shown to the user.
func preview(records []models.EventRecord) string {
	var b strings.Builder
	week := 0
	for _, r := range records {
		if r.Week != week {
			if week != 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "Week %d:", r.Week)
			week = r.Week
		}
		fmt.Fprintf(&b, "\n  📅 %s %s:\n    • Reminder: %s %s - %s\n    • Study: %s - %s (%s)",
			r.StudyDay, r.StudyDate,
			r.ReminderDay, r.ReminderStartTime, r.ReminderEndTime,
			r.StudyStartTime, r.StudyEndTime, r.StudyDuration)
	}
	return b.String()
}
