package schedule

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studycal/internal/models"
)

// fakeCreator records created events and can be told to fail at a given call.
type fakeCreator struct {
	events []*models.CalendarEvent
	calls  int
	failAt int // 1-based call index that fails; 0 means never
}

func (f *fakeCreator) CreateEvent(_ context.Context, event *models.CalendarEvent) (models.EventRef, error) {
	f.calls++
	if f.failAt != 0 && f.calls >= f.failAt {
		return models.EventRef{}, errors.New("backend unavailable")
	}
	f.events = append(f.events, event)
	return models.EventRef{
		ID:   fmt.Sprintf("evt-%d", f.calls),
		Link: fmt.Sprintf("https://calendar.example/evt-%d", f.calls),
	}, nil
}

func (f *fakeCreator) CalendarLink() string {
	return "https://calendar.example"
}

func newTestExpander(creator EventCreator) *Expander {
	return NewExpander(slog.New(slog.NewTextHandler(io.Discard, nil)), creator)
}

// 2026-01-03 is a Saturday; 2026-01-05 is a Monday; 2026-01-06 is a Tuesday.

func weekendPlan() *models.StudyPlan {
	return &models.StudyPlan{
		CourseName: "Machine Learning Basics",
		TotalWeeks: 2,
		Schedule: []models.WeeklySession{
			{Day: "Saturday", StartTime: "9:00 AM", DurationHours: 2.0},
			{Day: "Sunday", StartTime: "9:00 AM", DurationHours: 2.0},
		},
		StartDate: "2026-01-03",
		Timezone:  "UTC",
	}
}

func TestExpand_WeekendPattern(t *testing.T) {
	t.Parallel()

	creator := &fakeCreator{}
	report, err := newTestExpander(creator).Expand(context.Background(), weekendPlan())
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, "success", report.Status)
	require.Len(t, report.Pairs, 4)
	assert.Equal(t, 8, creator.calls)
	assert.Equal(t, 8, report.Summary.TotalEvents)
	assert.Equal(t, 4, report.Summary.TotalReminders)
	assert.Equal(t, 4, report.Summary.TotalStudySessions)
	assert.Equal(t, 2, report.Summary.SessionsPerWeek)

	wantDates := []string{"2026-01-03", "2026-01-04", "2026-01-10", "2026-01-11"}
	for i, p := range report.Pairs {
		assert.Equal(t, wantDates[i], p.StudyStart.Format("2006-01-02"), "pair %d", i)
		assert.Equal(t, 9, p.StudyStart.Hour())
	}
	assert.Equal(t, 1, report.Pairs[0].Week)
	assert.Equal(t, 2, report.Pairs[2].Week)

	require.NotNil(t, report.Summary.FirstReminder)
	require.NotNil(t, report.Summary.LastStudySession)
	assert.Equal(t, "2026-01-02", *report.Summary.FirstReminder)
	assert.Equal(t, "2026-01-11", *report.Summary.LastStudySession)
	assert.Equal(t, "https://calendar.example", report.Summary.CalendarLink)
	assert.Empty(t, report.Warnings)
}

func TestExpand_CountInvariant(t *testing.T) {
	t.Parallel()

	plan := &models.StudyPlan{
		CourseName: "Algorithms",
		TotalWeeks: 5,
		Schedule: []models.WeeklySession{
			{Day: "Friday", StartTime: "9:00 AM", DurationHours: 1},
			{Day: "Saturday", StartTime: "9:00 AM", DurationHours: 1},
			{Day: "Sunday", StartTime: "9:00 AM", DurationHours: 1},
		},
		StartDate: "2026-01-03", // Saturday: starts mid-pattern
		Timezone:  "UTC",
	}

	creator := &fakeCreator{}
	report, err := newTestExpander(creator).Expand(context.Background(), plan)
	require.NoError(t, err)

	assert.Len(t, report.Events, plan.TotalWeeks*len(plan.Schedule))
	assert.Equal(t, plan.TotalWeeks*len(plan.Schedule)*2, creator.calls)
}

func TestExpand_ChronologicalOrder(t *testing.T) {
	t.Parallel()

	plan := &models.StudyPlan{
		CourseName: "Databases",
		TotalWeeks: 4,
		Schedule: []models.WeeklySession{
			{Day: "Friday", StartTime: "18:00", DurationHours: 1.5},
			{Day: "Saturday", StartTime: "10:00", DurationHours: 2},
			{Day: "Sunday", StartTime: "10:00", DurationHours: 2},
		},
		StartDate: "2026-01-04", // Sunday: only the Sunday slot lands in calendar-week one
		Timezone:  "UTC",
	}

	report, err := newTestExpander(&fakeCreator{}).Expand(context.Background(), plan)
	require.NoError(t, err)

	byDay := map[time.Weekday]time.Time{}
	for i, p := range report.Pairs {
		if i > 0 {
			prev := report.Pairs[i-1]
			assert.True(t, p.StudyStart.After(prev.StudyStart),
				"pair %d (%s) should start after pair %d (%s)", i, p.StudyStart, i-1, prev.StudyStart)
		}
		if last, ok := byDay[p.StudyDay]; ok {
			assert.Equal(t, 7*24*time.Hour, p.StudyStart.Sub(last),
				"consecutive %s sessions should be exactly 7 days apart", p.StudyDay)
		}
		byDay[p.StudyDay] = p.StudyStart
	}
}

func TestExpand_MidPatternStartKeepsCadence(t *testing.T) {
	t.Parallel()

	plan := &models.StudyPlan{
		CourseName: "Compilers",
		TotalWeeks: 2,
		Schedule: []models.WeeklySession{
			{Day: "Friday", StartTime: "9:00 AM", DurationHours: 1},
			{Day: "Saturday", StartTime: "9:00 AM", DurationHours: 1},
			{Day: "Sunday", StartTime: "9:00 AM", DurationHours: 1},
		},
		StartDate: "2026-01-03", // Saturday, the second pattern entry
		Timezone:  "UTC",
	}

	report, err := newTestExpander(&fakeCreator{}).Expand(context.Background(), plan)
	require.NoError(t, err)
	require.Len(t, report.Pairs, 6)

	// Rotation starts at the matching entry and the cursor never resets, so
	// week two's Friday lands right after week one's Sunday.
	wantDates := []string{"2026-01-03", "2026-01-04", "2026-01-09", "2026-01-10", "2026-01-11", "2026-01-16"}
	wantDays := []time.Weekday{time.Saturday, time.Sunday, time.Friday, time.Saturday, time.Sunday, time.Friday}
	for i, p := range report.Pairs {
		assert.Equal(t, wantDates[i], p.StudyStart.Format("2006-01-02"), "pair %d", i)
		assert.Equal(t, wantDays[i], p.StudyDay, "pair %d", i)
	}
}

func TestExpand_SingleSessionPattern(t *testing.T) {
	t.Parallel()

	plan := &models.StudyPlan{
		CourseName: "Operating Systems",
		TotalWeeks: 3,
		Schedule: []models.WeeklySession{
			{Day: "Monday", StartTime: "19:30", DurationHours: 1.5},
		},
		StartDate: "2026-01-05", // Monday
		Timezone:  "UTC",
	}

	report, err := newTestExpander(&fakeCreator{}).Expand(context.Background(), plan)
	require.NoError(t, err)
	require.Len(t, report.Pairs, 3)

	wantDates := []string{"2026-01-05", "2026-01-12", "2026-01-19"}
	for i, p := range report.Pairs {
		assert.Equal(t, wantDates[i], p.StudyStart.Format("2006-01-02"), "pair %d", i)
		assert.Equal(t, 19, p.StudyStart.Hour())
		assert.Equal(t, 30, p.StudyStart.Minute())
		assert.Equal(t, 90*time.Minute, p.StudyEnd.Sub(p.StudyStart))
	}
}

func TestExpand_ReminderOffsets(t *testing.T) {
	t.Parallel()

	plan := weekendPlan()
	plan.ReminderTime = "21:15"

	report, err := newTestExpander(&fakeCreator{}).Expand(context.Background(), plan)
	require.NoError(t, err)

	for i, p := range report.Pairs {
		wantReminderDate := p.StudyStart.AddDate(0, 0, -1).Format("2006-01-02")
		assert.Equal(t, wantReminderDate, p.ReminderStart.Format("2006-01-02"), "pair %d", i)
		assert.Equal(t, 21, p.ReminderStart.Hour(), "pair %d", i)
		assert.Equal(t, 15, p.ReminderStart.Minute(), "pair %d", i)
		// The reminder block always ends one hour before the study start.
		assert.Equal(t, p.StudyStart.Add(-time.Hour), p.ReminderEnd, "pair %d", i)
	}
}

func TestExpand_FractionalDuration(t *testing.T) {
	t.Parallel()

	plan := weekendPlan()
	plan.Schedule[0].DurationHours = 2.75
	plan.Schedule[1].DurationHours = 2.75

	report, err := newTestExpander(&fakeCreator{}).Expand(context.Background(), plan)
	require.NoError(t, err)

	for i, p := range report.Pairs {
		assert.Equal(t, 2*time.Hour+45*time.Minute, p.StudyEnd.Sub(p.StudyStart), "pair %d", i)
	}
	assert.Equal(t, "2.75 hours", report.Events[0].StudyDuration)
}

func TestExpand_UnalignedStartDate(t *testing.T) {
	t.Parallel()

	plan := weekendPlan()
	plan.StartDate = "2026-01-06" // Tuesday

	creator := &fakeCreator{}
	report, err := newTestExpander(creator).Expand(context.Background(), plan)
	assert.Nil(t, report)
	assert.Zero(t, creator.calls, "no events may be created on alignment failure")

	var unaligned *UnalignedStartDateError
	require.ErrorAs(t, err, &unaligned)
	assert.Equal(t, time.Tuesday, unaligned.StartDay)
	assert.Equal(t, []time.Weekday{time.Saturday, time.Sunday}, unaligned.ScheduleDays)
	assert.Contains(t, err.Error(), "Tuesday")
	assert.Contains(t, err.Error(), "Saturday, Sunday")
}

func TestExpand_InvalidPlans(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(p *models.StudyPlan)
	}{
		{"zero weeks", func(p *models.StudyPlan) { p.TotalWeeks = 0 }},
		{"negative weeks", func(p *models.StudyPlan) { p.TotalWeeks = -1 }},
		{"empty schedule", func(p *models.StudyPlan) { p.Schedule = nil }},
		{"zero duration", func(p *models.StudyPlan) { p.Schedule[0].DurationHours = 0 }},
		{"negative duration", func(p *models.StudyPlan) { p.Schedule[1].DurationHours = -2 }},
		{"unknown weekday", func(p *models.StudyPlan) { p.Schedule[0].Day = "Caturday" }},
		{"duplicate weekday", func(p *models.StudyPlan) { p.Schedule[1].Day = "Saturday" }},
		{"bad start date", func(p *models.StudyPlan) { p.StartDate = "2026-13-40" }},
		{"bad timezone", func(p *models.StudyPlan) { p.Timezone = "Mars/Olympus" }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			plan := weekendPlan()
			tt.mutate(plan)

			creator := &fakeCreator{}
			report, err := newTestExpander(creator).Expand(context.Background(), plan)
			assert.Nil(t, report)
			assert.Zero(t, creator.calls)

			var invalid *InvalidPlanError
			assert.ErrorAs(t, err, &invalid)
		})
	}
}

func TestExpand_StartTimeFallback(t *testing.T) {
	t.Parallel()

	plan := weekendPlan()
	plan.Schedule[0].StartTime = "garbage"
	plan.Schedule[1].StartTime = "11 AM"

	report, err := newTestExpander(&fakeCreator{}).Expand(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, 9, report.Pairs[0].StudyStart.Hour(), "unparseable start time falls back to 09:00")
	assert.Equal(t, 11, report.Pairs[1].StudyStart.Hour())

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "schedule[0].start_time", report.Warnings[0].Field)
	assert.Equal(t, "garbage", report.Warnings[0].Raw)
	assert.Equal(t, "09:00", report.Warnings[0].Applied)
	assert.NotEmpty(t, report.Warnings[0].Reason)
}

func TestExpand_ReminderTimeFallback(t *testing.T) {
	t.Parallel()

	plan := weekendPlan()
	plan.ReminderTime = "9 PM" // not 24-hour HH:MM

	report, err := newTestExpander(&fakeCreator{}).Expand(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, 20, report.Pairs[0].ReminderStart.Hour(), "unparseable reminder time falls back to 20:00")
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "reminder_time", report.Warnings[0].Field)
	assert.Equal(t, "20:00", report.Warnings[0].Applied)
}

func TestExpand_Defaults(t *testing.T) {
	t.Parallel()

	plan := weekendPlan()
	plan.Timezone = ""
	plan.ReminderTime = ""

	creator := &fakeCreator{}
	report, err := newTestExpander(creator).Expand(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, DefaultTimezone, report.Summary.Timezone)
	assert.Equal(t, DefaultTimezone, creator.events[0].TimeZone)
	assert.Equal(t, 20, report.Pairs[0].ReminderStart.Hour())
	assert.Equal(t, 0, report.Pairs[0].ReminderStart.Minute())
	assert.Empty(t, report.Warnings, "defaults applied to absent fields are not warnings")
}

func TestExpand_CollaboratorFailureKeepsPartialResult(t *testing.T) {
	t.Parallel()

	creator := &fakeCreator{failAt: 4} // fails on the second pair's study event
	report, err := newTestExpander(creator).Expand(context.Background(), weekendPlan())

	var cerr *CollaboratorError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 3, cerr.Created)
	assert.ErrorContains(t, cerr, "backend unavailable")

	require.NotNil(t, report, "partial report must be returned")
	assert.Equal(t, "error", report.Status)
	assert.Contains(t, report.Message, "after creating 3 events")
	assert.Len(t, report.Pairs, 1, "only fully created pairs are reported")
	assert.Equal(t, "2026-01-03", report.Events[0].StudyDate)
}

func TestExpand_EventBodies(t *testing.T) {
	t.Parallel()

	creator := &fakeCreator{}
	_, err := newTestExpander(creator).Expand(context.Background(), weekendPlan())
	require.NoError(t, err)
	require.Len(t, creator.events, 8)

	reminder, study := creator.events[0], creator.events[1]

	assert.Equal(t, "📚 Reminder: Study Machine Learning Basics Tomorrow!", reminder.Summary)
	assert.Contains(t, reminder.Description, "Tomorrow is Saturday")
	assert.Contains(t, reminder.Description, "Week 1")
	assert.Equal(t, "9", reminder.ColorID)
	require.Len(t, reminder.Reminders, 2)
	assert.Equal(t, "popup", reminder.Reminders[0].Method)
	assert.Equal(t, "email", reminder.Reminders[1].Method)

	assert.Equal(t, "📖 Study: Machine Learning Basics - Week 1", study.Summary)
	assert.Contains(t, study.Description, "2 hours")
	assert.Equal(t, "10", study.ColorID)
	require.Len(t, study.Reminders, 1)
	assert.Equal(t, 15, study.Reminders[0].Minutes)

	assert.Equal(t, "UTC", reminder.TimeZone)
	assert.Equal(t, "UTC", study.TimeZone)
}

func TestExpand_RecordsAndPreview(t *testing.T) {
	t.Parallel()

	report, err := newTestExpander(&fakeCreator{}).Expand(context.Background(), weekendPlan())
	require.NoError(t, err)

	first := report.Events[0]
	assert.Equal(t, 1, first.Week)
	assert.Equal(t, "Saturday", first.StudyDay)
	assert.Equal(t, "2026-01-02", first.ReminderDate)
	assert.Equal(t, "Friday", first.ReminderDay)
	assert.Equal(t, "08:00 PM", first.ReminderStartTime)
	assert.Equal(t, "08:00 AM", first.ReminderEndTime)
	assert.Equal(t, "09:00 AM", first.StudyStartTime)
	assert.Equal(t, "11:00 AM", first.StudyEndTime)
	assert.Equal(t, "2 hours", first.StudyDuration)
	assert.Equal(t, "evt-1", first.ReminderEventID)
	assert.Equal(t, "evt-2", first.StudyEventID)
	assert.Equal(t, "https://calendar.example/evt-1", first.ReminderLink)

	preview := report.SchedulePreview
	assert.Contains(t, preview, "Week 1:")
	assert.Contains(t, preview, "Week 2:")
	assert.Contains(t, preview, "📅 Saturday 2026-01-03:")
	assert.Contains(t, preview, "• Reminder: Friday 08:00 PM - 08:00 AM")
	assert.Contains(t, preview, "• Study: 09:00 AM - 11:00 AM (2 hours)")
	assert.Equal(t, 2, strings.Count(preview, "Week "), "one heading per week")
}

func TestExpand_MessageCountsEvents(t *testing.T) {
	t.Parallel()

	report, err := newTestExpander(&fakeCreator{}).Expand(context.Background(), weekendPlan())
	require.NoError(t, err)
	assert.Contains(t, report.Message, "8 calendar events")
	assert.Contains(t, report.Message, "4 reminders + 4 study sessions")
}
