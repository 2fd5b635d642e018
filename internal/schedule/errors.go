package schedule

import (
	"fmt"
	"strings"
	"time"
)

// InvalidPlanError reports a plan that fails validation before any calendar
// call is made: empty schedule, non-positive week count or duration, an
// unknown weekday name, or an unparseable date or timezone.
type InvalidPlanError struct {
	Reason string
}

func (e *InvalidPlanError) Error() string {
	return "invalid plan: " + e.Reason
}

// UnalignedStartDateError reports a start date whose weekday does not appear
// anywhere in the schedule pattern.
type UnalignedStartDateError struct {
	StartDay     time.Weekday
	ScheduleDays []time.Weekday
}

func (e *UnalignedStartDateError) Error() string {
	names := make([]string, len(e.ScheduleDays))
	for i, d := range e.ScheduleDays {
		names[i] = d.String()
	}
	return fmt.Sprintf("start date is a %s, but the schedule has no %s session (schedule has: %s)",
		e.StartDay, e.StartDay, strings.Join(names, ", "))
}

// CollaboratorError reports a calendar backend failure partway through an
// expansion. Created counts the events that were successfully created before
// the failure; those events are not rolled back.
type CollaboratorError struct {
	Created int
	Err     error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("calendar backend failed after creating %d events: %v", e.Created, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}
