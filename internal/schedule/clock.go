package schedule

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/mo"
)

// Clock is a wall-clock time of day in 24-hour form.
type Clock struct {
	Hour   int // 0..23
	Minute int // 0..59
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ParseClock normalizes a session start time to 24-hour form. It accepts the
// shapes the upstream layer is known to produce: "9:00 AM", "11 AM", "7pm",
// "19:30", "9". Callers apply their own default on Err; parse failures here
// must never abort an expansion.
func ParseClock(s string) mo.Result[Clock] {
	clean := strings.ToUpper(strings.ReplaceAll(s, " ", ""))
	if clean == "" {
		return mo.Err[Clock](fmt.Errorf("empty time string"))
	}

	meridiem := ""
	if strings.HasSuffix(clean, "AM") || strings.HasSuffix(clean, "PM") {
		meridiem = clean[len(clean)-2:]
		clean = clean[:len(clean)-2]
	}

	var hour, minute int
	var err error
	if h, m, found := strings.Cut(clean, ":"); found {
		if hour, err = strconv.Atoi(h); err != nil {
			return mo.Err[Clock](fmt.Errorf("bad hour in %q: %w", s, err))
		}
		if minute, err = strconv.Atoi(m); err != nil {
			return mo.Err[Clock](fmt.Errorf("bad minute in %q: %w", s, err))
		}
	} else {
		if hour, err = strconv.Atoi(clean); err != nil {
			return mo.Err[Clock](fmt.Errorf("unrecognized time %q", s))
		}
	}

	if meridiem != "" {
		if hour < 1 || hour > 12 {
			return mo.Err[Clock](fmt.Errorf("hour %d out of range for 12-hour time %q", hour, s))
		}
		if meridiem == "PM" && hour != 12 {
			hour += 12
		} else if meridiem == "AM" && hour == 12 {
			hour = 0
		}
	}

	return checkClock(Clock{Hour: hour, Minute: minute}, s)
}

// ParseClock24 parses a strict 24-hour "HH:MM" string. Used for reminder
// times, which arrive pre-normalized.
func ParseClock24(s string) mo.Result[Clock] {
	h, m, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		return mo.Err[Clock](fmt.Errorf("time %q is not in HH:MM form", s))
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return mo.Err[Clock](fmt.Errorf("bad hour in %q: %w", s, err))
	}
	minute, err := strconv.Atoi(m)
	if err != nil {
		return mo.Err[Clock](fmt.Errorf("bad minute in %q: %w", s, err))
	}
	return checkClock(Clock{Hour: hour, Minute: minute}, s)
}

func checkClock(c Clock, raw string) mo.Result[Clock] {
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 {
		return mo.Err[Clock](fmt.Errorf("time %q is out of range", raw))
	}
	return mo.Ok(c)
}
