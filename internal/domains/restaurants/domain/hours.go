package domain

import (
	"fmt"
	"regexp"
	"time"
)

// DayHours is the operating window for a single weekday in "HH:MM" local time.
type DayHours struct {
	Open   string `validate:"omitempty,hhmm"`
	Close  string `validate:"omitempty,hhmm"`
	Closed bool
}

// WeeklyHours holds one entry per weekday.
type WeeklyHours struct {
	Monday    DayHours
	Tuesday   DayHours
	Wednesday DayHours
	Thursday  DayHours
	Friday    DayHours
	Saturday  DayHours
	Sunday    DayHours
}

// Day returns the hours configured for weekday.
func (w WeeklyHours) Day(day time.Weekday) DayHours {
	switch day {
	case time.Monday:
		return w.Monday
	case time.Tuesday:
		return w.Tuesday
	case time.Wednesday:
		return w.Wednesday
	case time.Thursday:
		return w.Thursday
	case time.Friday:
		return w.Friday
	case time.Saturday:
		return w.Saturday
	default:
		return w.Sunday
	}
}

// Set replaces the hours for weekday.
func (w *WeeklyHours) Set(day time.Weekday, hours DayHours) {
	switch day {
	case time.Monday:
		w.Monday = hours
	case time.Tuesday:
		w.Tuesday = hours
	case time.Wednesday:
		w.Wednesday = hours
	case time.Thursday:
		w.Thursday = hours
	case time.Friday:
		w.Friday = hours
	case time.Saturday:
		w.Saturday = hours
	default:
		w.Sunday = hours
	}
}

// IsOpenAt reports whether the restaurant is open at the wall-clock time of t.
// Callers pass t already converted to the restaurant's local zone.
func (w WeeklyHours) IsOpenAt(t time.Time) bool {
	day := w.Day(t.Weekday())
	if day.Closed {
		return false
	}
	open, err := ParseClock(day.Open)
	if err != nil {
		return false
	}
	closing, err := ParseClock(day.Close)
	if err != nil {
		return false
	}
	minute := t.Hour()*60 + t.Minute()
	return minute >= open && minute < closing
}

// ClockPattern matches a 24-hour "HH:MM" value.
var ClockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ParseClock converts "HH:MM" into minutes after midnight.
func ParseClock(value string) (int, error) {
	if !ClockPattern.MatchString(value) {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	hour := int(value[0]-'0')*10 + int(value[1]-'0')
	minute := int(value[3]-'0')*10 + int(value[4]-'0')
	return hour*60 + minute, nil
}
