package shifttime

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time without a date, stored as "HH:MM".
type TimeOfDay struct {
	minutes int
}

// NewTimeOfDay builds a TimeOfDay from hour and minute.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 {
		return TimeOfDay{}, fmt.Errorf("hour %d out of range 0..23", hour)
	}
	if minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("minute %d out of range 0..59", minute)
	}
	return TimeOfDay{minutes: hour*60 + minute}, nil
}

// MustTimeOfDay panics on invalid input; meant for literals and tests.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTimeOfDay parses "H:MM", "HH:MM" or "HH:MM:SS" (seconds are dropped).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}
	return NewTimeOfDay(hour, minute)
}

func (t TimeOfDay) Hour() int         { return t.minutes / 60 }
func (t TimeOfDay) Minute() int       { return t.minutes % 60 }
func (t TimeOfDay) MinutesOfDay() int { return t.minutes }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) Before(other TimeOfDay) bool { return t.minutes < other.minutes }

// OnQuarterHour reports whether the time sits on a 15-minute boundary.
func (t TimeOfDay) OnQuarterHour() bool { return t.minutes%15 == 0 }

// On attaches the time of day to the calendar date of day in loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}

// TimeOfDayOf extracts the wall-clock time of t.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{minutes: t.Hour()*60 + t.Minute()}
}

func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

func (t *TimeOfDay) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*t = TimeOfDay{}
		return nil
	case string:
		parsed, err := ParseTimeOfDay(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case []byte:
		return t.Scan(string(v))
	case time.Time:
		*t = TimeOfDayOf(v)
		return nil
	}
	return fmt.Errorf("cannot scan %T into TimeOfDay", value)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
