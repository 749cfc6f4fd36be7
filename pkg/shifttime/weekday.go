package shifttime

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday is the canonical day numbering used by templates and dated shifts:
// 0=Sunday .. 6=Saturday, the same numbering as time.Weekday.
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayNames = [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// MondayFirst is the display order used by budget breakdowns and notifications.
var MondayFirst = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

func (d Weekday) IsValid() bool {
	return d >= Sunday && d <= Saturday
}

func (d Weekday) String() string {
	if !d.IsValid() {
		return fmt.Sprintf("weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// DisplayIndex returns the position of d in MondayFirst.
func (d Weekday) DisplayIndex() int {
	switch d {
	case Monday:
		return 0
	case Tuesday:
		return 1
	case Wednesday:
		return 2
	case Thursday:
		return 3
	case Friday:
		return 4
	case Saturday:
		return 5
	case Sunday:
		return 6
	}
	return -1
}

// WeekdayOf returns the canonical weekday of a calendar date.
func WeekdayOf(t time.Time) Weekday {
	return Weekday(t.Weekday())
}

// ParseWeekday accepts a lower/upper case day name ("monday") or a number 0..6.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range weekdayNames {
		if s == name {
			return Weekday(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && Weekday(n).IsValid() {
		return Weekday(n), nil
	}
	return 0, fmt.Errorf("invalid day of week %q", s)
}

func (d Weekday) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Weekday) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		parsed, err := ParseWeekday(name)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid day of week %s", string(data))
	}
	if !Weekday(n).IsValid() {
		return fmt.Errorf("invalid day of week %d", n)
	}
	*d = Weekday(n)
	return nil
}
