package models

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff:
		return true
	}
	return false
}

// ShiftType is the coarse label used when a shift has no work section.
type ShiftType string

const (
	ShiftMorning   ShiftType = "morning"
	ShiftAfternoon ShiftType = "afternoon"
	ShiftEvening   ShiftType = "evening"
	ShiftNight     ShiftType = "night"
)

var ShiftTypes = []ShiftType{ShiftMorning, ShiftAfternoon, ShiftEvening, ShiftNight}

func (t ShiftType) IsValid() bool {
	for _, known := range ShiftTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Title is the display label, e.g. "Morning".
func (t ShiftType) Title() string {
	if t == "" {
		return ""
	}
	s := string(t)
	return strings.ToUpper(s[:1]) + s[1:]
}

func ParseShiftType(s string) (ShiftType, error) {
	t := ShiftType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("invalid shift type %q", s)
	}
	return t, nil
}

type WeekType string

const (
	WeekTypeWeekly      WeekType = "weekly"
	WeekTypeFortnightly WeekType = "fortnightly"
)

func (w WeekType) IsValid() bool {
	return w == WeekTypeWeekly || w == WeekTypeFortnightly
}

type RosterStatus string

const (
	RosterDraft     RosterStatus = "draft"
	RosterFinalized RosterStatus = "finalized"
)

// Notification templates understood by the deliverers.
const (
	NotificationShiftsAssigned = "shifts-assigned"
	NotificationShiftChanged   = "shift-changed"
)

// FieldErrors collects per-field validation messages.
type FieldErrors map[string][]string

func (e FieldErrors) Add(field, message string) {
	e[field] = append(e[field], message)
}

func (e FieldErrors) Any() bool {
	return len(e) > 0
}

// First returns one message, preferring base errors, for single-line display.
func (e FieldErrors) First() string {
	if msgs, ok := e["base"]; ok && len(msgs) > 0 {
		return msgs[0]
	}
	for field, msgs := range e {
		if len(msgs) > 0 {
			return field + " " + msgs[0]
		}
	}
	return ""
}
