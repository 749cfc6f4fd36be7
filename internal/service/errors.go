package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"rosterassist/internal/models"
	"rosterassist/internal/repository"
)

var (
	ErrAlreadyExists      = errors.New("a dated roster already exists for this template and week")
	ErrNoShiftsInTemplate = errors.New("template has no shifts")
	ErrArgumentRequired   = errors.New("required argument missing")
	ErrNotFound           = repository.ErrNotFound
	ErrForbidden          = errors.New("not permitted for this user")
	ErrAlreadyClockedIn   = errors.New("already clocked in")
	ErrNotClockedIn       = errors.New("not clocked in")
	ErrShiftTooLong       = errors.New("shift exceeds the maximum length")
	ErrInvalidPin         = errors.New("invalid PIN")
	ErrInvalidDateRange   = errors.New("start date must be before end date")
	ErrNotMonday          = errors.New("week start date must be a Monday")
)

// ValidationError carries per-field messages for a rejected record.
type ValidationError struct {
	Fields models.FieldErrors
}

func (e *ValidationError) Error() string {
	if msg := e.Fields.First(); msg != "" {
		return "validation failed: " + msg
	}
	return "validation failed"
}

func newValidationError(fields models.FieldErrors) error {
	if !fields.Any() {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// Conflict describes one existing shift an assignment would overlap.
type Conflict struct {
	ShiftID   uint      `json:"shift_id"`
	StaffID   uint      `json:"staff_id"`
	StaffName string    `json:"staff_name"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// ConflictError is returned when a shift overlaps another for the same staff member.
type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	names := make([]string, 0, len(e.Conflicts))
	seen := map[string]bool{}
	for _, c := range e.Conflicts {
		if !seen[c.StaffName] {
			seen[c.StaffName] = true
			names = append(names, c.StaffName)
		}
	}
	if len(names) == 0 {
		return "shift overlaps an existing shift"
	}
	return fmt.Sprintf("%s already has a shift at this time", strings.Join(names, ", "))
}

// ShiftTooLongError reports how long the open entry has been running.
type ShiftTooLongError struct {
	Elapsed time.Duration
	Max     time.Duration
}

func (e *ShiftTooLongError) Error() string {
	return fmt.Sprintf("shift of %.1f hours exceeds the %.0f hour maximum", e.Elapsed.Hours(), e.Max.Hours())
}

func (e *ShiftTooLongError) Unwrap() error {
	return ErrShiftTooLong
}
