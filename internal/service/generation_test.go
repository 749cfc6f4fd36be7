package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"rosterassist/internal/models"
	"rosterassist/pkg/shifttime"
)

func TestGenerateOvernightShiftEndsNextDay(t *testing.T) {
	f := newFixture(t)
	template := f.template(t, "wednesday 18:00 02:00")

	roster, err := f.generator.GenerateForOwner(f.owner, template.ID, monday)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(roster.Shifts) != 1 {
		t.Fatalf("got %d shifts, want 1", len(roster.Shifts))
	}
	shift := roster.Shifts[0]

	wantStart := time.Date(2026, 3, 4, 18, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 3, 5, 2, 0, 0, 0, time.UTC)
	if !shift.StartTime.Equal(wantStart) {
		t.Errorf("start = %v, want %v", shift.StartTime, wantStart)
	}
	if !shift.EndTime.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", shift.EndTime, wantEnd)
	}
	if shift.DayOfWeek != shifttime.Wednesday {
		t.Errorf("day = %v, want wednesday", shift.DayOfWeek)
	}
	if shift.UserID != nil {
		t.Errorf("generated shift assigned to %d, want unassigned", *shift.UserID)
	}
	if roster.Status != models.RosterDraft {
		t.Errorf("status = %q, want draft", roster.Status)
	}
	if !roster.WeekEndDate.Equal(time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("week end = %v, want Sunday 8 March", roster.WeekEndDate)
	}
}

func TestGenerateSundayFollowsSaturday(t *testing.T) {
	f := newFixture(t)
	template := f.template(t, "sunday 10:00 14:00", "saturday 10:00 14:00")

	roster, err := f.generator.GenerateForOwner(f.owner, template.ID, monday)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	for _, s := range roster.Shifts {
		want := 5
		if s.DayOfWeek == shifttime.Sunday {
			want = 6
		}
		if got := shifttime.DateOnly(s.StartTime); !got.Equal(monday.AddDate(0, 0, want)) {
			t.Errorf("%v shift on %v, want Monday+%d", s.DayOfWeek, got, want)
		}
	}
}

func TestGenerateTwiceForSameWeek(t *testing.T) {
	f := newFixture(t)
	template := f.template(t, "monday 09:00 17:00")

	if _, err := f.generator.GenerateForOwner(f.owner, template.ID, monday); err != nil {
		t.Fatalf("first generate: %v", err)
	}

	_, err := f.generator.GenerateForOwner(f.owner, template.ID, monday)
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("second generate: err = %v, want ErrAlreadyExists", err)
	}

	rosters, err := f.rosters.ListByOwner(f.owner.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rosters) != 1 {
		t.Errorf("got %d rosters, want 1", len(rosters))
	}
}

func TestGenerateRejects(t *testing.T) {
	f := newFixture(t)
	empty := f.template(t)
	full := f.template(t, "monday 09:00 17:00")
	staff := f.staff(t, "Sam", "25")

	tests := []struct {
		name       string
		actor      *models.User
		templateID uint
		weekStart  time.Time
		want       error
	}{
		{"empty template", f.owner, empty.ID, monday, ErrNoShiftsInTemplate},
		{"not a monday", f.owner, full.ID, monday.AddDate(0, 0, 2), ErrNotMonday},
		{"staff actor", staff, full.ID, monday, ErrForbidden},
		{"unknown template", f.owner, 999, monday, ErrNotFound},
		{"zero week", f.owner, full.ID, time.Time{}, ErrArgumentRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.generator.GenerateForOwner(tt.actor, tt.templateID, tt.weekStart)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	rosters, err := f.rosters.ListByOwner(f.owner.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rosters) != 0 {
		t.Errorf("rejected generations left %d rosters", len(rosters))
	}
}

func TestConcurrentGenerateCreatesOneRoster(t *testing.T) {
	f := newFixture(t)
	template := f.template(t, "monday 09:00 17:00")

	generators := []*RosterGenerator{
		f.generator,
		NewRosterGenerator(f.templates, f.rosters, f.shifts, f.tx, time.UTC),
	}

	const attempts = 10
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = generators[i%2].GenerateForOwner(f.owner, template.ID, monday)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for i, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case !errors.Is(err, ErrAlreadyExists):
			t.Errorf("attempt %d: err = %v, want ErrAlreadyExists", i, err)
		}
	}
	if succeeded != 1 {
		t.Errorf("%d generations succeeded, want 1", succeeded)
	}

	var rosters, shifts int64
	f.db.Model(&models.DatedRoster{}).Where("shift_template_id = ?", template.ID).Count(&rosters)
	f.db.Model(&models.DatedShift{}).Count(&shifts)
	if rosters != 1 || shifts != 1 {
		t.Errorf("got %d rosters and %d shifts, want 1 and 1", rosters, shifts)
	}
}
