package service

import (
	"errors"
	"testing"
	"time"

	"rosterassist/internal/models"
)

func (f *fixture) entry(t *testing.T, user *models.User, in time.Time, hours float64) {
	t.Helper()
	e := &models.TimeEntry{UserID: user.ID, ClockIn: in}
	if hours > 0 {
		out := in.Add(time.Duration(hours * float64(time.Hour)))
		e.ClockOut = &out
	}
	if err := f.db.Create(e).Error; err != nil {
		t.Fatalf("seed time entry: %v", err)
	}
}

func TestWageReportTotals(t *testing.T) {
	f := newFixture(t)
	sam := f.staff(t, "Sam", "25.50")
	alex := f.staff(t, "Alex", "30")

	f.entry(t, sam, at(0, "09:00"), 8)
	f.entry(t, sam, at(1, "09:00"), 8)
	f.entry(t, alex, at(2, "10:00"), 4.5)
	f.entry(t, alex, at(3, "10:00"), 0) // still on the clock
	f.entry(t, sam, at(10, "09:00"), 8) // after the range
	f.entry(t, sam, at(-3, "09:00"), 8) // before the range

	report := NewWageReportGenerator(f.entries, time.UTC)
	rows, err := report.Generate(f.owner, monday, monday.AddDate(0, 0, 6), nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2: %+v", len(rows), rows)
	}

	if rows[0].UserID != sam.ID || !rows[0].TotalHours.Equal(dec("16")) || !rows[0].TotalWages.Equal(dec("408")) {
		t.Errorf("sam row = %+v, want 16h and 408.00", rows[0])
	}
	if rows[1].UserID != alex.ID || !rows[1].TotalHours.Equal(dec("4.5")) || !rows[1].TotalWages.Equal(dec("135")) {
		t.Errorf("alex row = %+v, want 4.5h and 135.00", rows[1])
	}
}

func TestWageReportRowsFollowClockIn(t *testing.T) {
	f := newFixture(t)
	sam := f.staff(t, "Sam", "25")
	alex := f.staff(t, "Alex", "25")

	// Sam's Monday entry is backfilled after Alex's Thursday one.
	f.entry(t, alex, at(3, "09:00"), 8)
	f.entry(t, sam, at(0, "09:00"), 8)

	rows, err := NewWageReportGenerator(f.entries, time.UTC).Generate(f.owner, monday, monday.AddDate(0, 0, 6), nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(rows) != 2 || rows[0].UserID != sam.ID || rows[1].UserID != alex.ID {
		t.Errorf("rows = %+v, want sam then alex", rows)
	}
}

func TestWageReportFilters(t *testing.T) {
	f := newFixture(t)
	sam := f.staff(t, "Sam", "25.50")
	alex := f.staff(t, "Alex", "30")
	f.entry(t, sam, at(0, "09:00"), 8)
	f.entry(t, alex, at(0, "09:00"), 8)

	other, err := f.userSvc.EnsureOwner("Other Owner", "other@example.com")
	if err != nil {
		t.Fatal(err)
	}
	f.entry(t, other, at(0, "09:00"), 8)

	report := NewWageReportGenerator(f.entries, time.UTC)
	end := monday.AddDate(0, 0, 6)

	t.Run("user ids", func(t *testing.T) {
		rows, err := report.Generate(f.owner, monday, end, []uint{alex.ID})
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 1 || rows[0].UserID != alex.ID {
			t.Errorf("rows = %+v, want only alex", rows)
		}
	})

	t.Run("other business hidden", func(t *testing.T) {
		rows, err := report.Generate(f.owner, monday, end, nil)
		if err != nil {
			t.Fatal(err)
		}
		for _, r := range rows {
			if r.UserID == other.ID {
				t.Errorf("row of another business leaked: %+v", r)
			}
		}
	})

	t.Run("staff see themselves", func(t *testing.T) {
		rows, err := report.Generate(sam, monday, end, []uint{alex.ID})
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 1 || rows[0].UserID != sam.ID {
			t.Errorf("rows = %+v, want only sam", rows)
		}
	})

	t.Run("range must be ordered", func(t *testing.T) {
		if _, err := report.Generate(f.owner, end, monday, nil); !errors.Is(err, ErrInvalidDateRange) {
			t.Errorf("err = %v, want ErrInvalidDateRange", err)
		}
		if _, err := report.Generate(f.owner, monday, monday, nil); !errors.Is(err, ErrInvalidDateRange) {
			t.Errorf("same day: err = %v, want ErrInvalidDateRange", err)
		}
	})
}
