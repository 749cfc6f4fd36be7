package models

import (
	"testing"
	"time"

	"rosterassist/pkg/shifttime"

	"github.com/shopspring/decimal"
)

func shiftTypePtr(t ShiftType) *ShiftType { return &t }

func TestTemplateShiftValidate(t *testing.T) {
	tests := []struct {
		name      string
		shift     TemplateShift
		wantField string
	}{
		{
			name: "day shift",
			shift: TemplateShift{ShiftTemplateID: 1, DayOfWeek: shifttime.Monday,
				StartTime: shifttime.MustTimeOfDay("09:00"), EndTime: shifttime.MustTimeOfDay("17:00"),
				ShiftType: shiftTypePtr(ShiftMorning)},
		},
		{
			name: "overnight within bounds",
			shift: TemplateShift{ShiftTemplateID: 1, DayOfWeek: shifttime.Friday,
				StartTime: shifttime.MustTimeOfDay("22:00"), EndTime: shifttime.MustTimeOfDay("06:00"),
				ShiftType: shiftTypePtr(ShiftNight)},
		},
		{
			name: "overnight too short",
			shift: TemplateShift{ShiftTemplateID: 1, DayOfWeek: shifttime.Friday,
				StartTime: shifttime.MustTimeOfDay("23:45"), EndTime: shifttime.MustTimeOfDay("00:15"),
				ShiftType: shiftTypePtr(ShiftNight)},
			wantField: "end_time",
		},
		{
			name: "missing type and section",
			shift: TemplateShift{ShiftTemplateID: 1, DayOfWeek: shifttime.Monday,
				StartTime: shifttime.MustTimeOfDay("09:00"), EndTime: shifttime.MustTimeOfDay("17:00")},
			wantField: "shift_type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.shift.Validate()
			if tt.wantField == "" {
				if errs.Any() {
					t.Fatalf("unexpected errors: %v", errs)
				}
				return
			}
			if _, ok := errs[tt.wantField]; !ok {
				t.Fatalf("expected error on %s, got %v", tt.wantField, errs)
			}
		})
	}
}

func TestDatedShiftValidate(t *testing.T) {
	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return base.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }
	ptr := func(t time.Time) *time.Time { return &t }

	valid := DatedShift{DatedRosterID: 1, DayOfWeek: shifttime.Monday, StartTime: at(9, 0), EndTime: at(17, 0),
		BreakStart: ptr(at(12, 0)), BreakEnd: ptr(at(12, 30))}
	if errs := valid.Validate(); errs.Any() {
		t.Fatalf("unexpected errors: %v", errs)
	}

	offGrid := valid
	offGrid.StartTime = at(9, 10)
	if _, ok := offGrid.Validate()["start_time"]; !ok {
		t.Error("expected 15-minute error on start_time")
	}

	outside := valid
	outside.BreakEnd = ptr(at(17, 30))
	if _, ok := outside.Validate()["break_start"]; !ok {
		t.Error("expected break containment error")
	}

	halfBreak := valid
	halfBreak.BreakEnd = nil
	if _, ok := halfBreak.Validate()["break_start"]; !ok {
		t.Error("expected error for break without end")
	}

	backwards := valid
	backwards.EndTime = at(8, 0)
	backwards.BreakStart, backwards.BreakEnd = nil, nil
	if _, ok := backwards.Validate()["end_time"]; !ok {
		t.Error("expected end_time ordering error")
	}
}

func TestDatedShiftPaidHoursAndCost(t *testing.T) {
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	breakStart, breakEnd := base.Add(3*time.Hour), base.Add(3*time.Hour+30*time.Minute)
	shift := DatedShift{
		StartTime:  base,
		EndTime:    base.Add(8 * time.Hour),
		BreakStart: &breakStart,
		BreakEnd:   &breakEnd,
		User:       &User{HourlyRate: decimal.NewNullDecimal(decimal.NewFromInt(30))},
	}

	if got := shift.PaidHours(); !got.Equal(decimal.NewFromFloat(7.5)) {
		t.Fatalf("paid hours = %s, want 7.5", got)
	}
	if got := shift.WageCost(); !got.Equal(decimal.NewFromInt(225)) {
		t.Fatalf("wage cost = %s, want 225", got)
	}

	shift.User = nil
	if !shift.WageCost().IsZero() {
		t.Fatal("unassigned shift should cost nothing")
	}
}

func TestSectionLabelFallsBackToShiftType(t *testing.T) {
	s := TemplateShift{ShiftType: shiftTypePtr(ShiftEvening)}
	if s.SectionLabel() != "Evening" {
		t.Fatalf("got %q", s.SectionLabel())
	}
	s.WorkSection = &WorkSection{Name: "Bar"}
	if s.SectionLabel() != "Bar" {
		t.Fatalf("got %q", s.SectionLabel())
	}
}

func TestSalesForecastValidate(t *testing.T) {
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	conf := 120
	f := SalesForecast{UserID: 1, StartDate: day, EndDate: day.AddDate(0, 0, -1),
		ProjectedSales: decimal.NewFromInt(-5), Confidence: &conf}

	errs := f.Validate()
	for _, field := range []string{"end_date", "projected_sales", "confidence_level"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("expected error on %s", field)
		}
	}
}

func TestUserTenantID(t *testing.T) {
	owner := User{ID: 3}
	if owner.TenantID() != 3 {
		t.Fatal("owner is its own tenant")
	}
	staff := User{ID: 9, OwnerID: &owner.ID}
	if staff.TenantID() != 3 {
		t.Fatal("staff belong to their owner")
	}
}
