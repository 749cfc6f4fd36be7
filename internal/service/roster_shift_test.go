package service

import (
	"errors"
	"testing"

	"rosterassist/internal/models"
	"rosterassist/pkg/shifttime"
)

func TestCreateShiftOverlap(t *testing.T) {
	f := newFixture(t)
	roster := f.roster(t)
	sam := f.staff(t, "Sam", "25")
	alex := f.staff(t, "Alex", "25")

	first := datedShift(sam, 0, "09:00", "17:00")
	if err := f.rosterSvc.CreateShift(f.owner, roster.ID, first); err != nil {
		t.Fatalf("first shift: %v", err)
	}

	tests := []struct {
		name     string
		shift    *models.DatedShift
		conflict bool
	}{
		{"overlapping", datedShift(sam, 0, "16:00", "20:00"), true},
		{"contained", datedShift(sam, 0, "10:00", "11:00"), true},
		{"adjacent after", datedShift(sam, 0, "17:00", "19:00"), false},
		{"adjacent before", datedShift(sam, 0, "07:00", "09:00"), false},
		{"other staff", datedShift(alex, 0, "09:00", "17:00"), false},
		{"unassigned", datedShift(nil, 0, "09:00", "17:00"), false},
		{"other day", datedShift(sam, 1, "09:00", "17:00"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.rosterSvc.CreateShift(f.owner, roster.ID, tt.shift)

			var conflict *ConflictError
			if tt.conflict {
				if !errors.As(err, &conflict) {
					t.Fatalf("err = %v, want ConflictError", err)
				}
				if len(conflict.Conflicts) != 1 || conflict.Conflicts[0].ShiftID != first.ID || conflict.Conflicts[0].StaffName != "Sam" {
					t.Errorf("conflicts = %+v", conflict.Conflicts)
				}
				return
			}
			if err != nil {
				t.Errorf("err = %v, want nil", err)
			}
		})
	}
}

func TestUpdateShiftIgnoresItself(t *testing.T) {
	f := newFixture(t)
	roster := f.roster(t)
	sam := f.staff(t, "Sam", "25")

	shift := datedShift(sam, 0, "09:00", "17:00")
	if err := f.rosterSvc.CreateShift(f.owner, roster.ID, shift); err != nil {
		t.Fatal(err)
	}

	moved := datedShift(sam, 0, "10:00", "18:00")
	moved.ID = shift.ID
	if err := f.rosterSvc.UpdateShift(f.owner, moved); err != nil {
		t.Fatalf("update: %v", err)
	}

	saved, err := f.shifts.GetByID(shift.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !saved.StartTime.Equal(at(0, "10:00")) {
		t.Errorf("start = %v, want 10:00", saved.StartTime)
	}
}

func TestCreateShiftValidation(t *testing.T) {
	f := newFixture(t)
	roster := f.roster(t)
	sam := f.staff(t, "Sam", "25")

	other, err := f.userSvc.EnsureOwner("Other Owner", "other@example.com")
	if err != nil {
		t.Fatal(err)
	}

	breakStart, breakEnd := at(0, "08:00"), at(0, "08:30")
	outsideBreak := datedShift(sam, 0, "09:00", "17:00")
	outsideBreak.BreakStart, outsideBreak.BreakEnd = &breakStart, &breakEnd

	tests := []struct {
		name  string
		shift *models.DatedShift
		field string
	}{
		{"end before start", datedShift(sam, 0, "17:00", "09:00"), "end_time"},
		{"off the quarter hour", datedShift(sam, 0, "09:10", "17:00"), "start_time"},
		{"break outside shift", outsideBreak, "break_start"},
		{"staff of another business", datedShift(other, 0, "09:00", "17:00"), "user_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.rosterSvc.CreateShift(f.owner, roster.ID, tt.shift)
			var validation *ValidationError
			if !errors.As(err, &validation) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if _, ok := validation.Fields[tt.field]; !ok {
				t.Errorf("fields = %v, want %s", validation.Fields, tt.field)
			}
		})
	}
}

func TestShiftEditsNeedManager(t *testing.T) {
	f := newFixture(t)
	roster := f.roster(t)
	sam := f.staff(t, "Sam", "25")

	err := f.rosterSvc.CreateShift(sam, roster.ID, datedShift(sam, 0, "09:00", "17:00"))
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}

	other, err := f.userSvc.EnsureOwner("Other Owner", "other@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.rosterSvc.Get(other, roster.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("other business reading roster: err = %v, want ErrNotFound", err)
	}
}

func TestBulkCreateAllOrNothing(t *testing.T) {
	f := newFixture(t)
	roster := f.roster(t)
	sam := f.staff(t, "Sam", "25")
	alex := f.staff(t, "Alex", "25")

	existing := datedShift(alex, 2, "09:00", "17:00")
	if err := f.rosterSvc.CreateShift(f.owner, roster.ID, existing); err != nil {
		t.Fatal(err)
	}

	batch := []*models.DatedShift{
		datedShift(sam, 0, "09:00", "13:00"),
		datedShift(sam, 0, "12:00", "15:00"), // overlaps index 0
		datedShift(alex, 2, "16:00", "18:00"), // overlaps the saved shift
		datedShift(sam, 1, "09:15", "09:10"), // invalid
		datedShift(sam, 1, "09:00", "17:00"),
	}

	err := f.rosterSvc.BulkCreate(f.owner, roster.ID, batch)
	var bulk *BulkError
	if !errors.As(err, &bulk) {
		t.Fatalf("err = %v, want BulkError", err)
	}
	if got := bulk.Indexes(); len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("failed indexes = %v, want [1 2 3]", got)
	}
	if bulk.Total != 5 {
		t.Errorf("total = %d, want 5", bulk.Total)
	}

	saved, err := f.rosterSvc.Get(f.owner, roster.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved.Shifts) != 2 {
		t.Errorf("got %d shifts after a rejected batch, want 2", len(saved.Shifts))
	}

	if err := f.rosterSvc.BulkCreate(f.owner, roster.ID, []*models.DatedShift{batch[0], batch[4]}); err != nil {
		t.Fatalf("valid batch: %v", err)
	}
	saved, err = f.rosterSvc.Get(f.owner, roster.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved.Shifts) != 4 {
		t.Errorf("got %d shifts, want 4", len(saved.Shifts))
	}
}

func TestSectionDeleteKeepsShifts(t *testing.T) {
	f := newFixture(t)
	roster := f.roster(t)
	sam := f.staff(t, "Sam", "25")

	section, err := f.templateSvc.CreateSection(f.owner, "Kitchen", "#ff0000")
	if err != nil {
		t.Fatal(err)
	}
	shift := datedShift(sam, 0, "09:00", "17:00")
	shift.WorkSectionID = &section.ID
	if err := f.rosterSvc.CreateShift(f.owner, roster.ID, shift); err != nil {
		t.Fatal(err)
	}

	if err := f.templateSvc.DeleteSection(f.owner, section.ID); err != nil {
		t.Fatalf("delete section: %v", err)
	}

	saved, err := f.shifts.GetByID(shift.ID)
	if err != nil || saved == nil {
		t.Fatalf("shift gone after section delete: %v", err)
	}
	if saved.WorkSectionID != nil {
		t.Errorf("section id = %d, want nil", *saved.WorkSectionID)
	}
}

func TestDeleteRosterCascades(t *testing.T) {
	f := newFixture(t)
	roster := f.roster(t)

	if err := f.rosterSvc.Delete(f.owner, roster.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var count int64
	f.db.Model(&models.DatedShift{}).Where("dated_roster_id = ?", roster.ID).Count(&count)
	if count != 0 {
		t.Errorf("%d shifts left after roster delete", count)
	}
}

func TestCheckConflictsSavesNothing(t *testing.T) {
	f := newFixture(t)
	roster := f.roster(t)
	sam := f.staff(t, "Sam", "25")

	shift := datedShift(sam, 3, "20:00", "23:00")
	if err := f.rosterSvc.CreateShift(f.owner, roster.ID, shift); err != nil {
		t.Fatal(err)
	}

	conflicts, err := f.rosterSvc.CheckConflicts(f.owner, roster.ID, shift.UserID, shifttime.Thursday, at(3, "22:00"), at(4, "02:00"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(conflicts) != 1 {
		t.Errorf("got %d conflicts, want 1", len(conflicts))
	}

	conflicts, err = f.rosterSvc.CheckConflicts(f.owner, roster.ID, shift.UserID, shifttime.Thursday, at(3, "22:00"), at(4, "02:00"), shift.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(conflicts) != 0 {
		t.Errorf("excluded shift still reported: %+v", conflicts)
	}
}
