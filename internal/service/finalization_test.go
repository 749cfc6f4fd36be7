package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"rosterassist/internal/models"
)

func (f *fixture) pendingJobs(t *testing.T) []*models.NotificationJob {
	t.Helper()
	jobs, err := f.jobs.ListPending(0)
	if err != nil {
		t.Fatal(err)
	}
	return jobs
}

func TestFinalizeQueuesOneNoticePerStaff(t *testing.T) {
	f := newFixture(t)
	roster := f.roster(t)
	sam := f.staff(t, "Sam", "25")
	alex := f.staff(t, "Alex", "25")

	for _, s := range []*models.DatedShift{
		datedShift(sam, 0, "09:00", "13:00"),
		datedShift(sam, 2, "09:00", "17:00"),
		datedShift(alex, 1, "12:00", "18:00"),
	} {
		if err := f.rosterSvc.CreateShift(f.owner, roster.ID, s); err != nil {
			t.Fatal(err)
		}
	}

	finalizedAt := time.Date(2026, 2, 27, 15, 0, 0, 0, time.UTC)
	f.finalizer.now = func() time.Time { return finalizedAt }

	ok, err := f.finalizer.Finalize(f.owner, roster.ID)
	if err != nil || !ok {
		t.Fatalf("finalize = %v, %v", ok, err)
	}

	saved, err := f.rosters.GetByID(roster.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !saved.IsFinalized() || saved.FinalizedByID == nil || *saved.FinalizedByID != f.owner.ID {
		t.Errorf("roster = %+v", saved)
	}
	if saved.FinalizedAt == nil || !saved.FinalizedAt.Equal(finalizedAt) {
		t.Errorf("finalized at = %v, want %v", saved.FinalizedAt, finalizedAt)
	}

	jobs := f.pendingJobs(t)
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want one per assigned staff member", len(jobs))
	}
	for _, job := range jobs {
		if job.Template != models.NotificationShiftsAssigned {
			t.Errorf("template = %q", job.Template)
		}
		var payload ShiftsAssignedPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			t.Fatal(err)
		}
		switch job.RecipientID {
		case sam.ID:
			if len(payload.Shifts) != 2 || !payload.TotalHours.Equal(dec("12")) || !payload.TotalWages.Equal(dec("300")) {
				t.Errorf("sam payload = %+v", payload)
			}
		case alex.ID:
			if len(payload.Shifts) != 1 || !payload.TotalHours.Equal(dec("6")) || !payload.Shifts[0].WageCost.Equal(dec("150")) {
				t.Errorf("alex payload = %+v", payload)
			}
		default:
			t.Errorf("unexpected recipient %d", job.RecipientID)
		}
	}
}

func TestFinalizeTwiceLeavesRosterUnchanged(t *testing.T) {
	f := newFixture(t)
	roster := f.roster(t)
	manager := &models.User{Name: "Mia", Email: "mia@example.com", Role: models.RoleManager}
	if err := f.userSvc.CreateStaff(f.owner, manager); err != nil {
		t.Fatal(err)
	}

	first := time.Date(2026, 2, 27, 15, 0, 0, 0, time.UTC)
	f.finalizer.now = func() time.Time { return first }
	if ok, err := f.finalizer.Finalize(f.owner, roster.ID); err != nil || !ok {
		t.Fatalf("first finalize = %v, %v", ok, err)
	}

	f.finalizer.now = func() time.Time { return first.Add(time.Hour) }
	ok, err := f.finalizer.Finalize(manager, roster.ID)
	if err != nil {
		t.Fatalf("second finalize: %v", err)
	}
	if ok {
		t.Error("second finalize reported a change")
	}

	saved, err := f.rosters.GetByID(roster.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !saved.FinalizedAt.Equal(first) || *saved.FinalizedByID != f.owner.ID {
		t.Errorf("finalized_at = %v by %d, want %v by %d", saved.FinalizedAt, *saved.FinalizedByID, first, f.owner.ID)
	}
}

func TestFinalizeRejects(t *testing.T) {
	f := newFixture(t)
	roster := f.roster(t)
	sam := f.staff(t, "Sam", "25")

	if _, err := f.finalizer.Finalize(sam, roster.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("staff: err = %v, want ErrForbidden", err)
	}
	if _, err := f.finalizer.Finalize(f.owner, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown roster: err = %v, want ErrNotFound", err)
	}
}

func TestEditingPublishedShiftNotifiesStaff(t *testing.T) {
	f := newFixture(t)
	roster := f.roster(t)
	sam := f.staff(t, "Sam", "25")

	shift := datedShift(sam, 0, "09:00", "17:00")
	if err := f.rosterSvc.CreateShift(f.owner, roster.ID, shift); err != nil {
		t.Fatal(err)
	}

	// Draft edits are silent.
	draftEdit := datedShift(sam, 0, "09:00", "16:00")
	draftEdit.ID = shift.ID
	if err := f.rosterSvc.UpdateShift(f.owner, draftEdit); err != nil {
		t.Fatal(err)
	}
	if n := len(f.pendingJobs(t)); n != 0 {
		t.Fatalf("draft edit queued %d jobs", n)
	}

	if _, err := f.finalizer.Finalize(f.owner, roster.ID); err != nil {
		t.Fatal(err)
	}

	published := datedShift(sam, 0, "10:00", "16:00")
	published.ID = shift.ID
	if err := f.rosterSvc.UpdateShift(f.owner, published); err != nil {
		t.Fatal(err)
	}

	var changed []*models.NotificationJob
	for _, job := range f.pendingJobs(t) {
		if job.Template == models.NotificationShiftChanged {
			changed = append(changed, job)
		}
	}
	if len(changed) != 1 {
		t.Fatalf("got %d shift-changed jobs, want 1", len(changed))
	}

	var payload ShiftChangedPayload
	if err := json.Unmarshal(changed[0].Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if !payload.Previous.StartTime.Equal(at(0, "09:00")) || !payload.Current.StartTime.Equal(at(0, "10:00")) {
		t.Errorf("payload = %+v", payload)
	}
}

func TestDispatcherRetries(t *testing.T) {
	f := newFixture(t)
	roster := f.roster(t)
	sam := f.staff(t, "Sam", "25")
	if err := f.rosterSvc.CreateShift(f.owner, roster.ID, datedShift(sam, 0, "09:00", "17:00")); err != nil {
		t.Fatal(err)
	}
	if _, err := f.finalizer.Finalize(f.owner, roster.ID); err != nil {
		t.Fatal(err)
	}

	deliverer := &recordingDeliverer{failures: 2}
	dispatcher := NewDispatcher(f.jobs, f.users, deliverer, time.UTC)
	ctx := context.Background()

	for attempt := 1; attempt <= 2; attempt++ {
		sent, failed, err := dispatcher.RunOnce(ctx)
		if err != nil || sent != 0 || failed != 1 {
			t.Fatalf("attempt %d: sent=%d failed=%d err=%v", attempt, sent, failed, err)
		}
	}

	jobs := f.pendingJobs(t)
	if len(jobs) != 1 || jobs[0].Attempts != 2 || jobs[0].LastError == "" {
		t.Fatalf("pending jobs = %+v", jobs)
	}

	sent, failed, err := dispatcher.RunOnce(ctx)
	if err != nil || sent != 1 || failed != 0 {
		t.Fatalf("third run: sent=%d failed=%d err=%v", sent, failed, err)
	}
	if len(deliverer.messages) != 1 || !strings.HasPrefix(deliverer.messages[0], "Sam: ") {
		t.Errorf("messages = %v", deliverer.messages)
	}
	if n := len(f.pendingJobs(t)); n != 0 {
		t.Errorf("%d jobs still pending", n)
	}
}

func TestDispatcherGivesUp(t *testing.T) {
	f := newFixture(t)
	sam := f.staff(t, "Sam", "25")
	if _, err := f.notifications.Enqueue(models.NotificationShiftsAssigned, sam.ID, ShiftsAssignedPayload{RosterName: "Week 10"}); err != nil {
		t.Fatal(err)
	}

	deliverer := &recordingDeliverer{failures: 100}
	dispatcher := NewDispatcher(f.jobs, f.users, deliverer, time.UTC)

	for i := 0; i < DefaultMaxAttempts+2; i++ {
		if _, _, err := dispatcher.RunOnce(context.Background()); err != nil {
			t.Fatal(err)
		}
	}

	failed, err := f.jobs.CountByStatus(models.JobFailed)
	if err != nil {
		t.Fatal(err)
	}
	if failed != 1 {
		t.Errorf("failed jobs = %d, want 1", failed)
	}
	if deliverer.failures != 100-DefaultMaxAttempts {
		t.Errorf("delivered %d times, want %d", 100-deliverer.failures, DefaultMaxAttempts)
	}
}
