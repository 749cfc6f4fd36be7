package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"rosterassist/internal/models"
	"rosterassist/pkg/fairwork"
)

func (f *fixture) awardRate(t *testing.T, svc *AwardService, user *models.User, code, rate string) *models.AwardRate {
	t.Helper()
	effective := monday
	r := &models.AwardRate{
		AwardCode:      code,
		Classification: "Level 1",
		Rate:           dec(rate),
		EffectiveDate:  &effective,
	}
	if user != nil {
		r.UserID = &user.ID
	}
	if err := svc.Create(f.owner, r); err != nil {
		t.Fatalf("create award rate: %v", err)
	}
	return r
}

func TestRefreshAllSkipsFailures(t *testing.T) {
	f := newFixture(t)
	sam := f.staff(t, "Sam", "25")
	alex := f.staff(t, "Alex", "25")

	fetcher := &mockFetcher{FetchFunc: func(ctx context.Context, code string) (*fairwork.Rate, error) {
		if code == "MA000009" {
			return nil, fairwork.ErrAwardNotFound
		}
		return &fairwork.Rate{AwardCode: code, Rate: dec("26.73")}, nil
	}}
	svc := NewAwardService(f.awards, f.users, fetcher)
	svc.now = func() time.Time { return time.Date(2026, 7, 1, 3, 0, 0, 0, time.UTC) }

	samRate := f.awardRate(t, svc, sam, "MA000004", "24.10")
	f.awardRate(t, svc, alex, "MA000009", "23.00")
	shared := f.awardRate(t, svc, nil, "MA000004", "24.10")

	refreshed, failed, err := svc.RefreshAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if refreshed != 1 || failed != 1 {
		t.Errorf("refreshed=%d failed=%d, want 1 and 1", refreshed, failed)
	}
	if len(fetcher.calls) != 2 {
		t.Errorf("fetcher called %d times, want 2 (shared rates are not refreshed)", len(fetcher.calls))
	}

	saved, err := f.awards.GetByID(samRate.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !saved.Rate.Equal(dec("26.73")) {
		t.Errorf("sam rate = %s, want 26.73", saved.Rate)
	}
	if saved.EffectiveDate == nil || !saved.EffectiveDate.Equal(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("effective date = %v", saved.EffectiveDate)
	}

	untouched, err := f.awards.GetByID(shared.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !untouched.Rate.Equal(dec("24.10")) {
		t.Errorf("shared rate changed to %s", untouched.Rate)
	}
}

func TestRefreshStaff(t *testing.T) {
	f := newFixture(t)
	sam := f.staff(t, "Sam", "25")

	fetcher := &mockFetcher{FetchFunc: func(ctx context.Context, code string) (*fairwork.Rate, error) {
		return &fairwork.Rate{AwardCode: code, Rate: dec("28.00")}, nil
	}}
	svc := NewAwardService(f.awards, f.users, fetcher)

	rate, err := svc.RefreshStaff(context.Background(), f.owner, sam.ID, " MA000004 ", "Level 2")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rate.ID == 0 || rate.UserID == nil || *rate.UserID != sam.ID || rate.AwardCode != "MA000004" {
		t.Errorf("rate = %+v", rate)
	}

	if _, err := svc.RefreshStaff(context.Background(), sam, sam.ID, "MA000004", "Level 2"); !errors.Is(err, ErrForbidden) {
		t.Errorf("staff refreshing: err = %v, want ErrForbidden", err)
	}

	offline := NewAwardService(f.awards, f.users, nil)
	if _, err := offline.RefreshStaff(context.Background(), f.owner, sam.ID, "MA000004", "Level 2"); !errors.Is(err, ErrNoRateSource) {
		t.Errorf("no fetcher: err = %v, want ErrNoRateSource", err)
	}
}

func TestCreateAwardRateValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewAwardService(f.awards, f.users, nil)

	err := svc.Create(f.owner, &models.AwardRate{AwardCode: "M", Rate: dec("0")})
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	for _, field := range []string{"award_code", "classification", "rate", "effective_date"} {
		if _, ok := validation.Fields[field]; !ok {
			t.Errorf("missing error for %s", field)
		}
	}
}
