package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"rosterassist/internal/config"
	"rosterassist/internal/models"
	"rosterassist/internal/repository"
	"rosterassist/pkg/fairwork"
	"rosterassist/pkg/shifttime"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// monday is the week every fixture roster is generated for.
var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

type fixture struct {
	db *gorm.DB

	users     *repository.GormUserRepository
	sections  *repository.GormWorkSectionRepository
	templates *repository.GormShiftTemplateRepository
	tshifts   *repository.GormTemplateShiftRepository
	rosters   *repository.GormDatedRosterRepository
	shifts    *repository.GormDatedShiftRepository
	entries   *repository.GormTimeEntryRepository
	awards    *repository.GormAwardRateRepository
	forecasts *repository.GormSalesForecastRepository
	jobs      *repository.GormNotificationJobRepository
	tx        *repository.GormTransactor

	detector      *ConflictDetector
	notifications *NotificationService
	finalizer     *FinalizationService
	rosterSvc     *RosterService
	templateSvc   *TemplateService
	generator     *RosterGenerator
	userSvc       *UserService

	owner *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	f := &fixture{db: db, tx: repository.NewGormTransactor(db)}
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("create repository: %v", err)
		}
	}

	f.users, err = repository.NewGormUserRepository(db)
	must(err)
	f.sections, err = repository.NewGormWorkSectionRepository(db)
	must(err)
	f.templates, err = repository.NewGormShiftTemplateRepository(db)
	must(err)
	f.tshifts, err = repository.NewGormTemplateShiftRepository(db)
	must(err)
	f.rosters, err = repository.NewGormDatedRosterRepository(db)
	must(err)
	f.shifts, err = repository.NewGormDatedShiftRepository(db)
	must(err)
	f.entries, err = repository.NewGormTimeEntryRepository(db)
	must(err)
	f.awards, err = repository.NewGormAwardRateRepository(db)
	must(err)
	f.forecasts, err = repository.NewGormSalesForecastRepository(db)
	must(err)
	f.jobs, err = repository.NewGormNotificationJobRepository(db)
	must(err)

	f.detector = NewConflictDetector(f.shifts, f.tshifts)
	f.notifications = NewNotificationService(f.jobs)
	f.finalizer = NewFinalizationService(f.rosters, f.shifts, f.users, f.tx, f.notifications)
	f.rosterSvc = NewRosterService(f.rosters, f.shifts, f.users, f.sections, f.detector, f.tx, f.finalizer)
	f.templateSvc = NewTemplateService(f.templates, f.tshifts, f.sections, f.detector, false)
	f.generator = NewRosterGenerator(f.templates, f.rosters, f.shifts, f.tx, time.UTC)
	f.userSvc = NewUserService(f.users)

	f.owner, err = f.userSvc.EnsureOwner("Olive Owner", "owner@example.com")
	if err != nil {
		t.Fatalf("create owner: %v", err)
	}
	return f
}

func (f *fixture) budget() *BudgetCalculator {
	return NewBudgetCalculator(f.templates, f.rosters, f.users, f.forecasts, config.DefaultBudget())
}

func (f *fixture) staff(t *testing.T, name string, rate string) *models.User {
	t.Helper()
	user := &models.User{
		Name:  name,
		Email: strings.ToLower(name) + "@example.com",
	}
	if rate != "" {
		user.HourlyRate = decimal.NewNullDecimal(decimal.RequireFromString(rate))
	}
	if err := f.userSvc.CreateStaff(f.owner, user); err != nil {
		t.Fatalf("create staff %s: %v", name, err)
	}
	return user
}

func shiftType(st models.ShiftType) *models.ShiftType {
	return &st
}

// template creates a template with one slot per "day start end" entry,
// e.g. "wednesday 18:00 02:00".
func (f *fixture) template(t *testing.T, slots ...string) *models.ShiftTemplate {
	t.Helper()
	template := &models.ShiftTemplate{Name: "Standard week", SlotIntervalMinutes: 30}
	if err := f.templateSvc.Create(f.owner, template); err != nil {
		t.Fatalf("create template: %v", err)
	}
	for _, slot := range slots {
		parts := strings.Fields(slot)
		day, err := shifttime.ParseWeekday(parts[0])
		if err != nil {
			t.Fatal(err)
		}
		shift := &models.TemplateShift{
			DayOfWeek: day,
			StartTime: shifttime.MustTimeOfDay(parts[1]),
			EndTime:   shifttime.MustTimeOfDay(parts[2]),
			ShiftType: shiftType(models.ShiftMorning),
		}
		if err := f.templateSvc.AddShift(f.owner, template.ID, shift); err != nil {
			t.Fatalf("add template shift %q: %v", slot, err)
		}
	}
	return template
}

// roster generates the fixture week of a fresh template with a single
// Monday slot.
func (f *fixture) roster(t *testing.T) *models.DatedRoster {
	t.Helper()
	template := f.template(t, "monday 06:00 08:00")
	roster, err := f.generator.GenerateForOwner(f.owner, template.ID, monday)
	if err != nil {
		t.Fatalf("generate roster: %v", err)
	}
	return roster
}

// at returns the fixture Monday plus days at hh:mm UTC.
func at(days int, hhmm string) time.Time {
	tod := shifttime.MustTimeOfDay(hhmm)
	return monday.AddDate(0, 0, days).Add(time.Duration(tod.MinutesOfDay()) * time.Minute)
}

func datedShift(staff *models.User, days int, start, end string) *models.DatedShift {
	s := &models.DatedShift{
		DayOfWeek: shifttime.WeekdayOf(at(days, start)),
		StartTime: at(days, start),
		EndTime:   at(days, end),
		ShiftType: shiftType(models.ShiftMorning),
	}
	if staff != nil {
		id := staff.ID
		s.UserID = &id
	}
	return s
}

type mockFetcher struct {
	FetchFunc func(ctx context.Context, awardCode string) (*fairwork.Rate, error)
	calls     []string
}

func (m *mockFetcher) FetchAwardRate(ctx context.Context, awardCode string) (*fairwork.Rate, error) {
	m.calls = append(m.calls, awardCode)
	return m.FetchFunc(ctx, awardCode)
}

type recordingDeliverer struct {
	failures int
	messages []string
}

func (d *recordingDeliverer) Deliver(ctx context.Context, recipient *models.User, subject, body string) error {
	if d.failures > 0 {
		d.failures--
		return fmt.Errorf("smtp unavailable")
	}
	d.messages = append(d.messages, recipient.Name+": "+subject)
	return nil
}
