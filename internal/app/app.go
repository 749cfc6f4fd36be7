package app

import (
	"fmt"
	"strings"
	"time"

	"rosterassist/internal/config"
	"rosterassist/internal/repository"
	"rosterassist/internal/service"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenDatabase connects to sqlite or postgres. Constraint violations come
// back as gorm.ErrDuplicatedKey and friends.
func OpenDatabase(driver, dsn string) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Warn),
	}

	switch strings.ToLower(driver) {
	case "", "sqlite":
		db, err := gorm.Open(sqlite.Open(dsn), gormCfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
			logrus.Warnf("Failed to enable foreign keys: %v", err)
		}
		return db, nil
	case "postgres", "postgresql":
		return gorm.Open(postgres.Open(dsn), gormCfg)
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

type Options struct {
	Location              *time.Location
	AppSecret             string
	Budget                config.BudgetDefaults
	StrictTemplateOverlap bool
	Fetcher               service.RateFetcher
	Deliverer             service.Deliverer
}

// OptionsFromConfig maps the environment configuration onto Options.
// Fetcher and Deliverer are left for the caller.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Location:              cfg.Location,
		AppSecret:             cfg.AppSecret,
		Budget:                cfg.Budget,
		StrictTemplateOverlap: cfg.StrictTemplateOverlap,
	}
}

// Container holds every service the commands and the API use.
type Container struct {
	DB       *gorm.DB
	Location *time.Location

	Users         *service.UserService
	Clock         *service.ClockService
	Templates     *service.TemplateService
	Rosters       *service.RosterService
	Generator     *service.RosterGenerator
	Finalizer     *service.FinalizationService
	Budget        *service.BudgetCalculator
	WageReport    *service.WageReportGenerator
	Awards        *service.AwardService
	Forecasts     *service.SalesForecastService
	Notifications *service.NotificationService
	Dispatcher    *service.Dispatcher
}

// Build migrates the schema through the repository constructors and wires
// the services on top of them.
func Build(db *gorm.DB, opts Options) (*Container, error) {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Deliverer == nil {
		opts.Deliverer = service.NewLogDeliverer()
	}

	userRepo, err := repository.NewGormUserRepository(db)
	if err != nil {
		return nil, fmt.Errorf("user repository: %w", err)
	}
	sectionRepo, err := repository.NewGormWorkSectionRepository(db)
	if err != nil {
		return nil, fmt.Errorf("work section repository: %w", err)
	}
	templateRepo, err := repository.NewGormShiftTemplateRepository(db)
	if err != nil {
		return nil, fmt.Errorf("shift template repository: %w", err)
	}
	templateShiftRepo, err := repository.NewGormTemplateShiftRepository(db)
	if err != nil {
		return nil, fmt.Errorf("template shift repository: %w", err)
	}
	rosterRepo, err := repository.NewGormDatedRosterRepository(db)
	if err != nil {
		return nil, fmt.Errorf("dated roster repository: %w", err)
	}
	shiftRepo, err := repository.NewGormDatedShiftRepository(db)
	if err != nil {
		return nil, fmt.Errorf("dated shift repository: %w", err)
	}
	entryRepo, err := repository.NewGormTimeEntryRepository(db)
	if err != nil {
		return nil, fmt.Errorf("time entry repository: %w", err)
	}
	awardRepo, err := repository.NewGormAwardRateRepository(db)
	if err != nil {
		return nil, fmt.Errorf("award rate repository: %w", err)
	}
	forecastRepo, err := repository.NewGormSalesForecastRepository(db)
	if err != nil {
		return nil, fmt.Errorf("sales forecast repository: %w", err)
	}
	jobRepo, err := repository.NewGormNotificationJobRepository(db)
	if err != nil {
		return nil, fmt.Errorf("notification job repository: %w", err)
	}

	hasher, err := service.NewPinHasher(opts.AppSecret)
	if err != nil {
		return nil, err
	}

	tx := repository.NewGormTransactor(db)
	detector := service.NewConflictDetector(shiftRepo, templateShiftRepo)
	notifications := service.NewNotificationService(jobRepo)
	finalizer := service.NewFinalizationService(rosterRepo, shiftRepo, userRepo, tx, notifications)

	return &Container{
		DB:            db,
		Location:      opts.Location,
		Users:         service.NewUserService(userRepo),
		Clock:         service.NewClockService(userRepo, entryRepo, hasher, opts.Budget.MaxShiftHours),
		Templates:     service.NewTemplateService(templateRepo, templateShiftRepo, sectionRepo, detector, opts.StrictTemplateOverlap),
		Rosters:       service.NewRosterService(rosterRepo, shiftRepo, userRepo, sectionRepo, detector, tx, finalizer),
		Generator:     service.NewRosterGenerator(templateRepo, rosterRepo, shiftRepo, tx, opts.Location),
		Finalizer:     finalizer,
		Budget:        service.NewBudgetCalculator(templateRepo, rosterRepo, userRepo, forecastRepo, opts.Budget),
		WageReport:    service.NewWageReportGenerator(entryRepo, opts.Location),
		Awards:        service.NewAwardService(awardRepo, userRepo, opts.Fetcher),
		Forecasts:     service.NewSalesForecastService(forecastRepo),
		Notifications: notifications,
		Dispatcher:    service.NewDispatcher(jobRepo, userRepo, opts.Deliverer, opts.Location),
	}, nil
}
