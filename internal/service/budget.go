package service

import (
	"fmt"
	"time"

	"rosterassist/internal/config"
	"rosterassist/internal/models"
	"rosterassist/internal/repository"
	"rosterassist/pkg/shifttime"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	hundred   = decimal.NewFromInt(100)
	seven     = decimal.NewFromInt(7)
	weeksYear = decimal.NewFromInt(52)
)

type DayBreakdown struct {
	Day        shifttime.Weekday `json:"day"`
	Date       *time.Time        `json:"date,omitempty"`
	ShiftCount int               `json:"shifts_count"`
	Hours      decimal.Decimal   `json:"hours"`
	Cost       decimal.Decimal   `json:"cost"`
	Budget     decimal.Decimal   `json:"budget"`
	Variance   decimal.Decimal   `json:"variance"`
	Manual     bool              `json:"manual_budget"`
}

type SectionBreakdown struct {
	Name       string          `json:"name"`
	ShiftCount int             `json:"shifts_count"`
	Hours      decimal.Decimal `json:"hours"`
	Cost       decimal.Decimal `json:"cost"`
}

type BudgetReport struct {
	SalesForecast        decimal.Decimal     `json:"sales_forecast"`
	TargetWagePercentage decimal.Decimal     `json:"target_wage_percentage"`
	TotalBudget          decimal.Decimal     `json:"total_budget"`
	TotalActualWageCost  decimal.Decimal     `json:"total_actual"`
	TotalVariance        decimal.Decimal     `json:"total_variance"`
	TotalHours           decimal.Decimal     `json:"total_hours"`
	AverageHourlyRate    decimal.Decimal     `json:"average_hourly_rate"`
	WagePercentage       decimal.NullDecimal `json:"wage_percentage"`
	IsCustomized         bool                `json:"is_customized"`
	Days                 []DayBreakdown      `json:"daily_breakdown"`
	Sections             []SectionBreakdown  `json:"section_breakdown"`
}

// WeekWages is the calendar view of one week: forecast sales against the
// wage cost of every dated roster the owner has for that week.
type WeekWages struct {
	WeekStart  time.Time           `json:"week_start"`
	WeekEnd    time.Time           `json:"week_end"`
	Sales      decimal.Decimal     `json:"sales"`
	Wages      decimal.Decimal     `json:"wages"`
	Percentage decimal.NullDecimal `json:"percentage"`
}

// budgetShift is the common view of template and dated shifts.
type budgetShift struct {
	day      shifttime.Weekday
	duration time.Duration
	label    string
}

type BudgetCalculator struct {
	templates repository.ShiftTemplateRepository
	rosters   repository.DatedRosterRepository
	users     repository.UserRepository
	forecasts repository.SalesForecastRepository
	defaults  config.BudgetDefaults
	logger    *logrus.Logger
}

func NewBudgetCalculator(
	templates repository.ShiftTemplateRepository,
	rosters repository.DatedRosterRepository,
	users repository.UserRepository,
	forecasts repository.SalesForecastRepository,
	defaults config.BudgetDefaults,
) *BudgetCalculator {
	return &BudgetCalculator{
		templates: templates,
		rosters:   rosters,
		users:     users,
		forecasts: forecasts,
		defaults:  defaults,
		logger:    newLogger(),
	}
}

// ForTemplate loads one of the actor's templates and calculates its budget.
func (c *BudgetCalculator) ForTemplate(actor *models.User, templateID uint) (*BudgetReport, error) {
	if actor == nil {
		return nil, ErrArgumentRequired
	}

	template, err := c.templates.GetWithShifts(templateID)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	if template == nil || template.UserID != actor.TenantID() {
		return nil, ErrNotFound
	}

	return c.CalculateTemplate(template)
}

// ForDatedRoster calculates the budget of a generated week. Sales and wage
// overrides come from the template it was generated from, when it still exists.
func (c *BudgetCalculator) ForDatedRoster(actor *models.User, rosterID uint) (*BudgetReport, error) {
	if actor == nil {
		return nil, ErrArgumentRequired
	}

	roster, err := c.rosters.GetWithShifts(rosterID)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	if roster == nil || roster.UserID != actor.TenantID() {
		return nil, ErrNotFound
	}

	owner, err := c.users.GetByID(roster.UserID)
	if err != nil {
		return nil, fmt.Errorf("load owner: %w", err)
	}
	if owner == nil {
		return nil, ErrNotFound
	}

	var template *models.ShiftTemplate
	if roster.ShiftTemplateID != nil {
		if template, err = c.templates.GetByID(*roster.ShiftTemplateID); err != nil {
			return nil, fmt.Errorf("load template: %w", err)
		}
	}

	return c.CalculateDated(roster, template, owner)
}

// CalculateTemplate needs the template's User and Shifts (with sections) loaded.
func (c *BudgetCalculator) CalculateTemplate(template *models.ShiftTemplate) (*BudgetReport, error) {
	if template == nil {
		return nil, ErrArgumentRequired
	}

	shifts := make([]budgetShift, 0, len(template.Shifts))
	for i := range template.Shifts {
		s := &template.Shifts[i]
		shifts = append(shifts, budgetShift{day: s.DayOfWeek, duration: s.Duration(), label: s.SectionLabel()})
	}

	report := c.calculate(template, &template.User, shifts)

	c.logger.WithFields(logrus.Fields{
		"shift_template_id": template.ID,
		"sales_forecast":    report.SalesForecast.String(),
		"total_actual":      report.TotalActualWageCost.String(),
	}).Debug("Template budget calculated")

	return report, nil
}

// CalculateDated works on a dated roster with Shifts loaded. template may be nil.
func (c *BudgetCalculator) CalculateDated(roster *models.DatedRoster, template *models.ShiftTemplate, owner *models.User) (*BudgetReport, error) {
	if roster == nil || owner == nil {
		return nil, ErrArgumentRequired
	}

	shifts := make([]budgetShift, 0, len(roster.Shifts))
	for i := range roster.Shifts {
		s := &roster.Shifts[i]
		shifts = append(shifts, budgetShift{day: s.DayOfWeek, duration: s.Duration(), label: s.SectionLabel()})
	}

	report := c.calculate(template, owner, shifts)
	for i := range report.Days {
		date := shifttime.DateFor(report.Days[i].Day, roster.WeekStartDate)
		report.Days[i].Date = &date
	}

	c.logger.WithFields(logrus.Fields{
		"dated_roster_id": roster.ID,
		"sales_forecast":  report.SalesForecast.String(),
		"total_actual":    report.TotalActualWageCost.String(),
	}).Debug("Dated roster budget calculated")

	return report, nil
}

func (c *BudgetCalculator) calculate(template *models.ShiftTemplate, owner *models.User, shifts []budgetShift) *BudgetReport {
	rate := c.hourlyRate(template, owner)
	sales := c.salesAmount(template, owner)
	targetPct := c.targetPercentage(template, owner)
	dailyFallback := sales.Mul(c.dailyGoal(owner)).Div(hundred).Div(seven).Round(2)

	report := &BudgetReport{
		SalesForecast:        sales,
		TargetWagePercentage: targetPct,
		TotalBudget:          sales.Mul(targetPct).Div(hundred).Round(2),
		AverageHourlyRate:    rate,
		IsCustomized:         template != nil && template.IsCustomized(),
	}

	byDay := map[shifttime.Weekday][]budgetShift{}
	for _, s := range shifts {
		byDay[s.day] = append(byDay[s.day], s)
	}

	totalActual := decimal.Zero
	totalHours := decimal.Zero
	for _, day := range shifttime.MondayFirst {
		hours := sumHours(byDay[day])
		cost := hours.Mul(rate).Round(2)

		budget, manual := decimal.Zero, false
		if template != nil {
			if v, ok := template.Allocation(day); ok && v.IsPositive() {
				budget, manual = v, true
			}
		}
		if !manual {
			budget = dailyFallback
		}

		report.Days = append(report.Days, DayBreakdown{
			Day:        day,
			ShiftCount: len(byDay[day]),
			Hours:      hours.Round(1),
			Cost:       cost,
			Budget:     budget,
			Variance:   budget.Sub(cost),
			Manual:     manual,
		})
		totalActual = totalActual.Add(cost)
		totalHours = totalHours.Add(hours)
	}

	report.TotalActualWageCost = totalActual
	report.TotalHours = totalHours.Round(1)
	report.TotalVariance = report.TotalBudget.Sub(totalActual)
	report.WagePercentage = WagePercentage(totalActual, sales, 2)
	report.Sections = sections(shifts, rate)

	return report
}

// hourlyRate: template estimate, then the owner's rate, then the default.
func (c *BudgetCalculator) hourlyRate(template *models.ShiftTemplate, owner *models.User) decimal.Decimal {
	if template != nil && template.EstimatedHourlyRate.Valid {
		return template.EstimatedHourlyRate.Decimal
	}
	if owner != nil && owner.HourlyRate.Valid {
		return owner.HourlyRate.Decimal
	}
	return decimal.NewFromFloat(c.defaults.HourlyRate)
}

// salesAmount: positive template forecast, then a week of yearly sales, then zero.
func (c *BudgetCalculator) salesAmount(template *models.ShiftTemplate, owner *models.User) decimal.Decimal {
	if template != nil && template.WeeklySalesForecast.Valid && template.WeeklySalesForecast.Decimal.IsPositive() {
		return template.WeeklySalesForecast.Decimal
	}
	if owner != nil && owner.YearlySales.Valid {
		return owner.YearlySales.Decimal.Div(weeksYear).Round(2)
	}
	return decimal.Zero
}

// targetPercentage: template override, then the owner's goal, then the default.
func (c *BudgetCalculator) targetPercentage(template *models.ShiftTemplate, owner *models.User) decimal.Decimal {
	if template != nil && template.WagePercentageOverride.Valid {
		return template.WagePercentageOverride.Decimal
	}
	if owner != nil && owner.WagePercentageGoal != nil {
		return decimal.NewFromInt(int64(*owner.WagePercentageGoal))
	}
	return decimal.NewFromFloat(c.defaults.WagePercentage)
}

// dailyGoal is the percentage used to split sales evenly across the week
// when a day has no manual budget.
func (c *BudgetCalculator) dailyGoal(owner *models.User) decimal.Decimal {
	if owner != nil && owner.WagePercentageGoal != nil {
		return decimal.NewFromInt(int64(*owner.WagePercentageGoal))
	}
	return decimal.NewFromFloat(c.defaults.DailyWageGoal)
}

func sumHours(shifts []budgetShift) decimal.Decimal {
	var total time.Duration
	for _, s := range shifts {
		total += s.duration
	}
	return decimal.NewFromFloat(total.Hours())
}

// sections groups shifts by label in first-seen order.
func sections(shifts []budgetShift, rate decimal.Decimal) []SectionBreakdown {
	index := map[string]int{}
	var groups [][]budgetShift
	var names []string
	for _, s := range shifts {
		i, ok := index[s.label]
		if !ok {
			i = len(groups)
			index[s.label] = i
			groups = append(groups, nil)
			names = append(names, s.label)
		}
		groups[i] = append(groups[i], s)
	}

	out := make([]SectionBreakdown, 0, len(groups))
	for i, group := range groups {
		hours := sumHours(group)
		out = append(out, SectionBreakdown{
			Name:       names[i],
			ShiftCount: len(group),
			Hours:      hours.Round(1),
			Cost:       hours.Mul(rate).Round(2),
		})
	}
	return out
}

// WagePercentage is wages as a percentage of sales: wages / sales * 100.
// It is undefined when sales is zero.
func WagePercentage(wages, sales decimal.Decimal, places int32) decimal.NullDecimal {
	if !sales.IsPositive() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(wages.Div(sales).Mul(hundred).Round(places))
}

// WeekWagePercentage compares the forecast sales starting in the week with
// the wage cost of the owner's dated rosters for it, at the owner's rate.
func (c *BudgetCalculator) WeekWagePercentage(actor *models.User, weekStart time.Time) (*WeekWages, error) {
	if actor == nil || weekStart.IsZero() {
		return nil, ErrArgumentRequired
	}

	start := shifttime.StartOfWeek(weekStart)
	end := shifttime.WeekEnd(start)

	owner, err := c.users.GetByID(actor.TenantID())
	if err != nil {
		return nil, fmt.Errorf("load owner: %w", err)
	}
	if owner == nil {
		return nil, ErrNotFound
	}

	forecasts, err := c.forecasts.ListStartingBetween(owner.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load forecasts: %w", err)
	}
	sales := decimal.Zero
	for _, f := range forecasts {
		sales = sales.Add(f.ProjectedSales)
	}

	rosters, err := c.rosters.ListByOwnerAndWeek(owner.ID, start)
	if err != nil {
		return nil, fmt.Errorf("load rosters: %w", err)
	}
	var worked time.Duration
	for _, r := range rosters {
		for i := range r.Shifts {
			worked += r.Shifts[i].Duration()
		}
	}
	wages := decimal.NewFromFloat(worked.Hours()).Mul(owner.Rate()).Round(2)

	result := &WeekWages{WeekStart: start, WeekEnd: end, Sales: sales, Wages: wages}
	if wages.IsPositive() {
		result.Percentage = WagePercentage(wages, sales, 1)
	}
	return result, nil
}
