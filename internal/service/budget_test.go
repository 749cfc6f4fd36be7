package service

import (
	"testing"

	"rosterassist/internal/models"
	"rosterassist/pkg/shifttime"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) setOwnerFigures(t *testing.T, yearlySales, rate string, goal int) {
	t.Helper()
	f.owner.YearlySales = decimal.NewNullDecimal(dec(yearlySales))
	f.owner.HourlyRate = decimal.NewNullDecimal(dec(rate))
	f.owner.WagePercentageGoal = &goal
	if err := f.db.Save(f.owner).Error; err != nil {
		t.Fatalf("save owner: %v", err)
	}
}

func TestTemplateBudgetFromYearlySales(t *testing.T) {
	f := newFixture(t)
	f.setOwnerFigures(t, "2000000", "25", 14)
	template := f.template(t, "monday 09:00 14:00")

	report, err := f.budget().ForTemplate(f.owner, template.ID)
	if err != nil {
		t.Fatalf("budget: %v", err)
	}

	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"sales forecast", report.SalesForecast, "38461.54"},
		{"target percentage", report.TargetWagePercentage, "14"},
		{"total budget", report.TotalBudget, "5384.62"},
		{"total actual", report.TotalActualWageCost, "125"},
		{"total hours", report.TotalHours, "5"},
		{"monday budget", report.Days[0].Budget, "769.23"},
		{"monday variance", report.Days[0].Variance, "644.23"},
	}
	for _, c := range checks {
		if !c.got.Equal(dec(c.want)) {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}

	if report.IsCustomized {
		t.Error("template without a weekly forecast reported as customized")
	}
	if report.Days[0].Day != shifttime.Monday || report.Days[6].Day != shifttime.Sunday {
		t.Errorf("days not in Monday-first order: %v .. %v", report.Days[0].Day, report.Days[6].Day)
	}
	if len(report.Sections) != 1 || report.Sections[0].Name != "Morning" || !report.Sections[0].Cost.Equal(dec("125")) {
		t.Errorf("sections = %+v", report.Sections)
	}
}

func TestTemplateBudgetOverrides(t *testing.T) {
	f := newFixture(t)
	f.setOwnerFigures(t, "2000000", "25", 14)
	template := f.template(t, "tuesday 22:00 02:00")

	template.WeeklySalesForecast = decimal.NewNullDecimal(dec("10000"))
	template.WagePercentageOverride = decimal.NewNullDecimal(dec("20"))
	template.EstimatedHourlyRate = decimal.NewNullDecimal(dec("30"))
	template.DailyBudgetAllocations = datatypes.NewJSONType(models.DayAllocations{"tuesday": 500})
	if err := f.templateSvc.Update(f.owner, template); err != nil {
		t.Fatalf("update template: %v", err)
	}

	report, err := f.budget().ForTemplate(f.owner, template.ID)
	if err != nil {
		t.Fatalf("budget: %v", err)
	}

	if !report.SalesForecast.Equal(dec("10000")) || !report.TotalBudget.Equal(dec("2000")) {
		t.Errorf("sales = %s, budget = %s", report.SalesForecast, report.TotalBudget)
	}
	if !report.TotalActualWageCost.Equal(dec("120")) {
		t.Errorf("overnight 4h at 30 = %s, want 120", report.TotalActualWageCost)
	}
	tuesday := report.Days[shifttime.Tuesday.DisplayIndex()]
	if !tuesday.Manual || !tuesday.Budget.Equal(dec("500")) {
		t.Errorf("tuesday = %+v, want manual 500", tuesday)
	}
	if !report.IsCustomized {
		t.Error("template with a weekly forecast not reported as customized")
	}

	wageOnly := f.template(t, "monday 09:00 14:00")
	wageOnly.WagePercentageOverride = decimal.NewNullDecimal(dec("20"))
	if err := f.templateSvc.Update(f.owner, wageOnly); err != nil {
		t.Fatalf("update template: %v", err)
	}
	report, err = f.budget().ForTemplate(f.owner, wageOnly.ID)
	if err != nil {
		t.Fatalf("budget: %v", err)
	}
	if !report.TargetWagePercentage.Equal(dec("20")) || !report.SalesForecast.Equal(dec("38461.54")) {
		t.Errorf("target = %s, sales = %s", report.TargetWagePercentage, report.SalesForecast)
	}
	if !report.IsCustomized {
		t.Error("template with only a wage override not reported as customized")
	}
}

func TestWagePercentageIsWagesOverSales(t *testing.T) {
	got := WagePercentage(dec("125"), dec("1000"), 2)
	if !got.Valid || !got.Decimal.Equal(dec("12.5")) {
		t.Errorf("WagePercentage(125, 1000) = %v, want 12.5", got)
	}

	if WagePercentage(dec("125"), decimal.Zero, 2).Valid {
		t.Error("percentage with no sales should be undefined")
	}
}

func TestWeekWagePercentage(t *testing.T) {
	f := newFixture(t)
	f.setOwnerFigures(t, "0", "25", 14)
	f.roster(t)

	forecast := &models.SalesForecast{UserID: f.owner.ID, StartDate: monday, EndDate: monday.AddDate(0, 0, 6), ProjectedSales: dec("1000")}
	if err := f.forecasts.Create(forecast); err != nil {
		t.Fatal(err)
	}

	week, err := f.budget().WeekWagePercentage(f.owner, monday.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("week wages: %v", err)
	}

	if !week.WeekStart.Equal(monday) {
		t.Errorf("week start = %v, want %v", week.WeekStart, monday)
	}
	if !week.Sales.Equal(dec("1000")) || !week.Wages.Equal(dec("50")) {
		t.Errorf("sales = %s, wages = %s", week.Sales, week.Wages)
	}
	if !week.Percentage.Valid || !week.Percentage.Decimal.Equal(dec("5")) {
		t.Errorf("percentage = %v, want 5", week.Percentage)
	}
}

func TestDatedRosterBudgetHasDates(t *testing.T) {
	f := newFixture(t)
	roster := f.roster(t)

	report, err := f.budget().ForDatedRoster(f.owner, roster.ID)
	if err != nil {
		t.Fatalf("budget: %v", err)
	}
	for i, day := range report.Days {
		if day.Date == nil || !day.Date.Equal(monday.AddDate(0, 0, i)) {
			t.Errorf("day %d date = %v", i, day.Date)
		}
	}
	if !report.TotalActualWageCost.Equal(dec("50")) {
		t.Errorf("2h at default 25 = %s, want 50", report.TotalActualWageCost)
	}
}
