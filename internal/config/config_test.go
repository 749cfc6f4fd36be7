package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadRequiresAppSecret(t *testing.T) {
	t.Setenv("APP_SECRET", "")
	os.Unsetenv("APP_SECRET")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without APP_SECRET")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_SECRET", "s3cret")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("STRICT_TEMPLATE_OVERLAP", "true")
	t.Setenv("FAIRWORK_TIMEOUT_SECONDS", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DatabaseDriver != "sqlite" {
		t.Errorf("driver = %q", cfg.DatabaseDriver)
	}
	if !cfg.StrictTemplateOverlap {
		t.Error("expected strict overlap from env")
	}
	if cfg.FairWorkTimeout != 3*time.Second {
		t.Errorf("timeout = %v", cfg.FairWorkTimeout)
	}
	if cfg.Budget != DefaultBudget() {
		t.Errorf("budget = %+v", cfg.Budget)
	}
}

func TestLoadBudgetDefaultsKeepsMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.toml")
	if err := os.WriteFile(path, []byte("default_hourly_rate = 31.5\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	budget, err := LoadBudgetDefaults(path)
	if err != nil {
		t.Fatal(err)
	}
	if budget.HourlyRate != 31.5 {
		t.Errorf("hourly rate = %v", budget.HourlyRate)
	}
	if budget.WagePercentage != 15 || budget.MaxShiftHours != 10 {
		t.Errorf("missing keys lost their defaults: %+v", budget)
	}
}
