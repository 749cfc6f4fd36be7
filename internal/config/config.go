package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	DatabaseDriver string
	DatabaseURL    string
	HTTPAddr       string
	AppSecret      string
	Location       *time.Location
	LogLevel       logrus.Level

	TelegramToken string

	FairWorkBaseURL string
	FairWorkTimeout time.Duration

	NotifySchedule       string
	AwardRefreshSchedule string

	StrictTemplateOverlap bool

	Budget BudgetDefaults
}

// BudgetDefaults are the fallbacks used when neither the template nor the
// owner carries a figure. Overridable from a TOML file.
type BudgetDefaults struct {
	HourlyRate     float64 `toml:"default_hourly_rate"`
	WagePercentage float64 `toml:"default_wage_percentage"`
	DailyWageGoal  float64 `toml:"default_daily_wage_goal"`
	MaxShiftHours  float64 `toml:"max_shift_hours"`
}

func DefaultBudget() BudgetDefaults {
	return BudgetDefaults{
		HourlyRate:     25.0,
		WagePercentage: 15,
		DailyWageGoal:  14,
		MaxShiftHours:  10,
	}
}

var instance *Config
var once sync.Once

func Get() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			logrus.Warnf("no .env file loaded: %s", err.Error())
		}

		cfg, err := Load()
		if err != nil {
			logrus.Fatalf("error loading config: %s", err.Error())
		}
		instance = cfg
	})

	return instance
}

// Load reads the configuration from the environment without caching it.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.DatabaseDriver = getEnv("DATABASE_DRIVER", "sqlite")
	cfg.DatabaseURL = getEnv("DATABASE_URL", "rosterassist.db")
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	cfg.AppSecret = getEnv("APP_SECRET", "")
	if cfg.AppSecret == "" {
		return nil, errMissing("APP_SECRET")
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Australia/Sydney"))
	if err != nil {
		return nil, err
	}
	cfg.Location = loc

	cfg.LogLevel = logrus.InfoLevel
	if lvl, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		cfg.LogLevel = lvl
	}

	cfg.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", "")

	cfg.FairWorkBaseURL = getEnv("FAIRWORK_BASE_URL", "https://api.fairwork.gov.au")
	cfg.FairWorkTimeout = time.Duration(getEnvAsInt("FAIRWORK_TIMEOUT_SECONDS", 10)) * time.Second

	cfg.NotifySchedule = getEnv("NOTIFY_SCHEDULE", "@every 30s")
	cfg.AwardRefreshSchedule = getEnv("AWARD_REFRESH_SCHEDULE", "0 3 * * *")

	cfg.StrictTemplateOverlap = getEnvAsBool("STRICT_TEMPLATE_OVERLAP", false)

	cfg.Budget = DefaultBudget()
	if path := getEnv("BUDGET_DEFAULTS_FILE", ""); path != "" {
		budget, err := LoadBudgetDefaults(path)
		if err != nil {
			return nil, err
		}
		cfg.Budget = budget
	}

	return cfg, nil
}

// LoadBudgetDefaults decodes a TOML file on top of DefaultBudget, so keys
// missing from the file keep their defaults.
func LoadBudgetDefaults(path string) (BudgetDefaults, error) {
	budget := DefaultBudget()
	if _, err := toml.DecodeFile(path, &budget); err != nil {
		return BudgetDefaults{}, err
	}
	return budget, nil
}

type missingEnvError string

func (e missingEnvError) Error() string {
	return "required environment variable " + string(e) + " is not set"
}

func errMissing(key string) error {
	return missingEnvError(key)
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int64) int64 {
	valStr := getEnv(name, "")
	if val, err := strconv.Atoi(valStr); err == nil {
		return int64(val)
	}

	return defaultVal
}
