package main

import (
	"fmt"
	"os"
	"time"

	"rosterassist/internal/app"
	"rosterassist/internal/config"
	"rosterassist/internal/models"
	"rosterassist/pkg/fairwork"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rosterassist",
	Short: "Rostering, time clock and wage budgeting for small businesses",
	Long: `rosterassist serves the rostering API and the Telegram clock bot, and
runs one-off roster and payroll jobs from the command line.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ownerCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(finalizeCmd)
	rootCmd.AddCommand(wageReportCmd)
	rootCmd.AddCommand(refreshAwardsCmd)
	rootCmd.AddCommand(dispatchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// session is an opened database with every service wired on top of it.
type session struct {
	cfg *config.Config
	*app.Container
}

func (s *session) Close() {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logrus.Infof("Error closing database: %v", err)
	}
}

// open loads the configuration and wires the services. tune may adjust the
// options before the container is built.
func open(tune func(cfg *config.Config, opts *app.Options) error) (*session, error) {
	cfg := config.Get()
	logrus.SetLevel(cfg.LogLevel)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	db, err := app.OpenDatabase(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	opts := app.OptionsFromConfig(cfg)
	opts.Fetcher = fairwork.NewClient(cfg.FairWorkBaseURL, cfg.FairWorkTimeout)
	if tune != nil {
		if err := tune(cfg, &opts); err != nil {
			return nil, err
		}
	}

	c, err := app.Build(db, opts)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, Container: c}, nil
}

// actor resolves the --as flag to the user the command acts for.
func (s *session) actor(cmd *cobra.Command) (*models.User, error) {
	id, _ := cmd.Flags().GetUint("as")
	if id == 0 {
		return nil, fmt.Errorf("--as is required")
	}
	user, err := s.Users.Lookup(id)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", id, err)
	}
	return user, nil
}

func (s *session) parseDate(value, flag string) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", value, s.cfg.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD", flag)
	}
	return d, nil
}
