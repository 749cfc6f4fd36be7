package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"rosterassist/internal/app"
	"rosterassist/internal/bot"
	"rosterassist/internal/config"
	"rosterassist/internal/handler"
	"rosterassist/internal/service"
	"rosterassist/pkg/telegram"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the Telegram bot and the background jobs",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	var client *telegram.Client

	s, err := open(func(cfg *config.Config, opts *app.Options) error {
		if cfg.TelegramToken == "" {
			logrus.Info("TELEGRAM_BOT_TOKEN not set, notifications go to the log")
			return nil
		}
		var err error
		client, err = telegram.NewClient(cfg.TelegramToken, cfg.LogLevel == logrus.DebugLevel)
		if err != nil {
			return err
		}
		logrus.Infof("Authorized on account %s", client.Bot.Self.UserName)
		opts.Deliverer = service.NewTelegramDeliverer(client, service.NewLogDeliverer())
		return nil
	})
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler, err := startJobs(ctx, s)
	if err != nil {
		return err
	}

	if client != nil {
		botHandler := bot.NewHandler(client, s.Users, s.Clock, s.cfg.Location)
		go botHandler.HandleUpdates(client.Updates())
	}

	server := handler.NewApp(handler.NewHandler(s.Container))
	go func() {
		if err := server.Listen(s.cfg.HTTPAddr); err != nil {
			logrus.WithError(err).Error("HTTP server stopped")
			stop()
		}
	}()

	logrus.Infof("Listening on %s. Press Ctrl+C to stop.", s.cfg.HTTPAddr)
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP server did not shut down cleanly")
	}
	<-scheduler.Stop().Done()
	if client != nil {
		client.Stop()
	}

	logrus.Info("Stopped gracefully")
	return nil
}

// startJobs schedules the notification dispatcher and the nightly award
// refresh. A run still in progress makes the next tick a no-op.
func startJobs(ctx context.Context, s *session) (*cron.Cron, error) {
	cronLogger := cron.VerbosePrintfLogger(logrus.StandardLogger())
	scheduler := cron.New(
		cron.WithLocation(s.cfg.Location),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	if _, err := scheduler.AddFunc(s.cfg.NotifySchedule, func() {
		sent, failed, err := s.Dispatcher.RunOnce(ctx)
		if err != nil {
			logrus.WithError(err).Error("Notification dispatch failed")
			return
		}
		if sent+failed > 0 {
			logrus.WithFields(logrus.Fields{"sent": sent, "failed": failed}).Info("Notifications dispatched")
		}
	}); err != nil {
		return nil, err
	}

	if _, err := scheduler.AddFunc(s.cfg.AwardRefreshSchedule, func() {
		refreshed, failed, err := s.Awards.RefreshAll(ctx)
		if err != nil {
			logrus.WithError(err).Error("Award refresh failed")
			return
		}
		logrus.WithFields(logrus.Fields{"refreshed": refreshed, "failed": failed}).Info("Award rates refreshed")
	}); err != nil {
		return nil, err
	}

	scheduler.Start()
	return scheduler, nil
}
