package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/telebot.v3"

	"troubadour_scheduler/internal/app"
	"troubadour_scheduler/internal/domain/digest"
	"troubadour_scheduler/internal/domain/retention"
	"troubadour_scheduler/internal/domain/schedule"
	"troubadour_scheduler/internal/infra/config"
	idb "troubadour_scheduler/internal/infra/database"
	"troubadour_scheduler/internal/infra/discord"
	"troubadour_scheduler/internal/infra/email"
	"troubadour_scheduler/internal/infra/llm"
	"troubadour_scheduler/internal/infra/logger"
	"troubadour_scheduler/internal/infra/scheduler"
	"troubadour_scheduler/internal/infra/telegram"
)

func main() {
	fmt.Println("Troubadour scheduler starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg)
	mainLogger := logger.For("main")
	mainLogger.WithField("environment", cfg.Environment).Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	mainLogger.Info("Database connection established")

	recipientRepo := idb.NewPostgresRecipientRepository(db)
	metricsRepo := idb.NewPostgresMetricsRepository(db)
	notificationRepo := idb.NewPostgresNotificationRepository(db)
	auditRepo := idb.NewPostgresAuditRepository(db)

	// Optional collaborators stay nil interfaces when not configured.
	var generator digest.SummaryGenerator
	if cfg.LLMAPIKey != "" || cfg.LLMAPIBase != "" {
		generator = llm.NewSummaryGenerator(cfg.LLMAPIKey, cfg.LLMAPIBase, cfg.LLMModel)
	} else {
		mainLogger.Warn("LLM not configured, digests will use the templated summary")
	}

	var mailer digest.Mailer
	if cfg.SMTPHost != "" {
		smtpMailer, err := email.NewSMTPMailer(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
		if err != nil {
			mainLogger.WithError(err).Fatal("Invalid SMTP configuration")
		}
		mailer = smtpMailer
	} else {
		mainLogger.Warn("SMTP not configured, digests will be in-app only")
	}

	var chat retention.ChatAlerter
	if cfg.DiscordWebhookURL != "" {
		alerter, err := discord.NewWebhookAlerter(cfg.DiscordWebhookURL)
		if err != nil {
			mainLogger.WithError(err).Fatal("Invalid Discord webhook configuration")
		}
		chat = alerter
	}

	var (
		bot   *telebot.Bot
		owner retention.OwnerNotifier
	)
	if cfg.TelegramToken != "" {
		bot, err = telebot.NewBot(telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) {
				entry := logger.For("telebot").WithError(err)
				if c != nil && c.Sender() != nil {
					entry = entry.WithField("sender_id", c.Sender().ID)
				}
				entry.Error("Telegram handler error")
			},
		})
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not create Telegram bot")
		}
		owner = telegram.NewOwnerNotifier(telegram.NewTelebotAdapter(bot), cfg.OwnerTelegramID)
	} else {
		mainLogger.Warn("Telegram not configured, owner alerts and admin commands are disabled")
	}

	guard := schedule.NewGuard()
	digestService := app.NewDigestService(
		recipientRepo,
		metricsRepo,
		generator,
		notificationRepo,
		mailer,
		auditRepo,
		guard,
		app.DigestConfig{
			CallTimeout:       cfg.CallTimeout,
			SummaryRatePerSec: cfg.SummaryRatePerSec,
			DashboardLink:     cfg.AppBaseURL + "/dashboard",
		},
		logger.For("digest"),
	)
	churnMonitor := app.NewChurnMonitor(
		metricsRepo,
		owner,
		chat,
		auditRepo,
		retention.NewThreshold(cfg.ChurnThreshold),
		cfg.CallTimeout,
		logger.For("churn"),
	)

	digestScheduler, err := scheduler.NewDigestScheduler(digestService, guard,
		scheduler.DigestDefinition(cfg.DigestWeekday, cfg.DigestHourUTC, cfg.PollInterval),
		logger.For("scheduler"), scheduler.WithContext(ctx))
	if err != nil {
		mainLogger.WithError(err).Fatal("Invalid digest schedule")
	}
	churnScheduler, err := scheduler.NewChurnScheduler(churnMonitor,
		scheduler.ChurnDefinition(cfg.ChurnAlertHourUTC, cfg.PollInterval),
		logger.For("scheduler"), scheduler.WithContext(ctx))
	if err != nil {
		mainLogger.WithError(err).Fatal("Invalid churn schedule")
	}

	digestScheduler.Start()
	churnScheduler.Start()

	if bot != nil {
		adminService := app.NewAdminService(digestScheduler, churnScheduler, churnMonitor, auditRepo, cfg.OwnerTelegramID, logger.For("admin"))
		telegram.RegisterBotCommands(bot, cfg.OwnerTelegramID, logger.For("telegram"))
		// Commands still running at shutdown finish their work.
		telegram.RegisterAdminHandlers(context.WithoutCancel(ctx), bot, adminService, cfg.OwnerTelegramID, logger.For("telegram"))
		go bot.Start()
		mainLogger.Info("Telegram admin bot started")
	}

	mainLogger.Info("Application setup complete")
	<-ctx.Done()

	mainLogger.Info("Shutting down application...")
	if bot != nil {
		bot.Stop()
	}
	digestScheduler.Stop()
	churnScheduler.Stop()
	mainLogger.Info("Application shut down gracefully")
}
