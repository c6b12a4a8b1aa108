package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"troubadour_scheduler/internal/app"
)

const msgUnauthorized = "Error: you are not allowed to run this command."

// RegisterAdminHandlers registers the owner's operational commands.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, adminService *app.AdminService, ownerTelegramID int64, baseLogger *logrus.Entry) {
	b.Handle("/status", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{"handler": "/status", "sender_id": c.Sender().ID})
		handlerLogger.Info("Command received")
		statuses, err := adminService.Status(c.Sender().ID)
		if err != nil {
			return replyError(c, handlerLogger, err, "Failed to read scheduler status")
		}
		return c.Send(formatStatus(statuses))
	})

	b.Handle("/force_digest", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{"handler": "/force_digest", "sender_id": c.Sender().ID})
		handlerLogger.Info("Command received")
		if c.Sender().ID != ownerTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(msgUnauthorized)
		}
		if err := c.Send("Running digest now, this can take a while..."); err != nil {
			handlerLogger.WithError(err).Warn("Failed to send progress message")
		}

		result, err := adminService.ForceDigest(ctx, c.Sender().ID)
		if err != nil {
			return replyError(c, handlerLogger, err, "Forced digest run failed")
		}
		handlerLogger.WithFields(logrus.Fields{"run_id": result.RunID, "sent": result.Sent}).Info("Forced digest run finished")
		return c.Send(formatRunResult(result))
	})

	b.Handle("/force_churn", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{"handler": "/force_churn", "sender_id": c.Sender().ID})
		handlerLogger.Info("Command received")

		result, err := adminService.ForceChurnCheck(ctx, c.Sender().ID)
		if err != nil {
			return replyError(c, handlerLogger, err, "Forced churn check failed")
		}
		return c.Send(formatCheckResult(result))
	})

	b.Handle("/threshold", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{"handler": "/threshold", "sender_id": c.Sender().ID})
		handlerLogger.Info("Command received")

		args := c.Args()
		if len(args) == 0 {
			v, err := adminService.Threshold(c.Sender().ID)
			if err != nil {
				return replyError(c, handlerLogger, err, "Failed to read threshold")
			}
			return c.Send(fmt.Sprintf("Churn threshold: %.1f%%", v))
		}
		if len(args) > 1 {
			return c.Send("Usage: /threshold [percent]")
		}

		requested, err := parseThresholdArg(args[0])
		if err != nil {
			handlerLogger.WithField("arg", args[0]).Warn("Invalid threshold argument")
			return c.Send("Error: threshold must be a number between 0 and 100.")
		}
		applied, err := adminService.SetThreshold(ctx, c.Sender().ID, requested)
		if err != nil {
			return replyError(c, handlerLogger, err, "Failed to set threshold")
		}
		handlerLogger.WithFields(logrus.Fields{"requested": requested, "applied": applied}).Info("Churn threshold updated")
		return c.Send(fmt.Sprintf("Churn threshold set to %.1f%%", applied))
	})
}

func replyError(c telebot.Context, logger *logrus.Entry, err error, msg string) error {
	logWithError := logger.WithError(err)
	if errors.Is(err, app.ErrAdminNotAuthorized) {
		logWithError.Warn("Unauthorized access attempt")
		return c.Send(msgUnauthorized)
	}
	logWithError.Error(msg)
	return c.Send(fmt.Sprintf("%s: %s", msg, err.Error()))
}
