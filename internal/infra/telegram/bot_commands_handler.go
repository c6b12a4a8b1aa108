// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterBotCommands registers /start and /help.
func RegisterBotCommands(b *telebot.Bot, ownerTelegramID int64, baseLogger *logrus.Entry) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		startHelpLogger.WithField("command", "/start").WithField("sender_id", senderID).Info("Processing /start command")

		if senderID == ownerTelegramID {
			return c.Send(fmt.Sprintf("Hi %s! Digest and churn schedulers are under your control. Use /help to list commands.", c.Sender().FirstName))
		}
		return c.Send("This bot is for Troubadour operators only.")
	})

	b.Handle("/help", func(c telebot.Context) error {
		if c.Sender().ID != ownerTelegramID {
			return c.Send("No commands are available to you.")
		}
		return c.Send(helpText(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})
}

func helpText() string {
	var helpText strings.Builder
	helpText.WriteString("Operator commands:\n\n")
	helpText.WriteString("`/status`\n - Show scheduler state and the last completed periods.\n\n")
	helpText.WriteString("`/force_digest`\n - Run the digest batch now, ignoring the trigger window and dedup.\n\n")
	helpText.WriteString("`/force_churn`\n - Run the churn check now.\n\n")
	helpText.WriteString("`/threshold [percent]`\n - Show or set the churn alert threshold (clamped to 0-100).\n\n")
	helpText.WriteString("`/help`\n - Show this message.")
	return helpText.String()
}
