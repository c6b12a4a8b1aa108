package telegram

import "gopkg.in/telebot.v3"

// Client sends direct Telegram messages. The owner notifier and the admin
// commands go through it so they can be tested without a bot.
type Client interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) error
}
