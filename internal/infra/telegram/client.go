// internal/infra/telegram/client.go
package telegram

import (
	"fmt"

	"gopkg.in/telebot.v3"
)

// TelebotAdapter sends owner alerts and admin replies through telebot.v3.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage delivers text to a private chat. Link previews are off unless
// the caller asks otherwise; alert bodies carry dashboard URLs.
func (a *TelebotAdapter) SendMessage(chatID int64, text string, options *telebot.SendOptions) error {
	opts := sendOptions(options)
	if _, err := a.bot.Send(&telebot.User{ID: chatID}, text, opts); err != nil {
		return fmt.Errorf("telegram send to chat %d: %w", chatID, err)
	}
	return nil
}

func sendOptions(options *telebot.SendOptions) *telebot.SendOptions {
	if options == nil {
		return &telebot.SendOptions{DisableWebPagePreview: true}
	}
	return options
}
