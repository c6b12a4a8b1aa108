package telegram

import (
	"context"
	"fmt"

	"gopkg.in/telebot.v3"

	domainTelegram "troubadour_scheduler/internal/domain/telegram"
)

// OwnerNotifier delivers alerts to the product owner's private chat.
type OwnerNotifier struct {
	client  domainTelegram.Client
	ownerID int64
}

func NewOwnerNotifier(client domainTelegram.Client, ownerID int64) *OwnerNotifier {
	return &OwnerNotifier{client: client, ownerID: ownerID}
}

func (n *OwnerNotifier) NotifyOwner(ctx context.Context, title, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text := fmt.Sprintf("<b>%s</b>\n\n%s", escapeHTML(title), escapeHTML(content))
	if err := n.client.SendMessage(n.ownerID, text, &telebot.SendOptions{ParseMode: telebot.ModeHTML}); err != nil {
		return fmt.Errorf("failed to notify owner: %w", err)
	}
	return nil
}
