package discord

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"troubadour_scheduler/internal/domain/retention"
)

const (
	webhookUsername = "Troubadour Monitor"
	alertColor      = 0xE74C3C
)

var ErrInvalidWebhookURL = errors.New("invalid discord webhook url")

type webhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// WebhookAlerter posts churn alerts to a Discord channel webhook.
type WebhookAlerter struct {
	session   webhookExecutor
	webhookID string
	token     string
}

// NewWebhookAlerter parses a URL of the form
// https://discord.com/api/webhooks/{id}/{token}.
func NewWebhookAlerter(webhookURL string) (*WebhookAlerter, error) {
	id, token, err := parseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}
	// Webhook execution is authenticated by the token in the URL, no bot token needed.
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return &WebhookAlerter{session: session, webhookID: id, token: token}, nil
}

func parseWebhookURL(raw string) (id, token string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidWebhookURL, err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", fmt.Errorf("%w: %q", ErrInvalidWebhookURL, raw)
}

func (a *WebhookAlerter) SendChatAlert(ctx context.Context, alert retention.ChatAlert) error {
	params := &discordgo.WebhookParams{
		Username: webhookUsername,
		Embeds:   []*discordgo.MessageEmbed{buildEmbed(alert, time.Now())},
	}
	if _, err := a.session.WebhookExecute(a.webhookID, a.token, false, params, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to post discord alert: %w", err)
	}
	return nil
}

func buildEmbed(alert retention.ChatAlert, at time.Time) *discordgo.MessageEmbed {
	m := alert.Metrics
	return &discordgo.MessageEmbed{
		Title:       alert.Title,
		Description: alert.Message,
		Color:       alertColor,
		Timestamp:   at.UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Retention", Value: fmt.Sprintf("%.1f%%", m.RetentionRate), Inline: true},
			{Name: "Threshold", Value: fmt.Sprintf("%.1f%%", alert.Limit), Inline: true},
			{Name: "Active / Total", Value: fmt.Sprintf("%d / %d", m.ActiveUsers, m.TotalUsers), Inline: true},
		},
	}
}
