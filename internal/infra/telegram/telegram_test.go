package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"

	"troubadour_scheduler/internal/domain/digest"
	"troubadour_scheduler/internal/domain/retention"
	"troubadour_scheduler/internal/domain/schedule"
)

type sentMessage struct {
	chatID int64
	text   string
	opts   *telebot.SendOptions
}

type fakeClient struct {
	sent []sentMessage
	err  error
}

func (f *fakeClient) SendMessage(chatID int64, text string, options *telebot.SendOptions) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{chatID, text, options})
	return nil
}

func TestOwnerNotifier(t *testing.T) {
	client := &fakeClient{}
	n := NewOwnerNotifier(client, 4242)

	require.NoError(t, n.NotifyOwner(context.Background(), "Churn alert", "Retention <30%"))
	require.Len(t, client.sent, 1)
	assert.Equal(t, int64(4242), client.sent[0].chatID)
	assert.Equal(t, "<b>Churn alert</b>\n\nRetention &lt;30%", client.sent[0].text)
	assert.Equal(t, telebot.ModeHTML, client.sent[0].opts.ParseMode)
}

func TestOwnerNotifier_Errors(t *testing.T) {
	client := &fakeClient{err: errors.New("forbidden")}
	n := NewOwnerNotifier(client, 4242)
	assert.ErrorContains(t, n.NotifyOwner(context.Background(), "t", "c"), "forbidden")

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	assert.ErrorIs(t, NewOwnerNotifier(&fakeClient{}, 1).NotifyOwner(ctx, "t", "c"), context.DeadlineExceeded)
}

func TestFormatRunResult(t *testing.T) {
	got := formatRunResult(&digest.RunResult{
		RunID: "r1", PeriodKey: "2026-W43", Attempted: 5, Sent: 2, SkippedNoActivity: 1, SkippedCadence: 1, Failed: 1,
	})
	assert.Equal(t, "Digest run r1 (period 2026-W43)\nAttempted: 5\nSent: 2\nSkipped (no activity): 1\nSkipped (cadence): 1\nFailed: 1", got)
}

func TestFormatCheckResult(t *testing.T) {
	got := formatCheckResult(&retention.CheckResult{
		Breached:  true,
		Threshold: 40,
		Metrics:   retention.Metrics{RetentionRate: 25, ActiveUsers: 1, InactiveUsers: 3, TotalUsers: 4, AvgDaysSinceLogin: 9},
	})
	assert.Contains(t, got, "Retention BELOW THRESHOLD: 25.0% (threshold 40.0%)")
	assert.Contains(t, got, "Active: 1, inactive: 3, total: 4")
}

func TestFormatStatus(t *testing.T) {
	got := formatStatus([]schedule.Status{
		{Name: "digest", Started: true, LastCompleted: "2026-W43", HasCompleted: true},
		{Name: "churn", Started: true, Running: true},
	})
	assert.Equal(t, "digest: idle, last completed period: 2026-W43\nchurn: running, last completed period: never", got)
}

func TestParseThresholdArg(t *testing.T) {
	v, err := parseThresholdArg("55%")
	require.NoError(t, err)
	assert.Equal(t, 55.0, v)

	v, err = parseThresholdArg("120")
	require.NoError(t, err)
	assert.Equal(t, 120.0, v, "clamping happens in the service")

	_, err = parseThresholdArg("lots")
	assert.Error(t, err)
}

func TestSendOptions(t *testing.T) {
	assert.True(t, sendOptions(nil).DisableWebPagePreview)

	html := &telebot.SendOptions{ParseMode: telebot.ModeHTML}
	assert.Same(t, html, sendOptions(html))
}
