package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"

	"troubadour_scheduler/internal/app"
	"troubadour_scheduler/internal/domain/digest"
	"troubadour_scheduler/internal/domain/retention"
	"troubadour_scheduler/internal/domain/schedule"
)

const ownerID = 42

type stubDigests struct{}

func (stubDigests) ForceRun(ctx context.Context) (*digest.RunResult, error) {
	return &digest.RunResult{RunID: "r1", PeriodKey: "2026-W43", Attempted: 1, Sent: 1}, nil
}

func (stubDigests) Status() schedule.Status {
	return schedule.Status{Name: "digest", Started: true}
}

type stubChurn struct{}

func (stubChurn) ForceRun(ctx context.Context) (*retention.CheckResult, error) {
	return &retention.CheckResult{}, nil
}

func (stubChurn) Exclusive(fn func()) error {
	fn()
	return nil
}

func (stubChurn) Status() schedule.Status {
	return schedule.Status{Name: "churn", Started: true}
}

// newHandlerBot returns a synchronous offline bot whose API calls hit a local
// server. blocked makes every send fail the way Telegram does for a user who
// blocked the bot.
func newHandlerBot(t *testing.T, blocked bool) (*telebot.Bot, *logtest.Hook, *int32) {
	t.Helper()
	var sends int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&sends, 1)
		w.Header().Set("Content-Type", "application/json")
		if blocked {
			_, _ = w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`))
	}))
	t.Cleanup(srv.Close)

	b, err := telebot.NewBot(telebot.Settings{
		Token:       "test-token",
		URL:         srv.URL,
		Offline:     true,
		Synchronous: true,
		OnError:     func(error, telebot.Context) {},
	})
	require.NoError(t, err)

	l, hook := logtest.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)
	logger := logrus.NewEntry(l)
	monitor := app.NewChurnMonitor(nil, nil, nil, nil, retention.NewThreshold(40), time.Second, logger)
	admin := app.NewAdminService(stubDigests{}, stubChurn{}, monitor, nil, ownerID, logger)
	RegisterAdminHandlers(context.Background(), b, admin, ownerID, logger)
	return b, hook, &sends
}

func command(text string) telebot.Update {
	return telebot.Update{Message: &telebot.Message{
		Text:   text,
		Sender: &telebot.User{ID: ownerID},
		Chat:   &telebot.Chat{ID: ownerID, Type: telebot.ChatPrivate},
	}}
}

func messages(hook *logtest.Hook) []string {
	var out []string
	for _, e := range hook.AllEntries() {
		out = append(out, e.Message)
	}
	return out
}

func TestAdminHandlers_EveryCommandLogsReceipt(t *testing.T) {
	for _, cmd := range []string{"/status", "/force_digest", "/force_churn", "/threshold"} {
		t.Run(cmd, func(t *testing.T) {
			b, hook, sends := newHandlerBot(t, false)

			b.ProcessUpdate(command(cmd))

			require.NotEmpty(t, hook.AllEntries())
			first := hook.AllEntries()[0]
			assert.Equal(t, "Command received", first.Message)
			assert.Equal(t, cmd, first.Data["handler"])
			assert.Positive(t, atomic.LoadInt32(sends))
		})
	}
}

func TestAdminHandlers_ProgressSendFailureIsLogged(t *testing.T) {
	b, hook, _ := newHandlerBot(t, true)

	b.ProcessUpdate(command("/force_digest"))

	assert.Contains(t, messages(hook), "Failed to send progress message")
	assert.Contains(t, messages(hook), "Forced digest run finished", "the run still happens")
}
