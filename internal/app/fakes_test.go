package app

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"troubadour_scheduler/internal/domain/digest"
	"troubadour_scheduler/internal/domain/retention"
	"troubadour_scheduler/internal/domain/schedule"
)

var errBoom = errors.New("boom")

func newTestLogger() (*logrus.Entry, *logtest.Hook) {
	l, hook := logtest.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)
	return logrus.NewEntry(l), hook
}

type fakeRecipients struct {
	list []digest.Recipient
	err  error
}

func (f *fakeRecipients) ListEligible(ctx context.Context) ([]digest.Recipient, error) {
	return f.list, f.err
}

type fakeMetrics struct {
	byID   map[int64]digest.MetricsSnapshot
	errs   map[int64]error
	block  map[int64]bool // wait for ctx to expire
	panics map[int64]bool
	calls  []int64
	days   map[int64]int
}

func (f *fakeMetrics) RecipientMetrics(ctx context.Context, id int64, lookbackDays int) (digest.MetricsSnapshot, error) {
	f.calls = append(f.calls, id)
	if f.days == nil {
		f.days = map[int64]int{}
	}
	f.days[id] = lookbackDays
	if f.panics[id] {
		var broken map[string]int
		broken["reviews"]++
	}
	if f.block[id] {
		<-ctx.Done()
		return digest.MetricsSnapshot{}, ctx.Err()
	}
	if err := f.errs[id]; err != nil {
		return digest.MetricsSnapshot{}, err
	}
	return f.byID[id], nil
}

type fakeGenerator struct {
	text  string
	err   error
	calls int
}

func (f *fakeGenerator) GenerateSummary(ctx context.Context, sc digest.SummaryContext) (string, error) {
	f.calls++
	return f.text, f.err
}

type inAppRecord struct {
	recipientID          int64
	title, message, link string
}

type fakeInApp struct {
	records []inAppRecord
	errs    map[int64]error
}

func (f *fakeInApp) WriteInAppRecord(ctx context.Context, recipientID int64, title, message, link string) error {
	if err := f.errs[recipientID]; err != nil {
		return err
	}
	f.records = append(f.records, inAppRecord{recipientID, title, message, link})
	return nil
}

func (f *fakeInApp) recipients() []int64 {
	ids := make([]int64, 0, len(f.records))
	for _, r := range f.records {
		ids = append(ids, r.recipientID)
	}
	return ids
}

type sentEmail struct{ to, subject, body string }

type fakeMailer struct {
	sent []sentEmail
	err  error
}

func (f *fakeMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{to, subject, body})
	return nil
}

type auditEntry struct {
	action  string
	details map[string]any
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []auditEntry
	err     error
}

func (f *fakeAudit) WriteAuditEntry(ctx context.Context, action string, details map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, auditEntry{action, details})
	return nil
}

type fakeRetention struct {
	metrics retention.Metrics
	err     error
}

func (f *fakeRetention) GlobalRetention(ctx context.Context) (retention.Metrics, error) {
	return f.metrics, f.err
}

type fakeOwner struct {
	titles []string
	err    error
	panic  bool
}

func (f *fakeOwner) NotifyOwner(ctx context.Context, title, content string) error {
	if f.panic {
		panic("telegram client not initialised")
	}
	if f.err != nil {
		return f.err
	}
	f.titles = append(f.titles, title)
	return nil
}

type fakeChat struct {
	alerts []retention.ChatAlert
	err    error
}

func (f *fakeChat) SendChatAlert(ctx context.Context, alert retention.ChatAlert) error {
	if f.err != nil {
		return f.err
	}
	f.alerts = append(f.alerts, alert)
	return nil
}

type fakeDigestRunner struct {
	result *digest.RunResult
	err    error
	calls  int
}

func (f *fakeDigestRunner) ForceRun(ctx context.Context) (*digest.RunResult, error) {
	f.calls++
	return f.result, f.err
}

func (f *fakeDigestRunner) Status() schedule.Status {
	return schedule.Status{Name: "digest", Started: true, LastCompleted: "2026-W43", HasCompleted: true}
}

type fakeChurnRunner struct {
	busy  bool
	calls int
}

func (f *fakeChurnRunner) ForceRun(ctx context.Context) (*retention.CheckResult, error) {
	f.calls++
	return &retention.CheckResult{}, nil
}

func (f *fakeChurnRunner) Exclusive(fn func()) error {
	if f.busy {
		return errBoom
	}
	fn()
	return nil
}

func (f *fakeChurnRunner) Status() schedule.Status {
	return schedule.Status{Name: "churn", Started: true}
}
