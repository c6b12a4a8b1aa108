package scheduler

import (
	"time"

	"github.com/sirupsen/logrus"

	"troubadour_scheduler/internal/app"
	"troubadour_scheduler/internal/domain/digest"
	"troubadour_scheduler/internal/domain/retention"
	"troubadour_scheduler/internal/domain/schedule"
)

type (
	DigestScheduler = Poller[*digest.RunResult]
	ChurnScheduler  = Poller[*retention.CheckResult]
)

// DigestDefinition triggers once a week on weekday at hourUTC. Monthly and
// biweekly recipients are selected inside the weekly run.
func DigestDefinition(weekday time.Weekday, hourUTC int, poll time.Duration) schedule.Definition {
	return schedule.Definition{PollInterval: poll, Weekday: weekday, HourUTC: hourUTC, Partition: schedule.PartitionWeekly}
}

// ChurnDefinition triggers every day at hourUTC.
func ChurnDefinition(hourUTC int, poll time.Duration) schedule.Definition {
	return schedule.Definition{PollInterval: poll, Daily: true, HourUTC: hourUTC, Partition: schedule.PartitionDaily}
}

// NewDigestScheduler shares guard with svc, which uses it as its delivery ledger.
func NewDigestScheduler(svc *app.DigestService, guard *schedule.Guard, def schedule.Definition, logger *logrus.Entry, opts ...Option) (*DigestScheduler, error) {
	return NewPoller[*digest.RunResult]("digest", def, guard, svc.Run, logger, opts...)
}

func NewChurnScheduler(monitor *app.ChurnMonitor, def schedule.Definition, logger *logrus.Entry, opts ...Option) (*ChurnScheduler, error) {
	return NewPoller[*retention.CheckResult]("churn", def, schedule.NewGuard(), monitor.Run, logger, opts...)
}
