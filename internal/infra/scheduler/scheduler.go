package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"troubadour_scheduler/internal/domain/schedule"
)

// ErrRunInProgress is returned by ForceRun and Exclusive while another run
// holds the running flag.
var ErrRunInProgress = errors.New("a run is already in progress")

// RunFunc executes one batch. forced is true for ForceRun invocations.
type RunFunc[R any] func(ctx context.Context, now time.Time, key schedule.PeriodKey, forced bool) (R, error)

// trigger is a due scheduled run: the tick time and its period.
type trigger struct {
	now time.Time
	key schedule.PeriodKey
}

// Poller drives a RunFunc on a fixed interval:
// tick -> trigger window? -> dedup guard? -> run -> mark completed, or roll
// back on error so the next tick retries the period.
//
// A single running flag serialises ticks, ForceRun and Exclusive. A due tick
// that finds the flag held by a forced run or an Exclusive section is kept as
// pending and runs as soon as the flag is released.
//
// Runs never see cancellation: the context given to WithContext or ForceRun
// keeps its values only. Stop waits for the in-flight batch instead.
type Poller[R any] struct {
	name       string
	clock      schedule.Clock
	guard      *schedule.Guard
	run        RunFunc[R]
	cronEngine *cron.Cron
	logger     *logrus.Entry
	now        func() time.Time
	baseCtx    context.Context

	mu        sync.Mutex
	started   bool
	stopped   bool
	running   bool
	activeKey schedule.PeriodKey // period of the scheduled run holding the flag
	pending   *trigger
	deferred  sync.WaitGroup
}

type Option func(*options)

type options struct {
	now func() time.Time
	ctx context.Context
}

// WithNow replaces the wall clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithContext sets the context whose values scheduled runs inherit.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

func NewPoller[R any](name string, def schedule.Definition, guard *schedule.Guard, run RunFunc[R], logger *logrus.Entry, opts ...Option) (*Poller[R], error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	o := options{now: time.Now, ctx: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}
	if guard == nil {
		guard = schedule.NewGuard()
	}

	pollerLogger := logger.WithField("scheduler", name)
	p := &Poller[R]{
		name:    name,
		clock:   schedule.NewClock(def),
		guard:   guard,
		run:     run,
		logger:  pollerLogger,
		now:     o.now,
		baseCtx: context.WithoutCancel(o.ctx),
		cronEngine: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cron.PrintfLogger(pollerLogger))),
		),
	}
	p.cronEngine.Schedule(cron.Every(def.PollInterval), cron.FuncJob(p.tick))
	return p, nil
}

// Start begins polling. Calling Start on a started poller only logs a warning.
func (p *Poller[R]) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		p.logger.Warn("Scheduler already started, ignoring Start")
		return
	}
	p.cronEngine.Start()
	p.started = true
	p.stopped = false
	def := p.clock.Definition()
	p.logger.WithFields(logrus.Fields{
		"poll_interval": def.PollInterval.String(),
		"weekday":       def.Weekday.String(),
		"daily":         def.Daily,
		"hour_utc":      def.HourUTC,
		"partition":     def.Partition,
	}).Info("Scheduler started")
}

// Stop clears the timer, drops a pending trigger and waits for the in-flight
// batch to return. The batch itself is not interrupted.
func (p *Poller[R]) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.stopped = true
	p.pending = nil
	ctx := p.cronEngine.Stop()
	p.mu.Unlock()

	<-ctx.Done()
	p.deferred.Wait()
	p.logger.Info("Scheduler stopped")
}

// acquire takes the running flag. When the flag is held and due is a period
// other than the one already running, due is remembered for release and
// deferred is true.
func (p *Poller[R]) acquire(due *trigger) (acquired, deferred bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		p.running = true
		p.activeKey = ""
		if due != nil {
			p.activeKey = due.key
		}
		return true, false
	}
	if due != nil && due.key != p.activeKey {
		p.pending = due
		return false, true
	}
	return false, false
}

// release hands the flag straight to a pending trigger, if one is still due,
// so no other caller can slip in between.
func (p *Poller[R]) release() {
	p.mu.Lock()
	t := p.pending
	p.pending = nil
	if t != nil && !p.stopped && p.guard.ShouldRun(t.key) {
		p.activeKey = t.key
		p.deferred.Add(1)
		p.mu.Unlock()
		go func() {
			defer p.deferred.Done()
			defer p.release()
			p.logger.WithField("period_key", t.key).Info("Running trigger deferred by an earlier run")
			p.runScheduled(*t)
		}()
		return
	}
	p.running = false
	p.activeKey = ""
	p.mu.Unlock()
}

// tick is one poll: Idle -> EvaluatingWindow -> (Running -> MarkCompleted|Rollback) -> Idle.
func (p *Poller[R]) tick() {
	now := p.now().UTC()
	due := p.due(now)
	acquired, deferred := p.acquire(due)
	if !acquired {
		if deferred {
			p.logger.WithField("period_key", due.key).Warn("Run in progress, scheduled run deferred until it finishes")
		} else {
			p.logger.Warn("Previous run still in progress, skipping tick")
		}
		return
	}
	defer p.release()

	if due == nil {
		p.logger.WithField("now", now.Format(time.RFC3339)).Debug("Nothing due")
		return
	}
	p.runScheduled(*due)
}

// due reports the trigger for now, or nil outside the window or when the
// period is already completed.
func (p *Poller[R]) due(now time.Time) *trigger {
	if !p.clock.IsTriggerWindow(now) {
		return nil
	}
	key, ok := p.clock.PeriodKey(now)
	if !ok || !p.guard.ShouldRun(key) {
		return nil
	}
	return &trigger{now: now, key: key}
}

// runScheduled must be called with the running flag held.
func (p *Poller[R]) runScheduled(t trigger) {
	tickLogger := p.logger.WithField("period_key", t.key)
	if !p.guard.ShouldRun(t.key) {
		tickLogger.Debug("Period already completed, skipping")
		return
	}

	tickLogger.Info("Trigger window reached, running")
	if _, err := p.invoke(p.baseCtx, t.now, t.key, false); err != nil {
		tickLogger.WithError(err).Error("Scheduled run failed, will retry on next tick")
		p.guard.Rollback()
		return
	}
	p.guard.MarkCompleted(t.key)
	tickLogger.Info("Scheduled run completed")
}

// invoke calls the RunFunc, turning a panic into an error so the guard can be
// rolled back and a forced caller gets a reply.
func (p *Poller[R]) invoke(ctx context.Context, now time.Time, key schedule.PeriodKey, forced bool) (res R, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.WithFields(logrus.Fields{
				"period_key": key,
				"panic":      rec,
				"stack":      string(debug.Stack()),
			}).Error("Panic in run")
			var zero R
			res, err = zero, fmt.Errorf("run panicked: %v", rec)
		}
	}()
	return p.run(ctx, now, key, forced)
}

// ForceRun runs immediately, bypassing the trigger window and the dedup guard.
// The guard is neither consulted nor updated. Cancelling ctx does not
// interrupt the run.
func (p *Poller[R]) ForceRun(ctx context.Context) (R, error) {
	var zero R
	if acquired, _ := p.acquire(nil); !acquired {
		return zero, ErrRunInProgress
	}
	defer p.release()

	now := p.now().UTC()
	key, _ := p.clock.PeriodKey(now)
	p.logger.WithField("period_key", key).Info("Forced run requested")
	return p.invoke(context.WithoutCancel(ctx), now, key, true)
}

// Exclusive runs fn while holding the running flag, so it never overlaps a
// scheduled or forced run.
func (p *Poller[R]) Exclusive(fn func()) error {
	if acquired, _ := p.acquire(nil); !acquired {
		return ErrRunInProgress
	}
	defer p.release()
	fn()
	return nil
}

func (p *Poller[R]) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller[R]) Status() schedule.Status {
	p.mu.Lock()
	started, running := p.started, p.running
	p.mu.Unlock()
	last, ok := p.guard.LastCompleted()
	return schedule.Status{
		Name:          p.name,
		Started:       started,
		Running:       running,
		LastCompleted: last,
		HasCompleted:  ok,
	}
}
