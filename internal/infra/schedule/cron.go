package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one periodic task. The context is cancelled on shutdown.
type Job func(ctx context.Context) error

// Runner executes jobs on cron expressions in the ledger's time zone.
// Overlapping runs of the same job are skipped, not queued.
type Runner struct {
	cron   *cron.Cron
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewRunner(loc *time.Location, logger *slog.Logger) *Runner {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		cron:   cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger}))),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers job under spec, e.g. "0 3 * * *" or "@every 6h".
func (r *Runner) Add(name, spec string, job Job) error {
	_, err := r.cron.AddFunc(spec, func() {
		started := time.Now()
		if err := job(r.ctx); err != nil {
			r.logger.Warn("scheduled job failed", "job", name, "error", err)
			return
		}
		r.logger.Info("scheduled job finished", "job", name, "duration", time.Since(started))
	})
	if err != nil {
		return fmt.Errorf("schedule: %s: %w", name, err)
	}
	return nil
}

// Len reports the number of registered jobs.
func (r *Runner) Len() int {
	return len(r.cron.Entries())
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to return.
func (r *Runner) Run(ctx context.Context) error {
	r.cron.Start()
	<-ctx.Done()
	r.cancel()
	<-r.cron.Stop().Done()
	return ctx.Err()
}

type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
